package handler

import (
	"github.com/corefit/studio-booking/internal/booking"
	"github.com/corefit/studio-booking/internal/clock"
	"github.com/corefit/studio-booking/internal/repository"
)

// StaffHandler bundles the dependencies of the staff endpoints:
// schedule management, the daily dashboard, grant issuance and
// administrative booking operations.  Role middleware guarantees every
// caller holds the STAFF role before any method runs.
type StaffHandler struct {
	Svc          *booking.Service
	MemberRepo   *repository.MemberRepo
	PackageRepo  *repository.PackageRepo
	OrderRepo    *repository.OrderRepo
	GrantRepo    *repository.GrantRepo
	ScheduleRepo *repository.ScheduleRepo
	BookingRepo  *repository.BookingRepo
	Clock        clock.Clock
}

// NewStaffHandler constructs a StaffHandler and panics if any
// dependency is nil.
func NewStaffHandler(svc *booking.Service, memberRepo *repository.MemberRepo, packageRepo *repository.PackageRepo, orderRepo *repository.OrderRepo, grantRepo *repository.GrantRepo, scheduleRepo *repository.ScheduleRepo, bookingRepo *repository.BookingRepo, clk clock.Clock) *StaffHandler {
	if svc == nil || memberRepo == nil || packageRepo == nil || orderRepo == nil || grantRepo == nil || scheduleRepo == nil || bookingRepo == nil || clk == nil {
		panic("nil dependency passed to NewStaffHandler")
	}
	return &StaffHandler{
		Svc:          svc,
		MemberRepo:   memberRepo,
		PackageRepo:  packageRepo,
		OrderRepo:    orderRepo,
		GrantRepo:    grantRepo,
		ScheduleRepo: scheduleRepo,
		BookingRepo:  bookingRepo,
		Clock:        clk,
	}
}
