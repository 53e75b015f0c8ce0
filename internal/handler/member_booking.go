package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/corefit/studio-booking/internal/booking"
	"github.com/corefit/studio-booking/internal/model"
	"github.com/corefit/studio-booking/internal/queue"
	"github.com/corefit/studio-booking/internal/repository"
	queuepublisher "github.com/corefit/studio-booking/internal/service"
)

// MemberHandler serves the member-facing booking endpoints.  All
// methods assume JWT authentication and the MEMBER role have already
// been enforced by middleware; the business rules themselves live in
// the booking service.
type MemberHandler struct {
	Svc          *booking.Service
	BookingRepo  *repository.BookingRepo
	ScheduleRepo *repository.ScheduleRepo
}

// NewMemberHandler constructs a MemberHandler.  All dependencies must
// be non-nil.
func NewMemberHandler(svc *booking.Service, bookingRepo *repository.BookingRepo, scheduleRepo *repository.ScheduleRepo) *MemberHandler {
	if svc == nil || bookingRepo == nil || scheduleRepo == nil {
		panic("nil dependency passed to NewMemberHandler")
	}
	return &MemberHandler{Svc: svc, BookingRepo: bookingRepo, ScheduleRepo: scheduleRepo}
}

// CreateBooking handles POST /v1/bookings.  The body carries the
// schedule to book; the grant to debit and the signup/waitlist
// decision are made by the service.  Returns 201 with the booking on
// success, 409 when the entitlement is exhausted, the booking deadline
// has passed or the member is already booked, and 503 when lock
// contention exhausted its retries.
func (h *MemberHandler) CreateBooking(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		ScheduleID uint64 `json:"schedule_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ScheduleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "schedule_id is required"})
	}
	ctx := c.Request().Context()
	b, err := h.Svc.CreateBooking(ctx, memberID, body.ScheduleID)
	if err != nil {
		return writeError(c, err)
	}
	h.publishEvent(c, "created", b, false)
	return c.JSON(http.StatusCreated, echo.Map{
		"booking_id":  b.ID,
		"booking_ref": b.Ref,
		"schedule_id": b.ScheduleID,
		"status":      string(b.Status),
		"grant_id":    b.GrantID,
	})
}

// CancelBooking handles DELETE /v1/bookings/:id.  Members may only
// cancel their own bookings and only outside the cancel buffer.
// Cancelling an already-cancelled booking succeeds without effect.
func (h *MemberHandler) CancelBooking(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx := c.Request().Context()
	b, err := h.Svc.CancelBooking(ctx, bookingID, booking.Actor{MemberID: memberID})
	if err != nil {
		return writeError(c, err)
	}
	h.publishEvent(c, "cancelled", b, false)
	return c.JSON(http.StatusOK, echo.Map{
		"booking_id": b.ID,
		"status":     string(b.Status),
	})
}

// ListBookings handles GET /v1/my-bookings.  It returns the member's
// bookings with schedule details, newest first.  When no bookings
// exist it returns an empty array.
func (h *MemberHandler) ListBookings(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.BookingRepo.ListByMember(c.Request().Context(), memberID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// publishEvent emits a queue event for a booking state change.  Event
// delivery is best effort; a broker outage never fails the request.
func (h *MemberHandler) publishEvent(c echo.Context, action string, b *model.Booking, staff bool) {
	publishBookingEvent(c, h.ScheduleRepo, action, b, staff)
}

func publishBookingEvent(c echo.Context, schedules *repository.ScheduleRepo, action string, b *model.Booking, staff bool) {
	ctx := c.Request().Context()
	ev := queue.BookingEvent{
		Action:     action,
		BookingID:  b.ID,
		BookingRef: b.Ref,
		MemberID:   b.MemberID,
		ScheduleID: b.ScheduleID,
		Status:     string(b.Status),
		GrantID:    b.GrantID,
		ActorStaff: staff,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if sched, err := schedules.GetByID(ctx, b.ScheduleID); err == nil {
		ev.ClassTitle = sched.Title
		ev.ClassType = string(sched.Type)
		ev.Date = sched.Date.UTC().Format("2006-01-02")
		ev.StartTime = sched.StartTime
	}
	_ = queuepublisher.PublishBookingEvent(ctx, ev)
}
