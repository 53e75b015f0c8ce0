package router

import (
	"github.com/labstack/echo/v4"

	"github.com/corefit/studio-booking/internal/handler"
	"github.com/corefit/studio-booking/internal/middleware"
)

// RegisterStaff registers the staff endpoints under /v1/admin.  All
// routes require a valid JWT carrying the STAFF role.  Staff manage the
// class schedule, monitor the daily dashboard, issue entitlement
// grants, cancel any booking without buffer restrictions, and record
// attendance.
func RegisterStaff(e *echo.Echo, h *handler.StaffHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleStaff),
	)
	g.POST("/schedules", h.CreateSchedule)
	g.GET("/schedules", h.Dashboard)
	g.GET("/packages", h.ListPackages)
	g.POST("/members/:id/grants", h.IssueGrant)
	g.DELETE("/bookings/:id", h.AdminCancelBooking)
	g.PATCH("/bookings/:id/attendance", h.SetAttendance)
}
