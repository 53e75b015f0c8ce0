package router

import (
	"github.com/labstack/echo/v4"

	"github.com/corefit/studio-booking/internal/handler"
	"github.com/corefit/studio-booking/internal/middleware"
)

// RegisterMember registers member-scoped endpoints under /v1.  All
// routes require a valid JWT and the MEMBER role.  Members can view
// daily availability and their entitlement summary, book and cancel
// classes, and list their own bookings.  The response cache middleware
// is applied to the two read views only; booking mutations must always
// hit the database.
func RegisterMember(e *echo.Echo, m *handler.MemberHandler, a *handler.AvailabilityHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleMember, middleware.RoleStaff),
	)
	g.GET("/availability", a.GetAvailability, cache)
	g.GET("/entitlements", a.GetEntitlements, cache)
	g.POST("/bookings", m.CreateBooking)
	g.DELETE("/bookings/:id", m.CancelBooking)
	g.GET("/my-bookings", m.ListBookings)
}
