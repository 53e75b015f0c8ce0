package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/corefit/studio-booking/internal/booking"
)

// AvailabilityHandler serves the member read views: daily availability
// and the entitlement summary.
type AvailabilityHandler struct {
	Svc *booking.Service
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(svc *booking.Service) *AvailabilityHandler {
	if svc == nil {
		panic("nil service passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{Svc: svc}
}

// GetAvailability handles GET /v1/availability?date=YYYY-MM-DD.  The
// response lists every schedule on the date together with the member's
// remaining per-bucket entitlement, the grant that would be debited,
// and whether a booking attempt can be made.
func (h *AvailabilityHandler) GetAvailability(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	day, err := parseDateQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	av, err := h.Svc.GetAvailability(c.Request().Context(), memberID, day)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, av)
}

// GetEntitlements handles GET /v1/entitlements.  Counters are
// materialized from the booking ledger before the summary is built, so
// the response never shows stale usage.
func (h *AvailabilityHandler) GetEntitlements(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sum, err := h.Svc.GetEntitlementSummary(c.Request().Context(), memberID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, sum)
}
