package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/corefit/studio-booking/internal/booking"
	"github.com/corefit/studio-booking/internal/repository"
)

// getMemberID extracts the member_id from echo.Context and converts it
// to uint64.  The identity middleware stores the JWT subject under
// this key; tokens minted by different issuers surface it with
// different dynamic types, hence the switch.
func getMemberID(c echo.Context) (uint64, error) {
	v := c.Get("member_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid member_id in context")
}

// parseIDParam parses a positive numeric path parameter.
func parseIDParam(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// parseDateQuery parses the required ?date=YYYY-MM-DD query parameter.
func parseDateQuery(c echo.Context) (time.Time, error) {
	raw := c.QueryParam("date")
	if raw == "" {
		return time.Time{}, booking.ErrInvalidDate
	}
	day, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return time.Time{}, booking.ErrInvalidDate
	}
	return day, nil
}

// writeError maps engine and repository errors onto the HTTP status
// codes of the booking API.  Unrecognized errors become 500 so a
// database failure is never mistaken for a business rejection.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, booking.ErrEntitlementExhausted),
		errors.Is(err, booking.ErrAlreadyBooked),
		errors.Is(err, booking.ErrBookingDeadlinePassed),
		errors.Is(err, booking.ErrCancelWindowClosed):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrInvalidDate):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrMemberNotFound),
		errors.Is(err, repository.ErrPackageNotFound),
		errors.Is(err, repository.ErrGrantNotFound),
		errors.Is(err, repository.ErrScheduleNotFound),
		errors.Is(err, repository.ErrBookingNotFound),
		errors.Is(err, repository.ErrOrderNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
