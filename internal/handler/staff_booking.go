package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/corefit/studio-booking/internal/booking"
	"github.com/corefit/studio-booking/internal/model"
	"github.com/corefit/studio-booking/internal/repository"
)

// AdminCancelBooking handles DELETE /v1/admin/bookings/:id.  Staff
// cancellation bypasses the cancel buffer and ownership check; the
// session still returns to the grant it was debited from.
func (h *StaffHandler) AdminCancelBooking(c echo.Context) error {
	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Svc.CancelBooking(c.Request().Context(), bookingID, booking.Actor{Staff: true})
	if err != nil {
		return writeError(c, err)
	}
	publishBookingEvent(c, h.ScheduleRepo, "cancelled", b, true)
	return c.JSON(http.StatusOK, echo.Map{
		"booking_id": b.ID,
		"status":     string(b.Status),
	})
}

// SetAttendance handles PATCH /v1/admin/bookings/:id/attendance.
// Attendance is bookkeeping only: marking a member absent does not
// cancel the booking or credit the session back.
func (h *StaffHandler) SetAttendance(c echo.Context) error {
	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var body struct {
		Attendance string `json:"attendance"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	attendance := model.Attendance(body.Attendance)
	if !attendance.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid attendance value"})
	}
	if err := h.BookingRepo.SetAttendance(c.Request().Context(), bookingID, attendance); err != nil {
		if err == repository.ErrBookingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update attendance"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking_id": bookingID,
		"attendance": string(attendance),
	})
}
