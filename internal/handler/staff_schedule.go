package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/corefit/studio-booking/internal/booking"
	"github.com/corefit/studio-booking/internal/model"
)

// CreateSchedule handles POST /v1/admin/schedules.  It creates one
// scheduled class.  Capacity must be positive; the class type decides
// which entitlement bucket bookings will debit.
func (h *StaffHandler) CreateSchedule(c echo.Context) error {
	var body struct {
		Title               string `json:"title"`
		Type                string `json:"type"`
		Date                string `json:"date"`
		StartTime           string `json:"start_time"`
		EndTime             string `json:"end_time"`
		Capacity            int    `json:"capacity"`
		MinSignup           int    `json:"min_signup"`
		BookingDeadlineHour int    `json:"booking_deadline_hour"`
		CancelBufferMin     int    `json:"cancel_buffer_min"`
		WaitlistLockMin     int    `json:"waitlist_lock_min"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	classType := model.ClassType(body.Type)
	if !classType.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class type"})
	}
	date, err := time.ParseInLocation("2006-01-02", body.Date, time.UTC)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}
	if !validClockTime(body.StartTime) || !validClockTime(body.EndTime) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid time, expected HH:MM"})
	}
	if body.Capacity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be positive"})
	}
	if body.MinSignup < 0 || body.BookingDeadlineHour < 0 || body.CancelBufferMin < 0 || body.WaitlistLockMin < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "thresholds must not be negative"})
	}

	sched := &model.Schedule{
		Title:               title,
		Type:                classType,
		Date:                date,
		StartTime:           body.StartTime,
		EndTime:             body.EndTime,
		Capacity:            body.Capacity,
		MinSignup:           body.MinSignup,
		BookingDeadlineHour: body.BookingDeadlineHour,
		CancelBufferMin:     body.CancelBufferMin,
		WaitlistLockMin:     body.WaitlistLockMin,
	}
	if err := h.ScheduleRepo.Create(c.Request().Context(), sched); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create schedule"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"schedule_id": sched.ID,
		"bucket":      string(sched.Bucket()),
	})
}

// dashboardRow is one schedule in the staff daily dashboard.
type dashboardRow struct {
	ScheduleID     uint64 `json:"schedule_id"`
	Title          string `json:"title"`
	Type           string `json:"type"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Capacity       int    `json:"capacity"`
	MinSignup      int    `json:"min_signup"`
	SignupCount    int    `json:"signup_count"`
	AvailableSlots int    `json:"available_slots"`
	AtRisk         bool   `json:"at_risk"`
}

// Dashboard handles GET /v1/admin/schedules?date=YYYY-MM-DD.  It lists
// every schedule on the date with its signup count and flags classes
// still under their minimum signup threshold.  The flag is advisory;
// nothing cancels an under-subscribed class automatically.
func (h *StaffHandler) Dashboard(c echo.Context) error {
	day, err := parseDateQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx := c.Request().Context()
	schedules, err := h.ScheduleRepo.ListByDate(ctx, day)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load schedules"})
	}
	counts, err := h.BookingRepo.SignupCountsByDate(ctx, day.Format("2006-01-02"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load signup counts"})
	}
	rows := make([]dashboardRow, 0, len(schedules))
	for _, s := range schedules {
		count := counts[s.ID]
		rows = append(rows, dashboardRow{
			ScheduleID:     s.ID,
			Title:          s.Title,
			Type:           string(s.Type),
			StartTime:      s.StartTime,
			EndTime:        s.EndTime,
			Capacity:       s.Capacity,
			MinSignup:      s.MinSignup,
			SignupCount:    count,
			AvailableSlots: booking.AvailableSlots(s, count),
			AtRisk:         booking.AtRisk(s, count),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":  day.Format("2006-01-02"),
		"items": rows,
	})
}

// validClockTime accepts HH:MM wall-clock strings.
func validClockTime(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}
