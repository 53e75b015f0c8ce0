package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/corefit/studio-booking/internal/model"
)

// ScheduleRepo provides data access to scheduled classes.  Schedules
// are created by staff scheduling; the booking core reads them and
// locks the row during booking creation so concurrent seat decisions
// for the same class serialize.
type ScheduleRepo struct {
	db *sql.DB
}

// NewScheduleRepo returns a new ScheduleRepo bound to the given database.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

const scheduleColumns = `id, title, trainer_id, type, date, start_time, end_time,
       capacity, min_signup, booking_deadline_hour, cancel_buffer_minutes,
       waitlist_lock_minutes, created_at, updated_at`

func scanSchedule(row interface{ Scan(...interface{}) error }) (model.Schedule, error) {
	var s model.Schedule
	err := row.Scan(
		&s.ID, &s.Title, &s.TrainerID, &s.Type, &s.Date, &s.StartTime, &s.EndTime,
		&s.Capacity, &s.MinSignup, &s.BookingDeadlineHour, &s.CancelBufferMin,
		&s.WaitlistLockMin, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

// GetByID loads a single schedule.  It returns ErrScheduleNotFound
// when no row exists for the ID.
func (r *ScheduleRepo) GetByID(ctx context.Context, scheduleID uint64) (*model.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = ?`
	s, err := scanSchedule(r.db.QueryRowContext(ctx, query, scheduleID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScheduleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetForUpdateTx loads a schedule inside an existing transaction with
// the row locked FOR UPDATE.  Booking creation and cancellation lock
// the schedule first so the seat count they read cannot change before
// they commit.
func (r *ScheduleRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, scheduleID uint64) (*model.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = ? FOR UPDATE`
	s, err := scanSchedule(tx.QueryRowContext(ctx, query, scheduleID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScheduleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByDate returns all schedules on the given calendar day ordered
// by start time.  The date is compared by day in UTC.
func (r *ScheduleRepo) ListByDate(ctx context.Context, day time.Time) ([]model.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules
              WHERE date = ?
              ORDER BY start_time, id`
	rows, err := r.db.QueryContext(ctx, query, day.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	schedules := make([]model.Schedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return schedules, nil
}

// Create inserts a new schedule and populates its generated ID and
// timestamps.  Only staff scheduling calls this.
func (r *ScheduleRepo) Create(ctx context.Context, s *model.Schedule) error {
	const q = `INSERT INTO schedules
               (title, trainer_id, type, date, start_time, end_time,
                capacity, min_signup, booking_deadline_hour,
                cancel_buffer_minutes, waitlist_lock_minutes)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q,
		s.Title, s.TrainerID, s.Type, s.Date.UTC().Format("2006-01-02"),
		s.StartTime, s.EndTime, s.Capacity, s.MinSignup,
		s.BookingDeadlineHour, s.CancelBufferMin, s.WaitlistLockMin,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM schedules WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, s.ID).Scan(&s.CreatedAt, &s.UpdatedAt)
}
