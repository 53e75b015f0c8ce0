package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/corefit/studio-booking/internal/model"
)

// BookingRepo provides data access to bookings.  Bookings are the
// source of truth the session ledger materializes grant counters from,
// so status values are mutated only through the guarded transitions
// defined here.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, ref, member_id, schedule_id, grant_id, status, attendance,
       created_at, updated_at`

func scanBooking(row interface{ Scan(...interface{}) error }) (model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID, &b.Ref, &b.MemberID, &b.ScheduleID, &b.GrantID,
		&b.Status, &b.Attendance, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

// CreateTx inserts a new booking within an existing transaction and
// populates the generated ID and timestamps.  The caller must have
// made the seat decision and debited a grant in the same transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (ref, member_id, schedule_id, grant_id, status, attendance)
               VALUES (?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		b.Ref, b.MemberID, b.ScheduleID, b.GrantID, b.Status, b.Attendance,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// GetByID loads a single booking.  It returns ErrBookingNotFound when
// no row exists for the ID.
func (r *BookingRepo) GetByID(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetForUpdateTx loads a booking inside an existing transaction with
// the row locked FOR UPDATE.  Cancellation locks the booking before
// transitioning it so two concurrent cancels serialize.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? FOR UPDATE`
	b, err := scanBooking(tx.QueryRowContext(ctx, query, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// HasActiveTx reports whether the member already has a booking with an
// active status (signup or waiting_list) for the schedule.  Executed
// inside the booking-create transaction after the schedule row is
// locked, so concurrent duplicates for the same schedule cannot both
// pass.
func (r *BookingRepo) HasActiveTx(ctx context.Context, tx *sql.Tx, memberID, scheduleID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM bookings
               WHERE member_id = ? AND schedule_id = ? AND status IN (?, ?)`
	var n int
	err := tx.QueryRowContext(ctx, q, memberID, scheduleID,
		model.StatusSignup, model.StatusWaitingList).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountSignupsTx counts bookings with status signup for the schedule
// within an existing transaction.  This is the seat-decision input and
// must run after the schedule row is locked.
func (r *BookingRepo) CountSignupsTx(ctx context.Context, tx *sql.Tx, scheduleID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM bookings WHERE schedule_id = ? AND status = ?`
	var n int
	err := tx.QueryRowContext(ctx, q, scheduleID, model.StatusSignup).Scan(&n)
	return n, err
}

// SignupCountsByDate returns the signup count per schedule for every
// schedule on the given day.  Availability and the staff dashboard use
// it to compute available slots and at-risk flags in one query instead
// of one count per schedule.
func (r *BookingRepo) SignupCountsByDate(ctx context.Context, day string) (map[uint64]int, error) {
	const q = `SELECT b.schedule_id, COUNT(*)
               FROM bookings b
               JOIN schedules s ON s.id = b.schedule_id
               WHERE s.date = ? AND b.status = ?
               GROUP BY b.schedule_id`
	rows, err := r.db.QueryContext(ctx, q, day, model.StatusSignup)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[uint64]int)
	for rows.Next() {
		var sid uint64
		var n int
		if err := rows.Scan(&sid, &n); err != nil {
			return nil, err
		}
		counts[sid] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// ActiveScheduleIDs returns the schedules on the given day for which
// the member holds an active booking, mapped to that booking's status.
func (r *BookingRepo) ActiveScheduleIDs(ctx context.Context, memberID uint64, day string) (map[uint64]model.BookingStatus, error) {
	const q = `SELECT b.schedule_id, b.status
               FROM bookings b
               JOIN schedules s ON s.id = b.schedule_id
               WHERE b.member_id = ? AND s.date = ? AND b.status IN (?, ?)`
	rows, err := r.db.QueryContext(ctx, q, memberID, day,
		model.StatusSignup, model.StatusWaitingList)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uint64]model.BookingStatus)
	for rows.Next() {
		var sid uint64
		var status model.BookingStatus
		if err := rows.Scan(&sid, &status); err != nil {
			return nil, err
		}
		out[sid] = status
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ActiveUsageByMemberTx recomputes, for every grant the member owns,
// how many active bookings debit each bucket.  This is the read half
// of the session ledger's materialize step: bookings joined to their
// schedule's type, bucketed by the type-to-bucket mapping.  Grants
// with no active bookings are absent from the result and read as
// zero.  Runs inside the materialize transaction, after ListAllTx has
// locked the member's grant rows.
func (r *BookingRepo) ActiveUsageByMemberTx(ctx context.Context, tx *sql.Tx, memberID uint64) (map[uint64]model.BucketCounts, error) {
	const q = `SELECT b.grant_id, s.type, COUNT(*)
               FROM bookings b
               JOIN schedules s ON s.id = b.schedule_id
               WHERE b.member_id = ? AND b.status IN (?, ?)
               GROUP BY b.grant_id, s.type`
	rows, err := tx.QueryContext(ctx, q, memberID,
		model.StatusSignup, model.StatusWaitingList)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	usage := make(map[uint64]model.BucketCounts)
	for rows.Next() {
		var grantID uint64
		var classType model.ClassType
		var n int
		if err := rows.Scan(&grantID, &classType, &n); err != nil {
			return nil, err
		}
		counts := usage[grantID]
		counts.Add(model.BucketFor(classType), n)
		usage[grantID] = counts
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return usage, nil
}

// CancelTx transitions a booking from an active status to cancelled.
// The guarded WHERE clause makes the transition one-shot: it returns
// true only for the single caller that flips the status, so the grant
// credit tied to it can never be applied twice.
func (r *BookingRepo) CancelTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (bool, error) {
	const q = `UPDATE bookings SET status = ?
               WHERE id = ? AND status IN (?, ?)`
	result, err := tx.ExecContext(ctx, q, model.StatusCancelled, bookingID,
		model.StatusSignup, model.StatusWaitingList)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SetAttendance updates the post-hoc attendance flag on a booking.  It
// returns ErrBookingNotFound when no row exists for the ID.
func (r *BookingRepo) SetAttendance(ctx context.Context, bookingID uint64, a model.Attendance) error {
	const q = `UPDATE bookings SET attendance = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q, a, bookingID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	// RowsAffected is zero both for a missing row and for an unchanged
	// value, so confirm existence before reporting not found.
	if n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE id = ?`, bookingID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrBookingNotFound
		}
	}
	return nil
}

// BookingDetail is a booking joined with its schedule for member
// history views.
type BookingDetail struct {
	ID         uint64              `json:"id"`
	Ref        string              `json:"ref"`
	ScheduleID uint64              `json:"schedule_id"`
	Title      string              `json:"title"`
	Type       model.ClassType     `json:"type"`
	Date       string              `json:"date"`
	StartTime  string              `json:"start_time"`
	EndTime    string              `json:"end_time"`
	Status     model.BookingStatus `json:"status"`
	Attendance model.Attendance    `json:"attendance"`
}

// ListByMember returns the member's bookings with schedule details,
// newest first.
func (r *BookingRepo) ListByMember(ctx context.Context, memberID uint64) ([]BookingDetail, error) {
	const q = `SELECT b.id, b.ref, b.schedule_id, s.title, s.type,
                      s.date, s.start_time, s.end_time, b.status, b.attendance
               FROM bookings b
               JOIN schedules s ON s.id = b.schedule_id
               WHERE b.member_id = ?
               ORDER BY b.created_at DESC, b.id DESC`
	rows, err := r.db.QueryContext(ctx, q, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]BookingDetail, 0)
	for rows.Next() {
		var d BookingDetail
		var date sql.NullTime
		if err := rows.Scan(
			&d.ID, &d.Ref, &d.ScheduleID, &d.Title, &d.Type,
			&date, &d.StartTime, &d.EndTime, &d.Status, &d.Attendance,
		); err != nil {
			return nil, err
		}
		if date.Valid {
			d.Date = date.Time.UTC().Format("2006-01-02")
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}
