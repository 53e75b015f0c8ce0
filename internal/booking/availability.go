package booking

import (
	"context"
	"time"

	"github.com/corefit/studio-booking/internal/model"
	"github.com/corefit/studio-booking/internal/repository"
)

// Availability answers "what can I book and with what entitlement" for
// one member and one date.  It is a pure read: counters are
// materialized first, then grants, schedules and signup counts are
// composed without mutating anything.
type Availability struct {
	Date      string             `json:"date"`
	Remaining model.BucketCounts `json:"remaining"`
	Schedules []ScheduleSlot     `json:"schedules"`
}

// ScheduleSlot is one schedule on the requested date enriched with the
// member's view of it.
//
// CanBook means "can attempt to book": it requires remaining
// entitlement in the schedule's bucket and no existing active booking,
// but deliberately ignores free seats, since a full class degrades to the
// waitlist instead of blocking the attempt.
type ScheduleSlot struct {
	ScheduleID     uint64          `json:"schedule_id"`
	Title          string          `json:"title"`
	Type           model.ClassType `json:"type"`
	StartTime      string          `json:"start_time"`
	EndTime        string          `json:"end_time"`
	Bucket         model.Bucket    `json:"bucket"`
	Capacity       int             `json:"capacity"`
	BookedCount    int             `json:"booked_count"`
	AvailableSlots int             `json:"available_slots"`
	CanBook        bool            `json:"can_book"`
	IsBooked       bool            `json:"is_booked"`
	WouldDebit     uint64          `json:"would_debit_grant_id,omitempty"`
	AtRisk         bool            `json:"at_risk"`
}

// GetAvailability composes the member's availability view for a date.
// Remaining counts are summed across all usable grants; per schedule,
// WouldDebit names the grant the priority resolver would select for
// that schedule's bucket.
func (s *Service) GetAvailability(ctx context.Context, memberID uint64, date time.Time) (*Availability, error) {
	if _, err := s.members.GetByID(ctx, memberID); err != nil {
		return nil, err
	}
	if _, err := s.ledger.Materialize(ctx, memberID); err != nil {
		if repository.IsLockContention(err) {
			return nil, ErrUnavailable
		}
		return nil, err
	}
	grants, err := s.grants.ListUsable(ctx, memberID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	var remaining model.BucketCounts
	for _, g := range grants {
		rem := g.Remaining()
		for _, b := range model.Buckets {
			remaining.Add(b, rem.Get(b))
		}
	}

	day := date.UTC().Format("2006-01-02")
	schedules, err := s.schedules.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	counts, err := s.bookings.SignupCountsByDate(ctx, day)
	if err != nil {
		return nil, err
	}
	booked, err := s.bookings.ActiveScheduleIDs(ctx, memberID, day)
	if err != nil {
		return nil, err
	}

	slots := make([]ScheduleSlot, 0, len(schedules))
	for _, sched := range schedules {
		bucket := sched.Bucket()
		count := counts[sched.ID]
		_, isBooked := booked[sched.ID]
		slot := ScheduleSlot{
			ScheduleID:     sched.ID,
			Title:          sched.Title,
			Type:           sched.Type,
			StartTime:      sched.StartTime,
			EndTime:        sched.EndTime,
			Bucket:         bucket,
			Capacity:       sched.Capacity,
			BookedCount:    count,
			AvailableSlots: AvailableSlots(sched, count),
			CanBook:        remaining.Get(bucket) > 0 && !isBooked,
			IsBooked:       isBooked,
			AtRisk:         AtRisk(sched, count),
		}
		if g, ok := s.resolver.Pick(grants, bucket); ok {
			slot.WouldDebit = g.ID
		}
		slots = append(slots, slot)
	}
	return &Availability{Date: day, Remaining: remaining, Schedules: slots}, nil
}

// EntitlementSummary is the member-facing view of their grants:
// aggregate per-bucket counters over currently usable grants plus the
// full grant history.
type EntitlementSummary struct {
	Total     model.BucketCounts `json:"total"`
	Used      model.BucketCounts `json:"used"`
	Remaining model.BucketCounts `json:"remaining"`
	Grants    []GrantView        `json:"grants"`
}

// GrantView is one grant in the history list.
type GrantView struct {
	ID        uint64             `json:"id"`
	Kind      model.PackageKind  `json:"kind"`
	StartDate string             `json:"start_date"`
	EndDate   string             `json:"end_date"`
	Total     model.BucketCounts `json:"total"`
	Used      model.BucketCounts `json:"used"`
	Remaining model.BucketCounts `json:"remaining"`
	Usable    bool               `json:"usable"`
}

// GetEntitlementSummary materializes the member's counters and returns
// aggregate totals over usable grants plus the full history.
func (s *Service) GetEntitlementSummary(ctx context.Context, memberID uint64) (*EntitlementSummary, error) {
	if _, err := s.members.GetByID(ctx, memberID); err != nil {
		return nil, err
	}
	all, err := s.ledger.Materialize(ctx, memberID)
	if err != nil {
		if repository.IsLockContention(err) {
			return nil, ErrUnavailable
		}
		return nil, err
	}
	usable, err := s.grants.ListUsable(ctx, memberID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	usableIDs := make(map[uint64]bool, len(usable))
	for _, g := range usable {
		usableIDs[g.ID] = true
	}

	summary := &EntitlementSummary{Grants: make([]GrantView, 0, len(all))}
	for _, g := range all {
		rem := g.Remaining()
		if usableIDs[g.ID] {
			for _, b := range model.Buckets {
				summary.Total.Add(b, g.Total.Get(b))
				summary.Used.Add(b, g.Used.Get(b))
				summary.Remaining.Add(b, rem.Get(b))
			}
		}
		summary.Grants = append(summary.Grants, GrantView{
			ID:        g.ID,
			Kind:      g.Kind,
			StartDate: g.StartDate.UTC().Format("2006-01-02"),
			EndDate:   g.EndDate.UTC().Format("2006-01-02"),
			Total:     g.Total,
			Used:      g.Used,
			Remaining: rem,
			Usable:    usableIDs[g.ID],
		})
	}
	return summary, nil
}
