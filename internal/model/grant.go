package model

import "time"

// Grant is a member's instance of a catalog package: the unit of
// entitlement the booking engine debits and credits.  Grants are never
// hard-deleted while bookings reference them; they simply expire or
// run out of sessions.
//
// The Used counters are materialized from the authoritative booking
// records by the session ledger and must be refreshed before any
// availability decision or reporting view.  Remaining is derived via
// RemainingFrom and is not a database column.
//
// Fields:
//
//	ID        – primary key identifier.
//	MemberID  – owner of the grant.
//	PackageID – originating catalog package.
//	Kind      – snapshot of the package kind at issue time.
//	OrderID   – linked payment record; nil for bonus grants.
//	StartDate – first day the grant is usable.
//	EndDate   – last day the grant is usable (inclusive).
//	Total     – per-bucket session allotment.
//	Used      – per-bucket counters materialized from bookings.
//	CreatedAt – issue timestamp; tie-breaker for priority resolution.
type Grant struct {
	ID        uint64      // grants.id
	MemberID  uint64      // grants.member_id
	PackageID uint64      // grants.package_id
	Kind      PackageKind // grants.kind
	OrderID   *uint64     // grants.order_id (nullable)
	StartDate time.Time   // grants.start_date
	EndDate   time.Time   // grants.end_date
	Total     BucketCounts
	Used      BucketCounts
	CreatedAt time.Time // grants.created_at
}

// Remaining derives the per-bucket remaining counters from the grant's
// totals and last-materialized used counters.
func (g Grant) Remaining() BucketCounts {
	return RemainingFrom(g.Total, g.Used)
}

// UsableAt reports whether the grant has not yet expired on the given
// day.  A grant stays usable through its end date inclusive; only the
// end date gates usability, so members may book ahead on a grant whose
// window has not formally started.  Payment state is checked by the
// repository when listing usable grants.
func (g Grant) UsableAt(day time.Time) bool {
	return !truncateToDay(g.EndDate).Before(truncateToDay(day))
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
