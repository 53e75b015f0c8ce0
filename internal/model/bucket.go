package model

// Bucket is the session-count category a scheduled class draws
// against.  Every grant carries a total and a used counter per bucket,
// and every class type maps to exactly one bucket.
type Bucket string

const (
	BucketGroup       Bucket = "group"
	BucketSemiPrivate Bucket = "semi_private"
	BucketPrivate     Bucket = "private"
)

// Buckets lists all buckets in a stable order.  Iteration over a map
// of counters would be nondeterministic; summaries and tests range
// over this slice instead.
var Buckets = []Bucket{BucketGroup, BucketSemiPrivate, BucketPrivate}

// Valid reports whether b is one of the three known buckets.
func (b Bucket) Valid() bool {
	switch b {
	case BucketGroup, BucketSemiPrivate, BucketPrivate:
		return true
	}
	return false
}

// BucketCounts holds one integer per bucket.  It is used for grant
// totals, used counters and derived remaining counters alike.
type BucketCounts struct {
	Group       int `json:"group"`
	SemiPrivate int `json:"semi_private"`
	Private     int `json:"private"`
}

// Get returns the count for the given bucket.  Unknown buckets read
// as zero.
func (c BucketCounts) Get(b Bucket) int {
	switch b {
	case BucketGroup:
		return c.Group
	case BucketSemiPrivate:
		return c.SemiPrivate
	case BucketPrivate:
		return c.Private
	}
	return 0
}

// Set assigns the count for the given bucket.  Unknown buckets are
// ignored.
func (c *BucketCounts) Set(b Bucket, n int) {
	switch b {
	case BucketGroup:
		c.Group = n
	case BucketSemiPrivate:
		c.SemiPrivate = n
	case BucketPrivate:
		c.Private = n
	}
}

// Add increments the count for the given bucket by delta.
func (c *BucketCounts) Add(b Bucket, delta int) {
	c.Set(b, c.Get(b)+delta)
}

// RemainingFrom derives remaining counters from totals minus used,
// clamped at zero per bucket.  Remaining is never persisted as ground
// truth; it is always recomputed from totals and the used counters the
// session ledger materializes from bookings.
func RemainingFrom(total, used BucketCounts) BucketCounts {
	var rem BucketCounts
	for _, b := range Buckets {
		r := total.Get(b) - used.Get(b)
		if r < 0 {
			r = 0
		}
		rem.Set(b, r)
	}
	return rem
}
