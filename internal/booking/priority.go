package booking

import (
	"fmt"
	"sort"
	"strings"

	"github.com/corefit/studio-booking/internal/model"
)

// PriorityTable ranks package kinds for consumption order.  Lower rank
// is consumed first.  The table is explicit configuration rather than
// an accident of how kind identifiers happen to sort.
type PriorityTable map[model.PackageKind]int

// DefaultPriority consumes bonus grants first, then promos, then first
// trials, and paid memberships last: gifted and time-limited
// entitlements burn before the sessions the member paid most for.
func DefaultPriority() PriorityTable {
	return PriorityTable{
		model.KindBonus:      0,
		model.KindPromo:      1,
		model.KindFirstTrial: 2,
		model.KindMembership: 3,
	}
}

// ParsePriority builds a PriorityTable from a comma-separated kind
// list such as "bonus,promo,first_trial,membership".  Every known kind
// must appear exactly once.
func ParsePriority(s string) (PriorityTable, error) {
	table := make(PriorityTable, len(model.PackageKinds))
	for i, part := range strings.Split(s, ",") {
		kind := model.PackageKind(strings.TrimSpace(part))
		if !kind.Valid() {
			return nil, fmt.Errorf("unknown package kind %q in priority order", kind)
		}
		if _, dup := table[kind]; dup {
			return nil, fmt.Errorf("duplicate package kind %q in priority order", kind)
		}
		table[kind] = i
	}
	if len(table) != len(model.PackageKinds) {
		return nil, fmt.Errorf("priority order must list all %d package kinds", len(model.PackageKinds))
	}
	return table, nil
}

// PriorityResolver selects which grant to debit when a member has
// multiple usable grants.  Resolution is deterministic: rank by kind
// per the table, break ties oldest grant first, then by ID.
type PriorityResolver struct {
	table PriorityTable
}

// NewPriorityResolver returns a resolver using the given table, or the
// default table when nil.
func NewPriorityResolver(table PriorityTable) *PriorityResolver {
	if table == nil {
		table = DefaultPriority()
	}
	return &PriorityResolver{table: table}
}

// Sort returns the grants in consumption order without mutating the
// input.  Kinds missing from the table sort last so a partial table
// never hides a grant entirely.
func (r *PriorityResolver) Sort(grants []model.Grant) []model.Grant {
	sorted := make([]model.Grant, len(grants))
	copy(sorted, grants)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := r.rank(sorted[i].Kind), r.rank(sorted[j].Kind)
		if ri != rj {
			return ri < rj
		}
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// Pick returns the first grant in consumption order with remaining
// capacity in the bucket, or false when none has any.
func (r *PriorityResolver) Pick(grants []model.Grant, bucket model.Bucket) (model.Grant, bool) {
	for _, g := range r.Sort(grants) {
		if g.Remaining().Get(bucket) > 0 {
			return g, true
		}
	}
	return model.Grant{}, false
}

func (r *PriorityResolver) rank(k model.PackageKind) int {
	if rank, ok := r.table[k]; ok {
		return rank
	}
	return len(model.PackageKinds)
}
