package model

import (
	"fmt"
	"time"
)

// PackageKind is the closed enumeration of catalog package kinds.  The
// kind decides both how session totals are derived from a package row
// (see GrantTotalsFor) and where the resulting grant sorts in the
// consumption priority order.
type PackageKind string

const (
	KindMembership PackageKind = "membership"
	KindFirstTrial PackageKind = "first_trial"
	KindPromo      PackageKind = "promo"
	KindBonus      PackageKind = "bonus"
)

// PackageKinds lists all kinds in a stable order.
var PackageKinds = []PackageKind{KindMembership, KindFirstTrial, KindPromo, KindBonus}

// Valid reports whether k is a known package kind.
func (k PackageKind) Valid() bool {
	switch k {
	case KindMembership, KindFirstTrial, KindPromo, KindBonus:
		return true
	}
	return false
}

// Package is a catalog definition supplied by the package catalog
// collaborator.  This service only reads packages; pricing and the
// purchase flow live elsewhere.
//
// Membership packages carry a single Sessions count plus a Category
// naming the one bucket those sessions fill.  All other kinds carry an
// explicit per-bucket allotment.
//
// Fields:
//
//	ID           – primary key identifier.
//	Name         – display name.
//	Kind         – membership, first_trial, promo or bonus.
//	Sessions     – session count for membership packages.
//	Category     – bucket filled by a membership package's sessions.
//	Allotment    – per-bucket session counts for non-membership kinds.
//	DurationDays – validity window applied when a grant is issued.
//	Active       – whether the package can still be granted.
type Package struct {
	ID           uint64      // packages.id
	Name         string      // packages.name
	Kind         PackageKind // packages.kind
	Sessions     int         // packages.sessions (membership only)
	Category     Bucket      // packages.category (membership only)
	Allotment    BucketCounts
	DurationDays int  // packages.duration_days
	Active       bool // packages.active
}

// GrantTotalsFor derives the per-bucket totals a new grant of this
// package starts with.  This is the single place kind-specific fields
// turn into bucket counts; the switch is exhaustive over PackageKind
// so adding a kind without deciding its totals fails loudly.
func GrantTotalsFor(p Package) (BucketCounts, error) {
	switch p.Kind {
	case KindMembership:
		if !p.Category.Valid() {
			return BucketCounts{}, fmt.Errorf("membership package %d has invalid category %q", p.ID, p.Category)
		}
		var t BucketCounts
		t.Set(p.Category, p.Sessions)
		return t, nil
	case KindFirstTrial, KindPromo, KindBonus:
		return p.Allotment, nil
	}
	return BucketCounts{}, fmt.Errorf("unknown package kind %q", p.Kind)
}

// GrantWindowFor computes the validity window of a grant issued today.
// A zero DurationDays falls back to thirty days, matching the shortest
// catalog offering, so a misconfigured package never produces an
// eternal grant.
func GrantWindowFor(p Package, start time.Time) (time.Time, time.Time) {
	days := p.DurationDays
	if days <= 0 {
		days = 30
	}
	return start, start.AddDate(0, 0, days)
}
