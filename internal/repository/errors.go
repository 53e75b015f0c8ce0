// Package repository implements data access over MySQL.  This file
// defines sentinel errors reused across repositories.  Higher layers
// such as the booking engine and HTTP handlers use errors.Is against
// these values to distinguish failure scenarios, e.g. translating
// ErrScheduleNotFound into a 404 response.
package repository

import "errors"

// ErrMemberNotFound is returned when no member row exists for the
// requested ID.
var ErrMemberNotFound = errors.New("member not found")

// ErrPackageNotFound is returned when no catalog package exists for
// the requested ID.
var ErrPackageNotFound = errors.New("package not found")

// ErrGrantNotFound is returned when no grant row exists for the
// requested ID.
var ErrGrantNotFound = errors.New("grant not found")

// ErrScheduleNotFound is returned when no schedule row exists for the
// requested ID.
var ErrScheduleNotFound = errors.New("schedule not found")

// ErrBookingNotFound is returned when no booking row exists for the
// requested ID.
var ErrBookingNotFound = errors.New("booking not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")
