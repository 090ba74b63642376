package dispatch

import (
	"errors"

	"quicklift/internal/domain/trip"
	"quicklift/internal/ports"
)

var (
	ErrTripNotFound   = ports.ErrTripNotFound
	ErrDriverNotFound = ports.ErrDriverNotFound

	// ErrDriverUnavailable rejects an accept by a driver that is not ONLINE.
	ErrDriverUnavailable = errors.New("driver is not available")

	// ErrNoDriverAvailable is returned by booking when no ONLINE driver of
	// the requested class exists. The trip is still persisted as REQUESTED.
	ErrNoDriverAvailable = errors.New("no drivers available")

	// ErrNotTripDriver rejects a driver operating on someone else's trip.
	ErrNotTripDriver = errors.New("trip is assigned to another driver")

	// ErrEmailTaken rejects driver registration with an email that already
	// has an account.
	ErrEmailTaken = errors.New("email is already registered")

	// ErrDriverExists rejects a second driver profile for the same user.
	ErrDriverExists = errors.New("user already has a driver profile")
)

// ErrInvalidTransition re-exports the domain sentinel so callers can match
// precondition failures without importing the trip package.
var ErrInvalidTransition = trip.ErrInvalidTransition
