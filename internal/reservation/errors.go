// Package reservation implements the reservation lifecycle: creation,
// querying, shift assignment, cancellation and the auto-complete sweep.
// These sentinel values let the HTTP layer distinguish the failure
// scenarios the app presents differently to the rider.
package reservation

import "errors"

// ErrValidation is returned for malformed or missing input. Always
// recoverable by the caller correcting the request. Handlers map it to 400.
var ErrValidation = errors.New("invalid reservation input")

// ErrNotFound is returned when the referenced reservation id does not
// exist. Handlers map it to 404.
var ErrNotFound = errors.New("reservation not found")

// ErrState is returned when an operation is invalid for the current
// lifecycle state, such as cancelling an already finalized reservation.
// Handlers map it to 409.
var ErrState = errors.New("reservation already finalized")

// ErrCancellationWindow is returned when a cancellation arrives less than
// CancellationWindow before departure. Handlers map it to 422.
var ErrCancellationWindow = errors.New("cancellation window has closed")
