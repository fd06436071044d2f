// Package errors defines the domain error taxonomy shared by the seat
// registry and billing engine. These sentinel values let handlers
// distinguish expected, user-facing failures (mapped to 4xx responses)
// from storage faults, which are wrapped and surfaced as 500s.
package errors

import (
	"errors"
	"fmt"
)

// ErrSeatUnavailable is returned when the seat is not FREE (or not
// claimable) at reservation or entry time.
var ErrSeatUnavailable = errors.New("seat is not available")

// ErrInsufficientBalance is returned when the account balance is below
// the reservation deposit.
var ErrInsufficientBalance = errors.New("insufficient balance for deposit")

// ErrReservationMismatch is returned when an account tries to enter a
// seat reserved by someone else.
var ErrReservationMismatch = errors.New("seat is reserved by another account")

// ErrSeatBusy is returned when deleting a seat that is currently occupied.
var ErrSeatBusy = errors.New("seat has an active session")

// ErrNotPlaying is returned when ending a session for an account that
// does not occupy any seat.
var ErrNotPlaying = errors.New("account has no active session")

// ErrSeatNotFound is returned when the referenced seat does not exist.
var ErrSeatNotFound = errors.New("seat not found")

// ErrAccountNotFound is returned when the referenced account does not exist.
var ErrAccountNotFound = errors.New("account not found")

// ErrConflict is returned when a create collides with existing state,
// such as a duplicate seat name or account email. Handlers translate
// this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// AlreadySeatedError is returned when an account already reserves or
// occupies a different seat. It names the conflicting seat so the client
// can point the user at it.
type AlreadySeatedError struct {
	SeatID   string
	SeatName string
}

func (e *AlreadySeatedError) Error() string {
	return fmt.Sprintf("account already holds seat %s", e.SeatName)
}

// IsAlreadySeated reports whether err is an AlreadySeatedError and
// returns it if so.
func IsAlreadySeated(err error) (*AlreadySeatedError, bool) {
	var e *AlreadySeatedError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsDomain reports whether err belongs to the expected, user-facing
// taxonomy above rather than being a storage fault.
func IsDomain(err error) bool {
	if _, ok := IsAlreadySeated(err); ok {
		return true
	}
	for _, sentinel := range []error{
		ErrSeatUnavailable,
		ErrInsufficientBalance,
		ErrReservationMismatch,
		ErrSeatBusy,
		ErrNotPlaying,
		ErrSeatNotFound,
		ErrAccountNotFound,
		ErrConflict,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
