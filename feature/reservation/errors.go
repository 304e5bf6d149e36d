package reservation

import (
	"errors"
	"fmt"
)

// ErrInvalidQuantity is returned for a non-positive quantity or a negative
// duration.
var ErrInvalidQuantity = errors.New("quantity must be greater than zero")

// ErrMissingFields is returned when the request omits the item or the
// reserving user.
var ErrMissingFields = errors.New("item and reserved_by are required")

// ErrUnknownHolder is returned when the reserving user fails the credential
// lookup.
var ErrUnknownHolder = errors.New("unknown reserving user")

// InsufficientAvailabilityError rejects an admission that would oversubscribe
// the item. Remaining carries the quantity that could still be reserved at the
// moment of the check.
type InsufficientAvailabilityError struct {
	Remaining float64
}

func (e *InsufficientAvailabilityError) Error() string {
	return fmt.Sprintf("insufficient availability: only %g units available", e.Remaining)
}
