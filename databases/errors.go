package databases

import "errors"

var (
	// ErrOrderNotFound is returned when no order matches the given key.
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderClaimed is returned when an order was already matched to a
	// join event and may not extend a subscription again.
	ErrOrderClaimed = errors.New("order already claimed for attribution")

	// ErrUserNotFound is returned when no user matches the given key.
	ErrUserNotFound = errors.New("user not found")
)
