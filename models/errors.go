package models

import "errors"

// Sentinel errors for expected data-absence conditions. These are
// ordinary outcomes resolved by documented fallbacks, never batch-fatal.
var (
	// ErrNoPriceData indicates the bar source has no price history for
	// the instrument in the requested range.
	ErrNoPriceData = errors.New("no price data")

	// ErrNotFound indicates a query resolved to nothing at any tier.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientHistory indicates a derived metric needs more
	// trailing observations than the series contains.
	ErrInsufficientHistory = errors.New("insufficient history")
)
