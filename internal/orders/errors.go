package orders

import "errors"

// Failure taxonomy shared by the order ledger, checkout and HTTP layers.
// Wrap with %w and test with errors.Is.
var (
	ErrValidation          = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("caller does not own the entity")
	ErrConflict            = errors.New("entity is in the wrong state")
	ErrMultiSeller         = errors.New("items span multiple sellers")
	ErrSellerNotConfigured = errors.New("seller has no usable payment credential")
)
