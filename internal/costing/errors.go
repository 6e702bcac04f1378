package costing

import (
	"errors"

	"github.com/Simplici0/artisanally/internal/pricing"
)

// Validation failures. Every derivation checks its inputs before computing anything,
// so a returned error always means no partial result was produced.
var (
	ErrInvalidQuantity    = errors.New("quantity must be greater than zero")
	ErrUnknownMaterial    = errors.New("recipe references an unknown material")
	ErrEmptyRecipe        = errors.New("recipe must contain at least one item")
	ErrInvalidLabourInput = errors.New("labour hours and hourly rate must not be negative")

	// ErrInvalidCost is shared with pricing so callers match one sentinel.
	ErrInvalidCost = pricing.ErrInvalidCost
)
