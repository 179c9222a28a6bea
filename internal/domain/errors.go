package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidQuantity is returned when a quantity is not a positive integer
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// MinimumQuantityViolation is returned under the reject policy when a
// quantity is below the minimum required by the selected options.
type MinimumQuantityViolation struct {
	Quantity        int
	MinimumQuantity int
}

func (e *MinimumQuantityViolation) Error() string {
	return fmt.Sprintf("quantity %d is below the minimum order quantity %d for the selected options", e.Quantity, e.MinimumQuantity)
}

// MinimumQuantityPolicy decides what happens to lines below the option minimum
type MinimumQuantityPolicy string

const (
	// MinimumQuantityWarn prices the line and flags it
	MinimumQuantityWarn MinimumQuantityPolicy = "warn"
	// MinimumQuantityReject fails the line with MinimumQuantityViolation
	MinimumQuantityReject MinimumQuantityPolicy = "reject"
)

// ParseMinimumQuantityPolicy maps a config string to a policy, defaulting to warn
func ParseMinimumQuantityPolicy(s string) MinimumQuantityPolicy {
	if strings.EqualFold(strings.TrimSpace(s), string(MinimumQuantityReject)) {
		return MinimumQuantityReject
	}
	return MinimumQuantityWarn
}
