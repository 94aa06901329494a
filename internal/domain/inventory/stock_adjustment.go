package inventory

import (
	"fmt"
	"math"

	"github.com/erp/pos-backend/internal/domain/shared"
)

// AdjustmentType is the kind of manual stock change
type AdjustmentType string

const (
	AdjustmentIncrease AdjustmentType = "increase"
	AdjustmentDecrease AdjustmentType = "decrease"
	AdjustmentSet      AdjustmentType = "set"
)

// IsValid reports whether the adjustment type is known
func (t AdjustmentType) IsValid() bool {
	switch t {
	case AdjustmentIncrease, AdjustmentDecrease, AdjustmentSet:
		return true
	}
	return false
}

// StockAdjustment is a transient request to change a product's on-hand quantity.
// It is consumed once and not persisted.
type StockAdjustment struct {
	ProductID int64
	Type      AdjustmentType
	Quantity  int64
	Reason    string
	Notes     string
}

// Validate checks the adjustment independently of stored state
func (a StockAdjustment) Validate() error {
	if !a.Type.IsValid() {
		return shared.Invalid(fmt.Sprintf("Invalid adjustment type %q", a.Type))
	}
	if a.Quantity < 0 {
		return shared.Invalid("Adjustment quantity cannot be negative")
	}
	return nil
}

// Apply returns the new quantity after applying the adjustment to current.
// A decrease never goes below zero and an increase never wraps past MaxInt64.
func (a StockAdjustment) Apply(current int64) (int64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	switch a.Type {
	case AdjustmentIncrease:
		if a.Quantity > math.MaxInt64-current {
			return 0, shared.Invalid("Adjustment would exceed the maximum stock quantity")
		}
		return current + a.Quantity, nil
	case AdjustmentDecrease:
		return max(0, current-a.Quantity), nil
	default:
		return a.Quantity, nil
	}
}

// AdjustmentResult reports the outcome of an applied adjustment
type AdjustmentResult struct {
	ProductID        int64          `json:"id"`
	Name             string         `json:"name"`
	PreviousQuantity int64          `json:"previous_quantity"`
	NewQuantity      int64          `json:"new_quantity"`
	Adjustment       int64          `json:"adjustment"`
	AdjustmentType   AdjustmentType `json:"adjustment_type"`
}
