package enums

import "fmt"

// MovementType describes the direction of a stock mutation.
type MovementType string

const (
	MovementTypeIn         MovementType = "in"
	MovementTypeOut        MovementType = "out"
	MovementTypeAdjustment MovementType = "adjustment"
	MovementTypeLoss       MovementType = "loss"
	MovementTypeReturn     MovementType = "return"
)

var validMovementTypes = []MovementType{
	MovementTypeIn,
	MovementTypeOut,
	MovementTypeAdjustment,
	MovementTypeLoss,
	MovementTypeReturn,
}

// String implements fmt.Stringer.
func (m MovementType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MovementType.
func (m MovementType) IsValid() bool {
	for _, candidate := range validMovementTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMovementType converts raw input into a MovementType.
func ParseMovementType(value string) (MovementType, error) {
	for _, candidate := range validMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement type %q", value)
}

// MovementReason records the business cause behind a stock mutation.
type MovementReason string

const (
	MovementReasonPurchase     MovementReason = "purchase"
	MovementReasonSale         MovementReason = "sale"
	MovementReasonInventory    MovementReason = "inventory"
	MovementReasonDamage       MovementReason = "damage"
	MovementReasonExpiry       MovementReason = "expiry"
	MovementReasonTheft        MovementReason = "theft"
	MovementReasonCorrection   MovementReason = "correction"
	MovementReasonCancellation MovementReason = "cancellation"
	MovementReasonPreparation  MovementReason = "preparation"
)

var validMovementReasons = []MovementReason{
	MovementReasonPurchase,
	MovementReasonSale,
	MovementReasonInventory,
	MovementReasonDamage,
	MovementReasonExpiry,
	MovementReasonTheft,
	MovementReasonCorrection,
	MovementReasonCancellation,
	MovementReasonPreparation,
}

// String implements fmt.Stringer.
func (m MovementReason) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MovementReason.
func (m MovementReason) IsValid() bool {
	for _, candidate := range validMovementReasons {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMovementReason converts raw input into a MovementReason.
func ParseMovementReason(value string) (MovementReason, error) {
	for _, candidate := range validMovementReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement reason %q", value)
}
