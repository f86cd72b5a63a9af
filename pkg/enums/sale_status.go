package enums

import "fmt"

// SaleStatus tracks the lifecycle of a sale from order to settlement.
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusPreparing SaleStatus = "preparing"
	SaleStatusReady     SaleStatus = "ready"
	SaleStatusServed    SaleStatus = "served"
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusPaid      SaleStatus = "paid"
	SaleStatusCancelled SaleStatus = "cancelled"
)

var validSaleStatuses = []SaleStatus{
	SaleStatusPending,
	SaleStatusPreparing,
	SaleStatusReady,
	SaleStatusServed,
	SaleStatusCompleted,
	SaleStatusPaid,
	SaleStatusCancelled,
}

// saleStatusOrder encodes the forward progression of the workflow.
var saleStatusOrder = map[SaleStatus]int{
	SaleStatusPending:   0,
	SaleStatusPreparing: 1,
	SaleStatusReady:     2,
	SaleStatusServed:    3,
	SaleStatusCompleted: 4,
	SaleStatusPaid:      5,
}

// String implements fmt.Stringer.
func (s SaleStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SaleStatus.
func (s SaleStatus) IsValid() bool {
	for _, candidate := range validSaleStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s SaleStatus) IsTerminal() bool {
	return s == SaleStatusPaid || s == SaleStatusCancelled
}

// CanTransitionTo reports whether the workflow allows moving from s to target.
// Cancellation is reachable from any non-terminal state; otherwise only forward
// moves through the pipeline are permitted.
func (s SaleStatus) CanTransitionTo(target SaleStatus) bool {
	if !s.IsValid() || !target.IsValid() || s == target {
		return false
	}
	if s.IsTerminal() {
		return false
	}
	if target == SaleStatusCancelled {
		return true
	}
	from, ok := saleStatusOrder[s]
	if !ok {
		return false
	}
	to, ok := saleStatusOrder[target]
	if !ok {
		return false
	}
	return to > from
}

// ParseSaleStatus converts raw input into a SaleStatus.
func ParseSaleStatus(value string) (SaleStatus, error) {
	for _, candidate := range validSaleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale status %q", value)
}
