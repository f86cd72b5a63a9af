package enums

import "fmt"

// TableStatus tracks whether a dining table is free, taken, or held.
type TableStatus string

const (
	TableStatusAvailable TableStatus = "available"
	TableStatusOccupied  TableStatus = "occupied"
	TableStatusReserved  TableStatus = "reserved"
)

var validTableStatuses = []TableStatus{
	TableStatusAvailable,
	TableStatusOccupied,
	TableStatusReserved,
}

// String implements fmt.Stringer.
func (t TableStatus) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TableStatus.
func (t TableStatus) IsValid() bool {
	for _, candidate := range validTableStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTableStatus converts raw input into a TableStatus.
func ParseTableStatus(value string) (TableStatus, error) {
	for _, candidate := range validTableStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid table status %q", value)
}
