package enums

import "fmt"

// Unit is the measurement unit for products and ingredients. Recipe lines may
// declare a different unit than the ingredient's native one; see kitchen.Convert
// for the defined conversions.
type Unit string

const (
	UnitKilogram   Unit = "kg"
	UnitGram       Unit = "g"
	UnitLitre      Unit = "l"
	UnitMillilitre Unit = "ml"
	UnitPiece      Unit = "piece"
	UnitBottle     Unit = "bottle"
	UnitPortion    Unit = "portion"
)

var validUnits = []Unit{
	UnitKilogram,
	UnitGram,
	UnitLitre,
	UnitMillilitre,
	UnitPiece,
	UnitBottle,
	UnitPortion,
}

// String implements fmt.Stringer.
func (u Unit) String() string {
	return string(u)
}

// IsValid reports whether the value is a known Unit.
func (u Unit) IsValid() bool {
	for _, candidate := range validUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUnit converts raw input into a Unit.
func ParseUnit(value string) (Unit, error) {
	for _, candidate := range validUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit %q", value)
}
