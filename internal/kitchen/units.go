package kitchen

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/barstockwise/backend/pkg/enums"
	pkgerrors "github.com/barstockwise/backend/pkg/errors"
)

var thousand = decimal.NewFromInt(1000)

// ConvertQuantity expresses a quantity given in `from` units in `to` units.
// Only mass (g/kg) and volume (ml/l) pairs convert; any other mismatched pair
// is a hard validation error naming both units, never a silent 1:1 fallback.
func ConvertQuantity(quantity decimal.Decimal, from, to enums.Unit) (decimal.Decimal, error) {
	if from == to {
		return quantity, nil
	}

	switch {
	case from == enums.UnitGram && to == enums.UnitKilogram:
		return quantity.Div(thousand), nil
	case from == enums.UnitKilogram && to == enums.UnitGram:
		return quantity.Mul(thousand), nil
	case from == enums.UnitMillilitre && to == enums.UnitLitre:
		return quantity.Div(thousand), nil
	case from == enums.UnitLitre && to == enums.UnitMillilitre:
		return quantity.Mul(thousand), nil
	}

	return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
		fmt.Sprintf("no conversion from %q to %q", from, to))
}
