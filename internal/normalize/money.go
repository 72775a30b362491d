package normalize

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"github.com/gyeh/clinicbill/internal/model"
)

// ParseMoney converts a raw price to a non-negative decimal.
// An absent value is zero and not an error; a malformed or negative value is
// zero with an error describing why.
func ParseMoney(v model.FlexString) (decimal.Decimal, error) {
	s := v.String()
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.New("not a number")
	}
	if d.IsNegative() {
		return decimal.Zero, errors.New("negative amount")
	}
	return d, nil
}

// MaxQuantity bounds a medicine quantity so that it fits an int32 column
// and Amount cannot overflow.
const MaxQuantity = math.MaxInt32

var maxQuantity = decimal.NewFromInt(MaxQuantity)

// ParseQuantity converts a raw medicine quantity. Missing, malformed,
// sub-1 or oversized values become 1; only the last three report an error.
func ParseQuantity(v model.FlexString) (int, error) {
	s := v.String()
	if s == "" {
		return 1, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() {
		return 1, errors.New("not an integer")
	}
	if d.LessThan(decimal.NewFromInt(1)) {
		return 1, errors.New("quantity below 1")
	}
	if d.GreaterThan(maxQuantity) {
		return 1, errors.New("quantity too large")
	}
	return int(d.IntPart()), nil
}
