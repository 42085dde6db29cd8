package domain

import (
	"math"
	"strconv"

	"github.com/cockroachdb/apd"
)

var priceContext = func() *apd.Context {
	c := apd.BaseContext.WithPrecision(34)
	c.Rounding = apd.RoundHalfUp
	return c
}()

// RoundPrice rounds p half-up to the given number of decimal places. The value
// is rounded in decimal so 100.00625 becomes 100.01 rather than suffering from
// its binary representation.
func RoundPrice(p float64, decimals int32) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return p
	}
	d, _, err := apd.NewFromString(strconv.FormatFloat(p, 'f', -1, 64))
	if err != nil {
		return p
	}
	var out apd.Decimal
	if _, err := priceContext.Quantize(&out, d, -decimals); err != nil {
		return p
	}
	f, err := out.Float64()
	if err != nil {
		return p
	}
	return f
}
