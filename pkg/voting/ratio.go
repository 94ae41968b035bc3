package voting

import (
	"fmt"
	"math"
	"math/big"
)

// RatioBase is the fixed-point scale for percentage values: 100% == 10^18.
const RatioBase Ratio = 1_000_000_000_000_000_000

// Ratio is a fixed-point fraction of RatioBase. A Ratio of RatioBase/2 is 50%.
type Ratio uint64

var ratioBaseBig = new(big.Int).SetUint64(uint64(RatioBase))

// PercentRatio converts a whole percentage (0-100) into a Ratio. Multiplying
// by the pre-divided base keeps the product inside uint64; percent*RatioBase
// would overflow for any percent above 18.
func PercentRatio(percent uint64) Ratio {
	return Ratio(percent) * (RatioBase / 100)
}

// PercentRatioFloat converts a fractional percentage (e.g. 50.5) into a
// Ratio. Whole percentages take the exact integer path; fractional input is
// rounded to the nearest unit, which float64 cannot represent exactly near
// the base. Intended for config and API input; engine math never goes
// through floats.
func PercentRatioFloat(percent float64) Ratio {
	if percent >= 0 && percent <= 100 {
		if p := uint64(percent); float64(p) == percent {
			return PercentRatio(p)
		}
	}
	return Ratio(math.Round(percent * float64(RatioBase) / 100))
}

// Valid reports whether the ratio is at most 100%.
func (r Ratio) Valid() bool {
	return r <= RatioBase
}

// Percent returns the ratio as a float percentage for display only.
func (r Ratio) Percent() float64 {
	return float64(r) / float64(RatioBase) * 100
}

// String formats the ratio as a percentage.
func (r Ratio) String() string {
	return fmt.Sprintf("%.4f%%", r.Percent())
}

// Div computes value/total scaled to RatioBase using integer arithmetic.
// It fails with ErrDivisionByZero when total is zero; callers that snapshot a
// positive total voting power never hit this, but a ratio query against an
// empty population must surface the error instead of pretending 0% or 100%.
func Div(value, total *big.Int) (Ratio, error) {
	if total == nil || total.Sign() == 0 {
		return 0, fmt.Errorf("ratio %v/0: %w", value, ErrDivisionByZero)
	}
	q := new(big.Int).Mul(value, ratioBaseBig)
	q.Quo(q, total)
	if q.Cmp(ratioBaseBig) > 0 || q.Sign() < 0 {
		actual := Ratio(math.MaxUint64)
		if q.IsUint64() {
			actual = Ratio(q.Uint64())
		}
		return 0, &RatioOutOfBoundsError{Limit: RatioBase, Actual: actual}
	}
	return Ratio(q.Uint64()), nil
}
