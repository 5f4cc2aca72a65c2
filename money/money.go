// Package money provides integer minor-unit arithmetic, directed
// rounding, and the percentage/rate/amount types shared by every other
// component of the amortisation engine.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Cent is a signed count of minor currency units (e.g. US cents).
// All schedule balances and portions are expressed in Cent.
type Cent int64

// DecimalCent carries fractional-cent precision. Interest accrues at
// sub-cent precision and is only rounded to a Cent when it is charged
// to the schedule; the residual remains in DecimalCent form so that
// the sum of emitted (rounded) interest exactly matches the sum of
// accrued (fractional) interest over the life of a loan.
type DecimalCent struct {
	d decimal.Decimal
}

// ZeroDecimalCent is the additive identity.
var ZeroDecimalCent = DecimalCent{d: decimal.Zero}

// NewDecimalCentFromCent lifts a whole Cent value into DecimalCent.
func NewDecimalCentFromCent(c Cent) DecimalCent {
	return DecimalCent{d: decimal.NewFromInt(int64(c))}
}

// NewDecimalCentFromFloat builds a DecimalCent from a float64, useful
// for test fixtures. Precision beyond float64's mantissa is not guaranteed;
// callers needing exactness should route rate arithmetic through
// Percent/Rate instead.
func NewDecimalCentFromFloat(f float64) DecimalCent {
	return DecimalCent{d: decimal.NewFromFloat(f)}
}

func (d DecimalCent) Add(other DecimalCent) DecimalCent {
	return DecimalCent{d: d.d.Add(other.d)}
}

func (d DecimalCent) Sub(other DecimalCent) DecimalCent {
	return DecimalCent{d: d.d.Sub(other.d)}
}

func (d DecimalCent) Neg() DecimalCent {
	return DecimalCent{d: d.d.Neg()}
}

func (d DecimalCent) Mul(factor decimal.Decimal) DecimalCent {
	return DecimalCent{d: d.d.Mul(factor)}
}

func (d DecimalCent) Cmp(other DecimalCent) int {
	return d.d.Cmp(other.d)
}

func (d DecimalCent) IsZero() bool { return d.d.IsZero() }

func (d DecimalCent) IsNegative() bool { return d.d.IsNegative() }

func (d DecimalCent) IsPositive() bool { return d.d.IsPositive() }

// Min returns the lesser of two DecimalCent values.
func (d DecimalCent) Min(other DecimalCent) DecimalCent {
	if d.Cmp(other) <= 0 {
		return d
	}
	return other
}

// Max returns the greater of two DecimalCent values.
func (d DecimalCent) Max(other DecimalCent) DecimalCent {
	if d.Cmp(other) >= 0 {
		return d
	}
	return other
}

// Round converts a DecimalCent to a whole Cent using the supplied
// rounding mode. Every call site names its rounding explicitly; there
// is no ambient default.
func (d DecimalCent) Round(r Rounding) Cent {
	return Cent(r.round(d.d).IntPart())
}

// Decimal exposes the underlying decimal.Decimal for callers (e.g.
// fees) that need arbitrary-precision rate arithmetic beyond
// what Cent/DecimalCent expose.
func (d DecimalCent) Decimal() decimal.Decimal { return d.d }

func (d DecimalCent) String() string { return d.d.String() }

// Rounding enumerates the directed-rounding modes available to
// callers converting a DecimalCent (or a Percentage Amount) down to a
// whole Cent. There is no implicit default: every call site specifies
// one.
type Rounding int

const (
	Up Rounding = iota
	Down
	HalfAwayFromZero
	HalfToEven
	HalfTowardZero
)

func (r Rounding) round(d decimal.Decimal) decimal.Decimal {
	switch r {
	case Up:
		return roundUp(d)
	case Down:
		return d.Truncate(0)
	case HalfAwayFromZero:
		return d.Round(0)
	case HalfToEven:
		return d.RoundBank(0)
	case HalfTowardZero:
		return roundHalfTowardZero(d)
	default:
		return d.Round(0)
	}
}

func roundUp(d decimal.Decimal) decimal.Decimal {
	truncated := d.Truncate(0)
	if d.Equal(truncated) {
		return truncated
	}
	if d.IsPositive() {
		return truncated.Add(decimal.NewFromInt(1))
	}
	return truncated.Sub(decimal.NewFromInt(1))
}

func roundHalfTowardZero(d decimal.Decimal) decimal.Decimal {
	truncated := d.Truncate(0)
	remainder := d.Sub(truncated).Abs()
	half := decimal.NewFromFloat(0.5)
	if remainder.GreaterThan(half) {
		if d.IsPositive() {
			return truncated.Add(decimal.NewFromInt(1))
		}
		return truncated.Sub(decimal.NewFromInt(1))
	}
	return truncated
}

// Percent is a decimal percentage/rate value (e.g. 0.08 for 8%).
type Percent struct {
	d decimal.Decimal
}

func NewPercent(d decimal.Decimal) Percent { return Percent{d: d} }

func NewPercentFromFloat(f float64) Percent {
	return Percent{d: decimal.NewFromFloat(f)}
}

func (p Percent) Decimal() decimal.Decimal { return p.d }

func (p Percent) IsZero() bool { return p.d.IsZero() }

func (p Percent) Mul(c Cent) DecimalCent {
	return DecimalCent{d: decimal.NewFromInt(int64(c)).Mul(p.d)}
}

func (p Percent) MulDecimalCent(d DecimalCent) DecimalCent {
	return DecimalCent{d: d.d.Mul(p.d)}
}

func (p Percent) String() string { return p.d.String() }

// Rate distinguishes an annual rate from its daily equivalent. The
// conversion is annual/365 with no leap-year adjustment, per spec.
type Rate struct {
	annual Percent
}

func NewAnnualRate(p Percent) Rate { return Rate{annual: p} }

func (r Rate) Annual() Percent { return r.annual }

func (r Rate) Daily() Percent {
	return Percent{d: r.annual.d.Div(decimal.NewFromInt(365))}
}

// Restriction bounds how a Percentage Amount may be interpreted
// relative to an accompanying lower/upper limit.
type Restriction int

const (
	NoLimit Restriction = iota
	LowerBound
	UpperBound
)

// Amount is either a flat Simple amount or a Percentage of some base
// value, evaluated with an explicit restriction and rounding mode.
type Amount struct {
	simple      Cent
	isPercent   bool
	rate        Percent
	restriction Restriction
	rounding    Rounding
	bound       Cent // only meaningful when restriction != NoLimit
}

// SimpleAmount builds a flat-cent Amount.
func SimpleAmount(c Cent) Amount {
	return Amount{simple: c}
}

// PercentageAmount builds a percentage-of-base Amount.
func PercentageAmount(rate Percent, restriction Restriction, bound Cent, rounding Rounding) Amount {
	return Amount{isPercent: true, rate: rate, restriction: restriction, bound: bound, rounding: rounding}
}

// Evaluate resolves the Amount against a base value (e.g. principal).
func (a Amount) Evaluate(base Cent) Cent {
	if !a.isPercent {
		return a.simple
	}
	raw := a.rate.Mul(base).Round(a.rounding)
	switch a.restriction {
	case LowerBound:
		if raw < a.bound {
			return a.bound
		}
	case UpperBound:
		if raw > a.bound {
			return a.bound
		}
	}
	return raw
}

// ErrInvalidConfig is wrapped by every configuration constructor in
// this module family that rejects out-of-range input (§7 "Config
// out-of-range").
var ErrInvalidConfig = fmt.Errorf("invalid config")
