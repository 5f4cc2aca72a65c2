// Package apr computes the annual percentage rate implied by a
// schedule of advances and payments, using the general actuarial
// equation: find the periodic rate i such that the present value of
// all advances equals the present value of all payments.
package apr

import (
	"math"

	"github.com/jiangshenghai57/amortengine/calendar"
	"github.com/jiangshenghai57/amortengine/money"
	"github.com/shopspring/decimal"
)

// CashFlow is one dated advance (positive) or payment (negative),
// expressed in cents, at an offset day from the loan's start.
type CashFlow struct {
	Day    calendar.OffsetDay
	Amount money.Cent
}

// Convention selects the day-count / annualization rule.
type Convention int

const (
	// ConventionUsActuarial annualizes the solved periodic rate by the
	// number of unit periods per year implied by the cash-flow spacing.
	ConventionUsActuarial Convention = iota
	// ConventionUnitedKingdom is equivalent to ConventionUsActuarial for
	// the day-count rule this engine implements; the UK and US
	// actuarial methods differ only in leap-year day counting, which
	// this engine does not model (calendar.AddMonths/annual-365
	// conversions are shared, per spec §9 Open Questions — leap years
	// are out of scope for both).
	ConventionUnitedKingdom
)

// UsActuarial solves for the APR under the US actuarial method.
func UsActuarial(flows []CashFlow, periodsPerYear decimal.Decimal, precision int32) (money.Percent, error) {
	return Solve(ConventionUsActuarial, flows, periodsPerYear, precision)
}

// UnitedKingdom solves for the APR under the UK actuarial method.
func UnitedKingdom(flows []CashFlow, periodsPerYear decimal.Decimal, precision int32) (money.Percent, error) {
	return Solve(ConventionUnitedKingdom, flows, periodsPerYear, precision)
}

const (
	maxIterations   = 100
	residualEpsilon = 1e-10
)

// ErrNoConvergence indicates the iterative solver did not converge
// within maxIterations.
type ErrNoConvergence struct{}

func (ErrNoConvergence) Error() string { return "apr: solver did not converge" }

// Solve finds the annual percentage rate implied by flows, using the
// general equation with a fixed-point update on the periodic rate:
//
//	i <- i * (presentValueOfPayments / presentValueOfAdvances)^2
//
// periodsPerYear annualizes the converged periodic rate (365/periodLen
// for daily-equivalent schedules, 12 for monthly, etc).
func Solve(convention Convention, flows []CashFlow, periodsPerYear decimal.Decimal, precision int32) (money.Percent, error) {
	advances, payments := splitFlows(flows)
	if len(advances) == 0 || len(payments) == 0 {
		return money.Percent{}, ErrNoConvergence{}
	}

	i := decimal.NewFromFloat(0.1).Div(periodsPerYear)
	if i.IsZero() {
		i = decimal.NewFromFloat(0.01)
	}

	for iter := 0; iter < maxIterations; iter++ {
		pvAdvances := presentValue(advances, i)
		pvPayments := presentValue(payments, i)

		if pvPayments.IsZero() {
			return money.Percent{}, ErrNoConvergence{}
		}

		residual := pvAdvances.Sub(pvPayments).Abs()
		if residual.LessThanOrEqual(decimal.NewFromFloat(residualEpsilon).Mul(decimal.NewFromInt(1).Add(pvAdvances.Abs()))) {
			annual := i.Mul(periodsPerYear)
			return money.NewPercent(annual.Round(precision)), nil
		}

		ratio := pvPayments.Div(pvAdvances)
		i = i.Mul(ratio.Mul(ratio))
		if i.IsNegative() {
			i = decimal.NewFromFloat(0.0001)
		}
	}

	return money.Percent{}, ErrNoConvergence{}
}

func splitFlows(flows []CashFlow) (advances, payments []CashFlow) {
	for _, f := range flows {
		if f.Amount > 0 {
			advances = append(advances, f)
		} else if f.Amount < 0 {
			payments = append(payments, f)
		}
	}
	return advances, payments
}

// presentValue discounts each flow's magnitude back to day zero at
// periodic rate i, using the flow's offset day converted to unit
// periods via the average period length implied by the flow set
// itself (the day-0 advance discounts to its own face value).
func presentValue(flows []CashFlow, i decimal.Decimal) decimal.Decimal {
	periodLen := inferPeriodLength(flows)
	onePlusI := decimal.NewFromInt(1).Add(i)

	total := decimal.Zero
	for _, f := range flows {
		periods := decimal.NewFromInt(int64(f.Day)).Div(periodLen)
		discount := pow(onePlusI, periods)
		amount := decimal.NewFromInt(int64(absCent(f.Amount)))
		total = total.Add(amount.Div(discount))
	}
	return total
}

func inferPeriodLength(flows []CashFlow) decimal.Decimal {
	var prev calendar.OffsetDay
	var sum, count int
	first := true
	for _, f := range flows {
		if first {
			prev = f.Day
			first = false
			continue
		}
		if f.Day > prev {
			sum += int(f.Day - prev)
			count++
		}
		prev = f.Day
	}
	if count == 0 {
		return decimal.NewFromInt(30)
	}
	return decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(count)))
}

// pow computes base^exp for a non-integer exponent via the identity
// base^exp = exp(exp * ln(base)), since shopspring/decimal has no
// native fractional-power routine.
func pow(base, exp decimal.Decimal) decimal.Decimal {
	if exp.IsZero() {
		return decimal.NewFromInt(1)
	}
	baseF, _ := base.Float64()
	expF, _ := exp.Float64()
	if baseF <= 0 {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromFloat(math.Pow(baseF, expF))
}

func absCent(c money.Cent) money.Cent {
	if c < 0 {
		return -c
	}
	return c
}
