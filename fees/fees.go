// Package fees models a loan's fee and charge taxonomy: how fees are
// computed from principal, how they amortise alongside principal
// payments, how they are refunded on early settlement, and how
// late-payment/insufficient-funds charges are incurred.
package fees

import (
	"github.com/jiangshenghai57/amortengine/calendar"
	"github.com/jiangshenghai57/amortengine/money"
	"github.com/shopspring/decimal"
)

// Amortisation selects how a day's assignable payment is split
// between fees and principal.
type Amortisation int

const (
	// AmortiseProportionately splits assignable cents between fees and
	// principal in proportion to the fees-to-principal ratio.
	AmortiseProportionately Amortisation = iota
	// AmortiseBeforePrincipal clears the fees balance before any
	// assignable cents reach principal.
	AmortiseBeforePrincipal
)

// SettlementRefundKind selects how much of the outstanding fee
// balance is returned to the borrower on early settlement.
type SettlementRefundKind int

const (
	RefundNone SettlementRefundKind = iota
	RefundProRata
	RefundBalance
)

// SettlementRefund configures the pro-rata refund's reference final
// day, when applicable. OriginalFinalDay is the day the loan was
// originally due to close; a pro-rata refund on day D is
// feesTotal * (OriginalFinalDay - D) / OriginalFinalDay.
type SettlementRefund struct {
	Kind             SettlementRefundKind
	OriginalFinalDay calendar.OffsetDay
}

// FeeConfig describes the fee taxonomy and its amortisation/refund
// policy.
type FeeConfig struct {
	FeeTypes     []money.Amount
	Rounding     money.Rounding
	Amortisation Amortisation
	Settlement   SettlementRefund
}

// Total evaluates every configured fee type against principal and
// sums the result.
func (c FeeConfig) Total(principal money.Cent) money.Cent {
	var total money.Cent
	for _, ft := range c.FeeTypes {
		total += ft.Evaluate(principal)
	}
	return total
}

// Percentage returns feesTotal / principal, or zero when principal is
// zero.
func (c FeeConfig) Percentage(principal money.Cent) money.Percent {
	if principal == 0 {
		return money.NewPercentFromFloat(0)
	}
	total := c.Total(principal)
	return money.NewPercent(money.NewDecimalCentFromCent(total).Decimal().Div(money.NewDecimalCentFromCent(principal).Decimal()))
}

// Apportion splits `assignable` cents (post charges+interest) between
// fees and principal according to the configured amortisation policy.
// feesBalance is the outstanding fee balance prior to this day's
// apportionment; feesPercentage is FeeConfig.Percentage(principal).
func Apportion(policy Amortisation, rounding money.Rounding, assignable, feesBalance money.Cent, feesPercentage money.Percent) (feesPortion, principalPortion money.Cent) {
	if assignable <= 0 {
		return 0, 0
	}
	switch policy {
	case AmortiseBeforePrincipal:
		feesPortion = minCent(feesBalance, assignable)
		principalPortion = assignable - feesPortion
	case AmortiseProportionately:
		p := feesPercentage.Decimal()
		onePlusP := decimal.NewFromInt(1).Add(p)
		raw := decimal.NewFromInt(int64(assignable)).Mul(p).Div(onePlusP)
		feesPortion = roundUpDecimal(raw)
		if feesPortion > feesBalance {
			feesPortion = feesBalance
		}
		if feesPortion < 0 {
			feesPortion = 0
		}
		principalPortion = assignable - feesPortion
	}
	return feesPortion, principalPortion
}

func minCent(a, b money.Cent) money.Cent {
	if a < b {
		return a
	}
	return b
}

// ProRataRefund computes the pro-rata fee refund owed if the loan
// settles on `day`, clamped to >= 0 and rounded up.
func (r SettlementRefund) ProRataRefund(feesTotal money.Cent, day calendar.OffsetDay) money.Cent {
	if r.Kind != RefundProRata || r.OriginalFinalDay <= 0 || day >= r.OriginalFinalDay {
		return 0
	}
	remaining := decimal.NewFromInt(int64(feesTotal))
	frac := decimal.NewFromInt(int64(r.OriginalFinalDay - day)).Div(decimal.NewFromInt(int64(r.OriginalFinalDay)))
	refund := roundUpDecimal(remaining.Mul(frac))
	if refund < 0 {
		return 0
	}
	if refund > feesTotal {
		return feesTotal
	}
	return refund
}

// ChargeGrouping names how multiple charges incurred on the same day
// are combined. The applied-payment builder does not read it: every
// incurred charge is applied, as under AllChargesApplied, whichever
// value is set.
type ChargeGrouping int

const (
	OneChargeTypePerDay ChargeGrouping = iota
	OneChargeTypePerProduct
	AllChargesApplied
)

// ChargeKind discriminates the built-in charge taxonomy; user-defined
// charge kinds are modeled with Kind >= userDefinedBase.
type ChargeKind int

const (
	LatePayment ChargeKind = iota
	InsufficientFunds
	userDefinedBase
)

// Charge is one incurred charge event.
type Charge struct {
	Kind   ChargeKind
	Amount money.Amount
}

// ChargeConfig describes the charge taxonomy, holiday windows where no
// new charges may be incurred, the grouping policy, and the grace
// period before a late-payment charge is triggered.
type ChargeConfig struct {
	ChargeTypes          []Charge
	ChargeHolidays       []calendar.DateRange
	Grouping             ChargeGrouping
	LatePaymentGracePeriod int // days
}

// InHoliday reports whether date falls inside any configured charge
// holiday window.
func (c ChargeConfig) InHoliday(date calendar.Date) bool {
	for _, h := range c.ChargeHolidays {
		if h.Contains(date) {
			return true
		}
	}
	return false
}

// LatePaymentCharge evaluates the configured LatePayment charge kind
// against the underpayment amount, or returns (0, false) if no such
// charge type is configured.
func (c ChargeConfig) LatePaymentCharge(underpayment money.Cent) (money.Cent, bool) {
	for _, ct := range c.ChargeTypes {
		if ct.Kind == LatePayment {
			return ct.Amount.Evaluate(underpayment), true
		}
	}
	return 0, false
}

// roundUpDecimal rounds a decimal cent amount up in magnitude, i.e.
// away from zero; fee/refund rounding in this package always rounds
// up per §4.5/§8's ProRata formula.
func roundUpDecimal(d decimal.Decimal) money.Cent {
	truncated := d.Truncate(0)
	if d.Equal(truncated) {
		return money.Cent(truncated.IntPart())
	}
	if d.IsPositive() {
		return money.Cent(truncated.IntPart()) + 1
	}
	return money.Cent(truncated.IntPart()) - 1
}
