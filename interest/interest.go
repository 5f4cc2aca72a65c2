// Package interest models a loan's interest policy: the standard
// daily rate, promotional-rate intervals, an initial grace period, and
// the daily/total caps that bound how much interest a schedule may
// ever charge.
package interest

import (
	"github.com/jiangshenghai57/amortengine/calendar"
	"github.com/jiangshenghai57/amortengine/money"
)

// Method selects how interest accrues.
type Method int

const (
	// Simple interest accrues daily against the outstanding balance.
	Simple Method = iota
	// AddOn names add-on interest, reserved up front and reconciled
	// against variance days. No accrual path reads Method: Accrue and
	// the amortisation engine accrue every loan as Simple, whichever
	// value is set.
	AddOn
)

// PromotionalRate overrides the standard daily rate for a date range.
type PromotionalRate struct {
	Range DateRangeAlias
	Rate  money.Rate
}

// DateRangeAlias avoids importing calendar twice under two names at
// call sites that already have a calendar.DateRange in scope.
type DateRangeAlias = calendar.DateRange

// Cap bounds interest charged either per day or over the life of the
// loan. A nil pointer for either field means "no cap".
type Cap struct {
	Daily *money.Cent
	Total *money.Amount // evaluated against principal
}

// Config is the full interest policy for a loan.
type Config struct {
	Method               Method
	StandardRate         money.Rate
	Cap                  Cap
	InitialGracePeriod   int // days
	PromotionalRates     []PromotionalRate
	RateOnNegativeBalance *money.Rate // nil => zero
}

// TotalCap evaluates the lifetime interest cap against principal, or
// nil if no total cap is configured.
func (c Config) TotalCap(principal money.Cent) *money.DecimalCent {
	if c.Cap.Total == nil {
		return nil
	}
	v := money.NewDecimalCentFromCent(c.Cap.Total.Evaluate(principal))
	return &v
}

// DailyRates returns, for each day in (fromDay, toDay], the daily rate
// that applies to that day, in order. Precedence: a day within a
// promotional interval uses that rate; otherwise a day within the
// initial grace period of startDate — while settlement-in-grace is in
// progress — uses zero; otherwise the standard daily rate applies.
func (c Config) DailyRates(startDate calendar.Date, fromDay, toDay calendar.OffsetDay, settlingInGracePeriod bool) []money.Percent {
	if toDay <= fromDay {
		return nil
	}
	rates := make([]money.Percent, 0, int(toDay-fromDay))
	for day := fromDay + 1; day <= toDay; day++ {
		date := calendar.ToDate(startDate, day)
		rates = append(rates, c.rateForDay(startDate, day, date, settlingInGracePeriod))
	}
	return rates
}

func (c Config) rateForDay(startDate calendar.Date, day calendar.OffsetDay, date calendar.Date, settlingInGracePeriod bool) money.Percent {
	for _, promo := range c.PromotionalRates {
		if promo.Range.Contains(date) {
			return promo.Rate.Daily()
		}
	}
	if settlingInGracePeriod && int(day) <= c.InitialGracePeriod {
		return money.NewPercentFromFloat(0)
	}
	return c.StandardRate.Daily()
}

// Accrue sums per-day interest over the supplied rates against a
// (possibly capped) balance, returning fractional cents. Each day's
// contribution is min(balance*rate, dailyCap) when a daily cap is
// configured; the sum is not rounded until the caller charges it to
// the schedule.
func Accrue(balance money.Cent, dailyCap *money.Cent, rates []money.Percent) money.DecimalCent {
	total := money.ZeroDecimalCent
	for _, rate := range rates {
		day := rate.Mul(balance)
		if dailyCap != nil {
			capDec := money.NewDecimalCentFromCent(*dailyCap)
			if balance > 0 {
				day = day.Min(capDec)
			}
		}
		total = total.Add(day)
	}
	return total
}

// NegativeBalanceRate resolves the rate applied when the principal
// balance is at or below zero. Defaults to a zero rate when the
// policy does not configure one.
func (c Config) NegativeBalanceRate() money.Rate {
	if c.RateOnNegativeBalance == nil {
		return money.NewAnnualRate(money.NewPercentFromFloat(0))
	}
	return *c.RateOnNegativeBalance
}

// ApplyTotalCap truncates newInterest so that cumulativeInterest plus
// the (possibly reduced) newInterest never exceeds the configured
// total cap. When there is no total cap, newInterest passes through
// unchanged.
func ApplyTotalCap(totalCap *money.DecimalCent, cumulativeInterest, newInterest money.DecimalCent) money.DecimalCent {
	if totalCap == nil {
		return newInterest
	}
	if cumulativeInterest.Add(newInterest).Cmp(*totalCap) >= 0 {
		delta := totalCap.Sub(cumulativeInterest)
		if delta.IsNegative() {
			return money.ZeroDecimalCent
		}
		return delta
	}
	return newInterest
}
