package interest

import (
	"testing"
	"time"

	"github.com/jiangshenghai57/amortengine/calendar"
	"github.com/jiangshenghai57/amortengine/money"
)

func TestDailyRatesPromotionalPrecedence(t *testing.T) {
	start := calendar.NewDate(2024, time.September, 2)
	cfg := Config{
		StandardRate: money.NewAnnualRate(money.NewPercentFromFloat(365 * 0.008)), // 0.8%/day
		PromotionalRates: []PromotionalRate{
			{
				Range: calendar.DateRange{Start: calendar.NewDate(2024, time.October, 1), End: calendar.NewDate(2024, time.October, 31)},
				Rate:  money.NewAnnualRate(money.NewPercentFromFloat(0)),
			},
		},
	}

	oct1 := calendar.ToOffsetDay(start, calendar.NewDate(2024, time.October, 1))
	rates := cfg.DailyRates(start, oct1-1, oct1, false)
	if len(rates) != 1 {
		t.Fatalf("expected 1 rate, got %d", len(rates))
	}
	if !rates[0].Decimal().IsZero() {
		t.Errorf("expected promotional zero rate on Oct 1, got %v", rates[0])
	}
}

func TestApplyTotalCapTruncates(t *testing.T) {
	cap := money.NewDecimalCentFromCent(10000)
	cumulative := money.NewDecimalCentFromCent(9000)
	newInterest := money.NewDecimalCentFromCent(2000)

	got := ApplyTotalCap(&cap, cumulative, newInterest)
	want := money.NewDecimalCentFromCent(1000)
	if got.Cmp(want) != 0 {
		t.Errorf("ApplyTotalCap = %v, want %v", got, want)
	}
}

func TestApplyTotalCapNoCap(t *testing.T) {
	newInterest := money.NewDecimalCentFromCent(2000)
	got := ApplyTotalCap(nil, money.ZeroDecimalCent, newInterest)
	if got.Cmp(newInterest) != 0 {
		t.Errorf("ApplyTotalCap with nil cap should pass through unchanged")
	}
}

func TestAccrueDailyCap(t *testing.T) {
	cap := money.Cent(50)
	rates := []money.Percent{money.NewPercentFromFloat(0.01), money.NewPercentFromFloat(0.01)}
	got := Accrue(10000, &cap, rates) // 1% of 10000 = 100, capped to 50 each day
	want := money.NewDecimalCentFromCent(100)
	if got.Cmp(want) != 0 {
		t.Errorf("Accrue with cap = %v, want %v", got, want)
	}
}
