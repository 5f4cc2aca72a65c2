package apr

import (
	"testing"

	"github.com/jiangshenghai57/amortengine/calendar"
	"github.com/jiangshenghai57/amortengine/money"
	"github.com/shopspring/decimal"
)

func TestUsActuarialSingleAdvanceSinglePayment(t *testing.T) {
	// $1000 advanced at day 0, $1010 repaid 30 days later implies
	// roughly a 1% monthly / ~12% annual rate.
	flows := []CashFlow{
		{Day: 0, Amount: 100000},
		{Day: 30, Amount: -101000},
	}
	rate, err := UsActuarial(flows, decimal.NewFromInt(12), 4)
	if err != nil {
		t.Fatalf("UsActuarial: %v", err)
	}
	f, _ := rate.Decimal().Float64()
	if f <= 0 || f > 1 {
		t.Errorf("annual rate = %v, want a small positive fraction", f)
	}
}

func TestUsActuarialZeroInterestFlatRate(t *testing.T) {
	flows := []CashFlow{
		{Day: 0, Amount: 120000},
		{Day: 30, Amount: -40000},
		{Day: 60, Amount: -40000},
		{Day: 90, Amount: -40000},
	}
	rate, err := UsActuarial(flows, decimal.NewFromInt(12), 4)
	if err != nil {
		t.Fatalf("UsActuarial: %v", err)
	}
	f, _ := rate.Decimal().Float64()
	if f < -0.01 || f > 0.01 {
		t.Errorf("zero-interest flows should solve to ~0 APR, got %v", f)
	}
}

func TestUsActuarialNoConvergenceWithoutPayments(t *testing.T) {
	flows := []CashFlow{{Day: 0, Amount: 100000}}
	_, err := UsActuarial(flows, decimal.NewFromInt(12), 4)
	if err == nil {
		t.Fatal("expected ErrNoConvergence when there are no payment flows")
	}
}

func TestInferPeriodLengthMonthlySpacing(t *testing.T) {
	flows := []CashFlow{
		{Day: 0, Amount: 1},
		{Day: calendar.OffsetDay(30), Amount: -1},
		{Day: calendar.OffsetDay(60), Amount: -1},
	}
	got := inferPeriodLength(flows)
	want := decimal.NewFromInt(30)
	if !got.Equal(want) {
		t.Errorf("inferPeriodLength = %v, want %v", got, want)
	}
}

func TestUnitedKingdomMatchesUsActuarialForSameFlows(t *testing.T) {
	flows := []CashFlow{
		{Day: 0, Amount: 50000},
		{Day: 30, Amount: -17000},
		{Day: 60, Amount: -17000},
		{Day: 90, Amount: -17000},
	}
	a, err := UsActuarial(flows, decimal.NewFromInt(12), 4)
	if err != nil {
		t.Fatalf("UsActuarial: %v", err)
	}
	b, err := UnitedKingdom(flows, decimal.NewFromInt(12), 4)
	if err != nil {
		t.Fatalf("UnitedKingdom: %v", err)
	}
	if a.Decimal().Cmp(b.Decimal()) != 0 {
		t.Errorf("UsActuarial and UnitedKingdom diverged: %v vs %v", a, b)
	}
}

func TestMoneyPercentRoundTrip(t *testing.T) {
	p := money.NewPercentFromFloat(0.0825)
	if p.IsZero() {
		t.Fatal("expected nonzero percent")
	}
}
