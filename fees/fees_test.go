package fees

import (
	"testing"
	"time"

	"github.com/jiangshenghai57/amortengine/calendar"
	"github.com/jiangshenghai57/amortengine/money"
)

func TestAmortiseBeforePrincipal(t *testing.T) {
	feesPortion, principalPortion := Apportion(AmortiseBeforePrincipal, money.Up, 1000, 300, money.NewPercentFromFloat(0))
	if feesPortion != 300 || principalPortion != 700 {
		t.Errorf("got fees=%d principal=%d, want fees=300 principal=700", feesPortion, principalPortion)
	}
}

func TestAmortiseProportionately(t *testing.T) {
	// feesPercentage p = 0.1 -> feesPortion = assignable * p/(1+p)
	feesPortion, principalPortion := Apportion(AmortiseProportionately, money.Up, 1100, 10000, money.NewPercentFromFloat(0.1))
	wantFees := money.Cent(100) // 1100*0.1/1.1 = 100 exactly, so rounding up leaves 100
	if feesPortion != wantFees {
		t.Errorf("fees = %d, want %d", feesPortion, wantFees)
	}
	if feesPortion+principalPortion != 1100 {
		t.Errorf("fees+principal = %d, want 1100", feesPortion+principalPortion)
	}
	if feesPortion <= 0 {
		t.Errorf("expected positive fees portion, got %d", feesPortion)
	}
}

func TestProRataRefund(t *testing.T) {
	refund := SettlementRefund{Kind: RefundProRata, OriginalFinalDay: 120}
	got := refund.ProRataRefund(12000, 30)
	// 12000 * (120-30)/120 = 9000
	if got != 9000 {
		t.Errorf("ProRataRefund = %d, want 9000", got)
	}
}

func TestProRataRefundPastFinalDayIsZero(t *testing.T) {
	refund := SettlementRefund{Kind: RefundProRata, OriginalFinalDay: 120}
	if got := refund.ProRataRefund(12000, 130); got != 0 {
		t.Errorf("ProRataRefund past final day = %d, want 0", got)
	}
}

func TestChargeHolidays(t *testing.T) {
	cfg := ChargeConfig{
		ChargeHolidays: []calendar.DateRange{
			{Start: calendar.NewDate(2024, time.December, 20), End: calendar.NewDate(2025, time.January, 2)},
		},
	}
	if !cfg.InHoliday(calendar.NewDate(2024, time.December, 25)) {
		t.Error("expected Dec 25 to be within charge holiday")
	}
	if cfg.InHoliday(calendar.NewDate(2024, time.November, 1)) {
		t.Error("expected Nov 1 to not be within charge holiday")
	}
}

func TestLatePaymentCharge(t *testing.T) {
	cfg := ChargeConfig{
		ChargeTypes: []Charge{
			{Kind: LatePayment, Amount: money.SimpleAmount(1500)},
		},
	}
	got, ok := cfg.LatePaymentCharge(5000)
	if !ok || got != 1500 {
		t.Errorf("LatePaymentCharge = (%d, %v), want (1500, true)", got, ok)
	}
}
