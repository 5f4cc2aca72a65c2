package appliedpayment

import (
	"testing"
	"time"

	"github.com/jiangshenghai57/amortengine/calendar"
	"github.com/jiangshenghai57/amortengine/fees"
	"github.com/jiangshenghai57/amortengine/money"
	"github.com/jiangshenghai57/amortengine/schedule"
)

func TestBuildPaymentMade(t *testing.T) {
	start := calendar.NewDate(2024, time.September, 2)
	in := Input{
		StartDate: start,
		Scheduled: schedule.Map{
			10: {HasOriginal: true, Original: 5000},
		},
		Actuals: map[calendar.OffsetDay][]ActualPayment{
			10: {{Status: Confirmed, Amount: 5000}},
		},
		AsOfDay: 20,
		Purpose: IntendedPurpose{Kind: Statement},
	}

	out := Build(in)
	if len(out) != 1 {
		t.Fatalf("expected 1 applied payment, got %d", len(out))
	}
	if out[0].Status != PaymentMade {
		t.Errorf("status = %v, want PaymentMade", out[0].Status)
	}
	if out[0].NetEffect != 5000 {
		t.Errorf("netEffect = %d, want 5000", out[0].NetEffect)
	}
}

func TestBuildMissedPaymentTriggersLateCharge(t *testing.T) {
	start := calendar.NewDate(2024, time.September, 2)
	in := Input{
		StartDate: start,
		Scheduled: schedule.Map{
			10: {HasOriginal: true, Original: 5000},
		},
		AsOfDay: 30,
		Purpose: IntendedPurpose{Kind: Statement},
		ChargeConfig: fees.ChargeConfig{
			ChargeTypes: []fees.Charge{
				{Kind: fees.LatePayment, Amount: money.SimpleAmount(1500)},
			},
			LatePaymentGracePeriod: 2,
		},
	}

	out := Build(in)
	if out[0].Status != MissedPayment {
		t.Fatalf("status = %v, want MissedPayment", out[0].Status)
	}
	if len(out[0].IncurredCharges) != 1 || out[0].IncurredCharges[0].Amount.Evaluate(0) != 1500 {
		t.Errorf("expected a 1500 late-payment charge, got %+v", out[0].IncurredCharges)
	}
}

func TestBuildPendingTimesOut(t *testing.T) {
	start := calendar.NewDate(2024, time.September, 2)
	in := Input{
		StartDate: start,
		Scheduled: schedule.Map{
			10: {HasOriginal: true, Original: 5000},
		},
		Actuals: map[calendar.OffsetDay][]ActualPayment{
			10: {{Status: Pending, Amount: 5000}},
		},
		AsOfDay:        60,
		Purpose:        IntendedPurpose{Kind: Statement},
		PaymentTimeout: 30,
	}

	out := Build(in)
	if out[0].ActualPayments[0].Status != TimedOut {
		t.Errorf("expected Pending to be reclassified TimedOut, got %v", out[0].ActualPayments[0].Status)
	}
	if out[0].Status != MissedPayment {
		t.Errorf("status after timeout = %v, want MissedPayment", out[0].Status)
	}
}

func TestBuildSettlementInsertsSyntheticDay(t *testing.T) {
	start := calendar.NewDate(2024, time.September, 2)
	in := Input{
		StartDate: start,
		Scheduled: schedule.Map{
			10: {HasOriginal: true, Original: 5000},
		},
		AsOfDay: 40,
		Purpose: IntendedPurpose{Kind: SettlementOn, SettlementDay: 40},
	}

	out := Build(in)
	found := false
	for _, ap := range out {
		if ap.Day == 40 {
			found = true
			if ap.GeneratedPayment != ToBeGenerated {
				t.Errorf("expected synthetic day 40 to carry ToBeGenerated")
			}
		}
	}
	if !found {
		t.Fatal("expected a synthetic applied payment at the settlement day")
	}
}

func TestBuildExtraPaymentWhenNoneScheduled(t *testing.T) {
	start := calendar.NewDate(2024, time.September, 2)
	in := Input{
		StartDate: start,
		Actuals: map[calendar.OffsetDay][]ActualPayment{
			15: {{Status: Confirmed, Amount: 2000}},
		},
		AsOfDay: 20,
		Purpose: IntendedPurpose{Kind: Statement},
	}
	out := Build(in)
	if out[0].Status != ExtraPayment {
		t.Errorf("status = %v, want ExtraPayment", out[0].Status)
	}
}
