package quote

import (
	"testing"
	"time"

	"github.com/jiangshenghai57/amortengine/amortization"
	"github.com/jiangshenghai57/amortengine/appliedpayment"
	"github.com/jiangshenghai57/amortengine/calendar"
	"github.com/jiangshenghai57/amortengine/interest"
	"github.com/jiangshenghai57/amortengine/money"
	"github.com/jiangshenghai57/amortengine/schedule"
	"github.com/jiangshenghai57/amortengine/unitperiod"
)

func baseParams(t *testing.T, start calendar.Date, principal money.Cent, count int, rate float64) Params {
	t.Helper()
	monthly, err := unitperiod.NewMonthly(1, start.Year(), start.Month(), start.Day())
	if err != nil {
		t.Fatalf("NewMonthly: %v", err)
	}
	interestCfg := interest.Config{StandardRate: money.NewAnnualRate(money.NewPercentFromFloat(rate))}
	return Params{
		StartDate:   start,
		Principal:   principal,
		ScheduleCfg: schedule.NewAutoGenerate(schedule.AutoGenerateConfig{UnitPeriod: monthly, Count: count}),
		PaymentCfg:  amortization.PaymentConfig{Rounding: money.Up},
		InterestCfg: interestCfg,
	}
}

func TestGetQuoteProducesPaymentQuoteWhenNoPendingPayments(t *testing.T) {
	start := calendar.NewDate(2024, time.January, 1)
	params := baseParams(t, start, 250000, 4, 0.1)
	settlementDay := calendar.OffsetDay(45)

	q, err := GetQuote(appliedpayment.IntendedPurpose{Kind: appliedpayment.SettlementOn, SettlementDay: settlementDay}, params, nil, settlementDay)
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if q.Result.Kind != PaymentQuoteKind {
		t.Fatalf("expected PaymentQuoteKind, got %v", q.Result.Kind)
	}
	if q.Result.Quote.PaymentValue <= 0 {
		t.Errorf("expected a positive settlement payment value, got %d", q.Result.Quote.PaymentValue)
	}
}

func TestGetQuoteAwaitsPendingPayment(t *testing.T) {
	start := calendar.NewDate(2024, time.January, 1)
	params := baseParams(t, start, 100000, 2, 0.1)
	// long enough that the day-10 pending payment has not timed out by day 20
	params.PaymentCfg.Timeout = 30
	settlementDay := calendar.OffsetDay(20)

	actuals := map[calendar.OffsetDay][]appliedpayment.ActualPayment{
		10: {{Status: appliedpayment.Pending, Amount: 5000}},
	}

	q, err := GetQuote(appliedpayment.IntendedPurpose{Kind: appliedpayment.SettlementOn, SettlementDay: settlementDay}, params, actuals, settlementDay)
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if q.Result.Kind != AwaitPaymentConfirmation {
		t.Fatalf("expected AwaitPaymentConfirmation with a pending payment outstanding, got %v", q.Result.Kind)
	}
}

func TestRescheduleReplacesTailSchedule(t *testing.T) {
	start := calendar.NewDate(2024, time.January, 1)
	params := baseParams(t, start, 200000, 4, 0.1)

	monthly, _ := unitperiod.NewMonthly(1, start.Year(), start.Month(), start.Day())
	newCfg := schedule.NewAutoGenerate(schedule.AutoGenerateConfig{UnitPeriod: monthly, Count: 6})

	_, revised, ok := Reschedule(params, RescheduleParams{RescheduleDay: 30, NewScheduleCfg: newCfg}, nil)
	if !ok {
		t.Fatal("expected Reschedule to succeed")
	}
	if len(revised.Items) == 0 {
		t.Fatal("expected a non-empty revised schedule")
	}
}

func TestRollOverOriginatesFreshLoan(t *testing.T) {
	start := calendar.NewDate(2024, time.January, 1)
	params := baseParams(t, start, 150000, 3, 0.1)

	rolloverDate := calendar.NewDate(2024, time.February, 15)
	monthly, _ := unitperiod.NewMonthly(1, rolloverDate.Year(), rolloverDate.Month(), rolloverDate.Day())

	rollover := RolloverParams{
		AsOfDate:       rolloverDate,
		FeeHandling:    CapitaliseAsPrincipal,
		NewScheduleCfg: schedule.NewAutoGenerate(schedule.AutoGenerateConfig{UnitPeriod: monthly, Count: 3}),
		NewInterestCfg: interest.Config{StandardRate: money.NewAnnualRate(money.NewPercentFromFloat(0.1))},
		NewPaymentCfg:  amortization.PaymentConfig{Rounding: money.Up},
	}

	_, newSchedule, ok := RollOver(params, rollover, nil)
	if !ok {
		t.Fatal("expected RollOver to succeed")
	}
	if newSchedule.Items[0].PrincipalBalance <= 0 {
		t.Errorf("expected the new loan to originate with a positive principal balance, got %d", newSchedule.Items[0].PrincipalBalance)
	}
}
