// Package quote orchestrates the amortisation engine to answer the
// three borrower-facing questions: what would it cost to settle today
// (getQuote), what does the plan look like after a reschedule
// (Reschedule), and what does a fresh loan look like after rolling the
// old one's residual into it (RollOver).
package quote

import (
	"github.com/jiangshenghai57/amortengine/amortization"
	"github.com/jiangshenghai57/amortengine/appliedpayment"
	"github.com/jiangshenghai57/amortengine/calendar"
	"github.com/jiangshenghai57/amortengine/fees"
	"github.com/jiangshenghai57/amortengine/interest"
	"github.com/jiangshenghai57/amortengine/money"
	"github.com/jiangshenghai57/amortengine/schedule"
)

// Schedule is the finished output of one amortisation run: the
// per-day items plus the scheduled-payment map that produced them.
type Schedule struct {
	Items     []amortization.ScheduleItem
	Scheduled schedule.Map
}

// QuoteResultKind discriminates the closed result set of getQuote.
type QuoteResultKind int

const (
	PaymentQuoteKind QuoteResultKind = iota
	AwaitPaymentConfirmation
	UnableToGenerateQuote
)

// Apportionment breaks a quoted payment value into its component
// portions.
type Apportionment struct {
	Principal money.Cent
	Fees      money.Cent
	Interest  money.Cent
	Charges   money.Cent
}

// PaymentQuote is the settlement figure and its apportionment, plus
// the fee refund that would apply if settled on the quoted day.
type PaymentQuote struct {
	PaymentValue        money.Cent
	Apportionment       Apportionment
	FeesRefundIfSettled money.Cent
}

// QuoteResult is the closed sum type returned by getQuote.
type QuoteResult struct {
	Kind  QuoteResultKind
	Quote PaymentQuote // only meaningful when Kind == PaymentQuoteKind
}

// Quote bundles the current (statement-mode) and revised
// (settlement-mode) schedules alongside the quote result.
type Quote struct {
	Result          QuoteResult
	CurrentSchedule Schedule
	RevisedSchedule Schedule
}

// Params is the shared loan configuration needed to run the engine,
// independent of the actual-payment history supplied per call.
type Params struct {
	StartDate   calendar.Date
	Principal   money.Cent
	ScheduleCfg schedule.Config
	PaymentCfg  amortization.PaymentConfig
	FeeCfg      fees.FeeConfig
	ChargeCfg   fees.ChargeConfig
	InterestCfg interest.Config
}

// GetQuote runs the engine once in Statement mode (currentSchedule)
// and once in the requested settlement mode (revisedSchedule), then
// locates the generated-payment slot to build a PaymentQuote, per
// spec §4.10.
func GetQuote(purpose appliedpayment.IntendedPurpose, params Params, actuals map[calendar.OffsetDay][]appliedpayment.ActualPayment, asOfDay calendar.OffsetDay) (Quote, error) {
	sched, err := schedule.Build(params.ScheduleCfg, params.StartDate, params.Principal, params.InterestCfg, params.PaymentCfg.Rounding)
	if err != nil {
		return Quote{}, err
	}

	current := runSchedule(params, sched, actuals, asOfDay, appliedpayment.IntendedPurpose{Kind: appliedpayment.Statement})
	revised := runSchedule(params, sched, actuals, asOfDay, purpose)

	if hasPendingPayment(revised.Items) {
		return Quote{
			Result:          QuoteResult{Kind: AwaitPaymentConfirmation},
			CurrentSchedule: current,
			RevisedSchedule: revised,
		}, nil
	}

	generatedItem := findGeneratedItem(revised.Items)
	if generatedItem == nil || generatedItem.GeneratedPayment == nil {
		return Quote{
			Result:          QuoteResult{Kind: UnableToGenerateQuote},
			CurrentSchedule: current,
			RevisedSchedule: revised,
		}, nil
	}

	pq := PaymentQuote{
		PaymentValue: *generatedItem.GeneratedPayment,
		Apportionment: Apportionment{
			Principal: generatedItem.PrincipalPortion,
			Fees:      generatedItem.FeesPortion,
			Interest:  generatedItem.InterestPortion,
			Charges:   generatedItem.ChargesPortion,
		},
		FeesRefundIfSettled: generatedItem.FeesRefund,
	}

	return Quote{
		Result:          QuoteResult{Kind: PaymentQuoteKind, Quote: pq},
		CurrentSchedule: current,
		RevisedSchedule: revised,
	}, nil
}

func runSchedule(params Params, sched schedule.Map, actuals map[calendar.OffsetDay][]appliedpayment.ActualPayment, asOfDay calendar.OffsetDay, purpose appliedpayment.IntendedPurpose) Schedule {
	applied := appliedpayment.Build(appliedpayment.Input{
		StartDate:    params.StartDate,
		Scheduled:    sched,
		Actuals:      actuals,
		AsOfDay:      asOfDay,
		Purpose:      purpose,
		ChargeConfig: params.ChargeCfg,
		PaymentTimeout: params.PaymentCfg.Timeout,
	})

	engineParams := amortization.ScheduleParameters{
		AsOfDate:    calendar.ToDate(params.StartDate, asOfDay),
		StartDate:   params.StartDate,
		Principal:   params.Principal,
		ScheduleCfg: params.ScheduleCfg,
		PaymentCfg:  params.PaymentCfg,
		FeeCfg:      params.FeeCfg,
		ChargeCfg:   params.ChargeCfg,
		InterestCfg: params.InterestCfg,
	}

	items := amortization.Amortise(engineParams, money.ZeroDecimalCent, applied)
	return Schedule{Items: items, Scheduled: sched}
}

func hasPendingPayment(items []amortization.ScheduleItem) bool {
	for _, it := range items {
		for _, ap := range it.ActualPayments {
			if ap.Status == appliedpayment.Pending {
				return true
			}
		}
	}
	return false
}

func findGeneratedItem(items []amortization.ScheduleItem) *amortization.ScheduleItem {
	for i := range items {
		if items[i].GeneratedPayment != nil {
			return &items[i]
		}
	}
	return nil
}

// RescheduleParams describes a reschedule: the day from which the
// original plan is overridden, and the new schedule config to apply
// from that day forward.
type RescheduleParams struct {
	RescheduleDay calendar.OffsetDay
	NewScheduleCfg schedule.Config
}

// Reschedule obtains a settlement quote as of RescheduleDay, then
// builds a new schedule preserving original scheduled payments up to
// RescheduleDay and substituting NewScheduleCfg's payments from that
// day forward, per spec §4.10.
func Reschedule(params Params, reschedule RescheduleParams, actuals map[calendar.OffsetDay][]appliedpayment.ActualPayment) (Schedule, Schedule, bool) {
	purpose := appliedpayment.IntendedPurpose{Kind: appliedpayment.SettlementOn, SettlementDay: reschedule.RescheduleDay}
	q, err := GetQuote(purpose, params, actuals, reschedule.RescheduleDay)
	if err != nil || q.Result.Kind != PaymentQuoteKind {
		return Schedule{}, Schedule{}, false
	}

	newSched, err := schedule.Build(reschedule.NewScheduleCfg, params.StartDate, params.Principal, params.InterestCfg, params.PaymentCfg.Rounding)
	if err != nil {
		return Schedule{}, Schedule{}, false
	}

	merged := schedule.Map{}
	for day, sp := range q.CurrentSchedule.Scheduled {
		if day <= reschedule.RescheduleDay {
			merged[day] = sp
		}
	}
	for day, sp := range newSched {
		if day > reschedule.RescheduleDay {
			merged[day] = sp
		}
	}

	revisedParams := params
	revisedParams.ScheduleCfg = schedule.NewCustomSchedule(merged)
	lastDay := maxDay(merged)
	revised := runSchedule(revisedParams, merged, actuals, lastDay, appliedpayment.IntendedPurpose{Kind: appliedpayment.Statement})
	revised.Items = amortization.TrimTrailingNoLongerRequired(revised.Items)

	return q.CurrentSchedule, revised, true
}

func maxDay(m schedule.Map) calendar.OffsetDay {
	var max calendar.OffsetDay
	for d := range m {
		if d > max {
			max = d
		}
	}
	return max
}

// FeeHandling selects how a settled loan's outstanding fee balance is
// treated when rolling into a new loan.
type FeeHandling int

const (
	CapitaliseAsPrincipal FeeHandling = iota
	CarryOverAsIs
	WriteOffFeeBalance
)

// RolloverParams describes the new loan to originate against the
// settled balance of the old one.
type RolloverParams struct {
	AsOfDate       calendar.Date
	FeeHandling    FeeHandling
	NewScheduleCfg schedule.Config
	NewFeeCfg      fees.FeeConfig
	NewInterestCfg interest.Config
	NewChargeCfg   fees.ChargeConfig
	NewPaymentCfg  amortization.PaymentConfig
}

// RollOver obtains a settlement quote as of rollover.AsOfDate, then
// originates a fresh loan whose principal depends on FeeHandling, per
// spec §4.10.
func RollOver(params Params, rollover RolloverParams, actuals map[calendar.OffsetDay][]appliedpayment.ActualPayment) (Schedule, Schedule, bool) {
	asOfDay := calendar.ToOffsetDay(params.StartDate, rollover.AsOfDate)
	purpose := appliedpayment.IntendedPurpose{Kind: appliedpayment.SettlementOnAsOfDay}
	q, err := GetQuote(purpose, params, actuals, asOfDay)
	if err != nil || q.Result.Kind != PaymentQuoteKind {
		return Schedule{}, Schedule{}, false
	}

	settled := findGeneratedItem(q.RevisedSchedule.Items)
	if settled == nil {
		return Schedule{}, Schedule{}, false
	}

	var newPrincipal money.Cent
	switch rollover.FeeHandling {
	case CapitaliseAsPrincipal:
		newPrincipal = *settled.GeneratedPayment
	case CarryOverAsIs, WriteOffFeeBalance:
		newPrincipal = settled.PrincipalPortion
	}
	if newPrincipal < 0 {
		newPrincipal = 0
	}

	newParams := Params{
		StartDate:   rollover.AsOfDate,
		Principal:   newPrincipal,
		ScheduleCfg: rollover.NewScheduleCfg,
		PaymentCfg:  rollover.NewPaymentCfg,
		FeeCfg:      rollover.NewFeeCfg,
		ChargeCfg:   rollover.NewChargeCfg,
		InterestCfg: rollover.NewInterestCfg,
	}

	newSched, err := schedule.Build(newParams.ScheduleCfg, newParams.StartDate, newParams.Principal, newParams.InterestCfg, newParams.PaymentCfg.Rounding)
	if err != nil {
		return Schedule{}, Schedule{}, false
	}
	lastDay := maxDay(newSched)
	newSchedule := runSchedule(newParams, newSched, nil, lastDay, appliedpayment.IntendedPurpose{Kind: appliedpayment.Statement})

	return q.CurrentSchedule, newSchedule, true
}
