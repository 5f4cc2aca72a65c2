// Package appliedpayment merges a day's scheduled payment with its
// actual payment attempts (and any late/failed-payment charges) into
// one classified AppliedPayment, the unit the amortisation engine
// folds over.
package appliedpayment

import (
	"github.com/jiangshenghai57/amortengine/calendar"
	"github.com/jiangshenghai57/amortengine/fees"
	"github.com/jiangshenghai57/amortengine/money"
	"github.com/jiangshenghai57/amortengine/schedule"
)

// ActualPaymentStatus discriminates the lifecycle of one payment
// attempt.
type ActualPaymentStatus int

const (
	Pending ActualPaymentStatus = iota
	Confirmed
	Failed
	WriteOff
	TimedOut
)

// ActualPayment is one payment attempt recorded against a day.
type ActualPayment struct {
	Status   ActualPaymentStatus
	Amount   money.Cent
	Charges  []fees.Charge // only meaningful when Status == Failed
	Metadata map[string]string
}

// Reclassify returns a copy of the payment with Pending reclassified
// to TimedOut when scheduledDay is older than paymentTimeout days
// relative to asOfDay.
func (p ActualPayment) Reclassify(scheduledDay, asOfDay calendar.OffsetDay, paymentTimeout int) ActualPayment {
	if p.Status == Pending && int(asOfDay-scheduledDay) > paymentTimeout {
		p.Status = TimedOut
	}
	return p
}

// IntendedPurposeKind discriminates the purpose a build() run serves.
type IntendedPurposeKind int

const (
	Statement IntendedPurposeKind = iota
	SettlementOn
	SettlementOnAsOfDay
)

// IntendedPurpose selects how the builder treats the settlement day.
type IntendedPurpose struct {
	Kind          IntendedPurposeKind
	SettlementDay calendar.OffsetDay // only meaningful when Kind == SettlementOn
}

// GeneratedPaymentState marks whether a day carries a synthesized
// settlement-generated payment slot.
type GeneratedPaymentState int

const (
	NoGeneratedPayment GeneratedPaymentState = iota
	ToBeGenerated
)

// PaymentStatus is the closed-set classification of a day's payment
// activity, per spec §3.
type PaymentStatus int

const (
	NoneScheduled PaymentStatus = iota
	NotYetDue
	PaymentDue
	PaymentPending
	PaymentMade
	NothingDue
	Underpayment
	Overpayment
	ExtraPayment
	MissedPayment
	PaidLaterInFull
	PaidLaterOwing
	Refunded
	Generated
	NoLongerRequired
	InformationOnly
)

// AppliedPayment is the per-day aggregate the amortisation engine
// consumes.
type AppliedPayment struct {
	Day              calendar.OffsetDay
	ScheduledPayment schedule.ScheduledPayment
	ActualPayments   []ActualPayment
	GeneratedPayment GeneratedPaymentState
	IncurredCharges  []fees.Charge
	NetEffect        money.Cent
	Status           PaymentStatus
	ShortfallOnLater money.Cent // only meaningful when Status == PaidLaterOwing
}

// Input is the builder's full input set.
type Input struct {
	StartDate      calendar.Date
	Scheduled      schedule.Map
	Actuals        map[calendar.OffsetDay][]ActualPayment
	AsOfDay        calendar.OffsetDay
	Purpose        IntendedPurpose
	ChargeConfig   fees.ChargeConfig
	PaymentTimeout int
}

// Build runs the per-day classification algorithm of spec §4.7 and
// returns the applied payments in ascending day order.
func Build(in Input) []AppliedPayment {
	days := collectDays(in)

	out := make([]AppliedPayment, 0, len(days))
	for _, day := range days {
		out = append(out, buildDay(in, day))
	}

	out = ensureSettlementDay(in, out)
	return out
}

func collectDays(in Input) []calendar.OffsetDay {
	seen := map[calendar.OffsetDay]bool{}
	var days []calendar.OffsetDay
	for d := range in.Scheduled {
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	for d := range in.Actuals {
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	// insertion sort; day counts are small (a few hundred at most)
	for i := 1; i < len(days); i++ {
		for j := i; j > 0 && days[j-1] > days[j]; j-- {
			days[j-1], days[j] = days[j], days[j-1]
		}
	}
	return days
}

func buildDay(in Input, day calendar.OffsetDay) AppliedPayment {
	scheduled := in.Scheduled[day]
	actuals := in.Actuals[day]

	reclassified := make([]ActualPayment, len(actuals))
	var confirmed, pending money.Cent
	var failedCharges []fees.Charge
	for i, a := range actuals {
		a = a.Reclassify(day, in.AsOfDay, in.PaymentTimeout)
		reclassified[i] = a
		switch a.Status {
		case Confirmed, WriteOff:
			confirmed += a.Amount
		case Pending:
			pending += a.Amount
		case Failed:
			failedCharges = append(failedCharges, a.Charges...)
		}
	}

	ap := AppliedPayment{
		Day:              day,
		ScheduledPayment: scheduled,
		ActualPayments:   reclassified,
	}

	scheduledTotal := scheduled.Total()

	switch {
	case pending > 0:
		ap.Status = PaymentPending
		ap.NetEffect = pending + confirmed

	case scheduledTotal == 0 && confirmed == 0:
		ap.Status = NoneScheduled
		ap.NetEffect = 0

	case scheduledTotal == 0 && confirmed < 0:
		ap.Status = Refunded
		ap.NetEffect = confirmed

	case scheduledTotal == 0:
		ap.Status = ExtraPayment
		ap.NetEffect = confirmed

	case confirmed < scheduledTotal && day <= in.AsOfDay && int(day)+in.ChargeConfig.LatePaymentGracePeriod >= int(in.AsOfDay):
		if in.Purpose.Kind == SettlementOn && in.Purpose.SettlementDay == day {
			ap.Status = Generated
			ap.NetEffect = 0
			ap.GeneratedPayment = ToBeGenerated
		} else {
			ap.Status = PaymentDue
			ap.NetEffect = scheduledTotal
		}

	case day > in.AsOfDay && scheduledTotal > 0:
		ap.Status = NotYetDue
		ap.NetEffect = scheduledTotal

	case confirmed == 0 && scheduledTotal > 0:
		ap.Status = MissedPayment
		ap.NetEffect = 0

	case confirmed < scheduledTotal:
		ap.Status = Underpayment
		ap.NetEffect = confirmed

	case confirmed > scheduledTotal:
		ap.Status = Overpayment
		ap.NetEffect = confirmed

	default:
		ap.Status = PaymentMade
		ap.NetEffect = confirmed
	}

	ap.IncurredCharges = combineCharges(in, ap, scheduledTotal, confirmed, failedCharges)

	return ap
}

func combineCharges(in Input, ap AppliedPayment, scheduledTotal, confirmed money.Cent, failedCharges []fees.Charge) []fees.Charge {
	date := calendar.ToDate(in.StartDate, ap.Day)
	if in.ChargeConfig.InHoliday(date) {
		return failedCharges
	}

	charges := append([]fees.Charge{}, failedCharges...)
	if ap.Status == MissedPayment || ap.Status == Underpayment {
		underpayment := scheduledTotal - confirmed
		if amt, ok := in.ChargeConfig.LatePaymentCharge(underpayment); ok {
			charges = append(charges, fees.Charge{Kind: fees.LatePayment, Amount: money.SimpleAmount(amt)})
		}
	}
	return charges
}

// ensureSettlementDay guarantees a generated-payment slot exists for
// SettlementOn/SettlementOnAsOfDay purposes, inserting a synthetic day
// if the settlement day is absent from the built schedule.
func ensureSettlementDay(in Input, out []AppliedPayment) []AppliedPayment {
	var settlementDay calendar.OffsetDay
	switch in.Purpose.Kind {
	case SettlementOn:
		settlementDay = in.Purpose.SettlementDay
	case SettlementOnAsOfDay:
		settlementDay = in.AsOfDay
	default:
		return out
	}

	for i, ap := range out {
		if ap.Day == settlementDay {
			if ap.GeneratedPayment == NoGeneratedPayment {
				out[i].GeneratedPayment = ToBeGenerated
				out[i].Status = Generated
			}
			return out
		}
	}

	synthetic := AppliedPayment{
		Day:              settlementDay,
		GeneratedPayment: ToBeGenerated,
		Status:           Generated,
	}
	out = append(out, synthetic)
	// keep ascending order
	for i := len(out) - 1; i > 0 && out[i-1].Day > out[i].Day; i-- {
		out[i-1], out[i] = out[i], out[i-1]
	}
	return out
}
