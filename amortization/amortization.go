// Package amortization implements the core amortisation engine: a
// single-pass, purely functional scan over a time-ordered stream of
// applied-payment events that apportions every monetary movement to
// principal, fees, interest and charges while maintaining running
// balances and a classified status per day.
//
// The engine is total (spec §7): every well-formed input produces a
// schedule. Interest/charge caps are enforced by truncation, never by
// returning an error.
package amortization

import (
	"github.com/jiangshenghai57/amortengine/appliedpayment"
	"github.com/jiangshenghai57/amortengine/calendar"
	"github.com/jiangshenghai57/amortengine/fees"
	"github.com/jiangshenghai57/amortengine/interest"
	"github.com/jiangshenghai57/amortengine/money"
	"github.com/jiangshenghai57/amortengine/schedule"
)

// BalanceStatus is derived from the current principal balance.
type BalanceStatus int

const (
	Open BalanceStatus = iota
	Closed
	RefundDue
)

func balanceStatusFor(principalBalance money.Cent) BalanceStatus {
	switch {
	case principalBalance == 0:
		return Closed
	case principalBalance < 0:
		return RefundDue
	default:
		return Open
	}
}

// MinimumPaymentPolicy governs what happens when the computed payment
// due falls below a configured floor.
type MinimumPaymentPolicy struct {
	Kind      MinimumPaymentKind
	Threshold money.Cent
}

type MinimumPaymentKind int

const (
	NoMinimum MinimumPaymentKind = iota
	DeferOrWriteOff
	ApplyMinimum
)

func (p MinimumPaymentPolicy) apply(due money.Cent) money.Cent {
	if due <= 0 {
		return due
	}
	switch p.Kind {
	case DeferOrWriteOff:
		if due < p.Threshold {
			return 0
		}
	case ApplyMinimum:
		// ApplyMinimum: use the computed amount as-is even below the
		// floor — the floor only gates DeferOrWriteOff's decision to
		// waive the payment for this day.
	}
	return due
}

// ScheduledPaymentOption controls how a rescheduled/adjusted payment
// is reconciled against charges and interest.
type ScheduledPaymentOption int

const (
	StandardScheduledPayment ScheduledPaymentOption = iota
	// AddChargesAndInterest folds the outstanding charges balance into
	// the scheduled payment amount before the per-day cap is applied,
	// so a day's due amount clears accrued charges rather than leaving
	// them to roll forward indefinitely. Interest is already reflected
	// in every day's cap regardless of this option; charges are not,
	// which is the gap this option closes.
	AddChargesAndInterest
)

// CloseBalanceOption names whether a residual balance left after the
// final scheduled payment is written off automatically. Amortise does
// not read it: no residual is written off, whichever value is set.
type CloseBalanceOption int

const (
	NoAutoClose CloseBalanceOption = iota
	AutoCloseResidual
)

// PaymentConfig bundles the payment-handling policy knobs named in
// spec §3's ScheduleParameters.
type PaymentConfig struct {
	ScheduledPaymentOption ScheduledPaymentOption
	CloseBalanceOption     CloseBalanceOption
	Rounding               money.Rounding
	Timeout                int // days, forwarded to the applied-payment builder
	MinimumPayment         MinimumPaymentPolicy
}

// ScheduleParameters is the full immutable input to a single
// amortisation run.
type ScheduleParameters struct {
	AsOfDate      calendar.Date
	StartDate     calendar.Date
	Principal     money.Cent
	ScheduleCfg   schedule.Config
	PaymentCfg    PaymentConfig
	FeeCfg        fees.FeeConfig
	ChargeCfg     fees.ChargeConfig
	InterestCfg   interest.Config
}

// ScheduleItem is the central output record, one per included day.
type ScheduleItem struct {
	OffsetDay        calendar.OffsetDay
	OffsetDate       calendar.Date
	Window           int
	Advances         []money.Cent
	ScheduledPayment schedule.ScheduledPayment
	PaymentDue       money.Cent
	ActualPayments   []appliedpayment.ActualPayment
	GeneratedPayment *money.Cent
	NetEffect        money.Cent
	PaymentStatus    appliedpayment.PaymentStatus
	BalanceStatus    BalanceStatus

	NewInterest         money.DecimalCent
	ContractualInterest money.DecimalCent
	NewCharges          []fees.Charge

	PrincipalPortion money.Cent
	FeesPortion      money.Cent
	InterestPortion  money.Cent
	ChargesPortion   money.Cent
	FeesRefund       money.Cent

	PrincipalBalance money.Cent
	FeesBalance      money.Cent
	InterestBalance  money.DecimalCent
	ChargesBalance   money.Cent

	SettlementFigure    money.Cent
	FeesRefundIfSettled money.Cent

	// ShortfallOnLater is set by markPaidLater when this item is
	// relabeled PaidLaterOwing: the amount that remained unpaid even
	// after a later cure within the same window.
	ShortfallOnLater money.Cent
}

// accumulator is the private reducer state threaded between steps.
type accumulator struct {
	cumulativeScheduled money.Cent
	cumulativeActual    money.Cent
	cumulativeGenerated money.Cent
	cumulativeFees      money.Cent
	cumulativeInterest  money.DecimalCent
}

// Amortise consumes a time-ordered stream of applied payments and
// returns one ScheduleItem per day, per spec §4.8.
func Amortise(params ScheduleParameters, initialInterestBalance money.DecimalCent, applied []appliedpayment.AppliedPayment) []ScheduleItem {
	feesTotal := params.FeeCfg.Total(params.Principal)
	feesRefundIfSettled := money.Cent(0)
	if params.FeeCfg.Settlement.Kind != fees.RefundNone {
		feesRefundIfSettled = feesTotal
	}

	seed := ScheduleItem{
		OffsetDay:           0,
		OffsetDate:          params.StartDate,
		Advances:            []money.Cent{params.Principal},
		PrincipalBalance:    params.Principal,
		FeesBalance:         feesTotal,
		InterestBalance:     initialInterestBalance,
		BalanceStatus:       balanceStatusFor(params.Principal),
		FeesRefundIfSettled: feesRefundIfSettled,
	}

	items := []ScheduleItem{seed}
	acc := accumulator{cumulativeFees: feesTotal}

	asOfDay := calendar.ToOffsetDay(params.StartDate, params.AsOfDate)
	totalCap := params.InterestCfg.TotalCap(params.Principal)

	prev := seed
	for _, ap := range applied {
		item := step(params, prev, &acc, ap, asOfDay, totalCap, feesTotal)
		items = append(items, item)
		prev = item
	}

	items = dropDuplicateSeedDay(items)
	items = markPaidLater(items)
	return items
}

func dropDuplicateSeedDay(items []ScheduleItem) []ScheduleItem {
	if len(items) >= 2 && items[0].OffsetDay == 0 && items[1].OffsetDay == 0 {
		return items[1:]
	}
	return items
}

func step(params ScheduleParameters, prev ScheduleItem, acc *accumulator, ap appliedpayment.AppliedPayment, asOfDay calendar.OffsetDay, totalCap *money.DecimalCent, feesTotal money.Cent) ScheduleItem {
	item := ScheduleItem{
		OffsetDay:        ap.Day,
		OffsetDate:       calendar.ToDate(params.StartDate, ap.Day),
		ScheduledPayment: ap.ScheduledPayment,
		ActualPayments:   ap.ActualPayments,
		PaymentStatus:    ap.Status,
		Window:           prev.Window,
	}
	if ap.ScheduledPayment.IsScheduled() {
		item.Window = prev.Window + 1
	}

	closedOrRefund := prev.BalanceStatus == Closed || prev.BalanceStatus == RefundDue

	// (b)/(c) new interest
	var newInterest money.DecimalCent
	if closedOrRefund && prev.BalanceStatus == RefundDue {
		negBase := -(prev.PrincipalBalance + prev.FeesBalance)
		rate := params.InterestCfg.NegativeBalanceRate().Daily()
		days := int(ap.Day - prev.OffsetDay)
		if days < 0 {
			days = 0
		}
		rates := make([]money.Percent, days)
		for i := range rates {
			rates[i] = rate
		}
		newInterest = interest.Accrue(negBase, nil, rates).Neg()
	} else if prev.PrincipalBalance+prev.FeesBalance <= 0 {
		newInterest = money.ZeroDecimalCent
	} else {
		base := prev.PrincipalBalance + prev.FeesBalance
		rates := params.InterestCfg.DailyRates(params.StartDate, prev.OffsetDay, ap.Day, false)
		newInterest = interest.Accrue(base, params.InterestCfg.Cap.Daily, rates)
	}

	cappedNewInterest := interest.ApplyTotalCap(totalCap, acc.cumulativeInterest, newInterest)
	item.NewInterest = cappedNewInterest
	item.ContractualInterest = newInterest

	// (d) interest portion pre-assignment
	interestPortionDecimal := cappedNewInterest.Add(prev.InterestBalance)
	refundOnly := ap.Status == appliedpayment.Refunded
	if refundOnly {
		interestPortionDecimal = money.ZeroDecimalCent
	}
	roundedInterest := interestPortionDecimal.Round(params.PaymentCfg.Rounding)

	// (e) accumulate
	confirmed, pending := splitConfirmedPending(ap)
	acc.cumulativeScheduled += ap.ScheduledPayment.Total()
	acc.cumulativeActual += confirmed + pending
	acc.cumulativeInterest = acc.cumulativeInterest.Add(cappedNewInterest)

	// (f) payment due
	paymentDue := computePaymentDue(params, prev, ap, roundedInterest, closedOrRefund)
	item.PaymentDue = paymentDue

	// (g) underpayment
	underpayment := money.Cent(0)
	if ap.Status == appliedpayment.MissedPayment || ap.Status == appliedpayment.Underpayment {
		underpayment = paymentDue - ap.NetEffect
	}

	// (h) charges
	chargesPortion := money.Cent(0)
	newCharges := ap.IncurredCharges
	if paymentDue != 0 && !params.ChargeCfg.InHoliday(item.OffsetDate) {
		var incurred money.Cent
		for _, c := range newCharges {
			incurred += c.Amount.Evaluate(underpayment)
		}
		chargesPortion = incurred + prev.ChargesBalance
		if chargesPortion < 0 {
			chargesPortion = 0
		}
	} else {
		newCharges = nil
		chargesPortion = prev.ChargesBalance
	}
	item.NewCharges = newCharges

	// (i) net effect, capped at paymentDue for future days
	netEffect := ap.NetEffect
	if ap.Day > asOfDay {
		if netEffect > paymentDue {
			netEffect = paymentDue
		}
	}
	item.NetEffect = netEffect

	// (j) apportionment — priority charges -> interest -> fees ->
	// principal. Only the amount netEffect actually covers at each
	// priority tier is applied; the remainder carries forward (m).
	available := absCent(netEffect)
	chargesApplied := chargesPortion
	if chargesApplied > available {
		chargesApplied = available
	}
	available -= chargesApplied

	interestApplied := absCent(roundedInterest)
	if interestApplied > available {
		interestApplied = available
	}
	available -= interestApplied

	feesPercentage := params.FeeCfg.Percentage(params.Principal)
	feesPortion, principalPortion := fees.Apportion(params.FeeCfg.Amortisation, params.FeeCfg.Rounding, available, prev.FeesBalance, feesPercentage)

	sign := signOf(netEffect)
	feesPortion = applySign(feesPortion, sign)
	principalPortion = applySign(principalPortion, sign)
	chargesSigned := applySign(chargesApplied, sign)
	interestSigned := applySign(interestApplied, sign)
	if roundedInterest < 0 {
		interestSigned = -interestApplied
	}

	// (k) fees refund on settlement
	feesRefund := money.Cent(0)
	settlementFigureRaw := prev.PrincipalBalance + prev.FeesBalance - prev.FeesRefundIfSettled + roundedInterest + chargesPortion
	if feesPortion > 0 && settlementFigureRaw <= netEffect {
		feesRefund = prev.FeesRefundIfSettled
		feesPortion = prev.FeesBalance
		chargesApplied = chargesPortion
		interestApplied = absCent(roundedInterest)
		chargesSigned = applySign(chargesApplied, sign)
		interestSigned = applySign(interestApplied, sign)
		if roundedInterest < 0 {
			interestSigned = -interestApplied
		}
		principalPortion = netEffect - chargesSigned - interestSigned - feesPortion
	}

	// (l) final-payment clamp for a NotYetDue projected day that would
	// otherwise drive principal negative via a fees refund
	if ap.Day > asOfDay && ap.Status == appliedpayment.NotYetDue {
		projectedPrincipalBalance := prev.PrincipalBalance - principalPortion
		if projectedPrincipalBalance < 0 {
			overshoot := -projectedPrincipalBalance
			principalPortion -= overshoot
			netEffect -= overshoot
			paymentDue -= overshoot
			item.NetEffect = netEffect
			item.PaymentDue = paymentDue
		}
	}

	item.FeesPortion = feesPortion
	item.PrincipalPortion = principalPortion
	item.ChargesPortion = chargesSigned
	item.InterestPortion = interestSigned
	item.FeesRefund = feesRefund

	// (m) carry-over: whatever charges/interest netEffect didn't cover
	// rolls forward. The fractional residual after rounding is always
	// carried in InterestBalance so the sum of emitted interest exactly
	// matches the sum of accrued interest over the life of the loan.
	item.ChargesBalance = chargesPortion - chargesApplied
	item.InterestBalance = interestPortionDecimal.Sub(money.NewDecimalCentFromCent(interestSigned))

	item.PrincipalBalance = prev.PrincipalBalance - principalPortion
	item.FeesBalance = prev.FeesBalance - feesPortion
	item.FeesRefundIfSettled = prev.FeesRefundIfSettled - feesRefund
	if item.FeesRefundIfSettled < 0 {
		item.FeesRefundIfSettled = 0
	}

	// (n) balance status
	item.BalanceStatus = balanceStatusFor(item.PrincipalBalance)

	// settlement figure for *this* resulting state, used by the next
	// iteration and by quote orchestration.
	item.SettlementFigure = item.PrincipalBalance + item.FeesBalance - item.FeesRefundIfSettled

	// (o) settlement-mode branch
	if ap.GeneratedPayment == appliedpayment.ToBeGenerated {
		generated := settlementFigureRaw - netEffect
		item.GeneratedPayment = &generated
		// The day's portions cover the whole settlement, so each balance
		// is cleared by its own portion.
		item.ChargesPortion = chargesPortion
		item.InterestPortion = roundedInterest
		item.FeesRefund = prev.FeesRefundIfSettled
		item.FeesPortion = prev.FeesBalance - prev.FeesRefundIfSettled
		item.PrincipalPortion = prev.PrincipalBalance
		item.PrincipalBalance = 0
		item.FeesBalance = 0
		item.InterestBalance = money.ZeroDecimalCent
		item.ChargesBalance = 0
		item.BalanceStatus = Closed
		if generated == 0 {
			item.PaymentStatus = appliedpayment.NoLongerRequired
		} else {
			item.PaymentStatus = appliedpayment.Generated
		}
		return item
	}

	// (p) status resolution
	item.PaymentStatus = resolveStatus(item, ap, paymentDue, confirmed, pending)

	// Once Closed, a zero balance stays zero forever — freeze the item.
	// RefundDue is deliberately excluded: negative-balance interest (b)
	// keeps accruing against a RefundDue balance even with no further
	// activity, so its InterestBalance/PrincipalBalance must pass
	// through uncorrupted.
	if prev.BalanceStatus == Closed {
		return zeroOutClosed(item, prev)
	}

	return item
}

func splitConfirmedPending(ap appliedpayment.AppliedPayment) (confirmed, pending money.Cent) {
	for _, a := range ap.ActualPayments {
		switch a.Status {
		case appliedpayment.Confirmed, appliedpayment.WriteOff:
			confirmed += a.Amount
		case appliedpayment.Pending:
			pending += a.Amount
		}
	}
	return confirmed, pending
}

func computePaymentDue(params ScheduleParameters, prev ScheduleItem, ap appliedpayment.AppliedPayment, roundedInterest money.Cent, closedOrRefund bool) money.Cent {
	if closedOrRefund {
		return 0
	}

	sp := ap.ScheduledPayment
	var due money.Cent
	switch {
	case !sp.IsScheduled():
		due = 0
	case sp.HasOriginal && !sp.HasRescheduled && extraPaymentsBalance(prev) > 0:
		due = sp.Total() - extraPaymentsBalance(prev)
	default:
		amount := sp.Total()
		if params.PaymentCfg.ScheduledPaymentOption == AddChargesAndInterest {
			amount += prev.ChargesBalance
		}
		cap := prev.PrincipalBalance + prev.FeesBalance + roundedInterest
		due = amount
		if due > cap {
			due = cap
		}
	}
	if due < 0 {
		due = 0
	}
	return params.PaymentCfg.MinimumPayment.apply(due)
}

// extraPaymentsBalance approximates "prior overpayments credited
// forward" as the negative of a RefundDue balance; Open schedules
// carry no credit.
func extraPaymentsBalance(prev ScheduleItem) money.Cent {
	if prev.BalanceStatus == RefundDue {
		return -prev.PrincipalBalance
	}
	return 0
}

func absCent(c money.Cent) money.Cent {
	if c < 0 {
		return -c
	}
	return c
}

func signOf(c money.Cent) int {
	if c < 0 {
		return -1
	}
	return 1
}

func applySign(c money.Cent, sign int) money.Cent {
	if sign < 0 {
		return -absCent(c)
	}
	return absCent(c)
}

func resolveStatus(item ScheduleItem, ap appliedpayment.AppliedPayment, paymentDue, confirmed, pending money.Cent) appliedpayment.PaymentStatus {
	switch {
	case item.BalanceStatus == Closed:
		return appliedpayment.NoLongerRequired
	case item.BalanceStatus == RefundDue && item.NetEffect < 0:
		return appliedpayment.Refunded
	case item.BalanceStatus == RefundDue && item.NetEffect > 0:
		return appliedpayment.Overpayment
	case item.BalanceStatus == RefundDue:
		return appliedpayment.NoLongerRequired
	case paymentDue == 0 && confirmed == 0 && pending == 0 && ap.GeneratedPayment == appliedpayment.NoGeneratedPayment:
		return appliedpayment.NothingDue
	default:
		return ap.Status
	}
}

func zeroOutClosed(item ScheduleItem, prev ScheduleItem) ScheduleItem {
	item.PrincipalPortion = 0
	item.FeesPortion = 0
	item.InterestPortion = 0
	item.ChargesPortion = 0
	item.FeesRefund = 0
	item.PrincipalBalance = prev.PrincipalBalance
	item.FeesBalance = prev.FeesBalance
	item.InterestBalance = prev.InterestBalance
	item.ChargesBalance = prev.ChargesBalance
	item.BalanceStatus = prev.BalanceStatus
	item.PaymentStatus = appliedpayment.NoLongerRequired
	item.SettlementFigure = prev.SettlementFigure
	item.FeesRefundIfSettled = prev.FeesRefundIfSettled
	item.NetEffect = 0
	item.PaymentDue = 0
	return item
}

// markPaidLater walks the finished schedule and relabels a window's
// MissedPayment/Underpayment item as PaidLaterInFull or
// PaidLaterOwing(shortfall) when a later item within the same window
// fully or partially cures the shortfall.
func markPaidLater(items []ScheduleItem) []ScheduleItem {
	byWindow := map[int][]int{}
	for i, it := range items {
		if it.PaymentStatus == appliedpayment.MissedPayment || it.PaymentStatus == appliedpayment.Underpayment {
			byWindow[it.Window] = append(byWindow[it.Window], i)
		}
	}
	for window, indices := range byWindow {
		lastCure := findCureIndex(items, window)
		if lastCure < 0 {
			continue
		}
		for _, idx := range indices {
			if idx >= lastCure {
				continue
			}
			shortfall := items[idx].PaymentDue - items[idx].NetEffect
			if shortfall <= 0 {
				items[idx].PaymentStatus = appliedpayment.PaidLaterInFull
			} else {
				items[idx].PaymentStatus = appliedpayment.PaidLaterOwing
				items[idx].ShortfallOnLater = shortfall
			}
		}
	}
	return items
}

func findCureIndex(items []ScheduleItem, window int) int {
	last := -1
	for i, it := range items {
		if it.Window != window {
			continue
		}
		switch it.PaymentStatus {
		case appliedpayment.PaymentMade, appliedpayment.Overpayment, appliedpayment.NoLongerRequired:
			last = i
		}
	}
	return last
}

// TrimTrailingNoLongerRequired drops trailing NoLongerRequired items,
// used by reschedule outputs per spec §4.8 post-processing.
func TrimTrailingNoLongerRequired(items []ScheduleItem) []ScheduleItem {
	end := len(items)
	for end > 0 && items[end-1].PaymentStatus == appliedpayment.NoLongerRequired {
		end--
	}
	return items[:end]
}
