// Package schedule builds the OffsetDay -> ScheduledPayment mapping
// that anchors an amortisation run: either by solving for a
// level-payment amount (AutoGenerate), echoing fixed payment
// descriptions (FixedSchedules), or passing through an explicit map
// (CustomSchedule).
package schedule

import (
	"fmt"

	"github.com/jiangshenghai57/amortengine/calendar"
	"github.com/jiangshenghai57/amortengine/interest"
	"github.com/jiangshenghai57/amortengine/money"
	"github.com/jiangshenghai57/amortengine/unitperiod"
	"github.com/shopspring/decimal"
)

// ScheduledPayment is the intended due amount on a specific day. A
// Rescheduled entry overrides Original from its RescheduleDay forward.
type ScheduledPayment struct {
	HasOriginal     bool
	Original        money.Cent
	HasRescheduled  bool
	Rescheduled     money.Cent
	RescheduleDay   calendar.OffsetDay
	Adjustment      money.Cent
	Metadata        map[string]string
}

// IsScheduled reports whether this entry carries any original or
// rescheduled amount (as opposed to being an empty placeholder).
func (p ScheduledPayment) IsScheduled() bool {
	return p.HasOriginal || p.HasRescheduled
}

// Total returns max(0, original ∪ rescheduled) + adjustment, where the
// rescheduled amount wins whenever one is present.
func (p ScheduledPayment) Total() money.Cent {
	base := money.Cent(0)
	if p.HasRescheduled {
		base = p.Rescheduled
	} else if p.HasOriginal {
		base = p.Original
	}
	if base < 0 {
		base = 0
	}
	return base + p.Adjustment
}

// Map is an ordered OffsetDay -> ScheduledPayment mapping. It is kept
// as a plain map with callers enumerating keys in sorted order, which
// mirrors the "ordered map / sorted vector" guidance in spec §9 while
// staying idiomatic Go (no imported B-tree dependency is needed at
// this scale — a few hundred entries sorted once per run).
type Map map[calendar.OffsetDay]ScheduledPayment

// SortedDays returns the map's keys in ascending order.
func (m Map) SortedDays() []calendar.OffsetDay {
	days := make([]calendar.OffsetDay, 0, len(m))
	for d := range m {
		days = append(days, d)
	}
	for i := 1; i < len(days); i++ {
		for j := i; j > 0 && days[j-1] > days[j]; j-- {
			days[j-1], days[j] = days[j], days[j-1]
		}
	}
	return days
}

// Config is the closed ScheduleConfig variant from spec §3.
type Config struct {
	kind Kind

	autoGen    AutoGenerateConfig
	fixed      []FixedSchedule
	custom     Map
}

type Kind int

const (
	AutoGenerateKind Kind = iota
	FixedSchedulesKind
	CustomScheduleKind
)

// AutoGenerateConfig solves for a level payment amount over Count
// payments on the given periodicity. A positive MaxDuration caps the
// final day used for the solver's initial payment estimate; payment
// dates beyond MaxDuration days are still generated.
type AutoGenerateConfig struct {
	UnitPeriod  unitperiod.Config
	Count       int
	MaxDuration int
}

// FixedSchedule emits Count payments of Amount on the given
// periodicity.
type FixedSchedule struct {
	UnitPeriod unitperiod.Config
	Count      int
	Amount     money.Cent
}

func NewAutoGenerate(cfg AutoGenerateConfig) Config {
	return Config{kind: AutoGenerateKind, autoGen: cfg}
}

func NewFixedSchedules(fixed []FixedSchedule) Config {
	return Config{kind: FixedSchedulesKind, fixed: fixed}
}

func NewCustomSchedule(m Map) Config {
	return Config{kind: CustomScheduleKind, custom: m}
}

// ErrGenerationFailed indicates the AutoGenerate level-payment solver
// did not converge within its iteration budget.
var ErrGenerationFailed = fmt.Errorf("schedule generation failed to converge")

const maxSolverIterations = 100

// Build resolves a Config into an OffsetDay -> ScheduledPayment map.
// principal and interestCfg are required only for AutoGenerate, which
// must simulate a lightweight amortisation to solve for the level
// payment.
func Build(cfg Config, startDate calendar.Date, principal money.Cent, interestCfg interest.Config, rounding money.Rounding) (Map, error) {
	switch cfg.kind {
	case CustomScheduleKind:
		return cfg.custom, nil
	case FixedSchedulesKind:
		return buildFixed(cfg.fixed, startDate), nil
	case AutoGenerateKind:
		return buildAutoGenerate(cfg.autoGen, startDate, principal, interestCfg, rounding)
	}
	return Map{}, nil
}

func buildFixed(fixed []FixedSchedule, startDate calendar.Date) Map {
	out := Map{}
	for _, fs := range fixed {
		dates := unitperiod.GeneratePaymentSchedule(fs.UnitPeriod, fs.Count, unitperiod.Forward)
		for _, d := range dates {
			offset := calendar.ToOffsetDay(startDate, d)
			out[offset] = ScheduledPayment{HasOriginal: true, Original: fs.Amount}
		}
	}
	return out
}

// buildAutoGenerate solves for the level payment P such that a
// lightweight amortisation (simple daily interest against a constant
// payment, no fees/charges) ends with a final balance in
// [-tolerance, 0]. It starts from the closed-form level-payment
// estimate and iteratively refines by bisection-like adjustment,
// capped at maxSolverIterations.
func buildAutoGenerate(cfg AutoGenerateConfig, startDate calendar.Date, principal money.Cent, interestCfg interest.Config, rounding money.Rounding) (Map, error) {
	if cfg.Count <= 0 {
		return Map{}, nil
	}

	dates := unitperiod.GeneratePaymentSchedule(cfg.UnitPeriod, cfg.Count, unitperiod.Forward)
	offsets := make([]calendar.OffsetDay, len(dates))
	for i, d := range dates {
		offsets[i] = calendar.ToOffsetDay(startDate, d)
	}
	finalDay := offsets[len(offsets)-1]
	if cfg.MaxDuration > 0 && int(finalDay) > cfg.MaxDuration {
		finalDay = calendar.OffsetDay(cfg.MaxDuration)
	}

	dailyRate := interestCfg.StandardRate.Daily().Decimal()
	tolerance := money.Cent(1)
	if cfg.Count > 1 {
		tolerance = money.Cent(cfg.Count)
	}

	p0 := estimateInitialPayment(principal, dailyRate, int64(finalDay), int64(cfg.Count))

	lo, hi := money.Cent(0), p0*3+1
	var mid money.Cent
	for i := 0; i < maxSolverIterations; i++ {
		mid = (lo + hi) / 2
		finalBalance := simulateFinalBalance(principal, mid, offsets, interestCfg, rounding)

		if finalBalance >= -int64(tolerance) && finalBalance <= 0 {
			return scheduleFromOffsets(offsets, mid), nil
		}
		if finalBalance > 0 {
			lo = mid
		} else {
			hi = mid
		}
		if hi-lo <= 1 {
			break
		}
	}

	finalBalance := simulateFinalBalance(principal, hi, offsets, interestCfg, rounding)
	if finalBalance >= -int64(tolerance) && finalBalance <= 0 {
		return scheduleFromOffsets(offsets, hi), nil
	}
	return nil, ErrGenerationFailed
}

func scheduleFromOffsets(offsets []calendar.OffsetDay, amount money.Cent) Map {
	out := Map{}
	for _, o := range offsets {
		out[o] = ScheduledPayment{HasOriginal: true, Original: amount}
	}
	return out
}

func estimateInitialPayment(principal money.Cent, dailyRate decimal.Decimal, finalDay, count int64) money.Cent {
	rateF, _ := dailyRate.Float64()
	total := float64(principal) * (1 + rateF*float64(finalDay))
	if count == 0 {
		return money.Cent(total)
	}
	return money.Cent(total / float64(count))
}

// simulateFinalBalance runs a lightweight amortisation: simple daily
// interest at the loan's standard rate against the declining balance
// (promotional-rate intervals and grace periods are ignored here —
// this is only the solver's convergence probe, not the real engine),
// with `amount` applied on each offset day, returning the ending
// balance (in cents) after the last offset day.
func simulateFinalBalance(principal, amount money.Cent, offsets []calendar.OffsetDay, interestCfg interest.Config, rounding money.Rounding) int64 {
	dailyRate := interestCfg.StandardRate.Daily()
	balance := principal
	prevDay := calendar.OffsetDay(0)
	for _, day := range offsets {
		span := int(day - prevDay)
		if span > 0 {
			rates := make([]money.Percent, span)
			for i := range rates {
				rates[i] = dailyRate
			}
			accrued := interest.Accrue(balance, interestCfg.Cap.Daily, rates)
			balance += accrued.Round(rounding)
		}
		balance -= amount
		prevDay = day
	}
	return int64(balance)
}
