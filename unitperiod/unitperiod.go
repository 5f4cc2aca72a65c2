// Package unitperiod describes the canonical periodicities used to
// generate payment schedules. It has no cadence detection; package apr
// infers a period length from the spacing of the cash flows itself.
package unitperiod

import (
	"fmt"
	"time"

	"github.com/jiangshenghai57/amortengine/calendar"
	"github.com/jiangshenghai57/amortengine/money"
)

// Kind discriminates the unit-period variants.
type Kind int

const (
	Single Kind = iota
	Daily
	Weekly
	SemiMonthly
	Monthly
)

// Direction controls whether generated dates walk forward from the
// config's anchor or backward from a horizon.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

// Config is a closed variant over the five periodicity kinds. Use the
// constructors below; the zero value is invalid.
type Config struct {
	kind Kind

	// Single
	single calendar.Date

	// Daily
	dailyStart calendar.Date

	// Weekly
	weeklyMultiple int
	weeklyStart    calendar.Date

	// SemiMonthly
	smYear int
	smMon  time.Month
	smDay1 int
	smDay2 int

	// Monthly
	monMultiple int
	monYear     int
	monMon      time.Month
	monDay      int
}

// NewSingle builds a one-shot unit period on the given date.
func NewSingle(d calendar.Date) Config {
	return Config{kind: Single, single: d}
}

// NewDaily builds a daily cadence starting on start.
func NewDaily(start calendar.Date) Config {
	return Config{kind: Daily, dailyStart: start}
}

// NewWeekly builds a weekly cadence that repeats every `multiple`
// weeks starting on start. multiple must be >= 1.
func NewWeekly(multiple int, start calendar.Date) (Config, error) {
	if multiple < 1 {
		return Config{}, fmt.Errorf("weekly multiple must be >= 1, got %d: %w", multiple, money.ErrInvalidConfig)
	}
	return Config{kind: Weekly, weeklyMultiple: multiple, weeklyStart: start}, nil
}

// NewSemiMonthly builds a twice-monthly cadence. day1 must fall in
// [1,15] and day2 in [16,31], spaced exactly 15 days apart, or the
// pair must be (15, 31) (the two conventional semi-monthly splits).
func NewSemiMonthly(year int, month time.Month, day1, day2 int) (Config, error) {
	validPair := (day1 >= 1 && day1 <= 15 && day2 >= 16 && day2 <= 31 && day2-day1 == 15) ||
		(day1 == 15 && day2 == 31)
	if !validPair {
		return Config{}, fmt.Errorf("semi-monthly day pair (%d,%d) invalid: %w", day1, day2, money.ErrInvalidConfig)
	}
	return Config{kind: SemiMonthly, smYear: year, smMon: month, smDay1: day1, smDay2: day2}, nil
}

// NewMonthly builds a cadence that repeats every `multiple` months,
// anchored at (year, month, day). multiple must be >= 1.
func NewMonthly(multiple int, year int, month time.Month, day int) (Config, error) {
	if multiple < 1 {
		return Config{}, fmt.Errorf("monthly multiple must be >= 1, got %d: %w", multiple, money.ErrInvalidConfig)
	}
	if day < 1 || day > 31 {
		return Config{}, fmt.Errorf("monthly anchor day must be in [1,31], got %d: %w", day, money.ErrInvalidConfig)
	}
	return Config{kind: Monthly, monMultiple: multiple, monYear: year, monMon: month, monDay: day}, nil
}

func (c Config) Kind() Kind { return c.kind }

// GeneratePaymentSchedule produces `count` dates for this periodicity.
// Forward walks from the config's anchor date; Reverse walks backward
// from the anchor and the result is returned in ascending order.
func GeneratePaymentSchedule(c Config, count int, direction Direction) []calendar.Date {
	if count <= 0 {
		return nil
	}

	raw := make([]calendar.Date, count)
	switch c.kind {
	case Single:
		for i := range raw {
			raw[i] = c.single
		}
	case Daily:
		for i := range raw {
			step := i
			if direction == Reverse {
				step = -i
			}
			raw[i] = c.dailyStart.AddDays(step)
		}
	case Weekly:
		for i := range raw {
			weeks := i * c.weeklyMultiple
			if direction == Reverse {
				weeks = -weeks
			}
			raw[i] = c.weeklyStart.AddDays(weeks * 7)
		}
	case SemiMonthly:
		anchor := calendar.NewDate(c.smYear, c.smMon, c.smDay1)
		raw = generateSemiMonthly(anchor, c.smMon, c.smYear, c.smDay1, c.smDay2, count, direction)
	case Monthly:
		anchor := calendar.NewDate(c.monYear, c.monMon, c.monDay)
		for i := range raw {
			months := i * c.monMultiple
			if direction == Reverse {
				months = -months
			}
			raw[i] = anchor.AddMonths(months)
		}
	}

	if direction == Reverse {
		reversed := make([]calendar.Date, count)
		for i, d := range raw {
			reversed[count-1-i] = d
		}
		return reversed
	}
	return raw
}

func generateSemiMonthly(anchor calendar.Date, month time.Month, year, day1, day2, count int, direction Direction) []calendar.Date {
	dates := make([]calendar.Date, 0, count)
	monthCursor := month
	yearCursor := year
	useFirst := true
	step := 1
	if direction == Reverse {
		step = -1
	}

	// Establish a stable starting point and walk `step` slots at a time,
	// alternating between day1 and day2 within each month.
	for len(dates) < count {
		day := day1
		if !useFirst {
			day = day2
		}
		dates = append(dates, safeDate(yearCursor, monthCursor, day))

		if step > 0 {
			if useFirst {
				useFirst = false
			} else {
				useFirst = true
				monthCursor++
				if monthCursor > time.December {
					monthCursor = time.January
					yearCursor++
				}
			}
		} else {
			if !useFirst {
				useFirst = true
			} else {
				useFirst = false
				monthCursor--
				if monthCursor < time.January {
					monthCursor = time.December
					yearCursor--
				}
			}
		}
	}
	return dates
}

func safeDate(year int, month time.Month, day int) calendar.Date {
	// Clamp day to the actual last day of month (covers day2 == 31 on
	// short months).
	firstOfMonth := calendar.NewDate(year, month, 1)
	lastDay := firstOfMonth.AddMonths(1).AddDays(-1).Day()
	if day > lastDay {
		day = lastDay
	}
	return calendar.NewDate(year, month, day)
}
