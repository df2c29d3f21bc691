package models

import (
	"fmt"
	"time"
)

// Frequency enumerates supported recurrence periods.
type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
)

// Recurrence describes how a scheduled event repeats. It carries its own IANA
// timezone so the local wall-clock time of each occurrence is preserved across
// DST transitions: a daily 09:00 reminder stays at 09:00 local on both sides
// of a DST boundary even though the UTC offset changes.
//
// Expansion is lazy. Only the next occurrence is ever materialized; the one
// after that is computed when the current one dispatches.
type Recurrence struct {
	Frequency  Frequency      `bson:"frequency" json:"frequency"`
	Interval   int            `bson:"interval" json:"interval"` // every N periods, min 1
	Weekdays   []time.Weekday `bson:"weekdays,omitempty" json:"weekdays,omitempty"`
	DayOfMonth int            `bson:"day_of_month,omitempty" json:"dayOfMonth,omitempty"`
	Timezone   string         `bson:"timezone" json:"timezone"`
	Until      *time.Time     `bson:"until,omitempty" json:"until,omitempty"`
}

// Validate checks the descriptor for structural problems.
func (r *Recurrence) Validate() error {
	if r.Interval < 1 {
		return fmt.Errorf("recurrence interval must be at least 1, got %d", r.Interval)
	}
	switch r.Frequency {
	case FrequencyDaily:
	case FrequencyWeekly:
		if len(r.Weekdays) == 0 {
			return fmt.Errorf("weekly recurrence requires at least one weekday")
		}
	case FrequencyMonthly:
		if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
			return fmt.Errorf("monthly recurrence requires day-of-month in 1..31, got %d", r.DayOfMonth)
		}
	default:
		return fmt.Errorf("unsupported recurrence frequency %q", r.Frequency)
	}
	if _, err := time.LoadLocation(r.Timezone); err != nil {
		return fmt.Errorf("invalid recurrence timezone %q: %w", r.Timezone, err)
	}
	return nil
}

// Next computes the occurrence following after (a UTC instant). The wall-clock
// time of after in the recurrence timezone is carried forward, so offsets shift
// with DST rather than the local time drifting. The second return is false
// when the series is exhausted (past Until).
func (r *Recurrence) Next(after time.Time) (time.Time, bool, error) {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid recurrence timezone %q: %w", r.Timezone, err)
	}
	local := after.In(loc)

	var next time.Time
	switch r.Frequency {
	case FrequencyDaily:
		next = addDaysWallClock(local, r.Interval, loc)
	case FrequencyWeekly:
		next, err = r.nextWeekly(local, loc)
		if err != nil {
			return time.Time{}, false, err
		}
	case FrequencyMonthly:
		next = r.nextMonthly(local, loc)
	default:
		return time.Time{}, false, fmt.Errorf("unsupported recurrence frequency %q", r.Frequency)
	}

	if r.Until != nil && next.After(*r.Until) {
		return time.Time{}, false, nil
	}
	return next.UTC(), true, nil
}

// addDaysWallClock advances by whole calendar days keeping the local
// wall-clock fields, letting time.Date absorb any DST offset change.
func addDaysWallClock(local time.Time, days int, loc *time.Location) time.Time {
	return time.Date(local.Year(), local.Month(), local.Day()+days,
		local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), loc)
}

func (r *Recurrence) nextWeekly(local time.Time, loc *time.Location) (time.Time, error) {
	enabled := make(map[time.Weekday]bool, len(r.Weekdays))
	for _, d := range r.Weekdays {
		enabled[d] = true
	}
	if len(enabled) == 0 {
		return time.Time{}, fmt.Errorf("weekly recurrence requires at least one weekday")
	}

	baseWeek := startOfWeek(local)
	// Bounded scan: the next enabled weekday in an interval-aligned week is at
	// most interval weeks plus one week away.
	limit := 7 * (r.Interval + 1)
	cand := local
	for i := 0; i < limit; i++ {
		cand = addDaysWallClock(cand, 1, loc)
		if !enabled[cand.Weekday()] {
			continue
		}
		weeks := int(startOfWeek(cand).Sub(baseWeek).Hours()/24) / 7
		if weeks%r.Interval != 0 {
			continue
		}
		return cand, nil
	}
	return time.Time{}, fmt.Errorf("weekly recurrence produced no candidate within %d days", limit)
}

func (r *Recurrence) nextMonthly(local time.Time, loc *time.Location) time.Time {
	y, m := local.Year(), local.Month()
	m += time.Month(r.Interval)
	day := r.DayOfMonth
	if max := daysInMonth(y, m); day > max {
		day = max
	}
	return time.Date(y, m, day, local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), loc)
}

func startOfWeek(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()-int(t.Weekday()), 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the following month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
