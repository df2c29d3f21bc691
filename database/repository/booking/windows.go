package bookingRepo

import (
	"fmt"
	"time"
)

// DayWindow is the projection of a UTC interval onto one resource-local
// calendar date, in minutes from midnight.
type DayWindow struct {
	Date     string
	StartMin int
	EndMin   int
}

// localDayWindows splits [start, end) into per-date minute windows in the
// given IANA timezone. An interval that crosses local midnight yields one
// window per touched date.
func localDayWindows(start, end time.Time, tz string) ([]DayWindow, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	localStart := start.In(loc)
	localEnd := end.In(loc)

	var windows []DayWindow
	day := time.Date(localStart.Year(), localStart.Month(), localStart.Day(), 0, 0, 0, 0, loc)
	for day.Before(localEnd) {
		next := day.AddDate(0, 0, 1)

		winStart := localStart
		if winStart.Before(day) {
			winStart = day
		}
		winEnd := localEnd
		if winEnd.After(next) {
			winEnd = next
		}

		startMin := winStart.Hour()*60 + winStart.Minute()
		endMin := winEnd.Hour()*60 + winEnd.Minute()
		if winEnd.Equal(next) {
			endMin = 24 * 60
		}
		if endMin > startMin {
			windows = append(windows, DayWindow{
				Date:     day.Format("2006-01-02"),
				StartMin: startMin,
				EndMin:   endMin,
			})
		}
		day = next
	}
	return windows, nil
}

// LocalDayWindows is the exported form used by in-memory test doubles so their
// slot bookkeeping matches the production projection exactly.
func LocalDayWindows(start, end time.Time, tz string) ([]DayWindow, error) {
	return localDayWindows(start, end, tz)
}
