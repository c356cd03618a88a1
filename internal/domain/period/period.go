// Package period computes calendar boundaries and the time ranges used to
// scope statistics. Every function works in the location carried by its
// argument and never reads the wall clock.
package period

import (
	"iter"
	"time"
)

// Label names a time range selectable in the statistics view.
type Label string

const (
	Today   Label = "today"
	Week    Label = "week"
	Month   Label = "month"
	Quarter Label = "quarter"
	Year    Label = "year"
	Custom  Label = "custom"
)

// Labels lists every supported range label.
var Labels = []Label{Today, Week, Month, Quarter, Year, Custom}

// DateLayout is the format of custom range bounds.
const DateLayout = "2006-01-02"

// Range is an inclusive [Start, End] instant pair.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies within the range, both ends inclusive.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Days enumerates the calendar days covered by the range.
func (r Range) Days() iter.Seq[time.Time] {
	return EnumerateDays(r.Start, r.End)
}

// IsZero reports whether the range was never set.
func (r Range) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// StartOfDay returns midnight of the day containing t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of the day containing t.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// StartOfWeek returns Monday 00:00 of the week containing t. Sunday closes the week.
func StartOfWeek(t time.Time) time.Time {
	offset := int(t.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset = 6
	}
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// StartOfMonth returns the first instant of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// StartOfQuarter returns the first instant of t's quarter (Jan, Apr, Jul, Oct).
func StartOfQuarter(t time.Time) time.Time {
	first := time.Month((int(t.Month())-1)/3*3 + 1)
	return time.Date(t.Year(), first, 1, 0, 0, 0, 0, t.Location())
}

// StartOfYear returns January 1st 00:00 of t's year.
func StartOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

// EnumerateDays yields midnight of every calendar day from start to end inclusive.
// The sequence is empty when end is before start and can be ranged over repeatedly.
func EnumerateDays(start, end time.Time) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		if end.Before(start) {
			return
		}
		last := StartOfDay(end.In(start.Location()))
		y, m, d := start.Date()
		for i := 0; ; i++ {
			day := time.Date(y, m, d+i, 0, 0, 0, 0, start.Location())
			if day.After(last) {
				return
			}
			if !yield(day) {
				return
			}
		}
	}
}

// CountDays returns the number of calendar days EnumerateDays would yield.
func CountDays(start, end time.Time) int {
	n := 0
	for range EnumerateDays(start, end) {
		n++
	}
	return n
}

// ResolveRange maps a label to a concrete range relative to now. Calendar
// periods span the whole period they name. For Custom, the bounds are parsed
// as YYYY-MM-DD in now's location; a missing or unparseable bound leaves the
// range unset and ok is false, as does an unknown label.
func ResolveRange(label Label, now time.Time, customStart, customEnd string) (Range, bool) {
	switch label {
	case Today:
		return Range{Start: StartOfDay(now), End: EndOfDay(now)}, true
	case Week:
		start := StartOfWeek(now)
		return Range{Start: start, End: EndOfDay(start.AddDate(0, 0, 6))}, true
	case Month:
		start := StartOfMonth(now)
		return Range{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Nanosecond)}, true
	case Quarter:
		start := StartOfQuarter(now)
		return Range{Start: start, End: start.AddDate(0, 3, 0).Add(-time.Nanosecond)}, true
	case Year:
		start := StartOfYear(now)
		return Range{Start: start, End: start.AddDate(1, 0, 0).Add(-time.Nanosecond)}, true
	case Custom:
		if customStart == "" || customEnd == "" {
			return Range{}, false
		}
		start, err := time.ParseInLocation(DateLayout, customStart, now.Location())
		if err != nil {
			return Range{}, false
		}
		end, err := time.ParseInLocation(DateLayout, customEnd, now.Location())
		if err != nil {
			return Range{}, false
		}
		y, m, d := end.Date()
		return Range{
			Start: start,
			End:   time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), end.Location()),
		}, true
	default:
		return Range{}, false
	}
}

// ParseLabel converts raw input to a Label, defaulting to Week.
func ParseLabel(raw string) Label {
	for _, l := range Labels {
		if string(l) == raw {
			return l
		}
	}
	return Week
}
