// Package recurrence projects the calendar dates a recurring transaction lands
// on. Every balance projection, calendar view and forecast goes through here.
package recurrence

import (
	"time"
)

const hoursInDay = 24

// MaxIterations bounds a single projection regardless of window size.
const MaxIterations = 100

// Date truncates t to midnight in its own location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// inLocation reinterprets the calendar date of t in loc.
func inLocation(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DaysIn returns the number of days in the month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths moves t by n calendar months and lands on anchorDay, clipped to
// the length of the resulting month.
func AddMonths(t time.Time, n int, anchorDay int) time.Time {
	y, m, _ := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())

	day := anchorDay
	if last := DaysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}

	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}

// Occurrences returns the ordered dates on or after anchor that fall inside
// [start, end]. Unknown frequencies yield at most the anchor itself.
func Occurrences(anchor time.Time, freq Frequency, start, end time.Time) []time.Time {
	anchor = Date(anchor)
	start = inLocation(start, anchor.Location())
	end = inLocation(end, anchor.Location())

	if end.Before(start) {
		return nil
	}

	months, days, ok := freq.step()
	if !ok {
		if !anchor.Before(start) && !anchor.After(end) {
			return []time.Time{anchor}
		}
		return nil
	}

	first := skip(anchor, months, days, start)
	dates := []time.Time{}

	for i := 0; i < MaxIterations; i++ {
		d := nth(anchor, months, days, first+i)
		if d.After(end) {
			break
		}

		if d.Before(start) {
			continue
		}

		if len(dates) > 0 && !d.After(dates[len(dates)-1]) {
			continue
		}

		dates = append(dates, d)
	}

	return dates
}

// Next returns the first occurrence strictly after the given date.
func Next(anchor time.Time, freq Frequency, after time.Time) (time.Time, bool) {
	anchor = Date(anchor)
	after = inLocation(after, anchor.Location())

	months, days, ok := freq.step()
	if !ok {
		return time.Time{}, false
	}

	if after.Before(anchor) {
		return anchor, true
	}

	first := skip(anchor, months, days, after)
	for i := first; i < first+MaxIterations; i++ {
		if d := nth(anchor, months, days, i); d.After(after) {
			return d, true
		}
	}

	return time.Time{}, false
}

// nth computes the n-th occurrence from the anchor rather than from the
// previous occurrence, so a clipped month never shifts later occurrences.
func nth(anchor time.Time, months, days, n int) time.Time {
	if months > 0 {
		return AddMonths(anchor, months*n, anchor.Day())
	}

	return anchor.AddDate(0, 0, days*n)
}

// skip returns the index of the last occurrence that may still be before
// start, so iteration begins next to the window instead of at the anchor.
func skip(anchor time.Time, months, days int, start time.Time) int {
	if !start.After(anchor) {
		return 0
	}

	if months > 0 {
		diff := (start.Year()-anchor.Year())*12 + int(start.Month()) - int(anchor.Month())
		return diff / months
	}

	return daysBetween(anchor, start) / days
}

func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / hoursInDay)
}
