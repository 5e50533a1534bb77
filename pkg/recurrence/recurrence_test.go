package recurrence

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func days(s ...string) []time.Time {
	out := make([]time.Time, len(s))
	for i := range s {
		out[i] = day(s[i])
	}
	return out
}

func TestOccurrences(t *testing.T) {
	tests := []struct {
		name   string
		anchor string
		freq   Frequency
		start  string
		end    string
		want   []time.Time
	}{
		{
			name:   "daily inside month",
			anchor: "2024-03-28", freq: Daily,
			start: "2024-03-01", end: "2024-03-31",
			want: days("2024-03-28", "2024-03-29", "2024-03-30", "2024-03-31"),
		},
		{
			name:   "weekly anchor before window",
			anchor: "2024-02-26", freq: Weekly,
			start: "2024-03-01", end: "2024-03-31",
			want: days("2024-03-04", "2024-03-11", "2024-03-18", "2024-03-25"),
		},
		{
			name:   "biweekly",
			anchor: "2024-03-01", freq: Biweekly,
			start: "2024-03-01", end: "2024-04-30",
			want: days("2024-03-01", "2024-03-15", "2024-03-29", "2024-04-12", "2024-04-26"),
		},
		{
			name:   "monthly clipped to short months and leap february",
			anchor: "2024-01-31", freq: Monthly,
			start: "2024-01-01", end: "2024-06-30",
			want: days("2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30", "2024-05-31", "2024-06-30"),
		},
		{
			name:   "quarterly",
			anchor: "2023-11-30", freq: Quarterly,
			start: "2024-01-01", end: "2024-12-31",
			want: days("2024-02-29", "2024-05-30", "2024-08-30", "2024-11-30"),
		},
		{
			name:   "yearly leap day",
			anchor: "2024-02-29", freq: Yearly,
			start: "2024-01-01", end: "2028-12-31",
			want: days("2024-02-29", "2025-02-28", "2026-02-28", "2027-02-28", "2028-02-29"),
		},
		{
			name:   "anchor after window",
			anchor: "2024-05-01", freq: Monthly,
			start: "2024-03-01", end: "2024-03-31",
			want: []time.Time{},
		},
		{
			name:   "anchor is window end",
			anchor: "2024-03-31", freq: Weekly,
			start: "2024-03-01", end: "2024-03-31",
			want: days("2024-03-31"),
		},
		{
			name:   "inverted window",
			anchor: "2024-03-01", freq: Daily,
			start: "2024-03-31", end: "2024-03-01",
			want: nil,
		},
		{
			name:   "unknown frequency keeps anchor in window",
			anchor: "2024-03-10", freq: Frequency("fortnightly-ish"),
			start: "2024-03-01", end: "2024-03-31",
			want: days("2024-03-10"),
		},
		{
			name:   "unknown frequency outside window",
			anchor: "2024-02-10", freq: Frequency(""),
			start: "2024-03-01", end: "2024-03-31",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Occurrences(day(tt.anchor), tt.freq, day(tt.start), day(tt.end))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOccurrencesCap(t *testing.T) {
	got := Occurrences(day("2024-01-01"), Daily, day("2024-01-01"), day("2024-12-31"))
	require.Len(t, got, MaxIterations)
	assert.Equal(t, day("2024-04-09"), got[len(got)-1])
}

func TestOccurrencesDistantAnchor(t *testing.T) {
	// an anchor years before the window must not exhaust the cap before reaching it
	got := Occurrences(day("2019-06-15"), Daily, day("2024-03-01"), day("2024-03-31"))
	require.Len(t, got, 31)
	assert.Equal(t, day("2024-03-01"), got[0])
	assert.Equal(t, day("2024-03-31"), got[30])

	got = Occurrences(day("2001-01-31"), Monthly, day("2024-02-01"), day("2024-02-29"))
	assert.Equal(t, days("2024-02-29"), got)
}

func TestOccurrencesTruncatesTime(t *testing.T) {
	anchor := time.Date(2024, 3, 5, 17, 45, 0, 0, time.UTC)
	got := Occurrences(anchor, Weekly, day("2024-03-01"), time.Date(2024, 3, 12, 1, 0, 0, 0, time.UTC))
	assert.Equal(t, days("2024-03-05", "2024-03-12"), got)
}

func TestNext(t *testing.T) {
	next, ok := Next(day("2024-01-31"), Monthly, day("2024-02-29"))
	require.True(t, ok)
	assert.Equal(t, day("2024-03-31"), next)

	next, ok = Next(day("2024-01-31"), Monthly, day("2024-01-31"))
	require.True(t, ok)
	assert.Equal(t, day("2024-02-29"), next)

	next, ok = Next(day("2024-06-01"), Weekly, day("2024-01-01"))
	require.True(t, ok)
	assert.Equal(t, day("2024-06-01"), next)

	next, ok = Next(day("2010-01-04"), Biweekly, day("2024-03-01"))
	require.True(t, ok)
	assert.True(t, next.After(day("2024-03-01")))
	assert.False(t, next.After(day("2024-03-15")))

	_, ok = Next(day("2024-01-01"), Frequency("hourly"), day("2024-01-01"))
	assert.False(t, ok)
}

func TestParseFrequency(t *testing.T) {
	f, err := ParseFrequency("  Monthly ")
	require.NoError(t, err)
	assert.Equal(t, Monthly, f)

	_, err = ParseFrequency("fortnightly")
	assert.ErrorIs(t, err, ErrUnknownFrequency)
}

func TestAddMonths(t *testing.T) {
	assert.Equal(t, day("2023-02-28"), AddMonths(day("2023-01-31"), 1, 31))
	assert.Equal(t, day("2024-12-15"), AddMonths(day("2025-01-15"), -1, 15))
	assert.Equal(t, day("2025-03-31"), AddMonths(day("2025-02-28"), 1, 31))
}

func TestOccurrencesProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	base := day("2020-01-01")

	for i := 0; i < 2000; i++ {
		anchor := base.AddDate(0, 0, r.Intn(2000))
		start := base.AddDate(0, 0, r.Intn(2500))
		end := start.AddDate(0, 0, r.Intn(800))
		freq := Frequencies[r.Intn(len(Frequencies))]

		got := Occurrences(anchor, freq, start, end)

		assert.LessOrEqual(t, len(got), MaxIterations)
		for j, d := range got {
			assert.False(t, d.Before(anchor), "occurrence before anchor")
			assert.False(t, d.Before(start), "occurrence before window")
			assert.False(t, d.After(end), "occurrence after window")
			if j > 0 {
				assert.True(t, d.After(got[j-1]), "not strictly increasing")
			}

			months, _, _ := freq.step()
			if months > 0 && d.Day() != anchor.Day() {
				assert.Equal(t, DaysIn(d.Year(), d.Month()), d.Day(), "only clipping may change the day")
				assert.Greater(t, anchor.Day(), d.Day())
			}
		}
	}
}
