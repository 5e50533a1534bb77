package recurrence

import (
	"errors"
	"fmt"
	"strings"
)

type Frequency string

const (
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	Biweekly  Frequency = "biweekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

var ErrUnknownFrequency = errors.New("unknown frequency")

// Frequencies lists every supported frequency in ascending interval order.
var Frequencies = []Frequency{Daily, Weekly, Biweekly, Monthly, Quarterly, Yearly}

// ParseFrequency accepts any casing and surrounding whitespace.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFrequency, s)
	}

	return f, nil
}

func (f Frequency) Valid() bool {
	_, _, ok := f.step()
	return ok
}

func (f Frequency) String() string {
	return string(f)
}

// PerYear is the number of occurrences in a year, used to normalize a
// recurring amount to a monthly figure. Unknown frequencies return 0.
func (f Frequency) PerYear() float64 {
	switch f {
	case Daily:
		return 365
	case Weekly:
		return 52
	case Biweekly:
		return 26
	case Monthly:
		return 12
	case Quarterly:
		return 4
	case Yearly:
		return 1
	}

	return 0
}

// step returns the interval either in calendar months or in days. Exactly one
// of months and days is non zero when ok is true.
func (f Frequency) step() (months int, days int, ok bool) {
	switch f {
	case Daily:
		return 0, 1, true
	case Weekly:
		return 0, 7, true
	case Biweekly:
		return 0, 14, true
	case Monthly:
		return 1, 0, true
	case Quarterly:
		return 3, 0, true
	case Yearly:
		return 12, 0, true
	}

	return 0, 0, false
}
