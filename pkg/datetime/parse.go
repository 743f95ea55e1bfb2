// Package datetime provides date and time utility functions.
package datetime

import (
	"fmt"
	"math"
	"time"

	"github.com/iwvelando/homeloan/pkg/constants"
)

const (
	// DateTimeLayout is the format expected for birthdates and reference dates.
	DateTimeLayout = constants.DateTimeLayout
)

// Clock returns the reference time ages are computed against.
type Clock func() time.Time

// FixedClock returns a Clock that always reports t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseDate parses a reference date in DateTimeLayout.
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse(DateTimeLayout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", dateStr, err)
	}
	return t, nil
}

// AgeInYears returns the age in fractional years at the given time, counting
// whole days and dividing by the average year length.
func AgeInYears(birthdate, at time.Time) float64 {
	days := math.Floor(at.Sub(birthdate).Hours() / 24)
	return days / constants.DaysPerYear
}

// BirthdateForAge returns the birthdate of someone who turns age on at.
func BirthdateForAge(age int, at time.Time) time.Time {
	return at.AddDate(-age, 0, 0)
}

// OldestBirthdate returns the earliest of the given birthdates.
func OldestBirthdate(first time.Time, rest ...time.Time) time.Time {
	oldest := first
	for _, b := range rest {
		if b.Before(oldest) {
			oldest = b
		}
	}
	return oldest
}
