// Package birthday decides whether a stored birthday falls on a given day.
package birthday

import (
	"fmt"
	"time"
)

// LeapDayPolicy selects how a Feb 29 birthday is observed in non-leap years.
type LeapDayPolicy string

const (
	// LeapDayStrict never matches Feb 29 birthdays in non-leap years.
	LeapDayStrict LeapDayPolicy = "strict"
	// LeapDayFeb28 observes Feb 29 birthdays on Feb 28 of non-leap years.
	LeapDayFeb28 LeapDayPolicy = "feb28"
	// LeapDayMar1 observes Feb 29 birthdays on Mar 1 of non-leap years.
	LeapDayMar1 LeapDayPolicy = "mar1"
)

// ParseLeapDayPolicy validates a configured policy name.
func ParseLeapDayPolicy(s string) (LeapDayPolicy, error) {
	switch p := LeapDayPolicy(s); p {
	case LeapDayStrict, LeapDayFeb28, LeapDayMar1:
		return p, nil
	case "":
		return LeapDayStrict, nil
	default:
		return "", fmt.Errorf("unknown leap day policy %q", s)
	}
}

// Matcher compares calendar days. The zero value uses LeapDayStrict.
type Matcher struct {
	LeapDay LeapDayPolicy
}

// NewMatcher returns a Matcher using the given policy.
func NewMatcher(policy LeapDayPolicy) Matcher {
	return Matcher{LeapDay: policy}
}

// Matches reports whether now falls on the birthday's month and day.
// now is read in its own location; birthday is read in the location it was
// stored with, so a DATE column scanned as UTC midnight is never shifted.
func (m Matcher) Matches(now, birthday time.Time) bool {
	if now.Month() == birthday.Month() && now.Day() == birthday.Day() {
		return true
	}
	if birthday.Month() != time.February || birthday.Day() != 29 || isLeap(now.Year()) {
		return false
	}

	switch m.LeapDay {
	case LeapDayFeb28:
		return now.Month() == time.February && now.Day() == 28
	case LeapDayMar1:
		return now.Month() == time.March && now.Day() == 1
	default:
		return false
	}
}

// Matches applies the strict policy.
func Matches(now, birthday time.Time) bool {
	return Matcher{}.Matches(now, birthday)
}

// SameDay reports whether two dates share month and day, ignoring the year.
// It is used to detect edits that move a birthday to another day.
func SameDay(a, b time.Time) bool {
	return a.Month() == b.Month() && a.Day() == b.Day()
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
