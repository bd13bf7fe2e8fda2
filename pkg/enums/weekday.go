package enums

import (
	"fmt"
	"strings"
)

// Weekday names a schedule day.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

var weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Weekdays returns monday through sunday in order.
func Weekdays() []Weekday {
	out := make([]Weekday, len(weekdays))
	copy(out, weekdays)
	return out
}

// IsValid reports whether the value is a known Weekday.
func (w Weekday) IsValid() bool {
	for _, candidate := range weekdays {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWeekday converts raw input into a Weekday.
func ParseWeekday(value string) (Weekday, error) {
	w := Weekday(strings.ToLower(strings.TrimSpace(value)))
	if w.IsValid() {
		return w, nil
	}
	return "", fmt.Errorf("invalid weekday %q", value)
}
