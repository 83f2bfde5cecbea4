package clock

import (
	"fmt"
	"time"
)

// Minute is a wall-clock time of day expressed as minutes from midnight.
// All slot arithmetic operates on this type so tests never depend on process
// time or timezone conversion; values are local to the branch by contract.
type Minute int

const (
	DayStart Minute = 0
	DayEnd   Minute = 24 * 60
)

// Parse reads a "HH:MM" clock string into a Minute. All four positions
// must be digits; anything else is rejected.
func Parse(s string) (Minute, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	for _, i := range [4]int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("invalid clock time %q", s)
		}
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return Minute(h*60 + m), nil
}

func (m Minute) Valid() bool {
	return m >= DayStart && m <= DayEnd
}

func (m Minute) Hour() int {
	return int(m) / 60
}

// String renders the 24-hour "HH:MM" form used on the wire.
func (m Minute) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// Display renders the 12-hour form shown to patients, e.g. "9:30 AM".
func (m Minute) Display() string {
	h := int(m) / 60 % 24
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h = h % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, int(m)%60, suffix)
}

// ParseDate reads a strict ISO "YYYY-MM-DD" calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return d, nil
}

// MondayFirst lists weekdays in the order schedules are presented,
// regardless of Go's Sunday-first numbering.
var MondayFirst = [7]time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

// WeekdayKey is the lowercase identifier used in JSON payloads ("monday").
func WeekdayKey(d time.Weekday) string {
	switch d {
	case time.Sunday:
		return "sunday"
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	default:
		return "saturday"
	}
}

// WeekdayName is the human display form ("Monday").
func WeekdayName(d time.Weekday) string {
	return d.String()
}

// ParseWeekday reads the lowercase identifier form back into a weekday.
func ParseWeekday(key string) (time.Weekday, bool) {
	for _, d := range MondayFirst {
		if WeekdayKey(d) == key {
			return d, true
		}
	}
	return 0, false
}
