// Package clock holds the calendar and wall-clock primitives used by work
// blocks, shifts and payroll periods. Dates are time.Time values at UTC
// midnight; times of day are minutes after midnight.
package clock

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout    = "2006-01-02"
	MinutesPerDay = 24 * 60

	// EndOfDay is midnight at the close of the day. It is valid only as the
	// end of an interval.
	EndOfDay TimeOfDay = MinutesPerDay
)

var (
	ErrInvalidTimeOfDay = errors.New("invalid time of day")
	ErrInvalidDate      = errors.New("invalid date")
)

// TimeOfDay is a wall-clock time in minutes after midnight, in [0, 1440),
// or EndOfDay for an interval that runs until midnight.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %02d:%02d", ErrInvalidTimeOfDay, hour, minute)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// ParseTimeOfDay accepts "H:MM" and "HH:MM"; a trailing ":SS" of zero seconds
// is tolerated because spreadsheet exports add it.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) == 3 {
		if parts[2] != "00" {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
		}
		parts = parts[:2]
	}
	if len(parts) != 2 || len(parts[0]) < 1 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	hour, err := atoiDigits(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	minute, err := atoiDigits(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return NewTimeOfDay(hour, minute)
}

// ParseEndOfDay is ParseTimeOfDay for the end of an interval: it also accepts
// "24:00", meaning the interval runs until midnight.
func ParseEndOfDay(s string) (TimeOfDay, error) {
	switch strings.TrimSpace(s) {
	case "24:00", "24:00:00":
		return EndOfDay, nil
	}
	return ParseTimeOfDay(s)
}

// FromTime takes the wall clock of t, dropping seconds.
func FromTime(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseEndOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseDate parses an ISO "YYYY-MM-DD" date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// ParseDMY parses the day-first "D/M/YYYY" format used by time-clock exports.
// Impossible calendar dates such as 31/2/2026 are rejected.
func ParseDMY(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "/")
	if len(parts) != 3 || len(parts[0]) > 2 || len(parts[1]) > 2 || len(parts[2]) != 4 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	day, err1 := atoiDigits(parts[0])
	month, err2 := atoiDigits(parts[1])
	year, err3 := atoiDigits(parts[2])
	if err1 != nil || err2 != nil || err3 != nil || month < 1 || month > 12 || day < 1 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || int(d.Month()) != month {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// DateOf returns the calendar date of t (in t's location) at UTC midnight.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}

// MonthBounds returns the first and last calendar day of year-month.
func MonthBounds(year, month int) (time.Time, time.Time) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}

// ValidPeriod reports whether year/month name a real pay period.
func ValidPeriod(year, month int) bool {
	return month >= 1 && month <= 12 && year >= 2000 && year <= 9999
}

func IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Within reports whether d lies in [from, to], both ends inclusive.
func Within(d, from, to time.Time) bool {
	return !d.Before(from) && !d.After(to)
}

func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

func atoiDigits(s string) (int, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}
