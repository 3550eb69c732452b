// Package dates handles the calendar-date strings (YYYY-MM-DD) and wall-clock
// times (HH:MM) stored by the clinical and scheduling modules.
package dates

import (
	"fmt"
	"time"
)

const (
	Layout     = "2006-01-02"
	TimeLayout = "15:04"
)

var location = func() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}()

// Location is the facility wall-clock zone.
func Location() *time.Location { return location }

func Parse(s string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, s, location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return t, nil
}

func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

func ValidTime(s string) bool {
	_, err := time.Parse(TimeLayout, s)
	return err == nil
}

func Format(t time.Time) string { return t.In(location).Format(Layout) }

// Today returns the current date in the facility zone.
func Today(now time.Time) string { return Format(now) }

// AddDays shifts a date string by n days.
func AddDays(s string, n int) (string, error) {
	t, err := Parse(s)
	if err != nil {
		return "", err
	}
	return Format(t.AddDate(0, 0, n)), nil
}

// Range lists every date from start to end inclusive.
func Range(start, end string) ([]string, error) {
	s, err := Parse(start)
	if err != nil {
		return nil, err
	}
	e, err := Parse(end)
	if err != nil {
		return nil, err
	}
	if e.Before(s) {
		return nil, fmt.Errorf("start date %s is after end date %s", start, end)
	}
	var out []string
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		out = append(out, Format(d))
	}
	return out, nil
}

// Weekday returns 0 (Sunday) to 6 (Saturday).
func Weekday(s string) (int, error) {
	t, err := Parse(s)
	if err != nil {
		return 0, err
	}
	return int(t.Weekday()), nil
}

// MonthBounds returns the first and last date of a month.
func MonthBounds(year, month int) (string, string) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, location)
	last := first.AddDate(0, 1, -1)
	return Format(first), Format(last)
}

// MonthDay returns the given day of a month clamped to the month length.
func MonthDay(year, month, day int) string {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, location)
	last := first.AddDate(0, 1, -1)
	if day > last.Day() {
		day = last.Day()
	}
	return Format(time.Date(year, time.Month(month), day, 0, 0, 0, 0, location))
}

// DaysBetween returns end minus start in whole days.
func DaysBetween(start, end string) (int, error) {
	s, err := Parse(start)
	if err != nil {
		return 0, err
	}
	e, err := Parse(end)
	if err != nil {
		return 0, err
	}
	return int(e.Sub(s).Hours() / 24), nil
}
