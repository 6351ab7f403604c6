package core

import (
	"errors"
	"time"
)

// DayLayout is the wire format of every calendar date.
const DayLayout = "2006-01-02"

var ErrInvalidDay = errors.New("invalid day")

// ParseDay parses a YYYY-MM-DD string as a UTC midnight.
func ParseDay(s string) (time.Time, error) {
	if len(s) != len(DayLayout) {
		return time.Time{}, ErrInvalidDay
	}
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDay
	}
	return t, nil
}

// FormatDay renders t as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// Today returns the current date in UTC as YYYY-MM-DD.
func Today() string {
	return FormatDay(time.Now().UTC())
}

// DayOf returns the date portion of a date or RFC 3339 timestamp.
func DayOf(s string) string {
	if len(s) >= len(DayLayout) {
		return s[:len(DayLayout)]
	}
	return s
}

// NewDay builds a UTC midnight for the given calendar date.
func NewDay(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
