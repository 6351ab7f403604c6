package views

import (
	"fmt"
	"math"
	"time"

	"lifeboard/internal/core"
)

// Range selects the calendar window of ExpenseBuckets.
type Range string

const (
	Week  Range = "week"
	Month Range = "month"
	Year  Range = "year"
)

func ParseRange(s string) (Range, error) {
	switch r := Range(s); r {
	case Week, Month, Year:
		return r, nil
	case "":
		return Month, nil
	}
	return "", core.Validation(fmt.Sprintf("range must be week, month or year, got %q", s))
}

// DayBucket is the expense total of one calendar day.
type DayBucket struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// IsLeapYear applies the proleptic Gregorian rule.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysIn returns the number of days of month in year.
func DaysIn(year int, month time.Month) int {
	switch month {
	case time.February:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	}
	return 31
}

// Bounds returns the first day and the day count of the window containing
// anchor. Weeks start on Monday.
func Bounds(r Range, anchor time.Time) (time.Time, int) {
	y, m, d := anchor.Date()
	switch r {
	case Week:
		offset := (int(anchor.Weekday()) + 6) % 7
		return core.NewDay(y, m, d-offset), 7
	case Year:
		days := 365
		if IsLeapYear(y) {
			days = 366
		}
		return core.NewDay(y, time.January, 1), days
	default:
		return core.NewDay(y, m, 1), DaysIn(y, m)
	}
}

// ExpenseBuckets returns one bucket per day of the window containing anchor,
// in date order, with the summed expense amount of that day.
func ExpenseBuckets(r Range, anchor time.Time, txs []core.Transaction) []DayBucket {
	start, days := Bounds(r, anchor)
	out := make([]DayBucket, days)
	index := make(map[string]int, days)
	for i := range out {
		day := core.FormatDay(start.AddDate(0, 0, i))
		out[i].Date = day
		index[day] = i
	}
	for _, t := range txs {
		if t.Type != core.Expense {
			continue
		}
		if i, ok := index[core.DayOf(t.Date)]; ok {
			out[i].Amount += math.Abs(t.Amount)
		}
	}
	for i := range out {
		out[i].Amount = core.Round(out[i].Amount, 2)
	}
	return out
}
