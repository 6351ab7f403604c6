package views

import (
	"lifeboard/internal/core"
)

// DailyStat is the completion summary of one day.
type DailyStat struct {
	Date            string  `json:"date"`
	TotalHabits     int     `json:"totalHabits"`
	CompletedHabits int     `json:"completedHabits"`
	Percentage      float64 `json:"percentage"`
}

// HabitDailyStats computes one DailyStat per day from start to end inclusive.
// A habit counts on a day when it is active then, and as completed when its
// logged value reaches goalTarget.
func HabitDailyStats(habits []core.Habit, logs []core.HabitLog, start, end string) ([]DailyStat, error) {
	from, err := core.ParseDay(start)
	if err != nil {
		return nil, core.Validation("startDate must be YYYY-MM-DD")
	}
	to, err := core.ParseDay(end)
	if err != nil {
		return nil, core.Validation("endDate must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, core.Validation("endDate must not be before startDate")
	}

	type key struct {
		habit int64
		day   string
	}
	values := make(map[key]float64, len(logs))
	for _, l := range logs {
		values[key{l.HabitID, l.Date}] = l.CompletedValue
	}

	var out []DailyStat
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		day := core.FormatDay(d)
		stat := DailyStat{Date: day}
		for _, h := range habits {
			if !h.ActiveOn(day) {
				continue
			}
			stat.TotalHabits++
			if v, ok := values[key{h.ID, day}]; ok && v >= h.GoalTarget {
				stat.CompletedHabits++
			}
		}
		stat.Percentage = core.Round(core.Percent(float64(stat.CompletedHabits), float64(stat.TotalHabits)), 1)
		out = append(out, stat)
	}
	return out, nil
}
