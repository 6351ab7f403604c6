// Package http serves the dashboard JSON API.
//
// This file parses request bodies, path values and query strings into the
// types the services take, turning malformed input into validation errors.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lifeboard/internal/core"
	"lifeboard/internal/store"
	"lifeboard/internal/views"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// decodeBody reads a JSON body of at most maxBodyBytes into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return core.Validation("request body is required")
		case errors.As(err, &tooLarge):
			return core.Validation("request body too large")
		default:
			return core.Validation("invalid JSON body")
		}
	}
	return nil
}

// decodePatch reads a partial update. The id is never patchable.
func decodePatch(w http.ResponseWriter, r *http.Request) (store.Patch, error) {
	var patch store.Patch
	if err := decodeBody(w, r, &patch); err != nil {
		return nil, err
	}
	if patch == nil {
		return nil, core.Validation("request body must be an object")
	}
	delete(patch, "id")
	return patch, nil
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Validation("invalid id")
	}
	return id, nil
}

// StatsRange is the window of GET /api/habits/stats.
type StatsRange struct {
	Start string
	End   string
}

// ParseStatsRange requires startDate and endDate in YYYY-MM-DD form with
// startDate not after endDate.
func ParseStatsRange(query url.Values) (StatsRange, error) {
	start := strings.TrimSpace(query.Get("startDate"))
	end := strings.TrimSpace(query.Get("endDate"))
	if start == "" || end == "" {
		return StatsRange{}, core.Validation("startDate and endDate are required")
	}
	from, err := core.ParseDay(start)
	if err != nil {
		return StatsRange{}, core.Validation("startDate must be YYYY-MM-DD")
	}
	to, err := core.ParseDay(end)
	if err != nil {
		return StatsRange{}, core.Validation("endDate must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return StatsRange{}, core.Validation("startDate must not be after endDate")
	}
	return StatsRange{Start: start, End: end}, nil
}

// SeriesParams selects the expense chart window.
type SeriesParams struct {
	Range  views.Range
	Anchor time.Time
}

// ParseSeriesParams reads range (week, month or year; month when absent) and
// an optional date anchor. A zero Anchor means today.
func ParseSeriesParams(query url.Values) (SeriesParams, error) {
	r, err := views.ParseRange(strings.TrimSpace(query.Get("range")))
	if err != nil {
		return SeriesParams{}, err
	}
	p := SeriesParams{Range: r}
	if v := strings.TrimSpace(query.Get("date")); v != "" {
		anchor, err := core.ParseDay(v)
		if err != nil {
			return SeriesParams{}, core.Validation("date must be YYYY-MM-DD")
		}
		p.Anchor = anchor
	}
	return p, nil
}

// ParseTaskFilter reads the dashboard task filter. List parameters accept
// repeated keys and comma separated values.
func ParseTaskFilter(query url.Values) (views.TaskFilter, error) {
	f := views.TaskFilter{
		Show:   strings.TrimSpace(query.Get("show")),
		Window: strings.TrimSpace(query.Get("window")),
		From:   strings.TrimSpace(query.Get("from")),
		To:     strings.TrimSpace(query.Get("to")),
	}

	switch f.Show {
	case "", views.ShowAll, views.ShowHighPriority, views.ShowActive, views.ShowCompleted:
	default:
		return views.TaskFilter{}, core.Validation("show must be all, high-priority, active or completed")
	}
	switch f.Window {
	case "", views.WindowAny, views.WindowToday, views.WindowThisWeek, views.WindowThisMonth:
	default:
		return views.TaskFilter{}, core.Validation("window must be any, today, this-week or this-month")
	}

	for _, p := range splitList(query["priority"]) {
		priority := core.Priority(p)
		if !priority.Valid() {
			return views.TaskFilter{}, core.Validation("priority must be low, medium or high")
		}
		f.Priorities = append(f.Priorities, priority)
	}
	for _, s := range splitList(query["status"]) {
		status := core.TaskStatus(s)
		if !status.Valid() {
			return views.TaskFilter{}, core.Validation("status must be todo, in-progress or done")
		}
		f.Statuses = append(f.Statuses, status)
	}
	f.Categories = splitList(query["category"])

	if f.From != "" {
		if _, err := core.ParseDay(f.From); err != nil {
			return views.TaskFilter{}, core.Validation("from must be YYYY-MM-DD")
		}
	}
	if f.To != "" {
		if _, err := core.ParseDay(f.To); err != nil {
			return views.TaskFilter{}, core.Validation("to must be YYYY-MM-DD")
		}
	}
	return f, nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
