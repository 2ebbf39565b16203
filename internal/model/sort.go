package model

import (
	"sort"
	"strings"
	"time"
)

// upstream timestamp layouts, most specific first. Values arrive as
// RFC3339 date-times, offset-less date-times with or without fractional
// seconds (interpreted as UTC), or bare calendar days.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime interprets an upstream date or timestamp value.
func ParseTime(v string) (time.Time, error) {
	var firstErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// parseEventDate is ParseTime with an ok flag, for sorting. Lexicographic
// comparison is not good enough there: an embedded timezone offset can
// order differently from the raw string.
func parseEventDate(v string) (time.Time, bool) {
	t, err := ParseTime(v)
	return t, err == nil
}

// SortEventsByDate sorts events chronologically by their Date field,
// ascending and stable. Unparseable dates sort after parseable ones so a
// single bad record cannot scramble the rest of the feed.
func SortEventsByDate(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		ti, oki := parseEventDate(events[i].Date)
		tj, okj := parseEventDate(events[j].Date)
		if oki && okj {
			return ti.Before(tj)
		}
		return oki && !okj
	})
}

// eventDay returns the calendar-day portion of an event date, i.e. the text
// before any time-of-day component.
func eventDay(date string) string {
	if i := strings.IndexByte(date, 'T'); i >= 0 {
		return date[:i]
	}
	return date
}

// FilterEventsByDay keeps events whose calendar day falls within the
// inclusive [startDay, endDay] range. Days are compared as plain
// "YYYY-MM-DD" strings; this is the interactive day-click filter, not part
// of the export pipeline.
func FilterEventsByDay(events []Event, startDay, endDay string) []Event {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		day := eventDay(ev.Date)
		if day >= startDay && day <= endDay {
			out = append(out, ev)
		}
	}
	return out
}
