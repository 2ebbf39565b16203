// Package ical serializes canonical events into an iCalendar document.
// Envelope framing, TEXT escaping and line folding come from
// github.com/arran4/golang-ical; the timestamp/all-day rules and the
// description/location composition live here.
package ical

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"racal/internal/model"
)

// defaultDuration is synthesized when an event has a start but no end.
// Upstream frequently omits end times for club events; four hours
// approximates a typical night.
const defaultDuration = 4 * time.Hour

// Options configure one calendar document.
type Options struct {
	// Name is the display name (X-WR-CALNAME).
	Name string
	// ProdID is the product identifier in the calendar envelope.
	ProdID string
	// Origin is the absolute origin prepended to event content paths.
	Origin string
	// UIDSuffix is the domain suffix of event UIDs ("{id}@{suffix}").
	UIDSuffix string
	// Now stamps DTSTAMP; the zero value means wall-clock time.
	Now time.Time
}

func (o *Options) normalize() {
	if o.Name == "" {
		o.Name = "RA Events"
	}
	if o.ProdID == "" {
		o.ProdID = "-//racal//RA Events//EN"
	}
	if o.Origin == "" {
		o.Origin = "https://ra.co"
	}
	if o.UIDSuffix == "" {
		o.UIDSuffix = "ra.co"
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
}

// Build serializes events, in the given order, into one calendar document.
// Any event that cannot be serialized (unparseable date or timestamp)
// aborts the whole build; a partial document is never returned.
func Build(events []model.Event, opts Options) (string, error) {
	opts.normalize()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(opts.ProdID)
	cal.SetCalscale("GREGORIAN")
	cal.SetXWRCalName(opts.Name)

	for _, ev := range events {
		if err := addEvent(cal, ev, opts); err != nil {
			return "", fmt.Errorf("event %s: %w", ev.ID, err)
		}
	}

	// Serialize defaults to the platform newline; calendar output is
	// CRLF regardless of where the server runs.
	return cal.Serialize(ics.WithNewLineWindows), nil
}

func addEvent(cal *ics.Calendar, ev model.Event, opts Options) error {
	entry := cal.AddEvent(ev.ID + "@" + opts.UIDSuffix)
	entry.SetDtStampTime(opts.Now.UTC())

	if ev.StartTime != "" {
		start, err := model.ParseTime(ev.StartTime)
		if err != nil {
			return fmt.Errorf("bad startTime %q: %w", ev.StartTime, err)
		}
		entry.SetStartAt(start.UTC())

		end := start.Add(defaultDuration)
		if ev.EndTime != "" {
			end, err = model.ParseTime(ev.EndTime)
			if err != nil {
				return fmt.Errorf("bad endTime %q: %w", ev.EndTime, err)
			}
		}
		entry.SetEndAt(end.UTC())
	} else {
		// All-day fallback: date-valued DTSTART, no DTEND.
		day, err := model.ParseTime(ev.Date)
		if err != nil {
			return fmt.Errorf("bad date %q: %w", ev.Date, err)
		}
		entry.SetAllDayStartAt(day.UTC())
	}

	// TEXT escaping (backslash first, then ; , and newline) happens in
	// the library at serialization, so values go in raw.
	entry.SetSummary(ev.Title)

	eventURL := opts.Origin + ev.ContentURL
	entry.SetURL(eventURL)
	entry.SetDescription(description(ev, eventURL))

	if ev.Venue != nil {
		entry.SetLocation(location(ev.Venue))
		if ev.Venue.Location != nil {
			entry.SetGeo(ev.Venue.Location.Latitude, ev.Venue.Location.Longitude)
		}
	}

	return nil
}

// description is the artist line (when any artists are credited) followed
// by the event URL on its own line.
func description(ev model.Event, eventURL string) string {
	if len(ev.Artists) == 0 {
		return eventURL
	}
	names := make([]string, 0, len(ev.Artists))
	for _, a := range ev.Artists {
		names = append(names, a.Name)
	}
	return "Artists: " + strings.Join(names, ", ") + "\n" + eventURL
}

func location(v *model.Venue) string {
	if v.Address == "" {
		return v.Name
	}
	return v.Name + ", " + v.Address
}
