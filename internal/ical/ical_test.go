package ical

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"racal/internal/model"
)

func testOptions() Options {
	return Options{
		Name:      "RA Events",
		ProdID:    "-//racal//RA Events//EN",
		Origin:    "https://ra.co",
		UIDSuffix: "ra.co",
		Now:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func timedEvent(id, start, end string) model.Event {
	return model.Event{
		ID:         id,
		Title:      "Test Night",
		Date:       "2025-06-01T00:00:00Z",
		StartTime:  start,
		EndTime:    end,
		ContentURL: "/events/" + id,
	}
}

func TestBuildEnvelope(t *testing.T) {
	doc, err := Build(nil, testOptions())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc, "BEGIN:VCALENDAR\r\n"))
	assert.Contains(t, doc, "VERSION:2.0\r\n")
	assert.Contains(t, doc, "PRODID:-//racal//RA Events//EN\r\n")
	assert.Contains(t, doc, "CALSCALE:GREGORIAN\r\n")
	assert.Contains(t, doc, "METHOD:PUBLISH\r\n")
	assert.Contains(t, doc, "X-WR-CALNAME:RA Events\r\n")
	assert.True(t, strings.HasSuffix(doc, "END:VCALENDAR\r\n"))
}

func TestBuildCRLFOnly(t *testing.T) {
	doc, err := Build([]model.Event{timedEvent("1", "2025-06-01T22:00:00Z", "")}, testOptions())
	require.NoError(t, err)

	// Every line break must be CRLF; a lone LF breaks strict readers.
	stripped := strings.ReplaceAll(doc, "\r\n", "")
	assert.NotContains(t, stripped, "\n")
	assert.NotContains(t, stripped, "\r")
}

func TestBuildTimedEvent(t *testing.T) {
	doc, err := Build([]model.Event{timedEvent("100", "2025-06-01T22:00:00Z", "2025-06-02T04:00:00Z")}, testOptions())
	require.NoError(t, err)

	assert.Contains(t, doc, "UID:100@ra.co\r\n")
	assert.Contains(t, doc, "DTSTAMP:20250601T120000Z\r\n")
	assert.Contains(t, doc, "DTSTART:20250601T220000Z\r\n")
	assert.Contains(t, doc, "DTEND:20250602T040000Z\r\n")
	assert.Contains(t, doc, "URL:https://ra.co/events/100\r\n")
}

func TestBuildDefaultDuration(t *testing.T) {
	// No end time: DTEND is start + 4h, rolling over to the next day.
	doc, err := Build([]model.Event{timedEvent("1", "2025-06-01T22:00:00Z", "")}, testOptions())
	require.NoError(t, err)

	assert.Contains(t, doc, "DTSTART:20250601T220000Z\r\n")
	assert.Contains(t, doc, "DTEND:20250602T020000Z\r\n")
}

func TestBuildAllDayFallback(t *testing.T) {
	ev := model.Event{
		ID:         "7",
		Title:      "Open Air",
		Date:       "2025-06-01T00:00:00Z",
		ContentURL: "/events/7",
	}
	doc, err := Build([]model.Event{ev}, testOptions())
	require.NoError(t, err)

	assert.Contains(t, doc, "DTSTART;VALUE=DATE:20250601\r\n")
	assert.NotContains(t, doc, "DTEND")
}

func TestBuildEscaping(t *testing.T) {
	ev := timedEvent("1", "2025-06-01T22:00:00Z", "")
	ev.Title = "A; B, C\nD"
	doc, err := Build([]model.Event{ev}, testOptions())
	require.NoError(t, err)

	assert.Contains(t, doc, `SUMMARY:A\; B\, C\nD`)
}

func TestBuildEscapingBackslashFirst(t *testing.T) {
	ev := timedEvent("1", "2025-06-01T22:00:00Z", "")
	ev.Title = `back\slash; end`
	doc, err := Build([]model.Event{ev}, testOptions())
	require.NoError(t, err)

	// The literal backslash doubles before the semicolon escape is added,
	// so the inserted escape is not escaped again.
	assert.Contains(t, doc, `SUMMARY:back\\slash\; end`)
}

func TestBuildDescription(t *testing.T) {
	t.Run("with artists", func(t *testing.T) {
		ev := timedEvent("1", "2025-06-01T22:00:00Z", "")
		ev.Artists = []model.Artist{{ID: "a1", Name: "Ben Klock"}, {ID: "a2", Name: "DVS1"}}
		doc, err := Build([]model.Event{ev}, testOptions())
		require.NoError(t, err)

		assert.Contains(t, doc, `DESCRIPTION:Artists: Ben Klock\, DVS1\nhttps://ra.co/events/1`)
	})

	t.Run("without artists", func(t *testing.T) {
		ev := timedEvent("1", "2025-06-01T22:00:00Z", "")
		doc, err := Build([]model.Event{ev}, testOptions())
		require.NoError(t, err)

		assert.Contains(t, doc, "DESCRIPTION:https://ra.co/events/1\r\n")
	})
}

func TestBuildLocationAndGeo(t *testing.T) {
	ev := timedEvent("1", "2025-06-01T22:00:00Z", "")
	ev.Venue = &model.Venue{
		ID:      "v1",
		Name:    "Berghain",
		Address: "Am Wriezener Bahnhof, 10243 Berlin",
		Location: &model.Geo{
			Latitude:  52.510966,
			Longitude: 13.443256,
		},
	}

	doc, err := Build([]model.Event{ev}, testOptions())
	require.NoError(t, err)

	assert.Contains(t, doc, `LOCATION:Berghain\, Am Wriezener Bahnhof\, 10243 Berlin`)
	assert.Contains(t, doc, "GEO:52.510966;13.443256")
}

func TestBuildLocationWithoutAddress(t *testing.T) {
	ev := timedEvent("1", "2025-06-01T22:00:00Z", "")
	ev.Venue = &model.Venue{ID: "v1", Name: "Fold"}

	doc, err := Build([]model.Event{ev}, testOptions())
	require.NoError(t, err)

	assert.Contains(t, doc, "LOCATION:Fold\r\n")
	assert.NotContains(t, doc, "GEO:")
}

func TestBuildOrdering(t *testing.T) {
	events := []model.Event{
		timedEvent("c", "2025-06-03T22:00:00Z", ""),
		timedEvent("a", "2025-06-01T22:00:00Z", ""),
		timedEvent("b", "2025-06-02T22:00:00Z", ""),
	}
	events[0].Date = "2025-06-03T00:00:00Z"
	events[1].Date = "2025-06-01T00:00:00Z"
	events[2].Date = "2025-06-02T00:00:00Z"

	model.SortEventsByDate(events)
	doc, err := Build(events, testOptions())
	require.NoError(t, err)

	ia := strings.Index(doc, "UID:a@ra.co")
	ib := strings.Index(doc, "UID:b@ra.co")
	ic := strings.Index(doc, "UID:c@ra.co")
	require.True(t, ia >= 0 && ib >= 0 && ic >= 0)
	assert.Less(t, ia, ib)
	assert.Less(t, ib, ic)
}

func TestBuildBadTimestampAborts(t *testing.T) {
	events := []model.Event{
		timedEvent("1", "2025-06-01T22:00:00Z", ""),
		timedEvent("2", "not-a-time", ""),
	}
	doc, err := Build(events, testOptions())
	require.Error(t, err)
	assert.Empty(t, doc, "no partial document on serialization failure")
}

func TestBuildRoundTripsThroughParser(t *testing.T) {
	ev := timedEvent("42", "2025-06-01T22:00:00Z", "2025-06-02T04:00:00Z")
	ev.Venue = &model.Venue{ID: "v", Name: "Tresor"}
	doc, err := Build([]model.Event{ev}, testOptions())
	require.NoError(t, err)

	cal, err := ics.ParseCalendar(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, cal.Events(), 1)

	parsed := cal.Events()[0]
	uid := parsed.GetProperty(ics.ComponentPropertyUniqueId)
	require.NotNil(t, uid)
	assert.Equal(t, "42@ra.co", uid.Value)

	start, err := parsed.GetStartAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC), start.UTC())
}
