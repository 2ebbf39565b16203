package ra

import "racal/internal/model"

// The two listing operations return differently nested payloads: the
// venue-scoped listing carries event objects directly, the area-scoped
// eventListings wraps each one as {event: ...}. Each shape gets a plain
// adapter into the canonical model; fields pass through unchanged.

// rawEvent mirrors one upstream event record.
type rawEvent struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Date       string         `json:"date"`
	StartTime  string         `json:"startTime"`
	EndTime    string         `json:"endTime"`
	ContentURL string         `json:"contentUrl"`
	Artists    []model.Artist `json:"artists"`
	Venue      *rawVenue      `json:"venue"`
}

type rawVenue struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Address  string     `json:"address"`
	Location *model.Geo `json:"location"`
}

// rawListingEntry is the area-mode wrapper around an event record.
type rawListingEntry struct {
	ID    string   `json:"id"`
	Event rawEvent `json:"event"`
}

type rawSearchHit struct {
	SearchType string `json:"searchType"`
	ID         string `json:"id"`
	Value      string `json:"value"`
	ImageURL   string `json:"imageUrl"`
	AreaName   string `json:"areaName"`
}

type rawArea struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	URLName string `json:"urlName"`
	Country struct {
		Name string `json:"name"`
	} `json:"country"`
}

func normalizeEvent(r rawEvent) model.Event {
	ev := model.Event{
		ID:         r.ID,
		Title:      r.Title,
		Date:       r.Date,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		ContentURL: r.ContentURL,
		Artists:    r.Artists,
	}
	if ev.Artists == nil {
		ev.Artists = []model.Artist{}
	}
	// A record without a venue keeps Venue == nil; one is never synthesized.
	if r.Venue != nil {
		ev.Venue = &model.Venue{
			ID:       r.Venue.ID,
			Name:     r.Venue.Name,
			Address:  r.Venue.Address,
			Location: r.Venue.Location,
		}
	}
	return ev
}

// normalizeListing adapts the direct listing.data[] shape.
func normalizeListing(data []rawEvent) []model.Event {
	events := make([]model.Event, 0, len(data))
	for _, r := range data {
		events = append(events, normalizeEvent(r))
	}
	return events
}

// normalizeEventListings adapts the wrapped eventListings.data[].event shape.
func normalizeEventListings(data []rawListingEntry) []model.Event {
	events := make([]model.Event, 0, len(data))
	for _, entry := range data {
		events = append(events, normalizeEvent(entry.Event))
	}
	return events
}

func normalizeSearchHit(hit rawSearchHit) model.Venue {
	return model.Venue{
		ID:         hit.ID,
		Name:       hit.Value,
		ContentURL: "/clubs/" + hit.ID,
		LogoURL:    hit.ImageURL,
	}
}
