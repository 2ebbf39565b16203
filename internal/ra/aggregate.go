package ra

import (
	"context"
	"sync"

	appLog "racal/internal/log"
	"racal/internal/model"
)

const (
	// listingPageSize is the fixed page size for both listing shapes.
	listingPageSize = 100
	// maxAccumulated caps one aggregation as a safety valve against
	// unexpectedly large upstream result sets.
	maxAccumulated = 500
)

// paginate drives one paged query shape to exhaustion: fetch page 1, 2, ...
// appending records until a short page signals the last one or the
// accumulated count reaches the cap. Overshoot is bounded by one page.
func paginate(fetchPage func(page int) ([]model.Event, error)) ([]model.Event, error) {
	accumulated := make([]model.Event, 0, listingPageSize)
	for page := 1; ; page++ {
		batch, err := fetchPage(page)
		if err != nil {
			return nil, err
		}
		accumulated = append(accumulated, batch...)
		if len(batch) < listingPageSize || len(accumulated) >= maxAccumulated {
			return accumulated, nil
		}
	}
}

// FetchAreaEvents exhausts the area-scoped listing for one area within rng.
// Area queries already cover every venue, so a single sequential
// aggregation suffices. Errors propagate to the caller.
func (c *Client) FetchAreaEvents(ctx context.Context, areaID string, rng model.DateRange) ([]model.Event, error) {
	return paginate(func(page int) ([]model.Event, error) {
		return c.AreaEvents(ctx, areaID, rng.StartDay(), rng.EndDay(), page, listingPageSize)
	})
}

// FetchVenueEvents exhausts the venue-scoped listing for one venue.
func (c *Client) FetchVenueEvents(ctx context.Context, venueID string, rng model.DateRange) ([]model.Event, error) {
	return paginate(func(page int) ([]model.Event, error) {
		return c.VenueEvents(ctx, venueID, rng.StartISO(), rng.EndISO(), page, listingPageSize)
	})
}

// FetchVenuesEvents aggregates several venues concurrently: one fetch loop
// per venue, each owning its own accumulator, joined before the results are
// concatenated in argument order. A venue whose aggregation fails
// contributes zero events; its error is logged, not surfaced, so one dead
// venue cannot empty the whole calendar.
func (c *Client) FetchVenuesEvents(ctx context.Context, venueIDs []string, rng model.DateRange) []model.Event {
	results := make([][]model.Event, len(venueIDs))

	var wg sync.WaitGroup
	for i, id := range venueIDs {
		wg.Add(1)
		go func(slot int, venueID string) {
			defer wg.Done()
			events, err := c.FetchVenueEvents(ctx, venueID, rng)
			if err != nil {
				appLog.Error("venue aggregation failed, contributing zero events", err, "venue", venueID)
				return
			}
			results[slot] = events
		}(i, id)
	}
	wg.Wait()

	merged := make([]model.Event, 0, listingPageSize)
	for _, events := range results {
		merged = append(merged, events...)
	}
	return merged
}
