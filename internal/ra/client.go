// Package ra implements the upstream query client and the pagination
// aggregator for the event-listing GraphQL API.
package ra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"racal/internal/cache"
	appLog "racal/internal/log"
	"racal/internal/metrics"
	"racal/internal/model"
)

// Browser-shaped request headers; the upstream endpoint rejects bare
// programmatic clients.
const (
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
	defaultReferer   = "https://ra.co/events"
	defaultOrigin    = "https://ra.co"
)

// Client issues parameterized queries against the upstream GraphQL API.
// It holds no per-request state; the optional response cache makes repeat
// identical queries cheap but never changes observable behavior.
type Client struct {
	endpoint string
	http     *http.Client
	cache    *cache.Cache
}

// NewClient creates a Client for the given GraphQL endpoint. respCache may
// be nil to disable response caching.
func NewClient(endpoint string, respCache *cache.Cache) *Client {
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		cache: respCache,
	}
}

// gqlRequest is the upstream POST body. Field order is fixed by the struct,
// so identical queries serialize to identical bytes and share a cache key.
type gqlRequest struct {
	OperationName string `json:"operationName"`
	Query         string `json:"query"`
	Variables     any    `json:"variables"`
}

type gqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// do executes one GraphQL operation and decodes the data payload into out.
// A response body is stored in the cache only once the envelope proves
// error-free; errors of any kind pass through uncached.
func (c *Client) do(ctx context.Context, operation, query string, variables, out any) error {
	body, err := json.Marshal(gqlRequest{
		OperationName: operation,
		Query:         query,
		Variables:     variables,
	})
	if err != nil {
		return &DecodeError{Err: err}
	}

	raw, fromCache, err := c.fetch(ctx, operation, body)
	if err != nil {
		return err
	}

	var envelope gqlEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(operation, "decode_error").Inc()
		return &DecodeError{Err: err}
	}
	if len(envelope.Errors) > 0 {
		metrics.UpstreamRequestsTotal.WithLabelValues(operation, "graphql_error").Inc()
		return &GraphQLError{Message: envelope.Errors[0].Message}
	}
	if envelope.Data == nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(operation, "decode_error").Inc()
		return &DecodeError{Err: errNoData}
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(operation, "decode_error").Inc()
		return &DecodeError{Err: err}
	}

	if !fromCache {
		if c.cache != nil {
			if err := c.cache.Put(cache.Key(body), raw); err != nil {
				// A broken cache must never break the query path.
				appLog.Error("upstream cache store failed", err, "operation", operation)
			}
		}
		metrics.UpstreamRequestsTotal.WithLabelValues(operation, "ok").Inc()
	}
	return nil
}

var errNoData = errors.New("no data returned from upstream")

// fetch returns the raw response body for a request body, serving from the
// cache when a fresh entry exists. Fresh bodies are not cached here; the
// caller stores them once the envelope checks pass.
func (c *Client) fetch(ctx context.Context, operation string, body []byte) ([]byte, bool, error) {
	if c.cache != nil {
		if cached, ok := c.cache.Get(cache.Key(body)); ok {
			appLog.Debug("upstream cache hit", "operation", operation)
			return cached, true, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, &NetworkError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Referer", defaultReferer)
	req.Header.Set("Origin", defaultOrigin)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(operation, "network_error").Inc()
		return nil, false, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamRequestsTotal.WithLabelValues(operation, "http_"+strconv.Itoa(resp.StatusCode)).Inc()
		return nil, false, &StatusError{Status: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, &NetworkError{Err: err}
	}
	return raw, false, nil
}

// VenueEvents returns one page of events for a venue within [gte, lte].
// The bounds are full RFC3339 timestamps (venue mode does not truncate to
// day granularity).
func (c *Client) VenueEvents(ctx context.Context, venueID, gte, lte string, page, pageSize int) ([]model.Event, error) {
	rangeJSON, err := json.Marshal(dateRangeValue{Gte: gte, Lte: lte})
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	vars := venueEventsVars{
		Filters: []filterInput{
			{Type: "CLUB", Value: venueID},
			{Type: "DATERANGE", Value: string(rangeJSON)},
		},
		PageSize: pageSize,
		Page:     page,
	}

	var data struct {
		Listing struct {
			Data         []rawEvent `json:"data"`
			TotalResults int        `json:"totalResults"`
		} `json:"listing"`
	}
	if err := c.do(ctx, opVenueEvents, queryVenueEvents, vars, &data); err != nil {
		return nil, err
	}
	return normalizeListing(data.Listing.Data), nil
}

// AreaEvents returns one page of primary listing entries for an area. The
// range bounds are day-granular; only listingPosition == 1 records are
// requested, which suppresses the secondary entries upstream attaches to
// multi-day events.
func (c *Client) AreaEvents(ctx context.Context, areaID, gteDay, lteDay string, page, pageSize int) ([]model.Event, error) {
	areaNum, err := strconv.Atoi(areaID)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	vars := areaEventsVars{
		Filters: areaFilters{
			Areas:           eqInt{Eq: areaNum},
			ListingDate:     dayRange{Gte: gteDay, Lte: lteDay},
			ListingPosition: eqInt{Eq: 1},
		},
		PageSize: pageSize,
		Page:     page,
	}

	var data struct {
		EventListings struct {
			Data         []rawListingEntry `json:"data"`
			TotalResults int               `json:"totalResults"`
		} `json:"eventListings"`
	}
	if err := c.do(ctx, opAreaEvents, queryAreaEvents, vars, &data); err != nil {
		return nil, err
	}
	return normalizeEventListings(data.EventListings.Data), nil
}

// SearchVenues runs a free-text venue search. The upstream search index
// returns mixed hit types capped at 16; only VENUE hits survive, and when
// areaName is non-empty the hit's area must match it exactly (the upstream
// match is case-sensitive).
func (c *Client) SearchVenues(ctx context.Context, term, areaName string) ([]model.Venue, error) {
	var data struct {
		Search []rawSearchHit `json:"search"`
	}
	if err := c.do(ctx, opSearchVenues, querySearchVenues, searchVars{Term: term}, &data); err != nil {
		return nil, err
	}

	venues := make([]model.Venue, 0, len(data.Search))
	for _, hit := range data.Search {
		if hit.SearchType != "VENUE" {
			continue
		}
		if areaName != "" && hit.AreaName != areaName {
			continue
		}
		venues = append(venues, normalizeSearchHit(hit))
	}
	return venues, nil
}

// PopularVenues lists the most-followed venues in an area.
func (c *Client) PopularVenues(ctx context.Context, areaID string, count int) ([]model.Venue, error) {
	if count <= 0 {
		count = 30
	}

	var data struct {
		Venues []model.Venue `json:"venues"`
	}
	vars := popularVenuesVars{AreaID: areaID, Count: count, OrderBy: "POPULAR"}
	if err := c.do(ctx, opPopularVenues, queryPopularVenues, vars, &data); err != nil {
		return nil, err
	}
	if data.Venues == nil {
		return []model.Venue{}, nil
	}
	return data.Venues, nil
}

// Areas lists all areas known upstream.
func (c *Client) Areas(ctx context.Context) ([]model.Area, error) {
	var data struct {
		Areas []rawArea `json:"areas"`
	}
	if err := c.do(ctx, opAreas, queryAreas, struct{}{}, &data); err != nil {
		return nil, err
	}

	areas := make([]model.Area, 0, len(data.Areas))
	for _, a := range data.Areas {
		areas = append(areas, model.Area{
			ID:      a.ID,
			Name:    a.Name,
			URLName: a.URLName,
			Country: a.Country.Name,
		})
	}
	return areas, nil
}
