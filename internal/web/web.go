// Package web exposes the HTTP surface: the calendar export endpoint, the
// caching upstream proxy, and the JSON discovery APIs the UI uses for
// area/venue selection.
package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"racal/internal/cache"
	"racal/internal/config"
	"racal/internal/ical"
	appLog "racal/internal/log"
	"racal/internal/metrics"
	"racal/internal/model"
	"racal/internal/ra"
)

// Server wires the upstream client and response cache behind the HTTP API.
type Server struct {
	cfg      *config.Config
	client   *ra.Client
	cache    *cache.Cache
	mux      *http.ServeMux
	upstream *http.Client

	// now is overridable for tests (export window arithmetic).
	now func() time.Time
}

// NewServer constructs a Server. respCache may be nil; the export and
// proxy paths behave identically without it, just slower.
func NewServer(cfg *config.Config, client *ra.Client, respCache *cache.Cache) *Server {
	s := &Server{
		cfg:      cfg,
		client:   client,
		cache:    respCache,
		mux:      http.NewServeMux(),
		upstream: &http.Client{Timeout: 15 * time.Second},
		now:      time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/calendar", s.handleCalendar)
	s.mux.HandleFunc("/api/ra", s.handleProxy)
	s.mux.HandleFunc("/api/areas", s.handleAreas)
	s.mux.HandleFunc("/api/venues", s.handleVenues)
	s.mux.HandleFunc("/api/venues/search", s.handleVenueSearch)
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleCalendar is the export/subscription endpoint.
//
// GET /api/calendar?venues=1,2,3&range=month
// GET /api/calendar?area=13&range=week
//
// venues and area are mutually exclusive selections; range is one of
// week, 2weeks, month (default), 3months. The window runs from local
// midnight today to today+offset.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	venuesParam := q.Get("venues")
	areaParam := q.Get("area")
	rangeParam := q.Get("range")
	if rangeParam == "" {
		rangeParam = model.RangeMonth
	}

	if venuesParam == "" && areaParam == "" {
		metrics.ExportRequestsTotal.WithLabelValues("none", "400").Inc()
		http.Error(w, "Missing venues or area parameter", http.StatusBadRequest)
		return
	}

	rng := model.RangeWindow(rangeParam, s.now())

	var (
		events []model.Event
		mode   string
	)
	if areaParam != "" {
		mode = "area"
		var err error
		events, err = s.client.FetchAreaEvents(r.Context(), areaParam, rng)
		if err != nil {
			appLog.Error("area aggregation failed", err, "area", areaParam)
			status := upstreamStatus(err)
			metrics.ExportRequestsTotal.WithLabelValues(mode, strconv.Itoa(status)).Inc()
			http.Error(w, err.Error(), status)
			return
		}
	} else {
		mode = "venues"
		venueIDs := splitIDs(venuesParam)
		if len(venueIDs) == 0 {
			metrics.ExportRequestsTotal.WithLabelValues(mode, "400").Inc()
			http.Error(w, "No venues specified", http.StatusBadRequest)
			return
		}
		// Per-venue failures degrade to zero events inside the fan-out.
		events = s.client.FetchVenuesEvents(r.Context(), venueIDs, rng)
	}

	model.SortEventsByDate(events)

	doc, err := ical.Build(events, ical.Options{
		Name:      s.cfg.CalendarName,
		ProdID:    s.cfg.ProductID,
		Origin:    s.cfg.Origin,
		UIDSuffix: s.cfg.UIDSuffix,
	})
	if err != nil {
		appLog.Error("calendar serialization failed", err, "mode", mode, "event_count", len(events))
		metrics.ExportRequestsTotal.WithLabelValues(mode, "500").Inc()
		http.Error(w, "failed to serialize calendar", http.StatusInternalServerError)
		return
	}

	metrics.ExportRequestsTotal.WithLabelValues(mode, "200").Inc()
	metrics.ExportEvents.Observe(float64(len(events)))
	appLog.Info("calendar exported", "mode", mode, "range", rangeParam, "event_count", len(events))

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename=ra-events.ics`)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

// splitIDs parses a comma-separated id list, dropping empty entries.
func splitIDs(s string) []string {
	parts := strings.Split(s, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

// upstreamStatus maps a client error onto the HTTP status the export
// endpoint reports. Rate limiting passes through; everything else from
// upstream is a bad gateway.
func upstreamStatus(err error) int {
	var statusErr *ra.StatusError
	if errors.As(err, &statusErr) && statusErr.Status == http.StatusTooManyRequests {
		return http.StatusTooManyRequests
	}
	return http.StatusBadGateway
}

// corsHeaders prepares a response for cross-origin UI access. The proxy and
// the preflight reply both carry these.
func corsHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// handleProxy forwards opaque GraphQL bodies to the upstream endpoint
// through the content-addressed response cache.
//
// Responses carry an X-Cache header: HIT (served from cache), MISS (fetched
// and cached), ERROR (pass-through failure, never cached).
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		corsHeaders(w)
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	corsHeaders(w)
	w.Header().Set("Content-Type", "application/json")

	key := cache.Key(body)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			metrics.ProxyCacheTotal.WithLabelValues("hit").Inc()
			w.Header().Set("X-Cache", "HIT")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		}
	}

	status, respBody, err := s.forward(r, body)
	if err != nil {
		metrics.ProxyCacheTotal.WithLabelValues("error").Inc()
		appLog.Error("proxy upstream unreachable", err)
		w.Header().Set("X-Cache", "ERROR")
		w.WriteHeader(http.StatusBadGateway)
		envelope := map[string]any{
			"errors": []map[string]string{{"message": "Unable to reach upstream: " + err.Error()}},
		}
		_ = json.NewEncoder(w).Encode(envelope)
		return
	}

	if status >= 200 && status <= 299 {
		if s.cache != nil {
			if err := s.cache.Put(key, respBody); err != nil {
				appLog.Error("proxy cache store failed", err)
			}
		}
		metrics.ProxyCacheTotal.WithLabelValues("miss").Inc()
		w.Header().Set("X-Cache", "MISS")
	} else {
		// Non-2xx passes through with the upstream status, uncached.
		metrics.ProxyCacheTotal.WithLabelValues("error").Inc()
		w.Header().Set("X-Cache", "ERROR")
	}
	w.WriteHeader(status)
	_, _ = w.Write(respBody)
}

// forward relays one request body to the upstream endpoint.
func (s *Server) forward(r *http.Request, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, s.cfg.UpstreamURL, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Referer", s.cfg.Origin+"/events")
	req.Header.Set("Origin", s.cfg.Origin)

	resp, err := s.upstream.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}

func (s *Server) handleAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := s.client.Areas(r.Context())
	if err != nil {
		appLog.Error("areas fetch failed", err)
		writeError(w, upstreamStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, areas)
}

func (s *Server) handleVenues(w http.ResponseWriter, r *http.Request) {
	areaID := r.URL.Query().Get("area")
	if areaID == "" {
		writeError(w, http.StatusBadRequest, "missing area parameter")
		return
	}
	count := parseIntDefault(r.URL.Query().Get("count"), 30)

	venues, err := s.client.PopularVenues(r.Context(), areaID, count)
	if err != nil {
		appLog.Error("popular venues fetch failed", err, "area", areaID)
		writeError(w, upstreamStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, venues)
}

func (s *Server) handleVenueSearch(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		writeError(w, http.StatusBadRequest, "missing q parameter")
		return
	}
	areaName := r.URL.Query().Get("area")

	venues, err := s.client.SearchVenues(r.Context(), term, areaName)
	if err != nil {
		appLog.Error("venue search failed", err, "term", term)
		writeError(w, upstreamStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, venues)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
