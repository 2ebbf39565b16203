package model

// Artist is one credited performer on an event, in upstream listing order.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Geo holds venue coordinates as reported upstream.
type Geo struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Venue is a physical location entity, distinct from the events held there.
// The selection-context fields (ContentURL, LogoURL, FollowerCount) are only
// populated by search/popular-venue listings.
type Venue struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	// Location is nil when upstream reports no coordinates.
	Location *Geo `json:"location,omitempty"`

	ContentURL    string `json:"contentUrl,omitempty"`
	LogoURL       string `json:"logoUrl,omitempty"`
	FollowerCount int    `json:"followerCount,omitempty"`
}

// Event is the canonical event record the whole pipeline operates on.
// Identity is the upstream-assigned ID; records are never mutated after
// normalization.
//
// Date is required and carries at least a calendar day; StartTime and
// EndTime are optional RFC3339 timestamps. An empty StartTime means the
// event is all-day. Venue stays nil when upstream omits it; it is never
// synthesized.
type Event struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Date       string   `json:"date"`
	StartTime  string   `json:"startTime,omitempty"`
	EndTime    string   `json:"endTime,omitempty"`
	ContentURL string   `json:"contentUrl"`
	Artists    []Artist `json:"artists"`
	Venue      *Venue   `json:"venue"`
}

// Area is a city-level grouping used to scope "all venues" queries.
type Area struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	URLName string `json:"urlName"`
	Country string `json:"country"`
}
