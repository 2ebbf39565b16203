package ra

// GraphQL documents for the named upstream operations. The shapes must
// match the upstream contract exactly; the variable structs below mirror
// the filter inputs each operation accepts.

const opVenueEvents = "GET_EVENTS_LISTING"

const queryVenueEvents = `
query GET_EVENTS_LISTING($filters: [FilterInput], $pageSize: Int, $page: Int) {
  listing(
    indices: [EVENT]
    filters: $filters
    pageSize: $pageSize
    page: $page
    sortField: DATE
    sortOrder: ASCENDING
  ) {
    data {
      ... on Event {
        id
        title
        date
        startTime
        endTime
        contentUrl
        artists {
          id
          name
        }
        venue {
          id
          name
          address
          location {
            latitude
            longitude
          }
        }
      }
    }
    totalResults
  }
}
`

const opAreaEvents = "GET_EVENT_LISTINGS"

const queryAreaEvents = `
query GET_EVENT_LISTINGS($filters: FilterInputDtoInput, $pageSize: Int, $page: Int) {
  eventListings(filters: $filters, pageSize: $pageSize, page: $page, sort: { listingDate: { order: ASCENDING } }) {
    data {
      id
      event {
        id
        title
        date
        startTime
        endTime
        contentUrl
        artists { id name }
        venue {
          id
          name
          address
          location { latitude longitude }
        }
      }
    }
    totalResults
  }
}
`

const opSearchVenues = "SEARCH_VENUES"

const querySearchVenues = `query SEARCH_VENUES($term: String!) { search(searchTerm: $term, limit: 16, indices: [CLUB], includeNonLive: false) { searchType id value imageUrl areaName } }`

const opPopularVenues = "GET_VENUES_QUERY"

const queryPopularVenues = `query GET_VENUES_QUERY($count: Int!, $areaId: ID!, $orderBy: OrderByType!) { venues(limit: $count, areaId: $areaId, orderBy: $orderBy) { id name logoUrl } }`

const opAreas = "GET_AREAS"

const queryAreas = `
query GET_AREAS {
  areas {
    id
    name
    urlName
    country {
      name
    }
  }
}
`

// filterInput is one entry of the venue-mode filters array.
type filterInput struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// dateRangeValue is the JSON-encoded value of a DATERANGE filter.
type dateRangeValue struct {
	Gte string `json:"gte"`
	Lte string `json:"lte,omitempty"`
}

// venueEventsVars drives the venue-scoped listing query.
type venueEventsVars struct {
	Filters  []filterInput `json:"filters"`
	PageSize int           `json:"pageSize"`
	Page     int           `json:"page"`
}

// eqInt / dayRange / areaFilters mirror the area-mode FilterInputDtoInput.
// listingPosition eq 1 keeps only primary listing entries; secondary
// entries upstream attaches to multi-day or re-listed events are dropped.
type eqInt struct {
	Eq int `json:"eq"`
}

type dayRange struct {
	Gte string `json:"gte"`
	Lte string `json:"lte"`
}

type areaFilters struct {
	Areas           eqInt    `json:"areas"`
	ListingDate     dayRange `json:"listingDate"`
	ListingPosition eqInt    `json:"listingPosition"`
}

type areaEventsVars struct {
	Filters  areaFilters `json:"filters"`
	PageSize int         `json:"pageSize"`
	Page     int         `json:"page"`
}

type searchVars struct {
	Term string `json:"term"`
}

type popularVenuesVars struct {
	AreaID  string `json:"areaId"`
	Count   int    `json:"count"`
	OrderBy string `json:"orderBy"`
}
