package model

import "time"

// DateRange is a closed query window. Interactive selection may leave the
// end open, but it must be closed before any upstream query is issued.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Range presets accepted by the export endpoint.
const (
	RangeWeek     = "week"
	RangeTwoWeeks = "2weeks"
	RangeMonth    = "month"
	RangeThree    = "3months"
)

// RangeWindow computes the export window for a range preset: from local
// midnight of now to now+offset. Unknown presets fall back to one month.
func RangeWindow(preset string, now time.Time) DateRange {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var end time.Time
	switch preset {
	case RangeWeek:
		end = start.AddDate(0, 0, 7)
	case RangeTwoWeeks:
		end = start.AddDate(0, 0, 14)
	case RangeThree:
		end = start.AddDate(0, 3, 0)
	case RangeMonth:
		end = start.AddDate(0, 1, 0)
	default:
		end = start.AddDate(0, 1, 0)
	}

	return DateRange{Start: start, End: end}
}

// StartISO returns the window start as an RFC3339 timestamp for the
// venue-mode DATERANGE filter.
func (r DateRange) StartISO() string { return r.Start.Format(time.RFC3339) }

// EndISO returns the window end as an RFC3339 timestamp.
func (r DateRange) EndISO() string { return r.End.Format(time.RFC3339) }

// StartDay returns the window start truncated to day granularity, as used
// by the area-mode listingDate filter.
func (r DateRange) StartDay() string { return r.Start.Format("2006-01-02") }

// EndDay returns the window end truncated to day granularity.
func (r DateRange) EndDay() string { return r.End.Format("2006-01-02") }
