package statistics

import (
	"time"

	"github.com/Yamojr001/lip-sub002/internal/platform/apperr"
)

const (
	Month   = "month"
	Quarter = "quarter"
	Year    = "year"
	Custom  = "custom"
)

const (
	dateLayout    = "2006-01-02"
	maxCustomDays = 5 * 366
)

// Period is the half-open reporting window [Start, End).
type Period struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Granularity string    `json:"granularity"`
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParsePeriod builds a period from the period, from and to query values.
// Calendar granularities contain the anchor date: from when given, else now.
// Custom periods need both from and to; to is inclusive.
func ParsePeriod(kind, from, to string, now time.Time) (Period, error) {
	if kind == "" {
		kind = Month
	}

	anchor := midnight(now)
	if from != "" {
		t, err := time.Parse(dateLayout, from)
		if err != nil {
			return Period{}, apperr.Invalid("from", "must be a date in YYYY-MM-DD form")
		}
		anchor = t
	}

	switch kind {
	case Month:
		start := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Period{Start: start, End: start.AddDate(0, 1, 0), Granularity: Month}, nil
	case Quarter:
		q := (int(anchor.Month()) - 1) / 3
		start := time.Date(anchor.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
		return Period{Start: start, End: start.AddDate(0, 3, 0), Granularity: Quarter}, nil
	case Year:
		start := time.Date(anchor.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return Period{Start: start, End: start.AddDate(1, 0, 0), Granularity: Year}, nil
	case Custom:
		if from == "" || to == "" {
			return Period{}, apperr.Invalid("period", "custom periods need both from and to")
		}
		end, err := time.Parse(dateLayout, to)
		if err != nil {
			return Period{}, apperr.Invalid("to", "must be a date in YYYY-MM-DD form")
		}
		end = end.AddDate(0, 0, 1)
		if !end.After(anchor) {
			return Period{}, apperr.Invalid("to", "must not be before from")
		}
		if end.Sub(anchor) > maxCustomDays*24*time.Hour {
			return Period{}, apperr.Invalid("to", "custom periods may span at most five years")
		}
		return Period{Start: anchor, End: end, Granularity: Custom}, nil
	default:
		return Period{}, apperr.Invalid("period", "must be one of month, quarter, year, custom")
	}
}

// Prior is the period immediately before p with the same granularity. A
// custom period's prior has the same length.
func (p Period) Prior() Period {
	switch p.Granularity {
	case Month:
		return Period{Start: p.Start.AddDate(0, -1, 0), End: p.Start, Granularity: Month}
	case Quarter:
		return Period{Start: p.Start.AddDate(0, -3, 0), End: p.Start, Granularity: Quarter}
	case Year:
		return Period{Start: p.Start.AddDate(-1, 0, 0), End: p.Start, Granularity: Year}
	default:
		return Period{Start: p.Start.Add(-p.End.Sub(p.Start)), End: p.Start, Granularity: p.Granularity}
	}
}

// Key identifies the period in cache keys.
func (p Period) Key() string {
	return p.Granularity + "." + p.Start.Format(dateLayout) + "." + p.End.Format(dateLayout)
}
