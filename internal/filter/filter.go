// Package filter removes noise rows and restricts leads to a date interval.
package filter

import (
	"time"

	"github.com/samber/lo"

	"github.com/Leanito/Leadsrecptives/internal/models"
	"github.com/Leanito/Leadsrecptives/pkg/utils"
)

// DefaultExcludeMarkers flag duplicate and test entries in the segment field.
var DefaultExcludeMarkers = []string{"duplicado", "teste"}

// ExcludeSegments drops leads whose segment contains any marker,
// case-insensitively. It returns the kept leads and how many were removed.
func ExcludeSegments(leads []models.Lead, markers []string) ([]models.Lead, int) {
	kept := lo.Reject(leads, func(l models.Lead, _ int) bool {
		return utils.ContainsAnyFold(l.Segment, markers)
	})

	return kept, len(leads) - len(kept)
}

// DateRange is an inclusive interval of calendar days. A range missing
// either endpoint is incomplete and filters nothing.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a range from optional endpoints.
func NewDateRange(start, end *time.Time) DateRange {
	var r DateRange
	if start != nil {
		r.Start = *start
	}

	if end != nil {
		r.End = *end
	}

	return r
}

// IsComplete reports whether both endpoints are set.
func (r DateRange) IsComplete() bool {
	return !r.Start.IsZero() && !r.End.IsZero()
}

// Contains reports whether t falls on a day within the range. Days are
// compared in the time zone of t.
func (r DateRange) Contains(t time.Time) bool {
	if !r.IsComplete() {
		return true
	}

	day := civilDay(t)

	return !day.Before(civilDay(r.Start)) && !day.After(civilDay(r.End))
}

// Apply keeps leads dated within the range. Incomplete ranges pass the
// input through unchanged.
func (r DateRange) Apply(leads []models.Lead) []models.Lead {
	if !r.IsComplete() {
		return leads
	}

	return lo.Filter(leads, func(l models.Lead, _ int) bool {
		return r.Contains(l.ConversionDate)
	})
}

func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
