// Package models defines the lead records and the aggregates derived from them.
package models

// Category is the derived classification of a lead.
type Category string

// Lead categories.
const (
	CategoryValid       Category = "Valid"
	CategoryInvalid     Category = "Invalid"
	CategoryUnqualified Category = "Unqualified"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryValid, CategoryInvalid, CategoryUnqualified}

// String returns the category name.
func (c Category) String() string {
	return string(c)
}

// CategoryStat holds the count and share of one category.
type CategoryStat struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
	Percent  float64  `json:"percent"`
}

// CategorySummary holds per-category counts for a filtered record set.
// Percentages are only meaningful when HasPercentages is true.
type CategorySummary struct {
	Stats          []CategoryStat `json:"stats"`
	Total          int            `json:"total"`
	HasPercentages bool           `json:"hasPercentages"`
}

// Count returns the count for one category, zero when absent.
func (s *CategorySummary) Count(c Category) int {
	for _, st := range s.Stats {
		if st.Category == c {
			return st.Count
		}
	}

	return 0
}

// Percent returns the rounded percentage for one category, zero when absent.
func (s *CategorySummary) Percent(c Category) float64 {
	for _, st := range s.Stats {
		if st.Category == c {
			return st.Percent
		}
	}

	return 0
}

// SegmentSummary is one row of the segment by category cross-tabulation.
type SegmentSummary struct {
	Segment     string `json:"segment"`
	Valid       int    `json:"valid"`
	Invalid     int    `json:"invalid"`
	Unqualified int    `json:"unqualified"`
	Total       int    `json:"total"`
}

// Count returns the count for one category in this segment.
func (s *SegmentSummary) Count(c Category) int {
	switch c {
	case CategoryValid:
		return s.Valid
	case CategoryInvalid:
		return s.Invalid
	case CategoryUnqualified:
		return s.Unqualified
	default:
		return 0
	}
}

// SituationCounts holds the independent situation marker counts.
type SituationCounts struct {
	Opportunity int `json:"opportunity"`
	Lost        int `json:"lost"`
}

// StageStat holds conversions recorded at one automation stage.
type StageStat struct {
	Stage   string  `json:"stage"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// StageSummary holds conversions grouped by automation stage.
type StageSummary struct {
	Stages []StageStat `json:"stages"`
	Total  int         `json:"total"`
}
