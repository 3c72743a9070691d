// Package aggregator computes category, segment, situation and stage summaries.
package aggregator

import (
	"math"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/Leanito/Leadsrecptives/internal/models"
	"github.com/Leanito/Leadsrecptives/pkg/utils"
)

// Default situation markers and the type value that marks a conversion.
const (
	DefaultOpportunityMarker = "oportunidade"
	DefaultLostMarker        = "perdido"
	DefaultConversionType    = "Cancelado-Lead-Respondeu"
)

// Percent returns count/total*100 rounded to two decimals. Callers must
// guard on total > 0.
func Percent(count, total int) float64 {
	return math.Round(float64(count)/float64(total)*100*100) / 100
}

// Categories counts leads per category. Only categories present are listed,
// most frequent first with ties in Valid, Invalid, Unqualified order.
// Percentages are computed only when the set is non-empty.
func Categories(leads []models.Lead) models.CategorySummary {
	summary := models.CategorySummary{Total: len(leads)}
	if len(leads) == 0 {
		return summary
	}

	counts := lo.CountValuesBy(leads, func(l models.Lead) models.Category { return l.Category })

	for _, c := range models.Categories {
		n, ok := counts[c]
		if !ok {
			continue
		}

		summary.Stats = append(summary.Stats, models.CategoryStat{
			Category: c,
			Count:    n,
			Percent:  Percent(n, len(leads)),
		})
	}

	sort.SliceStable(summary.Stats, func(i, j int) bool {
		return summary.Stats[i].Count > summary.Stats[j].Count
	})

	summary.HasPercentages = true

	return summary
}

// Segments cross-tabulates segment by category. Every distinct segment gets
// a row with zero-filled counts; rows are sorted by total descending, then
// by segment name.
func Segments(leads []models.Lead) []models.SegmentSummary {
	groups := lo.GroupBy(leads, func(l models.Lead) string { return l.Segment })

	rows := make([]models.SegmentSummary, 0, len(groups))

	for segment, group := range groups {
		row := models.SegmentSummary{Segment: segment}

		for _, l := range group {
			switch l.Category {
			case models.CategoryValid:
				row.Valid++
			case models.CategoryInvalid:
				row.Invalid++
			default:
				row.Unqualified++
			}
		}

		row.Total = row.Valid + row.Invalid + row.Unqualified
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}

		return rows[i].Segment < rows[j].Segment
	})

	return rows
}

// Situations counts leads whose situation contains each marker. The counts
// are independent: a lead may match both or neither.
func Situations(leads []models.Lead, opportunity, lost string) models.SituationCounts {
	return models.SituationCounts{
		Opportunity: lo.CountBy(leads, func(l models.Lead) bool { return utils.ContainsFold(l.Situation, opportunity) }),
		Lost:        lo.CountBy(leads, func(l models.Lead) bool { return utils.ContainsFold(l.Situation, lost) }),
	}
}

// Unqualified returns the leads in the Unqualified category, the ones the
// sales team should review first.
func Unqualified(leads []models.Lead) []models.Lead {
	return lo.Filter(leads, func(l models.Lead, _ int) bool {
		return l.Category == models.CategoryUnqualified
	})
}

// Conversions returns the leads whose type column equals typeValue exactly.
func Conversions(leads []models.Lead, typeColumn, typeValue string) []models.Lead {
	return lo.Filter(leads, func(l models.Lead, _ int) bool {
		return l.Field(typeColumn) == typeValue
	})
}

// ConversionsByStage counts conversions grouped by their stage column,
// sorted by stage name. Conversions with a blank stage are not counted and
// percentages are taken over the counted ones.
func ConversionsByStage(leads []models.Lead, typeColumn, stageColumn, typeValue string) models.StageSummary {
	staged := lo.Filter(Conversions(leads, typeColumn, typeValue), func(l models.Lead, _ int) bool {
		return strings.TrimSpace(l.Field(stageColumn)) != ""
	})

	summary := models.StageSummary{Total: len(staged)}
	if len(staged) == 0 {
		return summary
	}

	counts := lo.CountValuesBy(staged, func(l models.Lead) string { return l.Field(stageColumn) })

	stages := lo.Keys(counts)
	sort.Strings(stages)

	for _, stage := range stages {
		summary.Stages = append(summary.Stages, models.StageStat{
			Stage:   stage,
			Count:   counts[stage],
			Percent: Percent(counts[stage], len(staged)),
		})
	}

	return summary
}
