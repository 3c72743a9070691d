// Package export writes the filtered lead set and its summaries to CSV,
// workbook and markdown report files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/samber/lo"

	"github.com/Leanito/Leadsrecptives/internal/models"
)

// Labeler maps a category to its display label.
type Labeler func(models.Category) string

// DetailRows returns the header and one row per lead: every dataset column
// plus the derived lead category. Conversion dates are written as
// time.DateTime.
func DetailRows(columns []string, leads []models.Lead, label Labeler) ([]string, [][]string) {
	header := append([]string(nil), columns...)
	if !lo.Contains(header, models.KeyLeadCategory) {
		header = append(header, models.KeyLeadCategory)
	}

	rows := make([][]string, 0, len(leads))

	for _, lead := range leads {
		row := make([]string, len(header))

		for i, col := range header {
			switch col {
			case models.KeyConversionDate:
				row[i] = formatDate(lead.ConversionDate)
			case models.KeyLeadCategory:
				row[i] = label(lead.Category)
			default:
				row[i] = lead.Field(col)
			}
		}

		rows = append(rows, row)
	}

	return header, rows
}

// SummaryRows returns the category summary as category, count, percent rows.
func SummaryRows(summary models.CategorySummary, label Labeler) ([]string, [][]string) {
	header := []string{"category", "count", "percent"}

	rows := lo.Map(summary.Stats, func(st models.CategoryStat, _ int) []string {
		return []string{label(st.Category), fmt.Sprint(st.Count), formatPercent(st.Percent)}
	})

	return header, rows
}

// WriteDetailsCSV writes the filtered leads with every column.
func WriteDetailsCSV(w io.Writer, columns []string, leads []models.Lead, label Labeler) error {
	header, rows := DetailRows(columns, leads, label)

	return writeCSV(w, header, rows)
}

// WriteSummaryCSV writes the category counts and percentages.
func WriteSummaryCSV(w io.Writer, summary models.CategorySummary, label Labeler) error {
	header, rows := SummaryRows(summary, label)

	return writeCSV(w, header, rows)
}

// StageRows returns conversions per stage as stage, conversions, percent rows.
func StageRows(stages models.StageSummary) ([]string, [][]string) {
	header := []string{"stage", "conversions", "percent"}

	rows := lo.Map(stages.Stages, func(st models.StageStat, _ int) []string {
		return []string{st.Stage, fmt.Sprint(st.Count), formatPercent(st.Percent)}
	})

	return header, rows
}

// ConversionRows returns the header and one row per converted lead. The
// stage column is headed conversion_stage.
func ConversionRows(columns []string, leads []models.Lead) ([]string, [][]string) {
	header := lo.Map(columns, func(col string, _ int) string {
		if col == models.KeyStage {
			return "conversion_stage"
		}

		return col
	})

	rows := make([][]string, 0, len(leads))

	for _, lead := range leads {
		rows = append(rows, lo.Map(columns, func(col string, _ int) string {
			return lead.Field(col)
		}))
	}

	return header, rows
}

// WriteStageSummaryCSV writes conversions per stage.
func WriteStageSummaryCSV(w io.Writer, stages models.StageSummary) error {
	header, rows := StageRows(stages)

	return writeCSV(w, header, rows)
}

// WriteConversionsCSV writes the converted leads with the given columns.
func WriteConversionsCSV(w io.Writer, columns []string, leads []models.Lead) error {
	header, rows := ConversionRows(columns, leads)

	return writeCSV(w, header, rows)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}

	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(time.DateTime)
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%.2f", p)
}
