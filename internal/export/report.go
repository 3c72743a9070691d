package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/Leanito/Leadsrecptives/internal/formatter"
	"github.com/Leanito/Leadsrecptives/internal/models"
	"github.com/Leanito/Leadsrecptives/internal/pipeline"
	"github.com/Leanito/Leadsrecptives/pkg/metadata"
	"github.com/Leanito/Leadsrecptives/pkg/utils"
)

// maxCellWidth caps free-text cells in the report tables.
const maxCellWidth = 60

// Report renders a signed markdown report of one pipeline result.
func Report(result *pipeline.Result, label Labeler) string {
	var sb strings.Builder

	sb.WriteString("# Lead Report\n\n")
	writeOverview(&sb, result)

	sb.WriteString("## Categories\n\n")

	if result.Categories.HasPercentages {
		sb.WriteString(CategoryTable(result.Categories, label))
		sb.WriteString("\n\n")
	} else {
		sb.WriteString("No leads in the selected period.\n\n")
	}

	if len(result.Segments) > 0 {
		sb.WriteString("## Segments\n\n")
		sb.WriteString(SegmentTable(result.Segments, label))
		sb.WriteString("\n\n")
	}

	if result.Situations != nil {
		sb.WriteString("## Situation\n\n")
		fmt.Fprintf(&sb, "- Opportunities: %d\n", result.Situations.Opportunity)
		fmt.Fprintf(&sb, "- Lost: %d\n\n", result.Situations.Lost)
	}

	if result.Stages != nil {
		sb.WriteString("## Conversions by Stage\n\n")

		if result.Stages.Total == 0 {
			sb.WriteString("No conversions in the selected period.\n\n")
		} else {
			sb.WriteString(StageTable(*result.Stages))
			sb.WriteString("\n\n")
		}
	}

	if len(result.Unqualified) > 0 {
		sb.WriteString("## Unqualified Leads\n\n")
		sb.WriteString(UnqualifiedTable(result.Unqualified, label))
		sb.WriteString("\n\n")
	}

	if len(result.Notices) > 0 {
		sb.WriteString("## Notices\n\n")

		for _, n := range result.Notices {
			fmt.Fprintf(&sb, "- `%s` %s\n", n.Code, n.Message)
		}
	}

	info := metadata.Info{
		RunID:       result.RunID,
		GeneratedAt: result.GeneratedAt,
	}
	if result.Dataset != nil {
		info.Source = result.Dataset.Source
	}

	return metadata.Sign(sb.String(), info)
}

// CategoryTable renders the category counts with percentages.
func CategoryTable(summary models.CategorySummary, label Labeler) string {
	_, rows := SummaryRows(summary, label)
	for _, row := range rows {
		row[2] += "%"
	}

	return formatter.RenderTable([]string{"Category", "Count", "Percent"}, rows)
}

// SegmentTable renders the segment by category cross-tabulation.
func SegmentTable(segments []models.SegmentSummary, label Labeler) string {
	headers := []string{"Segment"}
	for _, c := range models.Categories {
		headers = append(headers, label(c))
	}

	headers = append(headers, "Total")

	rows := make([][]string, 0, len(segments))

	for _, s := range segments {
		name := s.Segment
		if strings.TrimSpace(name) == "" {
			name = "(blank)"
		}

		row := []string{utils.TruncateString(name, maxCellWidth)}
		for _, c := range models.Categories {
			row = append(row, fmt.Sprint(s.Count(c)))
		}

		rows = append(rows, append(row, fmt.Sprint(s.Total)))
	}

	return formatter.RenderTable(headers, rows)
}

// StageTable renders conversions grouped by stage.
func StageTable(stages models.StageSummary) string {
	rows := make([][]string, 0, len(stages.Stages))
	for _, s := range stages.Stages {
		rows = append(rows, []string{s.Stage, fmt.Sprint(s.Count), formatPercent(s.Percent) + "%"})
	}

	return formatter.RenderTable([]string{"Stage", "Conversions", "Percent"}, rows)
}

// UnqualifiedTable renders the leads that still need qualification.
func UnqualifiedTable(leads []models.Lead, label Labeler) string {
	headers := []string{"Row", "Name", "Email", "Phone", "Segment", "Status", "Date", "Situation", "Category"}

	rows := make([][]string, 0, len(leads))

	for _, l := range leads {
		rows = append(rows, []string{
			fmt.Sprint(l.Row),
			utils.TruncateString(l.Field(models.KeyName), maxCellWidth),
			l.Field(models.KeyEmail),
			l.Field(models.KeyPhone),
			utils.TruncateString(l.Segment, maxCellWidth),
			l.Status,
			formatDay(l.ConversionDate),
			l.Situation,
			label(l.Category),
		})
	}

	return formatter.RenderTable(headers, rows)
}

func writeOverview(sb *strings.Builder, result *pipeline.Result) {
	ds := result.Dataset
	if ds == nil {
		ds = &models.Dataset{}
	}

	if ds.Source != "" {
		fmt.Fprintf(sb, "- Source: %s\n", ds.Source)
	}

	fmt.Fprintf(sb, "- Period: %s\n", period(result))
	fmt.Fprintf(sb, "- Leads: %d\n", len(result.Leads))
	fmt.Fprintf(sb, "- Rows read: %d\n", ds.TotalRows)

	if ds.DroppedDates > 0 {
		fmt.Fprintf(sb, "- Rows without a valid date: %d\n", ds.DroppedDates)
	}

	if ds.ExcludedRows > 0 {
		fmt.Fprintf(sb, "- Duplicate or test rows removed: %d\n", ds.ExcludedRows)
	}

	sb.WriteString("\n")
}

func period(result *pipeline.Result) string {
	if result.Range.IsComplete() {
		return formatDay(result.Range.Start) + " to " + formatDay(result.Range.End)
	}

	if result.Dataset != nil {
		if earliest, latest, ok := result.Dataset.DateBounds(); ok {
			return fmt.Sprintf("all (%s to %s)", formatDay(earliest), formatDay(latest))
		}
	}

	return "all"
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(time.DateOnly)
}
