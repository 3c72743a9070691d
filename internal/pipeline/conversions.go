package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Leanito/Leadsrecptives/internal/aggregator"
	"github.com/Leanito/Leadsrecptives/internal/models"
	"github.com/Leanito/Leadsrecptives/internal/normalizer"
)

// conversionDetailKeys are the columns listed for each converted lead, in
// output order, when present in the table.
var conversionDetailKeys = []string{
	models.KeyTimestamp,
	models.KeyDealID,
	models.KeyPhone,
	models.KeyMessage,
	models.KeyDealName,
}

// ConversionResult is the outcome of a conversion analysis.
type ConversionResult struct {
	GeneratedAt time.Time            `json:"generatedAt"`
	Stages      *models.StageSummary `json:"stages,omitempty"`
	Dataset     *models.Dataset      `json:"dataset"`
	RunID       string               `json:"runId"`
	TypeValue   string               `json:"typeValue"`
	Columns     []string             `json:"columns"`
	Leads       []models.Lead        `json:"leads"`
	Notices     []Notice             `json:"notices"`
}

// Empty reports whether no converted leads were found.
func (r *ConversionResult) Empty() bool {
	return len(r.Leads) == 0
}

// RunConversions loads the table at location and analyzes its conversions.
func (p *Pipeline) RunConversions(ctx context.Context, location string) (*ConversionResult, error) {
	table, err := p.loader.Load(ctx, location, p.cfg.Source.Sheet)
	if err != nil {
		return nil, ingestionError(err)
	}

	return p.Conversions(table)
}

// Conversions lists the leads whose type equals the configured conversion
// value and, when a stage column exists, counts them per stage. Only the
// type column is required; dates are not parsed and no rows are dropped.
func (p *Pipeline) Conversions(table *models.Table) (*ConversionResult, error) {
	ds, res, err := p.converter.Passthrough(table)
	if err != nil {
		return nil, processError(err, res, conversionColumnsHint)
	}

	runID := uuid.NewString()
	log := p.log.WithRun(runID)

	result := &ConversionResult{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Dataset:     ds,
		TypeValue:   p.cfg.Conversion.TypeValue,
		Notices:     columnNotices(ds, res),
	}

	if ds.TotalRows == 0 {
		result.Notices = append(result.Notices, Notice{
			Code:    NoticeNoMatchingRecords,
			Message: "The spreadsheet has no rows to analyze.",
		})

		return result, nil
	}

	result.Leads = aggregator.Conversions(ds.Leads, models.KeyType, result.TypeValue)
	if result.Empty() {
		result.Notices = append(result.Notices, Notice{
			Code:    NoticeNoConversions,
			Message: fmt.Sprintf("No leads with %q found in column %q.", result.TypeValue, models.KeyType),
		})

		return result, nil
	}

	result.Columns = lo.Filter(conversionDetailKeys, func(key string, _ int) bool {
		return ds.HasColumn(key)
	})

	if ds.HasColumn(models.KeyStage) {
		result.Columns = append(result.Columns, models.KeyStage)

		stages := aggregator.ConversionsByStage(result.Leads, models.KeyType, models.KeyStage, result.TypeValue)
		result.Stages = &stages
	} else {
		result.Notices = append(result.Notices, Notice{
			Code:    NoticeStageMissing,
			Message: fmt.Sprintf("Column %q not found; listing converted leads without a stage breakdown.", models.KeyStage),
		})
	}

	log.Info("Conversion analysis complete",
		"source", ds.Source,
		"rows", ds.TotalRows,
		"conversions", len(result.Leads),
		"has_stage", result.Stages != nil,
	)

	return result, nil
}

// conversionSpecs keeps every column definition but requires only the type
// column, adding it when the configuration leaves it out.
func conversionSpecs(specs []normalizer.ColumnSpec) []normalizer.ColumnSpec {
	out := make([]normalizer.ColumnSpec, 0, len(specs)+1)
	hasType := false

	for _, spec := range specs {
		spec.Required = spec.Key == models.KeyType
		hasType = hasType || spec.Required
		out = append(out, spec)
	}

	if !hasType {
		out = append(out, normalizer.ColumnSpec{Key: models.KeyType, Required: true})
	}

	return out
}
