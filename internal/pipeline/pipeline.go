// Package pipeline runs one pass of load, normalize, classify, filter and summarize.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Leanito/Leadsrecptives/internal/aggregator"
	"github.com/Leanito/Leadsrecptives/internal/classifier"
	"github.com/Leanito/Leadsrecptives/internal/config"
	"github.com/Leanito/Leadsrecptives/internal/filter"
	"github.com/Leanito/Leadsrecptives/internal/ingest"
	"github.com/Leanito/Leadsrecptives/internal/logger"
	"github.com/Leanito/Leadsrecptives/internal/models"
	"github.com/Leanito/Leadsrecptives/internal/normalizer"
)

// Params are the caller-selected filters for one analysis.
type Params struct {
	Range filter.DateRange
}

// Result is everything the presentation layer needs from one run.
type Result struct {
	GeneratedAt time.Time               `json:"generatedAt"`
	Situations  *models.SituationCounts `json:"situations,omitempty"`
	Stages      *models.StageSummary    `json:"stages,omitempty"`
	Dataset     *models.Dataset         `json:"dataset"`
	Range       filter.DateRange        `json:"range"`
	RunID       string                  `json:"runId"`
	Leads       []models.Lead           `json:"leads"`
	Unqualified []models.Lead           `json:"unqualified"`
	Segments    []models.SegmentSummary `json:"segments"`
	Notices     []Notice                `json:"notices"`
	Categories  models.CategorySummary  `json:"categories"`
}

// Empty reports whether no leads survived filtering.
func (r *Result) Empty() bool {
	return len(r.Leads) == 0
}

// Pipeline holds the collaborators built from configuration. It keeps no
// state between runs.
type Pipeline struct {
	cfg        *config.Config
	log        *logger.Logger
	loader     *ingest.Loader
	processor  *normalizer.Processor
	converter  *normalizer.Processor
	classifier *classifier.Classifier
}

// New creates a pipeline from configuration.
func New(cfg *config.Config, log *logger.Logger) *Pipeline {
	specs := make([]normalizer.ColumnSpec, 0, len(cfg.Columns))
	for _, col := range cfg.Columns {
		specs = append(specs, normalizer.ColumnSpec{
			Key:      col.Key,
			Variants: col.Variants,
			Required: col.Required,
		})
	}

	dates := normalizer.NewDateParser(cfg.Dates.DayFirst, cfg.Location())

	return &Pipeline{
		cfg:       cfg,
		log:       log,
		loader:    ingest.NewLoader(cfg, log),
		processor: normalizer.NewProcessor(normalizer.NewResolver(specs), dates),
		converter: normalizer.NewProcessor(normalizer.NewResolver(conversionSpecs(specs)), dates),
		classifier: classifier.New(classifier.Rules{
			Valid:       cfg.Classification.Valid,
			Invalid:     cfg.Classification.Invalid,
			Unqualified: cfg.Classification.Unqualified,
		}),
	}
}

// Run loads the table at location and analyzes it in one pass.
func (p *Pipeline) Run(ctx context.Context, location string, params Params) (*Result, error) {
	table, err := p.loader.Load(ctx, location, p.cfg.Source.Sheet)
	if err != nil {
		return nil, ingestionError(err)
	}

	ds, notices, err := p.Prepare(table)
	if err != nil {
		return nil, err
	}

	result := p.Analyze(ds, params)
	result.Notices = append(notices, result.Notices...)

	return result, nil
}

// Prepare normalizes headers, parses dates, classifies leads and drops
// duplicate/test rows. The returned dataset is the snapshot every later
// Analyze call works from.
func (p *Pipeline) Prepare(table *models.Table) (*models.Dataset, []Notice, error) {
	ds, res, err := p.processor.Process(table)
	if err != nil {
		return nil, nil, processError(err, res, leadColumnsHint)
	}

	notices := columnNotices(ds, res)

	if ds.DroppedDates > 0 {
		notices = append(notices, Notice{
			Code:    NoticeDatesDropped,
			Message: fmt.Sprintf("Dropped %d rows with an unparseable %s.", ds.DroppedDates, models.KeyConversionDate),
		})
	}

	p.classifier.Apply(ds.Leads)

	kept, removed := filter.ExcludeSegments(ds.Leads, p.cfg.Filters.ExcludeSegments)
	ds.Leads = kept
	ds.ExcludedRows = removed

	if removed > 0 {
		notices = append(notices, Notice{
			Code: NoticeRowsExcluded,
			Message: fmt.Sprintf("Removed %d rows marked %s in %s.",
				removed, quoteJoin(p.cfg.Filters.ExcludeSegments, " or "), models.KeySegmentCategory),
		})
	}

	p.log.Info("Dataset prepared",
		"source", ds.Source,
		"rows", ds.TotalRows,
		"leads", len(ds.Leads),
		"dropped_dates", ds.DroppedDates,
		"excluded", ds.ExcludedRows,
	)

	return ds, notices, nil
}

// Analyze applies the date range and computes every aggregate. It does not
// modify ds.
func (p *Pipeline) Analyze(ds *models.Dataset, params Params) *Result {
	runID := uuid.NewString()
	log := p.log.WithRun(runID)

	result := &Result{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Dataset:     ds,
		Range:       params.Range,
	}

	if !params.Range.IsComplete() && (!params.Range.Start.IsZero() || !params.Range.End.IsZero()) {
		result.Notices = append(result.Notices, Notice{
			Code:    NoticeIncompleteRange,
			Message: "Select both a start and an end date; showing the full period.",
		})
	}

	result.Leads = params.Range.Apply(ds.Leads)
	result.Categories = aggregator.Categories(result.Leads)
	result.Segments = aggregator.Segments(result.Leads)
	result.Unqualified = aggregator.Unqualified(result.Leads)

	if ds.HasSituation {
		counts := aggregator.Situations(result.Leads, p.cfg.Situation.Opportunity, p.cfg.Situation.Lost)
		result.Situations = &counts
	} else {
		result.Notices = append(result.Notices, Notice{
			Code:    NoticeSituationMissing,
			Message: fmt.Sprintf("Column %q not found; opportunity and lost counts are unavailable.", models.KeySituation),
		})
	}

	if ds.HasColumn(models.KeyType) && ds.HasColumn(models.KeyStage) {
		stages := aggregator.ConversionsByStage(result.Leads, models.KeyType, models.KeyStage, p.cfg.Conversion.TypeValue)
		result.Stages = &stages
	} else {
		result.Notices = append(result.Notices, Notice{
			Code:    NoticeStageMissing,
			Message: fmt.Sprintf("Columns %q and %q not both found; conversions by stage are unavailable.", models.KeyType, models.KeyStage),
		})
	}

	if result.Empty() {
		result.Notices = append(result.Notices, Notice{
			Code:    NoticeNoMatchingRecords,
			Message: "No leads found for the selected period.",
		})
	}

	log.Info("Analysis complete",
		"leads", len(result.Leads),
		"valid", result.Categories.Count(models.CategoryValid),
		"invalid", result.Categories.Count(models.CategoryInvalid),
		"unqualified", result.Categories.Count(models.CategoryUnqualified),
		"segments", len(result.Segments),
	)

	return result
}

func processError(err error, res *normalizer.Resolution, hint string) error {
	switch {
	case errors.Is(err, normalizer.ErrMissingColumns):
		e := newError(KindSchema, missingColumnsReason(res.Missing, res.Found, hint), err)
		e.Missing = res.Missing
		e.Found = res.Found

		return e
	case errors.Is(err, normalizer.ErrAmbiguousColumn):
		e := newError(KindSchema, "more than one column matches the same field; rename or remove the duplicate", err)
		if res != nil {
			e.Found = res.Found
		}

		return e
	default:
		return ingestionError(err)
	}
}

func ingestionError(err error) error {
	switch {
	case errors.Is(err, ingest.ErrEmptyFile), errors.Is(err, normalizer.ErrNoHeaders), errors.Is(err, normalizer.ErrNilTable):
		return newError(KindIngestion, "the uploaded file is empty or has no header row", err)
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return newError(KindIngestion, "unsupported file type; upload a .csv or .xlsx file", err)
	case errors.Is(err, ingest.ErrMalformedFile):
		return newError(KindIngestion, "the file could not be parsed; check that it is a valid spreadsheet", err)
	default:
		return newError(KindIngestion, "the file could not be loaded", err)
	}
}

func columnNotices(ds *models.Dataset, res *normalizer.Resolution) []Notice {
	var notices []Notice

	if len(ds.Renamed) > 0 {
		notices = append(notices, Notice{Code: NoticeColumnsRenamed, Message: renamedMessage(ds.Renamed)})
	}

	if len(res.Shadowed) > 0 {
		notices = append(notices, Notice{Code: NoticeColumnsShadowed, Message: shadowedMessage(res.Shadowed)})
	}

	return notices
}

func shadowedMessage(shadowed map[string][]string) string {
	keys := make([]string, 0, len(shadowed))
	for key := range shadowed {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = fmt.Sprintf("%s kept as extra columns (%q already uses the first match)", quoteJoin(shadowed[key], ", "), key)
	}

	return "Several columns match the same field: " + strings.Join(parts, "; ")
}

func renamedMessage(renamed map[string]string) string {
	originals := make([]string, 0, len(renamed))
	for original := range renamed {
		originals = append(originals, original)
	}

	sort.Strings(originals)

	parts := make([]string, len(originals))
	for i, original := range originals {
		parts[i] = fmt.Sprintf("%q -> %q", original, renamed[original])
	}

	return "Columns renamed: " + strings.Join(parts, ", ")
}

func quoteJoin(values []string, sep string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}

	return strings.Join(quoted, sep)
}
