package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leanito/Leadsrecptives/internal/config"
	"github.com/Leanito/Leadsrecptives/internal/filter"
	"github.com/Leanito/Leadsrecptives/internal/ingest"
	"github.com/Leanito/Leadsrecptives/internal/logger"
	"github.com/Leanito/Leadsrecptives/internal/models"
	"github.com/Leanito/Leadsrecptives/internal/normalizer"
)

func newTestPipeline() *Pipeline {
	return New(config.Default(), logger.Discard())
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	return path
}

func TestRun_EndToEnd(t *testing.T) {
	path := writeFile(t, "leads.csv",
		"Status,Data da conversão:,Segmento/Categoria\n"+
			"Válido,2024-03-01,Vendas\n"+
			",2024-03-02,Teste\n"+
			"Inválido,bad-date,Vendas\n")

	result, err := newTestPipeline().Run(context.Background(), path, Params{})
	require.NoError(t, err)

	require.Len(t, result.Leads, 1)
	assert.Equal(t, 1, result.Leads[0].Row)
	assert.Equal(t, models.CategoryValid, result.Leads[0].Category)

	assert.Equal(t, 1, result.Categories.Total)
	assert.Equal(t, 100.00, result.Categories.Percent(models.CategoryValid))

	assert.Equal(t, 1, result.Dataset.DroppedDates)
	assert.Equal(t, 1, result.Dataset.ExcludedRows)

	assert.True(t, HasNotice(result.Notices, NoticeColumnsRenamed))
	assert.True(t, HasNotice(result.Notices, NoticeDatesDropped))
	assert.True(t, HasNotice(result.Notices, NoticeRowsExcluded))
	assert.True(t, HasNotice(result.Notices, NoticeSituationMissing))
	assert.False(t, HasNotice(result.Notices, NoticeNoMatchingRecords))
	assert.NotEmpty(t, result.RunID)
}

func TestPrepare_AnalyzeByDateRange(t *testing.T) {
	p := newTestPipeline()

	table := &models.Table{
		Headers: []string{"status", "Data da conversão", "segmento_categoria", "Situação"},
		Rows: [][]string{
			{"Válido", "2024-01-15", "Vendas", "Oportunidade"},
			{"Inválido", "2024-01-20", "Varejo", "Perdido"},
			{"foo", "2024-02-01", "Vendas", "Oportunidade perdido"},
			{"Sem qualificação", "2024-01-31", "Vendas", ""},
		},
	}

	ds, _, err := p.Prepare(table)
	require.NoError(t, err)
	require.Len(t, ds.Leads, 4)

	january := Params{Range: filter.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 31)}}
	result := p.Analyze(ds, january)

	require.Len(t, result.Leads, 3)
	assert.Equal(t, 1, result.Categories.Count(models.CategoryValid))
	assert.Equal(t, 1, result.Categories.Count(models.CategoryInvalid))
	assert.Equal(t, 1, result.Categories.Count(models.CategoryUnqualified))

	require.NotNil(t, result.Situations)
	assert.Equal(t, 1, result.Situations.Opportunity)
	assert.Equal(t, 1, result.Situations.Lost)

	require.Len(t, result.Segments, 2)
	assert.Equal(t, "Vendas", result.Segments[0].Segment)
	assert.Equal(t, 2, result.Segments[0].Total)

	require.Len(t, result.Unqualified, 1)
	assert.Equal(t, 4, result.Unqualified[0].Row)

	// Rerunning with a different filter works from the same snapshot
	all := p.Analyze(ds, Params{})
	assert.Len(t, all.Leads, 4)
	assert.Equal(t, 2, all.Categories.Count(models.CategoryUnqualified))
	assert.Len(t, ds.Leads, 4)
	assert.NotEqual(t, result.RunID, all.RunID)
}

func TestAnalyze_IncompleteRangePassesThrough(t *testing.T) {
	p := newTestPipeline()

	ds := &models.Dataset{Leads: []models.Lead{
		{Row: 1, ConversionDate: day(2024, 1, 1), Category: models.CategoryValid},
		{Row: 2, ConversionDate: day(2025, 1, 1), Category: models.CategoryValid},
	}}

	result := p.Analyze(ds, Params{Range: filter.DateRange{Start: day(2024, 6, 1)}})

	assert.Len(t, result.Leads, 2)
	assert.True(t, HasNotice(result.Notices, NoticeIncompleteRange))
}

func TestAnalyze_NoMatchingRecords(t *testing.T) {
	p := newTestPipeline()

	ds := &models.Dataset{Leads: []models.Lead{
		{Row: 1, ConversionDate: day(2024, 1, 1), Category: models.CategoryValid},
	}}

	result := p.Analyze(ds, Params{Range: filter.DateRange{Start: day(2025, 1, 1), End: day(2025, 1, 31)}})

	assert.True(t, result.Empty())
	assert.False(t, result.Categories.HasPercentages)
	assert.Empty(t, result.Segments)
	assert.True(t, HasNotice(result.Notices, NoticeNoMatchingRecords))
}

func TestAnalyze_ConversionsByStage(t *testing.T) {
	p := newTestPipeline()

	table := &models.Table{
		Headers: []string{"Status", "Data da conversão", "Segmento/Categoria", "Tipo", "Etapa"},
		Rows: [][]string{
			{"Válido", "2024-01-01", "Vendas", "Cancelado-Lead-Respondeu", "Primeiro contato"},
			{"Válido", "2024-01-02", "Vendas", "Cancelado-Lead-Respondeu", "Segundo contato"},
			{"Válido", "2024-01-03", "Vendas", "Enviado", "Primeiro contato"},
		},
	}

	ds, _, err := p.Prepare(table)
	require.NoError(t, err)

	result := p.Analyze(ds, Params{})
	require.NotNil(t, result.Stages)
	assert.Equal(t, 2, result.Stages.Total)
	assert.Len(t, result.Stages.Stages, 2)
	assert.False(t, HasNotice(result.Notices, NoticeStageMissing))
}

func TestRun_SchemaError(t *testing.T) {
	path := writeFile(t, "leads.csv", "Status,Nome\nVálido,Ana\n")

	_, err := newTestPipeline().Run(context.Background(), path, Params{})
	require.Error(t, err)

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, KindSchema, perr.Kind)
	assert.Equal(t, []string{models.KeyConversionDate, models.KeySegmentCategory}, perr.Missing)
	assert.Equal(t, []string{"Status", "Nome"}, perr.Found)
	assert.Contains(t, perr.Reason, "conversion_date")
	assert.Contains(t, perr.Reason, "Nome")
	assert.True(t, errors.Is(err, normalizer.ErrMissingColumns))
}

func TestRun_AmbiguousColumn(t *testing.T) {
	path := writeFile(t, "leads.csv", "Status,STATUS:,Data da conversão,Segmento/Categoria\n")

	_, err := newTestPipeline().Run(context.Background(), path, Params{})

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, KindSchema, perr.Kind)
	assert.True(t, errors.Is(err, normalizer.ErrAmbiguousColumn))
}

func TestPrepare_AmbiguousOptionalColumn(t *testing.T) {
	table := &models.Table{
		Headers: []string{"Status", "Data da conversão:", "Segmento/Categoria", "Telefone", "Whatsapp"},
		Rows: [][]string{
			{"Válido", "2024-03-01", "Vendas", "1111-1111", "99999-9999"},
		},
	}

	ds, notices, err := newTestPipeline().Prepare(table)
	require.NoError(t, err)
	require.Len(t, ds.Leads, 1)

	assert.Equal(t, "1111-1111", ds.Leads[0].Field(models.KeyPhone))
	assert.Equal(t, "99999-9999", ds.Leads[0].Field("Whatsapp"))
	assert.True(t, HasNotice(notices, NoticeColumnsShadowed))
}

func TestRun_IngestionErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr error
	}{
		{"empty file", "leads.csv", "", ingest.ErrEmptyFile},
		{"legacy workbook", "leads.xls", "\xD0\xCF\x11\xE0", ingest.ErrUnsupportedFormat},
		{"broken workbook", "leads.xlsx", "PK\x03\x04garbage", ingest.ErrMalformedFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)

			_, err := newTestPipeline().Run(context.Background(), path, Params{})

			var perr *Error
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, KindIngestion, perr.Kind)
			assert.True(t, errors.Is(err, tt.wantErr))
			assert.NotEmpty(t, perr.Reason)
		})
	}
}

func TestRun_MissingFile(t *testing.T) {
	_, err := newTestPipeline().Run(context.Background(), "/nonexistent/leads.csv", Params{})

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, KindIngestion, perr.Kind)
}

func TestRun_HeadersOnly(t *testing.T) {
	path := writeFile(t, "leads.csv", "Status,Data da conversão:,Segmento/Categoria\n")

	result, err := newTestPipeline().Run(context.Background(), path, Params{})
	require.NoError(t, err)

	assert.True(t, result.Empty())
	assert.True(t, HasNotice(result.Notices, NoticeNoMatchingRecords))
}

func TestError_Format(t *testing.T) {
	e := newError(KindIngestion, "bad file", errors.New("boom"))
	assert.Equal(t, "pipeline: INGESTION (bad file): boom", e.Error())

	e = newError(KindSchema, "missing", nil)
	assert.Equal(t, "pipeline: SCHEMA (missing)", e.Error())
	assert.Nil(t, e.Unwrap())

	var nilErr *Error
	assert.Equal(t, "", nilErr.Error())
}
