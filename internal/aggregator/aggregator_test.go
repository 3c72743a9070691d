package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leanito/Leadsrecptives/internal/models"
)

func leadsWith(counts map[models.Category]int, segment string) []models.Lead {
	var out []models.Lead

	for _, c := range models.Categories {
		for i := 0; i < counts[c]; i++ {
			out = append(out, models.Lead{Category: c, Segment: segment})
		}
	}

	return out
}

func TestCategories(t *testing.T) {
	leads := leadsWith(map[models.Category]int{
		models.CategoryValid:       6,
		models.CategoryInvalid:     2,
		models.CategoryUnqualified: 2,
	}, "Vendas")

	s := Categories(leads)

	require.True(t, s.HasPercentages)
	assert.Equal(t, 10, s.Total)
	assert.Equal(t, 60.00, s.Percent(models.CategoryValid))
	assert.Equal(t, 20.00, s.Percent(models.CategoryInvalid))
	assert.Equal(t, 20.00, s.Percent(models.CategoryUnqualified))

	var sum float64
	for _, st := range s.Stats {
		sum += st.Percent
	}

	assert.InDelta(t, 100.0, sum, 0.01)

	// Ordered by count, ties keep category order
	assert.Equal(t, models.CategoryValid, s.Stats[0].Category)
	assert.Equal(t, models.CategoryInvalid, s.Stats[1].Category)
	assert.Equal(t, models.CategoryUnqualified, s.Stats[2].Category)
}

func TestCategories_Rounding(t *testing.T) {
	leads := leadsWith(map[models.Category]int{
		models.CategoryValid:   1,
		models.CategoryInvalid: 2,
	}, "x")

	s := Categories(leads)
	assert.Equal(t, 33.33, s.Percent(models.CategoryValid))
	assert.Equal(t, 66.67, s.Percent(models.CategoryInvalid))
	assert.Equal(t, models.CategoryInvalid, s.Stats[0].Category)
	assert.Len(t, s.Stats, 2)
}

func TestCategories_Empty(t *testing.T) {
	s := Categories(nil)

	assert.Zero(t, s.Total)
	assert.False(t, s.HasPercentages)
	assert.Empty(t, s.Stats)
	assert.Zero(t, s.Count(models.CategoryValid))
}

func TestSegments(t *testing.T) {
	var leads []models.Lead
	leads = append(leads, leadsWith(map[models.Category]int{models.CategoryValid: 1}, "Varejo")...)
	leads = append(leads, leadsWith(map[models.Category]int{
		models.CategoryValid:       2,
		models.CategoryUnqualified: 1,
	}, "Vendas")...)
	leads = append(leads, leadsWith(map[models.Category]int{models.CategoryInvalid: 1}, "Atacado")...)

	rows := Segments(leads)
	require.Len(t, rows, 3)

	assert.Equal(t, models.SegmentSummary{Segment: "Vendas", Valid: 2, Unqualified: 1, Total: 3}, rows[0])
	assert.Equal(t, models.SegmentSummary{Segment: "Atacado", Invalid: 1, Total: 1}, rows[1])
	assert.Equal(t, models.SegmentSummary{Segment: "Varejo", Valid: 1, Total: 1}, rows[2])

	for i, row := range rows {
		assert.Equal(t, row.Valid+row.Invalid+row.Unqualified, row.Total)

		if i > 0 {
			assert.GreaterOrEqual(t, rows[i-1].Total, row.Total)
		}
	}
}

func TestSegments_Empty(t *testing.T) {
	assert.Empty(t, Segments(nil))
}

func TestSituations(t *testing.T) {
	leads := []models.Lead{
		{Situation: "Oportunidade aberta"},
		{Situation: "OPORTUNIDADE perdida"},
		{Situation: "Perdido"},
		{Situation: "Oportunidade - perdido"},
		{Situation: ""},
		{Situation: "Ganho"},
	}

	got := Situations(leads, DefaultOpportunityMarker, DefaultLostMarker)

	assert.Equal(t, 3, got.Opportunity)
	assert.Equal(t, 2, got.Lost)
}

func TestUnqualified(t *testing.T) {
	leads := []models.Lead{
		{Row: 1, Category: models.CategoryValid},
		{Row: 2, Category: models.CategoryUnqualified},
		{Row: 3, Category: models.CategoryUnqualified},
	}

	got := Unqualified(leads)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Row)
	assert.Equal(t, 3, got[1].Row)
}

func TestConversionsByStage(t *testing.T) {
	lead := func(typ, stage string) models.Lead {
		return models.Lead{Fields: map[string]string{models.KeyType: typ, models.KeyStage: stage}}
	}

	leads := []models.Lead{
		lead("Cancelado-Lead-Respondeu", "Segundo contato"),
		lead("Cancelado-Lead-Respondeu", "Primeiro contato"),
		lead("Cancelado-Lead-Respondeu", "Primeiro contato"),
		lead("Enviado", "Primeiro contato"),
		lead("Cancelado-Lead-Respondeu", "Terceiro contato"),
		lead(" Cancelado-Lead-Respondeu ", "Terceiro contato"),
		lead("Cancelado-Lead-Respondeu", "  "),
	}

	got := ConversionsByStage(leads, models.KeyType, models.KeyStage, "Cancelado-Lead-Respondeu")

	assert.Equal(t, 4, got.Total)
	assert.Equal(t, []models.StageStat{
		{Stage: "Primeiro contato", Count: 2, Percent: 50},
		{Stage: "Segundo contato", Count: 1, Percent: 25},
		{Stage: "Terceiro contato", Count: 1, Percent: 25},
	}, got.Stages)
}

func TestConversions_ExactType(t *testing.T) {
	leads := []models.Lead{
		{Row: 1, Fields: map[string]string{models.KeyType: "Cancelado-Lead-Respondeu"}},
		{Row: 2, Fields: map[string]string{models.KeyType: "cancelado-lead-respondeu"}},
		{Row: 3, Fields: map[string]string{models.KeyType: "Cancelado-Lead-Respondeu "}},
		{Row: 4},
	}

	got := Conversions(leads, models.KeyType, DefaultConversionType)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Row)
}

func TestConversionsByStage_None(t *testing.T) {
	got := ConversionsByStage([]models.Lead{{}}, models.KeyType, models.KeyStage, "Cancelado-Lead-Respondeu")

	assert.Zero(t, got.Total)
	assert.Empty(t, got.Stages)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 100.0, Percent(1, 1))
	assert.Equal(t, 14.29, Percent(1, 7))
}
