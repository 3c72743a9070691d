// Package normalizer maps uploaded tables onto the canonical lead schema.
package normalizer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Leanito/Leadsrecptives/internal/models"
)

// Processor turns a raw table into a dataset of leads with parsed dates.
type Processor struct {
	validator *Validator
	resolver  *Resolver
	dates     *DateParser
}

// NewProcessor creates a new processor instance.
func NewProcessor(resolver *Resolver, dates *DateParser) *Processor {
	return &Processor{
		validator: NewValidator(),
		resolver:  resolver,
		dates:     dates,
	}
}

// Process validates the table, renames resolved headers to their canonical
// keys and builds one lead per non-blank row. Rows whose conversion date
// cannot be parsed are dropped and counted in Dataset.DroppedDates.
// The resolution is returned alongside schema errors for diagnostics.
func (p *Processor) Process(table *models.Table) (*models.Dataset, *Resolution, error) {
	ds, res, err := p.prepare(table)
	if err != nil {
		return nil, res, err
	}

	dates := p.dates
	if table.Workbook {
		dates = dates.WithSerials()
	}

	for rowIdx, row := range table.Rows {
		if isBlankRow(row) {
			continue
		}

		ds.TotalRows++

		fields := rowFields(row, ds.Columns)

		parsed, ok := dates.Parse(fields[models.KeyConversionDate])
		if !ok {
			ds.DroppedDates++
			continue
		}

		ds.Leads = append(ds.Leads, models.Lead{
			Row:            rowIdx + 1,
			Status:         fields[models.KeyStatus],
			ConversionDate: parsed,
			Segment:        fields[models.KeySegmentCategory],
			Situation:      fields[models.KeySituation],
			Fields:         fields,
		})
	}

	return ds, res, nil
}

// Passthrough validates and resolves the table like Process but parses no
// dates: every non-blank row becomes a lead carrying only Row and Fields.
func (p *Processor) Passthrough(table *models.Table) (*models.Dataset, *Resolution, error) {
	ds, res, err := p.prepare(table)
	if err != nil {
		return nil, res, err
	}

	for rowIdx, row := range table.Rows {
		if isBlankRow(row) {
			continue
		}

		ds.TotalRows++
		ds.Leads = append(ds.Leads, models.Lead{
			Row:    rowIdx + 1,
			Fields: rowFields(row, ds.Columns),
		})
	}

	return ds, res, nil
}

func (p *Processor) prepare(table *models.Table) (*models.Dataset, *Resolution, error) {
	if err := p.validator.Validate(table); err != nil {
		return nil, nil, fmt.Errorf("validation failed: %w", err)
	}

	res, err := p.resolver.Resolve(table.Headers)
	if err != nil {
		return nil, res, err
	}

	return &models.Dataset{
		Source:       table.Name,
		Columns:      renameColumns(table.Headers, res),
		Renamed:      res.Renamed,
		HasSituation: hasKey(res, models.KeySituation),
	}, res, nil
}

func rowFields(row []string, columns []string) map[string]string {
	fields := make(map[string]string, len(columns))
	for i, col := range columns {
		if i < len(row) {
			fields[col] = row[i]
		} else {
			fields[col] = ""
		}
	}

	return fields
}

// renameColumns applies the resolution and makes the remaining headers
// unique: blanks become column_N and repeats get a .N suffix.
func renameColumns(headers []string, res *Resolution) []string {
	columns := make([]string, len(headers))
	used := make(map[string]bool, len(headers))

	for idx, key := range res.Keys {
		columns[idx] = key
		used[key] = true
	}

	for i, h := range headers {
		if _, ok := res.Keys[i]; ok {
			continue
		}

		name := strings.TrimSpace(h)
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}

		unique := name
		for n := 1; used[unique]; n++ {
			unique = name + "." + strconv.Itoa(n)
		}

		used[unique] = true
		columns[i] = unique
	}

	return columns
}

func hasKey(res *Resolution, key string) bool {
	for _, k := range res.Keys {
		if k == key {
			return true
		}
	}

	return false
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}
