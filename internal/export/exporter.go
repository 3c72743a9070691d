package export

import (
	"bytes"
	"fmt"
	"os"

	"github.com/Leanito/Leadsrecptives/internal/config"
	"github.com/Leanito/Leadsrecptives/internal/logger"
	"github.com/Leanito/Leadsrecptives/internal/pipeline"
)

// Exporter writes every configured output file for a result.
type Exporter struct {
	cfg *config.Config
	log *logger.Logger
}

// NewExporter creates an exporter writing under cfg.Output.Dir.
func NewExporter(cfg *config.Config, log *logger.Logger) *Exporter {
	return &Exporter{cfg: cfg, log: log}
}

// Label returns the configured display label for a category.
func (e *Exporter) Label() Labeler {
	return e.cfg.Classification.Label
}

// output is one export file and how to render it.
type output struct {
	name   string
	render func(buf *bytes.Buffer) error
}

// WriteAll writes the details CSV, summary CSV, workbook, stage summary CSV
// and signed report. The details CSV and workbook are skipped when no leads
// matched, and the stage summary when no conversions were counted. Outputs
// with an empty file name are skipped. It returns the written paths.
func (e *Exporter) WriteAll(result *pipeline.Result) ([]string, error) {
	out := e.cfg.Output

	var columns []string
	if result.Dataset != nil {
		columns = result.Dataset.Columns
	}

	label := e.Label()

	var outputs []output

	if result.Empty() {
		e.log.Warn("No leads to export; skipping details and workbook", "run_id", result.RunID)
	} else {
		outputs = append(outputs, output{out.DetailsCSV, func(buf *bytes.Buffer) error {
			return WriteDetailsCSV(buf, columns, result.Leads, label)
		}})
	}

	outputs = append(outputs, output{out.SummaryCSV, func(buf *bytes.Buffer) error {
		return WriteSummaryCSV(buf, result.Categories, label)
	}})

	if !result.Empty() {
		outputs = append(outputs, output{out.Workbook, func(buf *bytes.Buffer) error {
			return WriteWorkbook(buf, out.SheetName, columns, result.Leads, label)
		}})
	}

	if result.Stages != nil && result.Stages.Total > 0 {
		outputs = append(outputs, output{out.StageSummaryCSV, func(buf *bytes.Buffer) error {
			return WriteStageSummaryCSV(buf, *result.Stages)
		}})
	}

	outputs = append(outputs, output{out.Report, func(buf *bytes.Buffer) error {
		_, err := buf.WriteString(Report(result, label))

		return err
	}})

	return e.write(result.RunID, outputs)
}

// WriteConversions writes the converted leads CSV and, when stages were
// counted, the stage summary CSV. Nothing is written for an empty result.
func (e *Exporter) WriteConversions(result *pipeline.ConversionResult) ([]string, error) {
	if result.Empty() {
		e.log.Warn("No conversions to export", "run_id", result.RunID)
		return nil, nil
	}

	out := e.cfg.Output

	outputs := []output{
		{out.ConversionsCSV, func(buf *bytes.Buffer) error {
			return WriteConversionsCSV(buf, result.Columns, result.Leads)
		}},
	}

	if result.Stages != nil && result.Stages.Total > 0 {
		outputs = append(outputs, output{out.StageSummaryCSV, func(buf *bytes.Buffer) error {
			return WriteStageSummaryCSV(buf, *result.Stages)
		}})
	}

	return e.write(result.RunID, outputs)
}

func (e *Exporter) write(runID string, outputs []output) ([]string, error) {
	dir := e.cfg.Output.Dir

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string

	for _, o := range outputs {
		if o.name == "" {
			continue
		}

		var buf bytes.Buffer
		if err := o.render(&buf); err != nil {
			return written, fmt.Errorf("failed to render %s: %w", o.name, err)
		}

		path := e.cfg.OutputPath(o.name)
		if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}

		e.log.Debug("Export written", "path", path, "bytes", buf.Len())

		written = append(written, path)
	}

	e.log.Info("Exports written", "dir", dir, "files", len(written), "run_id", runID)

	return written, nil
}
