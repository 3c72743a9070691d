// Package main provides the leads command that classifies a lead spreadsheet,
// prints its summaries and writes the exports.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/Leanito/Leadsrecptives/internal/config"
	"github.com/Leanito/Leadsrecptives/internal/export"
	"github.com/Leanito/Leadsrecptives/internal/filter"
	"github.com/Leanito/Leadsrecptives/internal/logger"
	"github.com/Leanito/Leadsrecptives/internal/pipeline"
)

func main() {
	// 1. Define Command-Line Flags
	// ---------------------------
	configPath := flag.String("config", os.Getenv("LEADBOARD_CONFIG"), "Path to YAML config (defaults built in)")
	input := flag.String("input", "", "Lead spreadsheet path or http(s) URL (.csv or .xlsx)")
	start := flag.String("start", "", "Start date, YYYY-MM-DD (requires -end)")
	end := flag.String("end", "", "End date, YYYY-MM-DD (requires -start)")
	outDir := flag.String("out", "", "Output directory for exports")
	sheet := flag.String("sheet", "", "Workbook sheet to read (first sheet by default)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	noExport := flag.Bool("no-export", false, "Print summaries only, write no files")
	conversions := flag.Bool("conversions", false, "Analyze CRM conversions by stage instead of lead categories")

	flag.Parse()

	// 2. Configuration
	// ----------------
	cfg := config.Default()

	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Config error: %v\n", err)
			os.Exit(1)
		}

		cfg = loaded
	}

	if *input != "" {
		cfg.Source.Path = *input
	}

	if *sheet != "" {
		cfg.Source.Sheet = *sheet
	}

	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}

	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.Logging.Level)

	location := cfg.Source.Location()
	if location == "" {
		fmt.Println("Usage: leads -input <leads.csv|leads.xlsx|URL> [-start YYYY-MM-DD -end YYYY-MM-DD] [-conversions]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *conversions {
		if err := runConversions(ctx, cfg, log, location, *noExport); err != nil {
			reportError(err)
			stop()
			os.Exit(1)
		}

		return
	}

	dateRange, err := parseRange(*start, *end, cfg.Location())
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		stop()
		os.Exit(1)
	}

	// 3. Pipeline
	// -----------
	fmt.Printf("📂 Reading: %s\n", location)

	startTime := time.Now()

	result, err := pipeline.New(cfg, log).Run(ctx, location, pipeline.Params{Range: dateRange})
	if err != nil {
		reportError(err)
		stop()
		os.Exit(1)
	}

	log.Debug("Pipeline finished", "duration", time.Since(startTime).String())

	printResult(cfg, result)

	// 4. Exports
	// ----------
	if *noExport {
		return
	}

	paths, err := export.NewExporter(cfg, log).WriteAll(result)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Export failed: %v\n", err)
		stop()
		os.Exit(1)
	}

	for _, p := range paths {
		fmt.Printf("✅ Saved: %s\n", p)
	}
}

func parseRange(start, end string, loc *time.Location) (filter.DateRange, error) {
	var startDay, endDay *time.Time

	if start != "" {
		t, err := time.ParseInLocation(time.DateOnly, start, loc)
		if err != nil {
			return filter.DateRange{}, fmt.Errorf("invalid -start %q: expected YYYY-MM-DD", start)
		}

		startDay = &t
	}

	if end != "" {
		t, err := time.ParseInLocation(time.DateOnly, end, loc)
		if err != nil {
			return filter.DateRange{}, fmt.Errorf("invalid -end %q: expected YYYY-MM-DD", end)
		}

		endDay = &t
	}

	r := filter.NewDateRange(startDay, endDay)
	if r.IsComplete() && r.End.Before(r.Start) {
		return r, fmt.Errorf("-end %s is before -start %s", end, start)
	}

	return r, nil
}

func runConversions(ctx context.Context, cfg *config.Config, log *logger.Logger, location string, noExport bool) error {
	fmt.Printf("📂 Reading: %s\n", location)

	result, err := pipeline.New(cfg, log).RunConversions(ctx, location)
	if err != nil {
		return err
	}

	for _, n := range result.Notices {
		fmt.Printf("ℹ️  %s\n", n.Message)
	}

	fmt.Printf("\n✅ Conversions (%s): %d\n\n", result.TypeValue, len(result.Leads))

	if result.Stages != nil && result.Stages.Total > 0 {
		fmt.Println(export.StageTable(*result.Stages))
		fmt.Println()
	}

	if noExport {
		return nil
	}

	paths, err := export.NewExporter(cfg, log).WriteConversions(result)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	for _, p := range paths {
		fmt.Printf("✅ Saved: %s\n", p)
	}

	return nil
}

func reportError(err error) {
	var perr *pipeline.Error
	if !errors.As(err, &perr) {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return
	}

	fmt.Fprintf(os.Stderr, "❌ %s error: %s\n", perr.Kind, perr.Reason)

	if len(perr.Missing) > 0 {
		fmt.Fprintf(os.Stderr, "   Missing: %s\n", strings.Join(perr.Missing, ", "))
	}

	if perr.Err != nil {
		fmt.Fprintf(os.Stderr, "   Cause: %v\n", perr.Err)
	}
}

func printResult(cfg *config.Config, result *pipeline.Result) {
	label := export.Labeler(cfg.Classification.Label)

	for _, n := range result.Notices {
		fmt.Printf("ℹ️  %s\n", n.Message)
	}

	fmt.Printf("\n📊 Leads: %d\n\n", len(result.Leads))

	if result.Empty() {
		return
	}

	fmt.Println(export.CategoryTable(result.Categories, label))
	fmt.Println()
	fmt.Println(export.SegmentTable(result.Segments, label))
	fmt.Println()

	if result.Situations != nil {
		fmt.Printf("🎯 Opportunities: %d\n", result.Situations.Opportunity)
		fmt.Printf("❌ Lost: %d\n\n", result.Situations.Lost)
	}

	if result.Stages != nil && result.Stages.Total > 0 {
		fmt.Println(export.StageTable(*result.Stages))
		fmt.Println()
	}

	if n := len(result.Unqualified); n > 0 {
		fmt.Printf("⚠️  %d leads still need qualification\n\n", n)
	}
}
