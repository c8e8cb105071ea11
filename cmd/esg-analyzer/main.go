// Command esg-analyzer runs one analysis end to end from the terminal:
// fetch both indicators, classify countries, and write the reports.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"esgcli/internal/config"
	"esgcli/internal/exporter"
	"esgcli/internal/infrastructure"
	"esgcli/internal/pipeline"
	"esgcli/internal/services"
)

func main() {
	os.Exit(run())
}

func run() int {
	source := flag.String("source", "", "observation source: worldbank | synthetic (default from config)")
	countries := flag.String("countries", "", "comma-separated ISO3 country codes (default from config)")
	startYear := flag.Int("start", 0, "first year of the period range")
	endYear := flag.Int("end", 0, "last year of the period range")
	outDir := flag.String("out", "", "report output directory")
	formats := flag.String("formats", "csv,xlsx,brief", "comma-separated report formats")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	applyFlags(cfg, *source, *countries, *startYear, *endYear, *outDir)

	logger, closeLog, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		return 1
	}
	defer closeLog()
	slog.SetDefault(logger)

	src, err := services.BuildSource(cfg, cfg.Pipeline.Source, logger)
	if err != nil {
		logger.Error("invalid source", "error", err)
		return 1
	}

	spec := pipeline.Spec{
		IndicatorA: cfg.Pipeline.IndicatorA,
		IndicatorB: cfg.Pipeline.IndicatorB,
		FieldA:     cfg.Pipeline.FieldA,
		FieldB:     cfg.Pipeline.FieldB,
		Countries:  cfg.Pipeline.Countries,
		Years:      pipeline.YearRange{Start: cfg.Pipeline.StartYear, End: cfg.Pipeline.EndYear},
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Pipeline.RunTimeout)
	defer cancel()
	ctx = infrastructure.WithTraceID(ctx, infrastructure.NewTraceID())

	runner := pipeline.NewRunner(src, logger, pipeline.WithProgress(func(u pipeline.ProgressUpdate) {
		fmt.Fprintf(os.Stderr, "[%3.0f%%] %-9s %s\n", u.Progress, u.Stage, u.Message)
	}))

	result, err := runner.Run(ctx, spec)
	if err != nil {
		var stage *pipeline.StageError
		if errors.As(err, &stage) {
			logger.Error("analysis halted",
				"stage", stage.Stage,
				"indicator", stage.Indicator,
				"error", stage.Err.Error())
			fmt.Fprintf(os.Stderr, "analysis halted in %s stage: %v\n", stage.Stage, stage.Err)
		} else {
			logger.Error("analysis failed", "error", err)
			fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		}
		return 1
	}

	if err := export(cfg, result, *formats, logger); err != nil {
		logger.Error("export failed", "error", err)
		return 1
	}

	exporter.WriteBrief(os.Stdout, result, cfg.Export.TopN)
	return 0
}

func applyFlags(cfg *config.Config, source, countries string, startYear, endYear int, outDir string) {
	if source != "" {
		cfg.Pipeline.Source = source
	}
	if countries != "" {
		cfg.Pipeline.Countries = strings.Split(countries, ",")
	}
	if startYear > 0 {
		cfg.Pipeline.StartYear = startYear
	}
	if endYear > 0 {
		cfg.Pipeline.EndYear = endYear
	}
	if outDir != "" {
		cfg.Export.Dir = outDir
	}
}

func export(cfg *config.Config, result *pipeline.Result, formats string, logger *slog.Logger) error {
	for _, format := range strings.Split(formats, ",") {
		switch strings.TrimSpace(format) {
		case "csv":
			if _, err := exporter.NewCSVWriter(cfg.Export.Dir, logger).WriteClassified("esg_classified.csv", &result.Table); err != nil {
				return err
			}
		case "xlsx":
			if _, err := exporter.NewExcelWriter(cfg.Export.Dir, cfg.Export.TopN, logger).WriteWorkbook("esg_analysis.xlsx", &result.Table); err != nil {
				return err
			}
		case "brief":
			if _, err := exporter.SaveBrief(cfg.Export.Dir, "esg_brief.txt", result, cfg.Export.TopN); err != nil {
				return err
			}
		case "":
		default:
			return fmt.Errorf("unknown report format %q", format)
		}
	}
	return nil
}
