// Command compare validates the locally adjusted close series against an
// external reference. It fetches daily bars for every configured symbol,
// inner-joins them with the adjusted dataset and writes a discrepancy CSV
// plus a per-symbol comparison workbook.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nsecli/internal/bhav"
	"nsecli/internal/compare"
	"nsecli/internal/config"
	"nsecli/internal/exporter"
	"nsecli/internal/infrastructure"
	"nsecli/internal/reference"
)

func main() {
	fromStr := flag.String("from", "", "start date YYYY-MM-DD (defaults to the adjusted dataset's first date)")
	toStr := flag.String("to", "", "end date YYYY-MM-DD (defaults to the adjusted dataset's last date)")
	flag.Parse()

	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = &config.Config{
			Logging: config.LoggingConfig{
				Level:    "info",
				Format:   "json",
				Output:   "both",
				FilePath: paths.GetLogPath("compare.log"),
			},
			Compare: config.CompareConfig{
				Tolerance:      config.DefaultTolerance,
				RoundPrecision: config.DefaultRoundPrecision,
			},
		}
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	if len(cfg.Compare.Tickers) == 0 {
		logger.Error("No symbols configured for comparison, set compare.tickers in config.yaml")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	adjusted, err := bhav.ReadAdjustedCSV(paths.AdjustedCSV)
	if err != nil {
		logger.Error("Failed to read adjusted dataset, run the processor first",
			slog.String("path", paths.AdjustedCSV),
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	if len(adjusted) == 0 {
		logger.Error("Adjusted dataset is empty, nothing to compare")
		os.Exit(1)
	}

	from, to := adjusted[0].Date, adjusted[0].Date
	for _, row := range adjusted[1:] {
		if row.Date.Before(from) {
			from = row.Date
		}
		if row.Date.After(to) {
			to = row.Date
		}
	}
	if *fromStr != "" {
		if from, err = time.Parse("2006-01-02", *fromStr); err != nil {
			logger.Error("Invalid -from date", slog.String("value", *fromStr))
			os.Exit(1)
		}
	}
	if *toStr != "" {
		if to, err = time.Parse("2006-01-02", *toStr); err != nil {
			logger.Error("Invalid -to date", slog.String("value", *toStr))
			os.Exit(1)
		}
	}

	logger.Info("Fetching reference series",
		slog.Int("symbols", len(cfg.Compare.Tickers)),
		slog.Time("from", from),
		slog.Time("to", to))

	client := reference.NewClient(cfg.Retriever, logger)
	service := reference.NewService(client, paths, logger)
	refRows, fetchErrs := service.FetchAll(ctx, cfg.Compare.Tickers, from, to)
	for _, fe := range fetchErrs {
		logger.Warn("Reference fetch failed", slog.String("error", fe.Error()))
	}
	if len(refRows) == 0 {
		logger.Error("No reference data fetched, cannot compare")
		os.Exit(1)
	}

	validator := compare.NewValidator(cfg.Compare, logger)
	records, summaries, recErrs := validator.Compare(adjusted, refRows)
	for _, re := range recErrs {
		logger.Warn("Comparison warning",
			slog.String("kind", string(re.Kind)),
			slog.String("symbol", re.Symbol),
			slog.String("detail", re.Detail))
	}

	writer := exporter.NewCSVWriter(paths)
	if err := writer.WriteDiscrepancies(records); err != nil {
		logger.Error("Failed to write discrepancy report", slog.String("error", err.Error()))
		os.Exit(1)
	}
	workbook := exporter.NewWorkbookWriter(paths)
	if err := workbook.WriteComparison(summaries, records); err != nil {
		logger.Error("Failed to write comparison workbook", slog.String("error", err.Error()))
		os.Exit(1)
	}

	for _, s := range summaries {
		fmt.Printf("%-12s %4d dates matched, %5.1f%% within tolerance, median adj diff %.4f, max %.4f\n",
			s.Symbol, s.MatchedDates, s.WithinTolerance*100, s.MedianAdjCloseDiff, s.MaxAdjCloseDiff)
	}
	fmt.Printf("Wrote %d discrepancy records to %s\n", len(records), paths.DiscrepancyCSV)
}
