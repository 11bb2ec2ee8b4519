// Command retriever downloads NSE daily archives for a date range: legacy
// bhavcopies and delivery reports up to the exchange's cutoff, full
// bhavcopies throughout, and optionally the corporate-actions CSV.
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

	"nsecli/internal/config"
	"nsecli/internal/files"
	"nsecli/internal/infrastructure"
	"nsecli/internal/retriever"
)

func main() {
	fromStr := flag.String("from", "", "start date YYYY-MM-DD (defaults to the day after the last downloaded file)")
	toStr := flag.String("to", "", "end date YYYY-MM-DD (defaults to today)")
	withActions := flag.Bool("actions", false, "also fetch the corporate-actions CSV via headless browser")
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
				FilePath: paths.GetLogPath("retriever.log"),
			},
		}
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	to := time.Now().UTC().Truncate(24 * time.Hour)
	if *toStr != "" {
		if to, err = time.Parse("2006-01-02", *toStr); err != nil {
			logger.Error("Invalid -to date", slog.String("value", *toStr))
			os.Exit(1)
		}
	}

	var from time.Time
	switch {
	case *fromStr != "":
		if from, err = time.Parse("2006-01-02", *fromStr); err != nil {
			logger.Error("Invalid -from date", slog.String("value", *fromStr))
			os.Exit(1)
		}
	default:
		from = resumeDate(paths, logger, to)
	}

	if from.After(to) {
		logger.Info("Nothing to download", slog.Time("from", from), slog.Time("to", to))
		return
	}

	logger.Info("Starting archive download",
		slog.Time("from", from),
		slog.Time("to", to),
		slog.Bool("with_actions", *withActions))

	downloader := retriever.NewDownloader(cfg.Retriever, paths, logger)
	result, err := downloader.DownloadRange(ctx, from, to)
	if err != nil {
		logger.Error("Archive download failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("Downloaded %d files (%d already present, %d dates missing)\n",
		result.Downloaded, result.Skipped, len(result.Missed))

	if *withActions {
		fetcher := retriever.NewActionsFetcher(cfg.Retriever, logger)
		dest, err := fetcher.Fetch(ctx, paths.ActionsDir, from, to)
		if err != nil {
			logger.Error("Corporate-actions fetch failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Printf("Corporate actions written to %s\n", dest)
	}
}

// resumeDate picks the day after the newest full bhavcopy on disk, falling
// back to thirty days before the end of the range on a cold start.
func resumeDate(paths *config.Paths, logger *slog.Logger, to time.Time) time.Time {
	discovery := files.NewDiscovery(paths.DownloadsDir)
	found, err := discovery.FindFullBhavFiles(paths.FullBhavDir)
	if err != nil {
		logger.Warn("Failed to scan existing downloads", slog.String("error", err.Error()))
	}
	if latest, ok := files.LatestDate(found); ok {
		return latest.AddDate(0, 0, 1)
	}
	return to.AddDate(0, 0, -30)
}
