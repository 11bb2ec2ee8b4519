// Command processor runs the end-to-end daily pipeline: it discovers the
// downloaded archives, merges the bhavcopy eras into one combined dataset,
// parses and classifies the corporate-actions feed, back-adjusts closing
// prices, and writes the CSV outputs plus run metadata. Per-record input
// problems are logged and counted, never fatal; the exit code reflects only
// structural failures (unreadable directories, unwritable outputs).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"nsecli/internal/actions"
	"nsecli/internal/adjust"
	"nsecli/internal/bhav"
	"nsecli/internal/bulkdeals"
	"nsecli/internal/config"
	apperrors "nsecli/internal/errors"
	"nsecli/internal/exporter"
	"nsecli/internal/files"
	"nsecli/internal/infrastructure"
	"nsecli/pkg/contracts/domain"
)

func main() {
	full := flag.Bool("full", false, "reprocess everything even when outputs look up to date")
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
				FilePath: paths.GetLogPath("processor.log"),
			},
			Adjust: config.AdjustConfig{
				Workers:        config.DefaultWorkers,
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

	providers, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		logger.Warn("Metrics disabled", slog.String("error", err.Error()))
	}
	var metrics *infrastructure.PipelineMetrics
	if providers != nil && providers.Meter != nil {
		if metrics, err = infrastructure.CreatePipelineMetrics(providers.Meter); err != nil {
			logger.Warn("Metrics disabled", slog.String("error", err.Error()))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := &pipelineRun{
		paths:   paths,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}

	meta := domain.RunMetadata{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Status:    domain.RunStatusRunning,
	}

	if err := run.execute(ctx, *full, &meta); err != nil {
		meta.Status = domain.RunStatusFailed
		meta.FinishedAt = time.Now().UTC()
		meta.ErrorMessage = err.Error()
		if writeErr := exporter.WriteRunMetadata(paths, meta); writeErr != nil {
			logger.Error("Failed to record run metadata", slog.String("error", writeErr.Error()))
		}
		logger.Error("Processing run failed",
			slog.String("run_id", meta.ID),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	meta.Status = domain.RunStatusCompleted
	meta.FinishedAt = time.Now().UTC()
	if err := exporter.WriteRunMetadata(paths, meta); err != nil {
		logger.Error("Failed to record run metadata", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if metrics != nil {
		metrics.RunDuration.Record(ctx, meta.FinishedAt.Sub(meta.StartedAt).Seconds())
	}

	fmt.Printf("Run %s completed: %d price rows across %d symbols, %d actions, %d records skipped\n",
		meta.ID, meta.PriceRows, meta.Symbols, meta.ActionsParsed, meta.RecordsSkipped)
}

type pipelineRun struct {
	paths   *config.Paths
	cfg     *config.Config
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics
}

func (r *pipelineRun) execute(ctx context.Context, full bool, meta *domain.RunMetadata) error {
	discovery := files.NewDiscovery(r.paths.DownloadsDir)

	legacy, err := discovery.FindLegacyBhavFiles(r.paths.LegacyBhavDir)
	if err != nil {
		return fmt.Errorf("scan legacy bhavcopies: %w", err)
	}
	delivery, err := discovery.FindDeliveryFiles(r.paths.DeliveryDir)
	if err != nil {
		return fmt.Errorf("scan delivery reports: %w", err)
	}
	fullBhav, err := discovery.FindFullBhavFiles(r.paths.FullBhavDir)
	if err != nil {
		return fmt.Errorf("scan full bhavcopies: %w", err)
	}

	if len(legacy)+len(fullBhav) == 0 {
		return fmt.Errorf("no bhavcopy files under %s; run the retriever first", r.paths.DownloadsDir)
	}

	if !full && r.upToDate(legacy, delivery, fullBhav) {
		r.logger.Info("Outputs newer than every input, skipping (use -full to force)")
		fmt.Println("Outputs are up to date; use -full to reprocess")
		meta.Status = domain.RunStatusCompleted
		return r.loadPreviousCounts(meta)
	}

	var recordErrs apperrors.RecordErrors
	dataset := bhav.NewDataset()

	for _, f := range legacy {
		rows, errs, err := bhav.ParseLegacyBhavFile(f.Path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", f.Name, err)
		}
		dataset.AddPriceRows(rows)
		recordErrs = append(recordErrs, errs...)
	}
	for _, f := range fullBhav {
		rows, errs, err := bhav.ParseFullBhavFile(f.Path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", f.Name, err)
		}
		dataset.AddPriceRows(rows)
		recordErrs = append(recordErrs, errs...)
	}
	for _, f := range delivery {
		rows, errs, err := bhav.ParseDeliveryFile(f.Path, f.Date)
		if err != nil {
			return fmt.Errorf("parse %s: %w", f.Name, err)
		}
		dataset.AddDeliveryRows(rows)
		recordErrs = append(recordErrs, errs...)
	}

	r.logger.Info("Combined dataset built",
		slog.Int("files", len(legacy)+len(fullBhav)+len(delivery)),
		slog.Int("rows", dataset.Len()),
		slog.Int("symbols", len(dataset.Symbols())))

	parsed, actionErrs := r.parseActions()
	recordErrs = append(recordErrs, actionErrs...)

	adjuster := adjust.NewCumulativeAdjuster(r.cfg.Adjust, r.logger)
	adjusted, adjustErrs, err := adjuster.Adjust(ctx, dataset.Rows(), parsed)
	if err != nil {
		return fmt.Errorf("adjust prices: %w", err)
	}
	recordErrs = append(recordErrs, adjustErrs...)

	writer := exporter.NewCSVWriter(r.paths)
	if err := writer.WriteCombinedDataset(dataset.Rows()); err != nil {
		return fmt.Errorf("write combined dataset: %w", err)
	}
	if err := writer.WriteAdjustedDataset(adjusted); err != nil {
		return fmt.Errorf("write adjusted dataset: %w", err)
	}
	if err := writer.WriteActionsAudit(parsed); err != nil {
		return fmt.Errorf("write actions audit: %w", err)
	}

	if err := r.processBulkDeals(writer, dataset.Rows()); err != nil {
		return err
	}

	meta.PriceRows = dataset.Len()
	meta.Symbols = len(dataset.Symbols())
	meta.ActionsParsed = len(parsed)
	meta.RecordsSkipped = recordErrs.Skipped()
	meta.FactorsRejected = len(recordErrs.ByKind(apperrors.KindInvalidFactor))

	r.recordMetrics(ctx, meta, parsed)
	r.logRecordErrors(recordErrs)
	return nil
}

// parseActions reads every corporate-actions CSV under the actions directory
// and classifies the notices. A missing or empty directory is not an error;
// adjustment then degrades to a pass-through copy of raw closes.
func (r *pipelineRun) parseActions() ([]domain.CorporateAction, apperrors.RecordErrors) {
	matches, err := filepath.Glob(filepath.Join(r.paths.ActionsDir, "*.csv"))
	if err != nil {
		r.logger.Warn("Failed to scan actions directory", slog.String("error", err.Error()))
		return nil, nil
	}
	if len(matches) == 0 {
		r.logger.Warn("No corporate-actions files found, prices will not be adjusted",
			slog.String("dir", r.paths.ActionsDir))
		return nil, nil
	}
	sort.Strings(matches)

	var (
		notices []domain.RawActionNotice
		recErrs apperrors.RecordErrors
	)
	for _, path := range matches {
		rows, errs, err := actions.ReadNoticesFile(path)
		if err != nil {
			r.logger.Warn("Skipping unreadable actions file",
				slog.String("file", filepath.Base(path)),
				slog.String("error", err.Error()))
			continue
		}
		notices = append(notices, rows...)
		recErrs = append(recErrs, errs...)
	}

	parser := actions.NewParser(r.logger)
	parsed, parseErrs := parser.ParseBatch(notices)
	return parsed, append(recErrs, parseErrs...)
}

// processBulkDeals aggregates the optional bulk-deals feed against the
// combined dataset. Absence of the feed is normal.
func (r *pipelineRun) processBulkDeals(writer *exporter.CSVWriter, prices []domain.PriceRow) error {
	matches, err := filepath.Glob(filepath.Join(r.paths.BulkDealsDir, "*.csv"))
	if err != nil || len(matches) == 0 {
		return nil
	}
	sort.Strings(matches)

	var deals []domain.BulkDeal
	for _, path := range matches {
		parsed, recErrs, err := bulkdeals.ParseDealsFile(path)
		if err != nil {
			r.logger.Warn("Skipping unreadable bulk-deals file",
				slog.String("file", filepath.Base(path)),
				slog.String("error", err.Error()))
			continue
		}
		deals = append(deals, parsed...)
		r.logRecordErrors(recErrs)
	}
	if len(deals) == 0 {
		return nil
	}

	stats := bulkdeals.Aggregate(deals, prices)
	if err := writer.WriteBulkDealStats(stats); err != nil {
		return fmt.Errorf("write bulk-deal stats: %w", err)
	}
	r.logger.Info("Bulk-deal statistics written", slog.Int("rows", len(stats)))
	return nil
}

// upToDate reports whether the combined CSV is newer than every discovered
// input file.
func (r *pipelineRun) upToDate(fileSets ...[]files.DatedFile) bool {
	out, err := os.Stat(r.paths.CombinedDataCSV)
	if err != nil {
		return false
	}
	for _, set := range fileSets {
		for _, f := range set {
			in, err := os.Stat(f.Path)
			if err != nil || in.ModTime().After(out.ModTime()) {
				return false
			}
		}
	}
	return true
}

// loadPreviousCounts carries the counts of the prior run forward when the
// pipeline short-circuits on up-to-date outputs.
func (r *pipelineRun) loadPreviousCounts(meta *domain.RunMetadata) error {
	prev, err := exporter.ReadRunMetadata(r.paths)
	if err != nil || prev == nil {
		return nil
	}
	meta.PriceRows = prev.PriceRows
	meta.Symbols = prev.Symbols
	meta.ActionsParsed = prev.ActionsParsed
	meta.RecordsSkipped = prev.RecordsSkipped
	meta.FactorsRejected = prev.FactorsRejected
	return nil
}

func (r *pipelineRun) recordMetrics(ctx context.Context, meta *domain.RunMetadata, parsed []domain.CorporateAction) {
	if r.metrics == nil {
		return
	}
	r.metrics.PriceRowsParsed.Add(ctx, int64(meta.PriceRows))
	r.metrics.RecordsSkipped.Add(ctx, int64(meta.RecordsSkipped))
	r.metrics.FactorsRejected.Add(ctx, int64(meta.FactorsRejected))
	for _, action := range parsed {
		r.metrics.ActionsClassified.Add(ctx, 1,
			metric.WithAttributes(attribute.String("type", string(action.Type))))
	}
}

func (r *pipelineRun) logRecordErrors(recErrs apperrors.RecordErrors) {
	for _, re := range recErrs {
		if re.Warning() {
			r.logger.Warn("Record warning",
				slog.String("kind", string(re.Kind)),
				slog.String("symbol", re.Symbol),
				slog.String("detail", re.Detail))
			continue
		}
		r.logger.Warn("Record skipped",
			slog.String("kind", string(re.Kind)),
			slog.String("symbol", re.Symbol),
			slog.String("detail", re.Detail))
	}
}
