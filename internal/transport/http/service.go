package http

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"nsecli/internal/bhav"
	"nsecli/internal/config"
	"nsecli/internal/exporter"
	"nsecli/pkg/contracts/domain"
)

// ReportService reads generated outputs off disk with a modification-time
// cache, so a processor run that rewrites the CSVs is picked up without
// restarting the server.
type ReportService struct {
	paths  *config.Paths
	logger *slog.Logger

	mu          sync.Mutex
	adjustedMod time.Time
	adjusted    []domain.AdjustedPriceRow
	bySymbol    map[string][]domain.AdjustedPriceRow
	symbols     []string
}

// NewReportService creates a report service over the given path layout.
func NewReportService(paths *config.Paths, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{paths: paths, logger: logger}
}

// Symbols lists the symbols present in the adjusted dataset.
func (s *ReportService) Symbols(ctx context.Context) ([]string, error) {
	if err := s.refresh(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.symbols...), nil
}

// AdjustedSeries returns one symbol's adjusted rows, ordered by date. A
// symbol absent from the dataset returns (nil, nil); the handler decides
// how to report that.
func (s *ReportService) AdjustedSeries(ctx context.Context, symbol string) ([]domain.AdjustedPriceRow, error) {
	if err := s.refresh(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AdjustedPriceRow(nil), s.bySymbol[symbol]...), nil
}

// Comparisons returns the last comparison run's discrepancy records.
func (s *ReportService) Comparisons(ctx context.Context) ([]domain.DiscrepancyRecord, error) {
	return exporter.ReadDiscrepancies(s.paths.DiscrepancyCSV)
}

// LastRun returns the last run's metadata, or nil when no run has
// completed yet.
func (s *ReportService) LastRun(ctx context.Context) (*domain.RunMetadata, error) {
	meta, err := exporter.ReadRunMetadata(s.paths)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return meta, nil
}

// refresh reloads the adjusted dataset when its file changed.
func (s *ReportService) refresh() error {
	info, err := os.Stat(s.paths.AdjustedCSV)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if info.ModTime().Equal(s.adjustedMod) {
		return nil
	}

	rows, err := bhav.ReadAdjustedCSV(s.paths.AdjustedCSV)
	if err != nil {
		return err
	}

	bySymbol := make(map[string][]domain.AdjustedPriceRow)
	for _, row := range rows {
		bySymbol[row.Symbol] = append(bySymbol[row.Symbol], row)
	}
	symbols := make([]string, 0, len(bySymbol))
	for symbol := range bySymbol {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	s.adjustedMod = info.ModTime()
	s.adjusted = rows
	s.bySymbol = bySymbol
	s.symbols = symbols

	s.logger.Info("reloaded adjusted dataset",
		slog.Int("rows", len(rows)),
		slog.Int("symbols", len(symbols)))

	return nil
}
