package reference

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"nsecli/internal/config"
	"nsecli/pkg/contracts/domain"
)

// Service wraps the client with a per-symbol disk cache so repeated
// comparison runs over the same window do not refetch.
type Service struct {
	client *Client
	paths  *config.Paths
	logger *slog.Logger
}

// NewService creates a reference service.
func NewService(client *Client, paths *config.Paths, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, paths: paths, logger: logger}
}

// cacheEntry is the on-disk form of one symbol's cached series.
type cacheEntry struct {
	Ticker  string                `json:"ticker"`
	From    time.Time             `json:"from"`
	To      time.Time             `json:"to"`
	Fetched time.Time             `json:"fetched"`
	Rows    []domain.ReferenceRow `json:"rows"`
}

// FetchAll fetches the reference series for every configured symbol over
// [from, to]. Symbols whose fetch fails are skipped with a warning; one
// unreachable ticker must not block the comparison of the rest. Output is
// ordered by symbol then date.
func (s *Service) FetchAll(ctx context.Context, tickers map[string]string, from, to time.Time) ([]domain.ReferenceRow, []error) {
	symbols := make([]string, 0, len(tickers))
	for symbol := range tickers {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	var all []domain.ReferenceRow
	var failures []error

	for _, symbol := range symbols {
		ticker := tickers[symbol]

		if rows, ok := s.loadCache(symbol, ticker, from, to); ok {
			all = append(all, rows...)
			continue
		}

		rows, err := s.client.FetchDaily(ctx, symbol, ticker, from, to)
		if err != nil {
			s.logger.Warn("reference fetch failed, skipping symbol",
				slog.String("symbol", symbol),
				slog.String("ticker", ticker),
				slog.String("error", err.Error()))
			failures = append(failures, fmt.Errorf("fetch %s (%s): %w", symbol, ticker, err))
			continue
		}
		s.saveCache(symbol, ticker, from, to, rows)
		all = append(all, rows...)
	}

	return all, failures
}

func (s *Service) cachePath(symbol string) string {
	return filepath.Join(s.paths.ReferenceDir, symbol+".json")
}

// loadCache returns cached rows when the cached window covers the request.
func (s *Service) loadCache(symbol, ticker string, from, to time.Time) ([]domain.ReferenceRow, bool) {
	data, err := os.ReadFile(s.cachePath(symbol))
	if err != nil {
		return nil, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	if entry.Ticker != ticker || entry.From.After(from) || entry.To.Before(to) {
		return nil, false
	}

	var rows []domain.ReferenceRow
	for _, row := range entry.Rows {
		if row.Date.Before(from) || row.Date.After(to) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, true
}

func (s *Service) saveCache(symbol, ticker string, from, to time.Time, rows []domain.ReferenceRow) {
	entry := cacheEntry{
		Ticker:  ticker,
		From:    from,
		To:      to,
		Fetched: time.Now().UTC(),
		Rows:    rows,
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(s.paths.ReferenceDir, 0755); err != nil {
		return
	}
	if err := os.WriteFile(s.cachePath(symbol), data, 0644); err != nil {
		s.logger.Warn("failed to write reference cache",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()))
	}
}
