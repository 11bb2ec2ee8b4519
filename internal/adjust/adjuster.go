// Package adjust turns raw close prices and classified corporate actions
// into back-adjusted price series.
package adjust

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"nsecli/internal/config"
	apperrors "nsecli/internal/errors"
	"nsecli/pkg/contracts/domain"
)

// CumulativeAdjuster applies corporate-action factors to raw price history,
// producing a back-adjusted close per row. Symbols are independent units of
// work; the output is deterministic regardless of how many workers run.
type CumulativeAdjuster struct {
	logger    *slog.Logger
	workers   int
	precision int
}

// NewCumulativeAdjuster creates an adjuster from pipeline configuration.
func NewCumulativeAdjuster(cfg config.AdjustConfig, logger *slog.Logger) *CumulativeAdjuster {
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = config.DefaultWorkers
	}
	precision := cfg.RoundPrecision
	if precision <= 0 {
		precision = config.DefaultRoundPrecision
	}
	return &CumulativeAdjuster{logger: logger, workers: workers, precision: precision}
}

// symbolResult holds one symbol's adjusted rows plus its record errors so
// worker goroutines never share slices.
type symbolResult struct {
	rows    []domain.AdjustedPriceRow
	recErrs apperrors.RecordErrors
}

// Adjust back-adjusts every symbol's close series. Rejected factors and
// zero-effect actions are reported per record; only context cancellation is
// returned as a hard error. Output ordering is symbol, then date, then
// series.
func (a *CumulativeAdjuster) Adjust(ctx context.Context, rows []domain.PriceRow, actions []domain.CorporateAction) ([]domain.AdjustedPriceRow, apperrors.RecordErrors, error) {
	rowsBySymbol := make(map[string][]domain.PriceRow)
	for _, row := range rows {
		rowsBySymbol[row.Symbol] = append(rowsBySymbol[row.Symbol], row)
	}
	actionsBySymbol := make(map[string][]domain.CorporateAction)
	for _, action := range actions {
		if !action.Adjusting() {
			continue
		}
		actionsBySymbol[action.Symbol] = append(actionsBySymbol[action.Symbol], action)
	}

	symbols := make([]string, 0, len(rowsBySymbol))
	for symbol := range rowsBySymbol {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	results := make([]symbolResult, len(symbols))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, symbol := range symbols {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = a.adjustSymbol(symbol, rowsBySymbol[symbol], actionsBySymbol[symbol])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	adjusted := make([]domain.AdjustedPriceRow, 0, len(rows))
	var recErrs apperrors.RecordErrors
	for _, res := range results {
		adjusted = append(adjusted, res.rows...)
		recErrs = append(recErrs, res.recErrs...)
	}

	a.logger.Info("adjusted price history",
		slog.Int("symbols", len(symbols)),
		slog.Int("rows", len(adjusted)),
		slog.Int("factors_rejected", len(recErrs)))

	return adjusted, recErrs, nil
}

// adjustSymbol walks one symbol's history newest to oldest with a running
// factor. Each adjusting action contributes a factor computed from the raw
// close of the last trading day strictly before its ex-date; rows on or
// after the ex-date are untouched by it. Same-date actions multiply into
// the running factor together, so their order never matters.
func (a *CumulativeAdjuster) adjustSymbol(symbol string, rows []domain.PriceRow, actions []domain.CorporateAction) symbolResult {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].Series < rows[j].Series
	})

	var res symbolResult

	type factorEvent struct {
		exDate time.Time
		factor float64
	}
	events := make([]factorEvent, 0, len(actions))
	for _, action := range actions {
		idx := lastRowBefore(rows, action.ExDate)
		if idx < 0 {
			// No history before the ex-date; nothing to adjust.
			continue
		}
		factor, recErr := Factor(action, rows[idx].Close)
		if recErr != nil {
			res.recErrs = append(res.recErrs, *recErr)
			continue
		}
		events = append(events, factorEvent{exDate: action.ExDate, factor: factor})
	}
	sort.Slice(events, func(i, j int) bool { return events[i].exDate.After(events[j].exDate) })

	res.rows = make([]domain.AdjustedPriceRow, len(rows))
	running := 1.0
	next := 0
	for i := len(rows) - 1; i >= 0; i-- {
		for next < len(events) && rows[i].Date.Before(events[next].exDate) {
			running *= events[next].factor
			next++
		}
		res.rows[i] = domain.AdjustedPriceRow{
			PriceRow: rows[i],
			AdjClose: round(rows[i].Close*running, a.precision),
		}
	}

	return res
}

// lastRowBefore returns the index of the last row dated strictly before t,
// or -1. Rows must be sorted ascending by date.
func lastRowBefore(rows []domain.PriceRow, t time.Time) int {
	idx := sort.Search(len(rows), func(i int) bool {
		return !rows[i].Date.Before(t)
	})
	return idx - 1
}

func round(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}
