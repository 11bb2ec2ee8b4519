// Package compare validates computed adjusted prices against an external
// reference series.
package compare

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"nsecli/internal/config"
	apperrors "nsecli/internal/errors"
	"nsecli/pkg/contracts/domain"
)

// Validator joins computed adjusted prices with reference data and measures
// per-symbol discrepancies. It never fails a run: symbols with nothing to
// join produce warnings, not errors.
type Validator struct {
	logger    *slog.Logger
	tolerance float64
	precision int
}

// NewValidator creates a validator from comparison configuration.
func NewValidator(cfg config.CompareConfig, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	tolerance := cfg.Tolerance
	if tolerance <= 0 {
		tolerance = config.DefaultTolerance
	}
	precision := cfg.RoundPrecision
	if precision <= 0 {
		precision = config.DefaultRoundPrecision
	}
	return &Validator{logger: logger, tolerance: tolerance, precision: precision}
}

// Compare inner-joins computed rows with reference rows on (symbol, date).
// Both sides are rounded to the configured precision before differencing,
// so a reference feed that rounds to two decimals never reports phantom
// discrepancies. Reference symbols with zero joinable dates yield a
// NoOverlapWarning.
func (v *Validator) Compare(computed []domain.AdjustedPriceRow, reference []domain.ReferenceRow) ([]domain.DiscrepancyRecord, []domain.SymbolComparison, apperrors.RecordErrors) {
	type dateKey struct {
		symbol string
		date   time.Time
	}
	bySymbolDate := make(map[dateKey]domain.AdjustedPriceRow, len(computed))
	for _, row := range computed {
		bySymbolDate[dateKey{row.Symbol, row.Date}] = row
	}

	records := make([]domain.DiscrepancyRecord, 0, len(reference))
	matched := make(map[string]bool)
	seen := make(map[string]bool)

	for _, ref := range reference {
		seen[ref.Symbol] = true
		row, ok := bySymbolDate[dateKey{ref.Symbol, ref.Date}]
		if !ok {
			continue
		}
		matched[ref.Symbol] = true

		refClose := round(ref.Close, v.precision)
		refAdj := round(ref.AdjClose, v.precision)
		gotClose := round(row.Close, v.precision)
		gotAdj := round(row.AdjClose, v.precision)

		records = append(records, domain.DiscrepancyRecord{
			Symbol:            ref.Symbol,
			Date:              ref.Date,
			ReferenceClose:    refClose,
			ReferenceAdjClose: refAdj,
			ComputedClose:     gotClose,
			ComputedAdjClose:  gotAdj,
			CloseDiff:         round(math.Abs(gotClose-refClose), v.precision),
			AdjCloseDiff:      round(math.Abs(gotAdj-refAdj), v.precision),
		})
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Symbol != records[j].Symbol {
			return records[i].Symbol < records[j].Symbol
		}
		return records[i].Date.Before(records[j].Date)
	})

	var recErrs apperrors.RecordErrors
	for symbol := range seen {
		if !matched[symbol] {
			recErrs = append(recErrs, *apperrors.NewNoOverlapWarning(symbol))
		}
	}
	sort.Slice(recErrs, func(i, j int) bool { return recErrs[i].Symbol < recErrs[j].Symbol })

	summaries := v.summarize(records)

	v.logger.Info("compared against reference",
		slog.Int("matched_rows", len(records)),
		slog.Int("symbols", len(summaries)),
		slog.Int("no_overlap", len(recErrs)))

	return records, summaries, recErrs
}

// summarize folds sorted discrepancy records into one summary per symbol.
func (v *Validator) summarize(records []domain.DiscrepancyRecord) []domain.SymbolComparison {
	var summaries []domain.SymbolComparison

	flush := func(symbol string, adjDiffs, closeDiffs []float64) {
		within := 0
		maxAdj := 0.0
		for _, d := range adjDiffs {
			if d <= v.tolerance {
				within++
			}
			if d > maxAdj {
				maxAdj = d
			}
		}
		summaries = append(summaries, domain.SymbolComparison{
			Symbol:             symbol,
			MatchedDates:       len(adjDiffs),
			MeanAdjCloseDiff:   mean(adjDiffs),
			MedianAdjCloseDiff: median(adjDiffs),
			MeanCloseDiff:      mean(closeDiffs),
			MedianCloseDiff:    median(closeDiffs),
			WithinTolerance:    float64(within) / float64(len(adjDiffs)),
			MaxAdjCloseDiff:    maxAdj,
		})
	}

	var symbol string
	var adjDiffs, closeDiffs []float64
	for _, rec := range records {
		if rec.Symbol != symbol && symbol != "" {
			flush(symbol, adjDiffs, closeDiffs)
			adjDiffs, closeDiffs = nil, nil
		}
		symbol = rec.Symbol
		adjDiffs = append(adjDiffs, rec.AdjCloseDiff)
		closeDiffs = append(closeDiffs, rec.CloseDiff)
	}
	if symbol != "" {
		flush(symbol, adjDiffs, closeDiffs)
	}

	return summaries
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func round(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}
