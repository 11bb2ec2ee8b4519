// Package bulkdeals parses the NSE bulk-deals feed and aggregates it
// against the merged price dataset. Bulk-deal analytics sit outside the
// adjustment path; nothing here feeds back into factors.
package bulkdeals

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "nsecli/internal/errors"
	"nsecli/pkg/contracts/domain"
)

// ParseDeals reads a bulk-deals CSV stream. Quantities arrive
// comma-grouped ("1,50,000") and dates in the exchange's DD-Mon-YYYY form.
func ParseDeals(r io.Reader) ([]domain.BulkDeal, apperrors.RecordErrors) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.RecordErrors{*apperrors.NewParseError("", "header")}
	}
	cols := indexColumns(header)

	var deals []domain.BulkDeal
	var recErrs apperrors.RecordErrors

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			recErrs = append(recErrs, *apperrors.NewParseError("", "csv record"))
			continue
		}

		symbol := field(record, cols, "SYMBOL")
		if symbol == "" {
			recErrs = append(recErrs, *apperrors.NewParseError(symbol, "symbol"))
			continue
		}

		dateText := field(record, cols, "DATE")
		date, err := time.Parse("02-Jan-2006", dateText)
		if err != nil {
			recErrs = append(recErrs, *apperrors.NewDateFormatError(symbol, dateText, err))
			continue
		}

		qty, err := parseGroupedInt(field(record, cols, "QUANTITY TRADED"))
		if err != nil {
			recErrs = append(recErrs, *apperrors.NewParseError(symbol, "quantity"))
			continue
		}

		deals = append(deals, domain.BulkDeal{
			Symbol:     symbol,
			Date:       date,
			ClientName: field(record, cols, "CLIENT NAME"),
			BuySell:    field(record, cols, "BUY/SELL"),
			Quantity:   qty,
			TradePrice: parseGroupedFloat(field(record, cols, "TRADE PRICE / WGHT. AVG. PRICE")),
		})
	}

	return deals, recErrs
}

// ParseDealsFile opens and parses one bulk-deals CSV.
func ParseDealsFile(path string) ([]domain.BulkDeal, apperrors.RecordErrors, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open bulk deals file %s: %w", path, err)
	}
	defer f.Close()
	deals, recErrs := ParseDeals(f)
	return deals, recErrs, nil
}

// Aggregate folds deals into per-(symbol, date) totals with a
// quantity-weighted average trade price, then joins each total against the
// matching price row. Totals with no matching price row are dropped; the
// feed covers series the merged dataset may not.
func Aggregate(deals []domain.BulkDeal, prices []domain.PriceRow) []domain.BulkDealStats {
	type key struct {
		symbol string
		date   time.Time
	}

	type acc struct {
		qty      int64
		weighted float64
	}
	totals := make(map[key]*acc)
	for _, deal := range deals {
		k := key{deal.Symbol, deal.Date}
		a, ok := totals[k]
		if !ok {
			a = &acc{}
			totals[k] = a
		}
		a.qty += deal.Quantity
		a.weighted += float64(deal.Quantity) * deal.TradePrice
	}

	// Join against the EQ row for the day; fall back to any series when
	// the symbol trades nowhere else.
	priceByKey := make(map[key]domain.PriceRow)
	for _, row := range prices {
		k := key{row.Symbol, row.Date}
		if existing, ok := priceByKey[k]; ok && existing.Series == "EQ" {
			continue
		}
		if row.Series == "EQ" || priceByKey[k].Symbol == "" {
			priceByKey[k] = row
		}
	}

	var stats []domain.BulkDealStats
	for k, a := range totals {
		row, ok := priceByKey[k]
		if !ok {
			continue
		}
		avgPrice := 0.0
		if a.qty > 0 {
			avgPrice = a.weighted / float64(a.qty)
		}
		share := 0.0
		if row.Volume > 0 {
			share = float64(a.qty) / float64(row.Volume)
		}
		stats = append(stats, domain.BulkDealStats{
			Symbol:        k.symbol,
			Date:          k.date,
			TotalQuantity: a.qty,
			AvgTradePrice: avgPrice,
			DayVolume:     row.Volume,
			DayClose:      row.Close,
			DayOpen:       row.Open,
			DeliveryPct:   row.DeliveryPct,
			UpDay:         row.Close > row.Open,
			ShareOfVolume: share,
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Symbol != stats[j].Symbol {
			return stats[i].Symbol < stats[j].Symbol
		}
		return stats[i].Date.Before(stats[j].Date)
	})
	return stats
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	return cols
}

func field(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseGroupedInt(raw string) (int64, error) {
	return strconv.ParseInt(strings.ReplaceAll(raw, ",", ""), 10, 64)
}

func parseGroupedFloat(raw string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}
