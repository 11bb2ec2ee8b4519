package bhav

import (
	"sort"
	"time"

	"nsecli/pkg/contracts/domain"
)

// Dataset accumulates price rows keyed by (symbol, series, date) with
// last-write-wins semantics, except that a full-bhavcopy row is never
// overwritten by a legacy row for the same key.
type Dataset struct {
	rows map[string]domain.PriceRow
}

// NewDataset creates an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{rows: make(map[string]domain.PriceRow)}
}

// AddPriceRows merges price rows into the dataset.
func (d *Dataset) AddPriceRows(rows []domain.PriceRow) {
	for _, row := range rows {
		key := row.Key()
		if existing, ok := d.rows[key]; ok {
			if existing.Source == domain.SourceFullBhav && row.Source == domain.SourceLegacyBhav {
				continue
			}
			// Legacy rows may already carry merged delivery fields the
			// replacement lacks.
			if row.DeliveryQty == 0 && existing.DeliveryQty != 0 {
				row.DeliveryQty = existing.DeliveryQty
				row.DeliveryPct = existing.DeliveryPct
			}
		}
		d.rows[key] = row
	}
}

// AddDeliveryRows joins MTO delivery quantities onto already-merged price
// rows. Delivery records with no matching price row are dropped; the MTO
// file covers series the bhavcopy does not.
func (d *Dataset) AddDeliveryRows(rows []domain.DeliveryRow) {
	for _, del := range rows {
		key := priceKey(del.Symbol, del.Series, del.Date)
		row, ok := d.rows[key]
		if !ok {
			continue
		}
		row.DeliveryQty = del.DeliveryQty
		row.DeliveryPct = del.DeliveryPct
		d.rows[key] = row
	}
}

// Len reports the number of distinct (symbol, series, date) rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Rows returns the merged dataset ordered by symbol, series, date.
func (d *Dataset) Rows() []domain.PriceRow {
	rows := make([]domain.PriceRow, 0, len(d.rows))
	for _, row := range d.rows {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Symbol != rows[j].Symbol {
			return rows[i].Symbol < rows[j].Symbol
		}
		if rows[i].Series != rows[j].Series {
			return rows[i].Series < rows[j].Series
		}
		return rows[i].Date.Before(rows[j].Date)
	})
	return rows
}

// Symbols returns the distinct symbols present, sorted.
func (d *Dataset) Symbols() []string {
	seen := make(map[string]struct{})
	for _, row := range d.rows {
		seen[row.Symbol] = struct{}{}
	}
	symbols := make([]string, 0, len(seen))
	for symbol := range seen {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

func priceKey(symbol, series string, date time.Time) string {
	return (domain.PriceRow{Symbol: symbol, Series: series, Date: date}).Key()
}
