package domain

import (
	"time"
)

// DataSource identifies which NSE archive a price row came from.
type DataSource string

const (
	// SourceLegacyBhav is the pre-July-2024 cm*bhav.csv archive merged
	// with MTO delivery data.
	SourceLegacyBhav DataSource = "legacy_bhav"
	// SourceFullBhav is the sec_bhavdata_full_*.csv archive.
	SourceFullBhav DataSource = "full_bhav"
)

// PriceRow represents one symbol's end-of-day data for one trading date as
// published in the NSE bhavcopy. Rows are immutable once parsed; the
// adjustment engine never rewrites source fields.
type PriceRow struct {
	Symbol       string     `json:"symbol" validate:"required"`
	Series       string     `json:"series" validate:"required"`
	Date         time.Time  `json:"date" validate:"required"`
	PrevClose    float64    `json:"prev_close" validate:"min=0"`
	Open         float64    `json:"open" validate:"min=0"`
	High         float64    `json:"high" validate:"min=0"`
	Low          float64    `json:"low" validate:"min=0"`
	Last         float64    `json:"last" validate:"min=0"`
	Close        float64    `json:"close" validate:"min=0"`
	Avg          float64    `json:"avg" validate:"min=0"`
	Volume       int64      `json:"volume" validate:"min=0"`
	TurnoverLacs float64    `json:"turnover_lacs" validate:"min=0"`
	NumTrades    int64      `json:"num_trades" validate:"min=0"`
	DeliveryQty  int64      `json:"delivery_qty" validate:"min=0"`
	DeliveryPct  float64    `json:"delivery_pct" validate:"min=0"`
	Source       DataSource `json:"source,omitempty"`
}

// Key uniquely identifies a price row within the merged dataset.
func (p PriceRow) Key() string {
	return p.Symbol + "|" + p.Series + "|" + p.Date.Format("2006-01-02")
}

// AdjustedPriceRow is a PriceRow plus the back-adjusted close. For a symbol
// with no corporate actions in its observed history, AdjClose equals Close
// on every row.
type AdjustedPriceRow struct {
	PriceRow
	AdjClose float64 `json:"adj_close" validate:"min=0"`
}

// DeliveryRow represents one symbol's delivery statistics for one date as
// published in the MTO_* security-wise delivery files.
type DeliveryRow struct {
	Symbol      string    `json:"symbol" validate:"required"`
	Series      string    `json:"series" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
	DeliveryQty int64     `json:"delivery_qty" validate:"min=0"`
	DeliveryPct float64   `json:"delivery_pct" validate:"min=0"`
}
