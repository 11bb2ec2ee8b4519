package domain

import (
	"time"
)

// RunStatus represents the lifecycle of a processing run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunMetadata tracks one end-to-end processing run for audit purposes.
// Outputs are idempotent: re-running with identical inputs regenerates
// byte-identical CSVs under a new run ID.
type RunMetadata struct {
	ID              string    `json:"id" validate:"required,uuid"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at,omitempty"`
	Status          RunStatus `json:"status" validate:"required,oneof=running completed failed"`
	PriceRows       int       `json:"price_rows" validate:"min=0"`
	Symbols         int       `json:"symbols" validate:"min=0"`
	ActionsParsed   int       `json:"actions_parsed" validate:"min=0"`
	RecordsSkipped  int       `json:"records_skipped" validate:"min=0"`
	FactorsRejected int       `json:"factors_rejected" validate:"min=0"`
	ErrorMessage    string    `json:"error_message,omitempty"`
}

// BulkDeal is one row of the NSE bulk-deals feed.
type BulkDeal struct {
	Symbol     string    `json:"symbol" validate:"required"`
	Date       time.Time `json:"date" validate:"required"`
	ClientName string    `json:"client_name,omitempty"`
	BuySell    string    `json:"buy_sell,omitempty"`
	Quantity   int64     `json:"quantity" validate:"min=0"`
	TradePrice float64   `json:"trade_price" validate:"min=0"`
}

// BulkDealStats aggregates bulk deals per (symbol, date) joined with that
// day's price row.
type BulkDealStats struct {
	Symbol        string    `json:"symbol"`
	Date          time.Time `json:"date"`
	TotalQuantity int64     `json:"total_quantity"`
	AvgTradePrice float64   `json:"avg_trade_price"`
	DayVolume     int64     `json:"day_volume"`
	DayClose      float64   `json:"day_close"`
	DayOpen       float64   `json:"day_open"`
	DeliveryPct   float64   `json:"delivery_pct"`
	UpDay         bool      `json:"up_day"` // close above open
	ShareOfVolume float64   `json:"share_of_volume"`
}
