package domain

import (
	"time"
)

// ReferenceRow is one date's close and adjusted close from the external
// reference series (Yahoo Finance), keyed by the NSE symbol it maps to.
type ReferenceRow struct {
	Symbol   string    `json:"symbol" validate:"required"`
	Ticker   string    `json:"ticker,omitempty"`
	Date     time.Time `json:"date" validate:"required"`
	Close    float64   `json:"close" validate:"min=0"`
	AdjClose float64   `json:"adj_close" validate:"min=0"`
}

// DiscrepancyRecord is one matched (symbol, date) pair from the inner join
// of computed and reference series, with absolute differences taken after
// rounding both sides to the configured precision.
type DiscrepancyRecord struct {
	Symbol            string    `json:"symbol"`
	Date              time.Time `json:"date"`
	ReferenceClose    float64   `json:"reference_close"`
	ReferenceAdjClose float64   `json:"reference_adj_close"`
	ComputedClose     float64   `json:"computed_close"`
	ComputedAdjClose  float64   `json:"computed_adj_close"`
	CloseDiff         float64   `json:"close_diff"`
	AdjCloseDiff      float64   `json:"adj_close_diff"`
}

// SymbolComparison summarises the discrepancy records for one symbol.
type SymbolComparison struct {
	Symbol             string  `json:"symbol"`
	MatchedDates       int     `json:"matched_dates"`
	MeanAdjCloseDiff   float64 `json:"mean_adj_close_diff"`
	MedianAdjCloseDiff float64 `json:"median_adj_close_diff"`
	MeanCloseDiff      float64 `json:"mean_close_diff"`
	MedianCloseDiff    float64 `json:"median_close_diff"`
	WithinTolerance    float64 `json:"within_tolerance"` // fraction in [0,1]
	MaxAdjCloseDiff    float64 `json:"max_adj_close_diff"`
}
