package domain

import (
	"fmt"
	"time"
)

// ActionType classifies a corporate action notice.
type ActionType string

const (
	ActionDividend ActionType = "dividend"
	ActionSplit    ActionType = "split"
	ActionBonus    ActionType = "bonus"
	ActionRights   ActionType = "rights"
	ActionUnknown  ActionType = "unknown"
)

// RawActionNotice is one unparsed record from the NSE corporate-actions feed
// (CF-CA-equities.csv). ExDateText carries the exchange's dd-MMM-yyyy text.
type RawActionNotice struct {
	Symbol      string `json:"symbol"`
	Series      string `json:"series"`
	ExDateText  string `json:"ex_date_text"`
	PurposeText string `json:"purpose_text"`
}

// Ratio is a share ratio expressed as from:to, e.g. a 1:2 split or a 1:1
// bonus issue.
type Ratio struct {
	From int64 `json:"from" validate:"min=1"`
	To   int64 `json:"to" validate:"min=1"`
}

func (r Ratio) String() string {
	return fmt.Sprintf("%d:%d", r.From, r.To)
}

// CorporateAction is a typed, quantified corporate action. Exactly one of
// the type-specific payloads is populated, consistent with Type: dividends
// carry DividendAmount, splits and bonuses carry Ratio, rights and unknown
// actions carry neither and never contribute a price adjustment.
type CorporateAction struct {
	Symbol         string     `json:"symbol" validate:"required"`
	Series         string     `json:"series,omitempty"`
	ExDate         time.Time  `json:"ex_date" validate:"required"`
	Type           ActionType `json:"type" validate:"required,oneof=dividend split bonus rights unknown"`
	DividendAmount float64    `json:"dividend_amount,omitempty" validate:"min=0"`
	Ratio          *Ratio     `json:"ratio,omitempty"`
	Purpose        string     `json:"purpose,omitempty"`
}

// Key uniquely identifies an action; the feed occasionally re-announces an
// action, in which case the later record wins (last-write-wins).
func (a CorporateAction) Key() string {
	return a.Symbol + "|" + a.ExDate.Format("2006-01-02") + "|" + string(a.Type)
}

// Adjusting reports whether this action type can contribute a multiplier to
// the cumulative adjustment. Rights issues are recorded as metadata only.
func (a CorporateAction) Adjusting() bool {
	switch a.Type {
	case ActionDividend, ActionSplit, ActionBonus:
		return true
	default:
		return false
	}
}
