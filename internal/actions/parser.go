package actions

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"nsecli/internal/config"
	apperrors "nsecli/internal/errors"
	"nsecli/pkg/contracts/domain"
)

var (
	// amountPattern matches cash amounts written as "Rs 2.5", "RS.10",
	// "Re 1" etc. The exchange is not consistent about punctuation.
	amountPattern = regexp.MustCompile(`(?i)\br[se]\.?\s*(\d+(?:\.\d+)?)`)

	// ratioPattern matches share ratios written as "1:10", "1 : 2" etc.
	ratioPattern = regexp.MustCompile(`(\d+)\s*:\s*(\d+)`)
)

// Parser converts raw corporate-action notices into typed actions.
// It is stateless and safe for concurrent use.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a parser. A nil logger falls back to slog.Default.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// ParseNotice parses a single raw notice. It returns the typed action and,
// independently, a record-level error or warning. Both may be non-nil at
// once: an ambiguous notice still yields an action, flagged with a warning.
// A nil action means the record could not be used at all.
func (p *Parser) ParseNotice(raw domain.RawActionNotice) (*domain.CorporateAction, *apperrors.RecordError) {
	symbol := strings.ToUpper(strings.TrimSpace(raw.Symbol))
	if symbol == "" {
		return nil, apperrors.NewParseError(raw.Symbol, "symbol")
	}

	exDate, err := parseExDate(raw.ExDateText)
	if err != nil {
		return nil, apperrors.NewDateFormatError(symbol, raw.ExDateText, err)
	}

	purpose := strings.TrimSpace(raw.PurposeText)
	amount, hasAmount := extractAmount(purpose)
	ratio, hasRatio := extractRatio(purpose)

	decision := Classify(purpose, hasAmount, hasRatio)

	action := &domain.CorporateAction{
		Symbol:  symbol,
		Series:  strings.ToUpper(strings.TrimSpace(raw.Series)),
		ExDate:  exDate,
		Type:    decision.Type,
		Purpose: purpose,
	}

	switch decision.Type {
	case domain.ActionDividend:
		action.DividendAmount = amount
	case domain.ActionSplit, domain.ActionBonus:
		action.Ratio = &ratio
	case domain.ActionRights:
		if hasRatio {
			action.Ratio = &ratio
		}
		if hasAmount {
			action.DividendAmount = amount
		}
	}

	var recErr *apperrors.RecordError
	if decision.Ambiguous {
		recErr = apperrors.NewAmbiguousClassificationError(symbol, exDate, purpose, string(decision.Type))
		p.logger.Warn("ambiguous corporate action classification",
			slog.String("symbol", symbol),
			slog.String("purpose", purpose),
			slog.String("resolved", string(decision.Type)),
			slog.String("reason", decision.Reason))
	}

	return action, recErr
}

// ParseBatch parses a set of notices. Records that cannot be parsed are
// skipped, never fatal; their errors are collected alongside the successful
// actions. Duplicate (symbol, series, ex-date) keys resolve last-write-wins,
// matching the exchange's own practice of republishing corrected notices.
func (p *Parser) ParseBatch(raws []domain.RawActionNotice) ([]domain.CorporateAction, apperrors.RecordErrors) {
	var recErrs apperrors.RecordErrors

	byKey := make(map[string]int, len(raws))
	actions := make([]domain.CorporateAction, 0, len(raws))

	for _, raw := range raws {
		action, recErr := p.ParseNotice(raw)
		if recErr != nil {
			recErrs = append(recErrs, *recErr)
		}
		if action == nil {
			continue
		}
		if idx, seen := byKey[action.Key()]; seen {
			actions[idx] = *action
			continue
		}
		byKey[action.Key()] = len(actions)
		actions = append(actions, *action)
	}

	p.logger.Info("parsed corporate action notices",
		slog.Int("input", len(raws)),
		slog.Int("actions", len(actions)),
		slog.Int("skipped", recErrs.Skipped()),
		slog.Int("warnings", len(recErrs)-recErrs.Skipped()))

	return actions, recErrs
}

// parseExDate normalizes the exchange's DD-Mon-YYYY date text. Whitespace
// is trimmed but no other repair is attempted.
func parseExDate(text string) (time.Time, error) {
	return time.Parse(config.ExchangeDateFormat, strings.TrimSpace(text))
}

// extractAmount pulls the first cash amount out of the purpose text.
func extractAmount(purpose string) (float64, bool) {
	m := amountPattern.FindStringSubmatch(purpose)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// extractRatio pulls the first from:to ratio out of the purpose text.
// Ratios with a zero term are rejected; they cannot quantify anything.
func extractRatio(purpose string) (domain.Ratio, bool) {
	m := ratioPattern.FindStringSubmatch(purpose)
	if m == nil {
		return domain.Ratio{}, false
	}
	from, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return domain.Ratio{}, false
	}
	to, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return domain.Ratio{}, false
	}
	if from <= 0 || to <= 0 {
		return domain.Ratio{}, false
	}
	return domain.Ratio{From: from, To: to}, true
}
