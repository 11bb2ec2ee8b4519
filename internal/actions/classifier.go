package actions

import (
	"strings"

	"nsecli/pkg/contracts/domain"
)

// Decision is the outcome of classifying one purpose text. Ambiguous
// decisions still resolve to a single type; the flag exists so callers can
// surface the resolution as a warning without dropping the record.
type Decision struct {
	Type      domain.ActionType
	Ambiguous bool
	Reason    string
}

// keywordRule maps a purpose-text keyword to an action type. Rules are
// checked in order; the order is the conflict-resolution policy when a
// notice carries more than one keyword.
type keywordRule struct {
	keyword string
	action  domain.ActionType
}

var keywordRules = []keywordRule{
	{"DIVIDEND", domain.ActionDividend},
	{"BONUS", domain.ActionBonus},
	{"SPLIT", domain.ActionSplit},
	{"SUB-DIVISION", domain.ActionSplit},
	{"SUBDIVISION", domain.ActionSplit},
	{"RIGHTS", domain.ActionRights},
}

// Classify resolves a purpose text plus its extracted quantities to one
// action type.
//
// Explicit keywords always beat inference from the quantities. When no
// keyword is present: a ratio alone means Bonus (NSE splits always announce
// themselves; an unannounced ratio is a bonus issue), an amount alone means
// Dividend, both together resolve to Dividend and are flagged ambiguous,
// and neither yields Unknown, which is retained for audit but never
// quantified.
//
// A keyword whose required quantity is missing (DIVIDEND without an amount,
// SPLIT or BONUS without a ratio) also yields Unknown: the type is known but
// the event cannot be quantified, and a wrong factor is worse than none.
func Classify(purpose string, hasAmount, hasRatio bool) Decision {
	upper := strings.ToUpper(purpose)

	var hits []domain.ActionType
	for _, rule := range keywordRules {
		if strings.Contains(upper, rule.keyword) {
			if len(hits) > 0 && hits[len(hits)-1] == rule.action {
				continue
			}
			hits = append(hits, rule.action)
		}
	}

	if len(hits) > 0 {
		decision := Decision{Type: hits[0]}
		if len(hits) > 1 {
			decision.Ambiguous = true
			decision.Reason = "multiple action keywords; first by precedence wins"
		}
		return quantify(decision, hasAmount, hasRatio)
	}

	switch {
	case hasAmount && hasRatio:
		return Decision{
			Type:      domain.ActionDividend,
			Ambiguous: true,
			Reason:    "amount and ratio with no keyword; dividend assumed",
		}
	case hasRatio:
		return Decision{Type: domain.ActionBonus}
	case hasAmount:
		return Decision{Type: domain.ActionDividend}
	default:
		return Decision{Type: domain.ActionUnknown}
	}
}

// quantify demotes a keyword-classified decision to Unknown when the
// quantity that type needs was not extracted.
func quantify(d Decision, hasAmount, hasRatio bool) Decision {
	switch d.Type {
	case domain.ActionDividend:
		if !hasAmount {
			return Decision{Type: domain.ActionUnknown, Ambiguous: true,
				Reason: "dividend keyword without a parsable amount"}
		}
	case domain.ActionSplit, domain.ActionBonus:
		if !hasRatio {
			return Decision{Type: domain.ActionUnknown, Ambiguous: true,
				Reason: string(d.Type) + " keyword without a parsable ratio"}
		}
	}
	return d
}
