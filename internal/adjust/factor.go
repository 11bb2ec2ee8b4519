package adjust

import (
	"fmt"

	apperrors "nsecli/internal/errors"
	"nsecli/pkg/contracts/domain"
)

// Factor computes the multiplicative back-adjustment factor for a single
// corporate action, given the raw close of the last trading day strictly
// before the ex-date. It is a pure function with no I/O.
//
// Rights issues and unknown actions are metadata only and always return
// 1.0. A rejected factor returns 1.0 alongside the error so the caller can
// keep the series intact and count the rejection.
func Factor(action domain.CorporateAction, priorClose float64) (float64, *apperrors.RecordError) {
	switch action.Type {
	case domain.ActionDividend:
		if priorClose <= 0 {
			return 1.0, apperrors.NewInvalidFactorError(action.Symbol, action.ExDate,
				fmt.Sprintf("dividend with non-positive prior close %.2f", priorClose))
		}
		if action.DividendAmount >= priorClose {
			return 1.0, apperrors.NewInvalidFactorError(action.Symbol, action.ExDate,
				fmt.Sprintf("dividend %.2f >= prior close %.2f", action.DividendAmount, priorClose))
		}
		return (priorClose - action.DividendAmount) / priorClose, nil

	case domain.ActionSplit:
		r := action.Ratio
		if r == nil || r.From <= 0 || r.To <= 0 {
			return 1.0, apperrors.NewInvalidFactorError(action.Symbol, action.ExDate,
				"split without a usable ratio")
		}
		return float64(r.To) / float64(r.From), nil

	case domain.ActionBonus:
		r := action.Ratio
		if r == nil || r.From <= 0 || r.To <= 0 {
			return 1.0, apperrors.NewInvalidFactorError(action.Symbol, action.ExDate,
				"bonus without a usable ratio")
		}
		return float64(r.To) / float64(r.From+r.To), nil

	default:
		return 1.0, nil
	}
}
