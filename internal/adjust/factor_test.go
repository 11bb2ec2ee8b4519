package adjust

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "nsecli/internal/errors"
	"nsecli/pkg/contracts/domain"
)

func exDate() time.Time {
	return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
}

func TestFactorDividend(t *testing.T) {
	tests := []struct {
		name       string
		amount     float64
		priorClose float64
		want       float64
		wantErr    bool
	}{
		{name: "ordinary dividend", amount: 10, priorClose: 100, want: 0.9},
		{name: "small dividend", amount: 2.5, priorClose: 1000, want: 0.9975},
		{name: "amount equals prior close", amount: 100, priorClose: 100, wantErr: true},
		{name: "amount above prior close", amount: 150, priorClose: 100, wantErr: true},
		{name: "zero prior close", amount: 5, priorClose: 0, wantErr: true},
		{name: "negative prior close", amount: 5, priorClose: -10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action := domain.CorporateAction{
				Symbol:         "AAA",
				ExDate:         exDate(),
				Type:           domain.ActionDividend,
				DividendAmount: tt.amount,
			}
			got, recErr := Factor(action, tt.priorClose)
			if tt.wantErr {
				require.NotNil(t, recErr)
				assert.Equal(t, apperrors.KindInvalidFactor, recErr.Kind)
				assert.Equal(t, 1.0, got)
				return
			}
			require.Nil(t, recErr)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.Greater(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestFactorSplit(t *testing.T) {
	action := domain.CorporateAction{
		Symbol: "AAA",
		ExDate: exDate(),
		Type:   domain.ActionSplit,
		Ratio:  &domain.Ratio{From: 10, To: 2},
	}
	got, recErr := Factor(action, 500)
	require.Nil(t, recErr)
	assert.InDelta(t, 0.2, got, 1e-12)

	action.Ratio = nil
	got, recErr = Factor(action, 500)
	require.NotNil(t, recErr)
	assert.Equal(t, 1.0, got)
}

func TestFactorBonus(t *testing.T) {
	action := domain.CorporateAction{
		Symbol: "AAA",
		ExDate: exDate(),
		Type:   domain.ActionBonus,
		Ratio:  &domain.Ratio{From: 1, To: 1},
	}
	got, recErr := Factor(action, 500)
	require.Nil(t, recErr)
	assert.InDelta(t, 0.5, got, 1e-12)

	action.Ratio = &domain.Ratio{From: 1, To: 4}
	got, recErr = Factor(action, 500)
	require.Nil(t, recErr)
	assert.InDelta(t, 0.8, got, 1e-12)

	action.Ratio = &domain.Ratio{From: 0, To: 4}
	_, recErr = Factor(action, 500)
	require.NotNil(t, recErr)
}

func TestFactorMetadataOnlyTypes(t *testing.T) {
	for _, typ := range []domain.ActionType{domain.ActionRights, domain.ActionUnknown} {
		action := domain.CorporateAction{Symbol: "AAA", ExDate: exDate(), Type: typ}
		got, recErr := Factor(action, 500)
		assert.Nil(t, recErr)
		assert.Equal(t, 1.0, got)
	}
}

func TestFactorIgnoresPriorCloseForRatioTypes(t *testing.T) {
	// Split and bonus factors depend only on the ratio.
	action := domain.CorporateAction{
		Symbol: "AAA",
		ExDate: exDate(),
		Type:   domain.ActionSplit,
		Ratio:  &domain.Ratio{From: 5, To: 1},
	}
	a, _ := Factor(action, 10)
	b, _ := Factor(action, 10000)
	assert.Equal(t, a, b)
}
