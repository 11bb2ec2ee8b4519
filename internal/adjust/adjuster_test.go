package adjust

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsecli/internal/config"
	apperrors "nsecli/internal/errors"
	"nsecli/pkg/contracts/domain"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func priceRow(symbol string, date time.Time, close float64) domain.PriceRow {
	return domain.PriceRow{Symbol: symbol, Series: "EQ", Date: date, Close: close}
}

func newAdjuster() *CumulativeAdjuster {
	return NewCumulativeAdjuster(config.AdjustConfig{Workers: 2, RoundPrecision: 2}, nil)
}

func TestAdjustIdentityWithoutActions(t *testing.T) {
	rows := []domain.PriceRow{
		priceRow("AAA", day(1), 100),
		priceRow("AAA", day(2), 101.5),
		priceRow("AAA", day(3), 99.25),
	}

	adjusted, recErrs, err := newAdjuster().Adjust(context.Background(), rows, nil)
	require.NoError(t, err)
	assert.Empty(t, recErrs)
	require.Len(t, adjusted, 3)
	for i, row := range adjusted {
		assert.Equal(t, rows[i].Close, row.AdjClose, "row %d", i)
	}
}

func TestAdjustAppliesStrictlyBeforeExDate(t *testing.T) {
	rows := []domain.PriceRow{
		priceRow("AAA", day(1), 100),
		priceRow("AAA", day(2), 100),
		priceRow("AAA", day(3), 50),
	}
	actions := []domain.CorporateAction{{
		Symbol: "AAA",
		ExDate: day(3),
		Type:   domain.ActionSplit,
		Ratio:  &domain.Ratio{From: 2, To: 1},
	}}

	adjusted, recErrs, err := newAdjuster().Adjust(context.Background(), rows, actions)
	require.NoError(t, err)
	assert.Empty(t, recErrs)
	require.Len(t, adjusted, 3)
	assert.Equal(t, 50.0, adjusted[0].AdjClose)
	assert.Equal(t, 50.0, adjusted[1].AdjClose)
	// The ex-date row itself is untouched.
	assert.Equal(t, 50.0, adjusted[2].AdjClose)
	assert.Equal(t, 100.0, adjusted[1].Close)
}

func TestAdjustComposesFactors(t *testing.T) {
	// A 1:1 bonus (0.5) on day 4 and a 2:1 reverse-style split factor on
	// day 2 compose to 0.25 for rows before both ex-dates.
	rows := []domain.PriceRow{
		priceRow("AAA", day(1), 400),
		priceRow("AAA", day(2), 200),
		priceRow("AAA", day(3), 200),
		priceRow("AAA", day(4), 100),
	}
	actions := []domain.CorporateAction{
		{Symbol: "AAA", ExDate: day(4), Type: domain.ActionBonus, Ratio: &domain.Ratio{From: 1, To: 1}},
		{Symbol: "AAA", ExDate: day(2), Type: domain.ActionSplit, Ratio: &domain.Ratio{From: 2, To: 1}},
	}

	adjusted, recErrs, err := newAdjuster().Adjust(context.Background(), rows, actions)
	require.NoError(t, err)
	assert.Empty(t, recErrs)
	assert.Equal(t, 100.0, adjusted[0].AdjClose) // 400 * 0.5 * 0.5
	assert.Equal(t, 100.0, adjusted[1].AdjClose) // 200 * 0.5
	assert.Equal(t, 100.0, adjusted[2].AdjClose)
	assert.Equal(t, 100.0, adjusted[3].AdjClose)
}

func TestAdjustDividendUsesPriorClose(t *testing.T) {
	rows := []domain.PriceRow{
		priceRow("AAA", day(1), 95),
		priceRow("AAA", day(2), 100),
		priceRow("AAA", day(3), 90),
	}
	actions := []domain.CorporateAction{{
		Symbol:         "AAA",
		ExDate:         day(3),
		Type:           domain.ActionDividend,
		DividendAmount: 10,
	}}

	adjusted, recErrs, err := newAdjuster().Adjust(context.Background(), rows, actions)
	require.NoError(t, err)
	assert.Empty(t, recErrs)
	// Factor = (100-10)/100 = 0.9 from the day-2 close.
	assert.Equal(t, 85.5, adjusted[0].AdjClose)
	assert.Equal(t, 90.0, adjusted[1].AdjClose)
	assert.Equal(t, 90.0, adjusted[2].AdjClose)
}

func TestAdjustSameDateActionsCommute(t *testing.T) {
	rows := []domain.PriceRow{
		priceRow("AAA", day(1), 100),
		priceRow("AAA", day(2), 100),
	}
	split := domain.CorporateAction{Symbol: "AAA", ExDate: day(2), Type: domain.ActionSplit, Ratio: &domain.Ratio{From: 2, To: 1}}
	bonus := domain.CorporateAction{Symbol: "AAA", ExDate: day(2), Type: domain.ActionBonus, Ratio: &domain.Ratio{From: 1, To: 1}}

	a, _, err := newAdjuster().Adjust(context.Background(), rows, []domain.CorporateAction{split, bonus})
	require.NoError(t, err)
	b, _, err := newAdjuster().Adjust(context.Background(), rows, []domain.CorporateAction{bonus, split})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 25.0, a[0].AdjClose)
}

func TestAdjustRejectedFactorLeavesSeriesIntact(t *testing.T) {
	rows := []domain.PriceRow{
		priceRow("AAA", day(1), 5),
		priceRow("AAA", day(2), 5),
	}
	actions := []domain.CorporateAction{{
		Symbol:         "AAA",
		ExDate:         day(2),
		Type:           domain.ActionDividend,
		DividendAmount: 10, // exceeds the prior close
	}}

	adjusted, recErrs, err := newAdjuster().Adjust(context.Background(), rows, actions)
	require.NoError(t, err)
	require.Len(t, recErrs, 1)
	assert.Equal(t, apperrors.KindInvalidFactor, recErrs[0].Kind)
	assert.Equal(t, 5.0, adjusted[0].AdjClose)
}

func TestAdjustActionWithoutPriorHistoryIsNoOp(t *testing.T) {
	rows := []domain.PriceRow{
		priceRow("AAA", day(5), 100),
	}
	actions := []domain.CorporateAction{{
		Symbol: "AAA",
		ExDate: day(2),
		Type:   domain.ActionSplit,
		Ratio:  &domain.Ratio{From: 2, To: 1},
	}}

	adjusted, recErrs, err := newAdjuster().Adjust(context.Background(), rows, actions)
	require.NoError(t, err)
	assert.Empty(t, recErrs)
	assert.Equal(t, 100.0, adjusted[0].AdjClose)
}

func TestAdjustSymbolsAreIndependent(t *testing.T) {
	rows := []domain.PriceRow{
		priceRow("AAA", day(1), 100),
		priceRow("AAA", day(2), 50),
		priceRow("BBB", day(1), 200),
		priceRow("BBB", day(2), 200),
	}
	actions := []domain.CorporateAction{{
		Symbol: "AAA",
		ExDate: day(2),
		Type:   domain.ActionSplit,
		Ratio:  &domain.Ratio{From: 2, To: 1},
	}}

	adjusted, _, err := newAdjuster().Adjust(context.Background(), rows, actions)
	require.NoError(t, err)
	require.Len(t, adjusted, 4)
	assert.Equal(t, "AAA", adjusted[0].Symbol)
	assert.Equal(t, 50.0, adjusted[0].AdjClose)
	assert.Equal(t, "BBB", adjusted[2].Symbol)
	assert.Equal(t, 200.0, adjusted[2].AdjClose)
	assert.Equal(t, 200.0, adjusted[3].AdjClose)
}

func TestAdjustDeterministicAcrossWorkerCounts(t *testing.T) {
	var rows []domain.PriceRow
	var actions []domain.CorporateAction
	symbols := []string{"AAA", "BBB", "CCC", "DDD", "EEE"}
	for _, symbol := range symbols {
		for d := 1; d <= 10; d++ {
			rows = append(rows, priceRow(symbol, day(d), float64(100+d)))
		}
		actions = append(actions, domain.CorporateAction{
			Symbol:         symbol,
			ExDate:         day(6),
			Type:           domain.ActionDividend,
			DividendAmount: 5,
		})
	}

	serial := NewCumulativeAdjuster(config.AdjustConfig{Workers: 1, RoundPrecision: 2}, nil)
	parallel := NewCumulativeAdjuster(config.AdjustConfig{Workers: 8, RoundPrecision: 2}, nil)

	a, _, err := serial.Adjust(context.Background(), rows, actions)
	require.NoError(t, err)
	b, _, err := parallel.Adjust(context.Background(), rows, actions)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAdjustIsIdempotentOnActionFreeRerun(t *testing.T) {
	rows := []domain.PriceRow{
		priceRow("AAA", day(1), 100),
		priceRow("AAA", day(2), 50),
	}
	actions := []domain.CorporateAction{{
		Symbol: "AAA",
		ExDate: day(2),
		Type:   domain.ActionSplit,
		Ratio:  &domain.Ratio{From: 2, To: 1},
	}}

	first, _, err := newAdjuster().Adjust(context.Background(), rows, actions)
	require.NoError(t, err)
	second, _, err := newAdjuster().Adjust(context.Background(), rows, actions)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAdjustEndToEndSplitScenario(t *testing.T) {
	// A 10:2 face value split on day 4: every close before the ex-date is
	// scaled by 0.2 so the series is continuous across the split.
	rows := []domain.PriceRow{
		priceRow("WIPRO", day(1), 500),
		priceRow("WIPRO", day(2), 510),
		priceRow("WIPRO", day(3), 505),
		priceRow("WIPRO", day(4), 101),
		priceRow("WIPRO", day(5), 102),
	}
	actions := []domain.CorporateAction{{
		Symbol: "WIPRO",
		ExDate: day(4),
		Type:   domain.ActionSplit,
		Ratio:  &domain.Ratio{From: 10, To: 2},
	}}

	adjusted, recErrs, err := newAdjuster().Adjust(context.Background(), rows, actions)
	require.NoError(t, err)
	assert.Empty(t, recErrs)
	want := []float64{100, 102, 101, 101, 102}
	for i, row := range adjusted {
		assert.Equal(t, want[i], row.AdjClose, "day %d", i+1)
	}
}
