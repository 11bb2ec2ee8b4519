package bulkdeals

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsecli/pkg/contracts/domain"
)

const dealsSample = `Date,Symbol,Security Name,Client Name,Buy/Sell,Quantity Traded,Trade Price / Wght. Avg. Price,Remarks
03-Jun-2024,RELIANCE,Reliance Industries,BIG FUND LLP,BUY,"1,00,000",2930.00,-
03-Jun-2024,RELIANCE,Reliance Industries,OTHER FUND,SELL,"3,00,000",2940.00,-
04-Jun-2024,TCS,Tata Consultancy,SOME DESK,BUY,"50,000",3800.00,-
bad-date-row,TCS,Tata Consultancy,SOME DESK,BUY,"50,000",3800.00,-
`

func day(m, d int) time.Time {
	return time.Date(2024, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestParseDeals(t *testing.T) {
	deals, recErrs := ParseDeals(strings.NewReader(dealsSample))
	require.Len(t, deals, 3)
	require.Len(t, recErrs, 1)

	d := deals[0]
	assert.Equal(t, "RELIANCE", d.Symbol)
	assert.Equal(t, day(6, 3), d.Date)
	assert.Equal(t, "BUY", d.BuySell)
	assert.Equal(t, int64(100000), d.Quantity)
	assert.Equal(t, 2930.0, d.TradePrice)
}

func TestAggregate(t *testing.T) {
	deals, _ := ParseDeals(strings.NewReader(dealsSample))
	prices := []domain.PriceRow{
		{Symbol: "RELIANCE", Series: "EQ", Date: day(6, 3), Open: 2900, Close: 2940.5, Volume: 1000000, DeliveryPct: 45},
		{Symbol: "TCS", Series: "EQ", Date: day(6, 4), Open: 3820, Close: 3805, Volume: 500000},
	}

	stats := Aggregate(deals, prices)
	require.Len(t, stats, 2)

	rel := stats[0]
	assert.Equal(t, "RELIANCE", rel.Symbol)
	assert.Equal(t, int64(400000), rel.TotalQuantity)
	// Weighted: (100000*2930 + 300000*2940) / 400000
	assert.InDelta(t, 2937.5, rel.AvgTradePrice, 1e-9)
	assert.InDelta(t, 0.4, rel.ShareOfVolume, 1e-9)
	assert.True(t, rel.UpDay)
	assert.Equal(t, 45.0, rel.DeliveryPct)

	tcs := stats[1]
	assert.Equal(t, "TCS", tcs.Symbol)
	assert.False(t, tcs.UpDay)
}

func TestAggregateDropsDealsWithoutPriceRow(t *testing.T) {
	deals := []domain.BulkDeal{{Symbol: "NOPRICE", Date: day(6, 3), Quantity: 10, TradePrice: 1}}
	stats := Aggregate(deals, nil)
	assert.Empty(t, stats)
}
