package bhav

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "nsecli/internal/errors"
	"nsecli/pkg/contracts/domain"
)

const legacySample = `SYMBOL,SERIES,OPEN,HIGH,LOW,CLOSE,LAST,PREVCLOSE,TOTTRDQTY,TOTTRDVAL,TIMESTAMP,TOTALTRADES,ISIN
RELIANCE,EQ,2900.00,2950.00,2890.00,2940.50,2941.00,2895.00,1000000,2925000000.00,03-Jun-2024,45000,INE002A01018
TCS,EQ,3800.00,3820.00,3780.00,3805.25,3806.00,3790.00,500000,1900000000.00,03-Jun-2024,22000,INE467B01029
BADROW,EQ,1.00,1.00,1.00,1.00,1.00,1.00,10,10.00,garbage-date,1,X
`

const fullSample = `SYMBOL, SERIES, DATE1, PREV_CLOSE, OPEN_PRICE, HIGH_PRICE, LOW_PRICE, LAST_PRICE, CLOSE_PRICE, AVG_PRICE, TTL_TRD_QNTY, TURNOVER_LACS, NO_OF_TRADES, DELIV_QTY, DELIV_PER
RELIANCE, EQ, 05-Aug-2024, 2940.50, 2950.00, 2980.00, 2930.00, 2975.00, 2976.25, 2960.10, 1200000, 35521.20, 48000, 600000, 50.00
SBIN, BE, 05-Aug-2024, 800.00, 805.00, 810.00, 798.00, 802.00, 801.50, 803.20, 50000, 401.60, 1200, -, -
`

const mtoSample = `Date, 03062024
Security Wise Delivery Position - Compulsory Rolling Settlement
Record Type, Sr No, Name of Security, Quantity Traded, Deliverable Quantity, % of Deliverable Quantity to Traded Quantity
-------------------------------------------------------------------------------
20,1,RELIANCE,EQ,1000000,450000,45.00
20,2,TCS,EQ,500000,300000,60.00
`

func TestParseLegacyBhav(t *testing.T) {
	rows, recErrs := ParseLegacyBhav(strings.NewReader(legacySample))
	require.Len(t, rows, 2)
	require.Len(t, recErrs, 1)
	assert.Equal(t, apperrors.KindDateFormat, recErrs[0].Kind)

	r := rows[0]
	assert.Equal(t, "RELIANCE", r.Symbol)
	assert.Equal(t, "EQ", r.Series)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), r.Date)
	assert.Equal(t, 2940.50, r.Close)
	assert.Equal(t, int64(1000000), r.Volume)
	assert.InDelta(t, 2925.0, r.Avg, 1e-9) // turnover / volume
	assert.InDelta(t, 29250.0, r.TurnoverLacs, 1e-9)
	assert.Equal(t, domain.SourceLegacyBhav, r.Source)
	assert.Zero(t, r.DeliveryQty)
}

func TestParseLegacyBhavTwoDigitYear(t *testing.T) {
	sample := "SYMBOL,SERIES,OPEN,HIGH,LOW,CLOSE,LAST,PREVCLOSE,TOTTRDQTY,TOTTRDVAL,TIMESTAMP,TOTALTRADES,ISIN\n" +
		"X,EQ,1,1,1,1,1,1,1,1,03-Jun-24,1,I\n"
	rows, recErrs := ParseLegacyBhav(strings.NewReader(sample))
	require.Empty(t, recErrs)
	require.Len(t, rows, 1)
	assert.Equal(t, 2024, rows[0].Date.Year())
}

func TestParseFullBhav(t *testing.T) {
	rows, recErrs := ParseFullBhav(strings.NewReader(fullSample))
	require.Empty(t, recErrs)
	require.Len(t, rows, 2)

	r := rows[0]
	assert.Equal(t, "RELIANCE", r.Symbol)
	assert.Equal(t, time.Date(2024, 8, 5, 0, 0, 0, 0, time.UTC), r.Date)
	assert.Equal(t, 2976.25, r.Close)
	assert.Equal(t, 2960.10, r.Avg)
	assert.Equal(t, int64(600000), r.DeliveryQty)
	assert.Equal(t, 50.0, r.DeliveryPct)
	assert.Equal(t, domain.SourceFullBhav, r.Source)

	// " -" delivery placeholders on non-delivery series parse to zero.
	assert.Zero(t, rows[1].DeliveryQty)
	assert.Zero(t, rows[1].DeliveryPct)
}

func TestParseDelivery(t *testing.T) {
	date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	rows, recErrs := ParseDelivery(strings.NewReader(mtoSample), date)
	require.Empty(t, recErrs)
	require.Len(t, rows, 2)

	assert.Equal(t, "RELIANCE", rows[0].Symbol)
	assert.Equal(t, "EQ", rows[0].Series)
	assert.Equal(t, date, rows[0].Date)
	assert.Equal(t, int64(450000), rows[0].DeliveryQty)
	assert.Equal(t, 45.0, rows[0].DeliveryPct)
}

func TestDatasetMerge(t *testing.T) {
	legacyRows, _ := ParseLegacyBhav(strings.NewReader(legacySample))
	date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	deliveryRows, _ := ParseDelivery(strings.NewReader(mtoSample), date)

	ds := NewDataset()
	ds.AddPriceRows(legacyRows)
	ds.AddDeliveryRows(deliveryRows)

	rows := ds.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, int64(450000), rows[0].DeliveryQty)
	assert.Equal(t, 45.0, rows[0].DeliveryPct)
	assert.Equal(t, []string{"RELIANCE", "TCS"}, ds.Symbols())
}

func TestDatasetFullBhavWinsOverLegacy(t *testing.T) {
	date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	legacy := domain.PriceRow{Symbol: "RELIANCE", Series: "EQ", Date: date, Close: 100, Source: domain.SourceLegacyBhav}
	full := domain.PriceRow{Symbol: "RELIANCE", Series: "EQ", Date: date, Close: 101, Source: domain.SourceFullBhav}

	ds := NewDataset()
	ds.AddPriceRows([]domain.PriceRow{legacy})
	ds.AddPriceRows([]domain.PriceRow{full})
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, 101.0, ds.Rows()[0].Close)

	// Order must not matter: a legacy row never overwrites a full row.
	ds = NewDataset()
	ds.AddPriceRows([]domain.PriceRow{full})
	ds.AddPriceRows([]domain.PriceRow{legacy})
	assert.Equal(t, 101.0, ds.Rows()[0].Close)
}

func TestDatasetReplacementKeepsDeliveryFields(t *testing.T) {
	date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	legacy := domain.PriceRow{Symbol: "X", Series: "EQ", Date: date, Close: 100, Source: domain.SourceLegacyBhav}

	ds := NewDataset()
	ds.AddPriceRows([]domain.PriceRow{legacy})
	ds.AddDeliveryRows([]domain.DeliveryRow{{Symbol: "X", Series: "EQ", Date: date, DeliveryQty: 10, DeliveryPct: 1}})

	// A corrected republish without delivery data inherits the joined
	// delivery fields.
	ds.AddPriceRows([]domain.PriceRow{{Symbol: "X", Series: "EQ", Date: date, Close: 101, Source: domain.SourceLegacyBhav}})
	row := ds.Rows()[0]
	assert.Equal(t, 101.0, row.Close)
	assert.Equal(t, int64(10), row.DeliveryQty)
}
