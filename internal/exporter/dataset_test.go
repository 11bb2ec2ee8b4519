package exporter

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsecli/internal/bhav"
	"nsecli/internal/config"
	"nsecli/pkg/contracts/domain"
)

func testWriter(t *testing.T) (*CSVWriter, *config.Paths) {
	t.Helper()
	paths := config.PathsAt(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())
	return NewCSVWriter(paths), paths
}

func samplePriceRow() domain.PriceRow {
	return domain.PriceRow{
		Symbol:       "RELIANCE",
		Series:       "EQ",
		Date:         time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		PrevClose:    2895,
		Open:         2900,
		High:         2950,
		Low:          2890,
		Last:         2941,
		Close:        2940.5,
		Avg:          2925,
		Volume:       1000000,
		TurnoverLacs: 29250,
		NumTrades:    45000,
		DeliveryQty:  450000,
		DeliveryPct:  45,
		Source:       domain.SourceLegacyBhav,
	}
}

func TestWriteCombinedDatasetRoundTrip(t *testing.T) {
	w, paths := testWriter(t)
	in := []domain.PriceRow{samplePriceRow()}

	require.NoError(t, w.WriteCombinedDataset(in))

	out, err := bhav.ReadCombinedCSV(paths.CombinedDataCSV)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in[0], out[0])
}

func TestWriteAdjustedDatasetRoundTrip(t *testing.T) {
	w, paths := testWriter(t)
	in := []domain.AdjustedPriceRow{{PriceRow: samplePriceRow(), AdjClose: 2205.38}}

	require.NoError(t, w.WriteAdjustedDataset(in))

	out, err := bhav.ReadAdjustedCSV(paths.AdjustedCSV)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in[0], out[0])
}

func TestWriteActionsAudit(t *testing.T) {
	w, paths := testWriter(t)
	actions := []domain.CorporateAction{
		{
			Symbol:         "RELIANCE",
			Series:         "EQ",
			ExDate:         time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC),
			Type:           domain.ActionDividend,
			DividendAmount: 10,
			Purpose:        "DIVIDEND - RS 10 PER SHARE",
		},
		{
			Symbol:  "WIPRO",
			Series:  "EQ",
			ExDate:  time.Date(2023, 12, 20, 0, 0, 0, 0, time.UTC),
			Type:    domain.ActionSplit,
			Ratio:   &domain.Ratio{From: 10, To: 2},
			Purpose: "FACE VALUE SPLIT 10:2",
		},
	}

	require.NoError(t, w.WriteActionsAudit(actions))
	assert.FileExists(t, paths.ActionsCSV)
}

func TestRunMetadataRoundTrip(t *testing.T) {
	_, paths := testWriter(t)
	meta := domain.RunMetadata{
		ID:        uuid.NewString(),
		StartedAt: time.Date(2024, 8, 5, 6, 0, 0, 0, time.UTC),
		Status:    domain.RunStatusCompleted,
		PriceRows: 1234,
		Symbols:   42,
	}

	require.NoError(t, WriteRunMetadata(paths, meta))
	got, err := ReadRunMetadata(paths)
	require.NoError(t, err)
	assert.Equal(t, meta.ID, got.ID)
	assert.Equal(t, meta.PriceRows, got.PriceRows)
	assert.Equal(t, domain.RunStatusCompleted, got.Status)
}

func TestWriteDiscrepanciesRoundTrip(t *testing.T) {
	w, paths := testWriter(t)
	in := []domain.DiscrepancyRecord{{
		Symbol:            "RELIANCE",
		Date:              time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		ReferenceClose:    2940.5,
		ReferenceAdjClose: 2205.38,
		ComputedClose:     2940.5,
		ComputedAdjClose:  2205.37,
		CloseDiff:         0,
		AdjCloseDiff:      0.01,
	}}

	require.NoError(t, w.WriteDiscrepancies(in))
	out, err := ReadDiscrepancies(paths.DiscrepancyCSV)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in[0], out[0])
}

func TestWorkbookWriter(t *testing.T) {
	_, paths := testWriter(t)
	summaries := []domain.SymbolComparison{{
		Symbol:          "RELIANCE",
		MatchedDates:    1,
		WithinTolerance: 1,
	}}
	records := []domain.DiscrepancyRecord{{
		Symbol: "RELIANCE",
		Date:   time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
	}}

	require.NoError(t, NewWorkbookWriter(paths).WriteComparison(summaries, records))
	assert.FileExists(t, paths.ComparisonXLSX)
}
