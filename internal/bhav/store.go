package bhav

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"nsecli/pkg/contracts/domain"
)

// StoredDateFormat is the date layout of the pipeline's own CSV outputs,
// distinct from the exchange's DD-Mon-YYYY input layout.
const StoredDateFormat = "2006-01-02"

// ReadCombinedCSV loads a previously exported merged dataset. Unlike the
// exchange-file parsers this is strict: the file is ours, so a malformed
// row means a corrupt export and fails the load.
func ReadCombinedCSV(path string) ([]domain.PriceRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open combined dataset %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read combined dataset header: %w", err)
	}
	cols := indexColumns(header)

	var rows []domain.PriceRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read combined dataset row: %w", err)
		}
		row, err := priceRowFromRecord(record, cols)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadAdjustedCSV loads a previously exported adjusted dataset.
func ReadAdjustedCSV(path string) ([]domain.AdjustedPriceRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open adjusted dataset %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read adjusted dataset header: %w", err)
	}
	cols := indexColumns(header)

	var rows []domain.AdjustedPriceRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read adjusted dataset row: %w", err)
		}
		row, err := priceRowFromRecord(record, cols)
		if err != nil {
			return nil, err
		}
		rows = append(rows, domain.AdjustedPriceRow{
			PriceRow: row,
			AdjClose: parseFloatField(record, cols, "ADJ_CLOSE"),
		})
	}
	return rows, nil
}

func priceRowFromRecord(record []string, cols map[string]int) (domain.PriceRow, error) {
	symbol := field(record, cols, "SYMBOL")
	dateText := field(record, cols, "DATE")
	date, err := time.Parse(StoredDateFormat, dateText)
	if err != nil {
		return domain.PriceRow{}, fmt.Errorf("bad date %q for %s: %w", dateText, symbol, err)
	}
	return domain.PriceRow{
		Symbol:       symbol,
		Series:       field(record, cols, "SERIES"),
		Date:         date,
		PrevClose:    parseFloatField(record, cols, "PREV_CLOSE"),
		Open:         parseFloatField(record, cols, "OPEN"),
		High:         parseFloatField(record, cols, "HIGH"),
		Low:          parseFloatField(record, cols, "LOW"),
		Last:         parseFloatField(record, cols, "LAST"),
		Close:        parseFloatField(record, cols, "CLOSE"),
		Avg:          parseFloatField(record, cols, "AVG"),
		Volume:       parseIntField(record, cols, "VOLUME"),
		TurnoverLacs: parseFloatField(record, cols, "TURNOVER_LACS"),
		NumTrades:    parseIntField(record, cols, "NO_OF_TRADES"),
		DeliveryQty:  parseIntField(record, cols, "DELIV_QTY"),
		DeliveryPct:  parseFloatField(record, cols, "DELIV_PER"),
		Source:       domain.DataSource(field(record, cols, "SOURCE")),
	}, nil
}
