package bhav

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	apperrors "nsecli/internal/errors"
	"nsecli/pkg/contracts/domain"
)

// ParseFullBhav reads a sec_bhavdata_full_<date>.csv stream. The full
// bhavcopy carries delivery columns inline, with " -" placeholders on
// series that do not settle by delivery; those parse to zero.
func ParseFullBhav(r io.Reader) ([]domain.PriceRow, apperrors.RecordErrors) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.RecordErrors{*apperrors.NewParseError("", "header")}
	}
	cols := indexColumns(header)

	var rows []domain.PriceRow
	var recErrs apperrors.RecordErrors

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			recErrs = append(recErrs, *apperrors.NewParseError("", "csv record"))
			continue
		}

		symbol := field(record, cols, "SYMBOL")
		if symbol == "" {
			recErrs = append(recErrs, *apperrors.NewParseError(symbol, "symbol"))
			continue
		}

		date, err := parseLegacyDate(field(record, cols, "DATE1"))
		if err != nil {
			recErrs = append(recErrs, *apperrors.NewDateFormatError(symbol, field(record, cols, "DATE1"), err))
			continue
		}

		rows = append(rows, domain.PriceRow{
			Symbol:       symbol,
			Series:       field(record, cols, "SERIES"),
			Date:         date,
			PrevClose:    parseFloatField(record, cols, "PREV_CLOSE"),
			Open:         parseFloatField(record, cols, "OPEN_PRICE"),
			High:         parseFloatField(record, cols, "HIGH_PRICE"),
			Low:          parseFloatField(record, cols, "LOW_PRICE"),
			Last:         parseFloatField(record, cols, "LAST_PRICE"),
			Close:        parseFloatField(record, cols, "CLOSE_PRICE"),
			Avg:          parseFloatField(record, cols, "AVG_PRICE"),
			Volume:       parseIntField(record, cols, "TTL_TRD_QNTY"),
			TurnoverLacs: parseFloatField(record, cols, "TURNOVER_LACS"),
			NumTrades:    parseIntField(record, cols, "NO_OF_TRADES"),
			DeliveryQty:  parseIntField(record, cols, "DELIV_QTY"),
			DeliveryPct:  parseFloatField(record, cols, "DELIV_PER"),
			Source:       domain.SourceFullBhav,
		})
	}

	return rows, recErrs
}

// ParseFullBhavFile opens and parses one full bhavcopy.
func ParseFullBhavFile(path string) ([]domain.PriceRow, apperrors.RecordErrors, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open full bhavcopy %s: %w", path, err)
	}
	defer f.Close()
	rows, recErrs := ParseFullBhav(f)
	return rows, recErrs, nil
}
