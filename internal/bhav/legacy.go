package bhav

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "nsecli/internal/errors"
	"nsecli/pkg/contracts/domain"
)

// legacy bhavcopy TIMESTAMP appears in both four- and two-digit year forms
// depending on vintage.
var legacyDateLayouts = []string{"02-Jan-2006", "02-JAN-2006", "2-Jan-2006", "02-Jan-06"}

// ParseLegacyBhav reads a legacy cm<date>bhav.csv stream. The legacy format
// has no average price or delivery columns; the average is derived from
// turnover over volume and delivery fields stay zero until the MTO report
// is merged in. Bad rows are skipped and reported, never fatal.
func ParseLegacyBhav(r io.Reader) ([]domain.PriceRow, apperrors.RecordErrors) {
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
		series := field(record, cols, "SERIES")
		if symbol == "" {
			recErrs = append(recErrs, *apperrors.NewParseError(symbol, "symbol"))
			continue
		}

		date, err := parseLegacyDate(field(record, cols, "TIMESTAMP"))
		if err != nil {
			recErrs = append(recErrs, *apperrors.NewDateFormatError(symbol, field(record, cols, "TIMESTAMP"), err))
			continue
		}

		volume := parseIntField(record, cols, "TOTTRDQTY")
		turnover := parseFloatField(record, cols, "TOTTRDVAL")
		avg := 0.0
		if volume > 0 {
			avg = turnover / float64(volume)
		}

		rows = append(rows, domain.PriceRow{
			Symbol:       symbol,
			Series:       series,
			Date:         date,
			PrevClose:    parseFloatField(record, cols, "PREVCLOSE"),
			Open:         parseFloatField(record, cols, "OPEN"),
			High:         parseFloatField(record, cols, "HIGH"),
			Low:          parseFloatField(record, cols, "LOW"),
			Last:         parseFloatField(record, cols, "LAST"),
			Close:        parseFloatField(record, cols, "CLOSE"),
			Avg:          avg,
			Volume:       volume,
			TurnoverLacs: turnover / 1e5,
			NumTrades:    parseIntField(record, cols, "TOTALTRADES"),
			Source:       domain.SourceLegacyBhav,
		})
	}

	return rows, recErrs
}

// ParseLegacyBhavFile opens and parses one legacy bhavcopy.
func ParseLegacyBhavFile(path string) ([]domain.PriceRow, apperrors.RecordErrors, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open legacy bhavcopy %s: %w", path, err)
	}
	defer f.Close()
	rows, recErrs := ParseLegacyBhav(f)
	return rows, recErrs, nil
}

func parseLegacyDate(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	var lastErr error
	for _, layout := range legacyDateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}

// indexColumns maps upper-cased, trimmed header names to positions.
func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	return cols
}

func field(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseFloatField(record []string, cols map[string]int, name string) float64 {
	return parseFloat(field(record, cols, name))
}

func parseIntField(record []string, cols map[string]int, name string) int64 {
	return parseInt(field(record, cols, name))
}

// parseFloat reads a numeric value, treating the exchange's " -"
// placeholder (and anything else unparsable) as zero.
func parseFloat(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" {
		return 0
	}
	v, err := strconv.ParseInt(strings.ReplaceAll(raw, ",", ""), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
