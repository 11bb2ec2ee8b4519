package actions

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "nsecli/internal/errors"
	"nsecli/pkg/contracts/domain"
)

// ReadNotices reads the portal's CF-CA-equities CSV into raw notices.
// Column positions are resolved from the header, since the portal reorders
// columns between exports. Date and purpose text stay untouched here;
// ParseBatch owns their interpretation.
func ReadNotices(r io.Reader) ([]domain.RawActionNotice, apperrors.RecordErrors) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.RecordErrors{*apperrors.NewParseError("", "header")}
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToUpper(strings.Trim(strings.TrimSpace(name), `"`))] = i
	}

	col := func(record []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var notices []domain.RawActionNotice
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
		notices = append(notices, domain.RawActionNotice{
			Symbol:      col(record, "SYMBOL"),
			Series:      col(record, "SERIES"),
			ExDateText:  col(record, "EX-DATE"),
			PurposeText: col(record, "PURPOSE"),
		})
	}

	return notices, recErrs
}

// ReadNoticesFile opens and reads one corporate-actions CSV.
func ReadNoticesFile(path string) ([]domain.RawActionNotice, apperrors.RecordErrors, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open actions file %s: %w", path, err)
	}
	defer f.Close()
	notices, recErrs := ReadNotices(f)
	return notices, recErrs, nil
}
