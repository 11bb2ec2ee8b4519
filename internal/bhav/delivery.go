package bhav

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	apperrors "nsecli/internal/errors"
	"nsecli/pkg/contracts/domain"
)

// deliveryPreambleLines is the number of summary lines the exchange writes
// before the per-security records in an MTO file.
const deliveryPreambleLines = 4

// deliveryRecordType marks per-security rows; other record types in the
// file are totals.
const deliveryRecordType = "20"

// ParseDelivery reads an MTO_<date>.DAT stream. The file itself carries no
// trade date, so it comes from the caller (extracted from the filename).
func ParseDelivery(r io.Reader, date time.Time) ([]domain.DeliveryRow, apperrors.RecordErrors) {
	scanner := bufio.NewScanner(r)

	var rows []domain.DeliveryRow
	var recErrs apperrors.RecordErrors

	line := 0
	for scanner.Scan() {
		line++
		if line <= deliveryPreambleLines {
			continue
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		// Record layout: type, serial, symbol, series, traded qty,
		// deliverable qty, delivered percentage.
		parts := strings.Split(text, ",")
		if len(parts) < 7 || strings.TrimSpace(parts[0]) != deliveryRecordType {
			continue
		}

		symbol := strings.TrimSpace(parts[2])
		if symbol == "" {
			recErrs = append(recErrs, *apperrors.NewParseError(symbol, "symbol"))
			continue
		}

		rows = append(rows, domain.DeliveryRow{
			Symbol:      symbol,
			Series:      strings.TrimSpace(parts[3]),
			Date:        date,
			DeliveryQty: parseInt(parts[5]),
			DeliveryPct: parseFloat(parts[6]),
		})
	}

	return rows, recErrs
}

// ParseDeliveryFile opens and parses one MTO report; the trade date comes
// from the MTO_<DDMMYYYY>.DAT filename.
func ParseDeliveryFile(path string, date time.Time) ([]domain.DeliveryRow, apperrors.RecordErrors, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open delivery report %s: %w", path, err)
	}
	defer f.Close()
	rows, recErrs := ParseDelivery(f, date)
	return rows, recErrs, nil
}
