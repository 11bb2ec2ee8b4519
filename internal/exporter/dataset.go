package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"nsecli/pkg/contracts/domain"
)

// storedDateFormat matches the layout internal/bhav reads back.
const storedDateFormat = "2006-01-02"

var combinedHeaders = []string{
	"SYMBOL", "SERIES", "DATE", "PREV_CLOSE", "OPEN", "HIGH", "LOW", "LAST",
	"CLOSE", "AVG", "VOLUME", "TURNOVER_LACS", "NO_OF_TRADES", "DELIV_QTY",
	"DELIV_PER", "SOURCE",
}

var adjustedHeaders = append(append([]string{}, combinedHeaders...), "ADJ_CLOSE")

var actionsHeaders = []string{
	"SYMBOL", "SERIES", "EX_DATE", "TYPE", "DIVIDEND_AMOUNT", "RATIO", "PURPOSE",
}

var discrepancyHeaders = []string{
	"SYMBOL", "DATE", "REF_CLOSE", "REF_ADJ_CLOSE", "COMPUTED_CLOSE",
	"COMPUTED_ADJ_CLOSE", "CLOSE_DIFF", "ADJ_CLOSE_DIFF",
}

var bulkStatsHeaders = []string{
	"SYMBOL", "DATE", "TOTAL_QUANTITY", "AVG_TRADE_PRICE", "DAY_OPEN",
	"DAY_CLOSE", "DAY_VOLUME", "DELIVERY_PCT", "SHARE_OF_VOLUME", "UP_DAY",
}

// WriteCombinedDataset streams the merged price dataset to its well-known
// report path.
func (w *CSVWriter) WriteCombinedDataset(rows []domain.PriceRow) error {
	sw, err := w.CreateStreamWriter(w.paths.CombinedDataCSV, combinedHeaders)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := sw.WriteRecord(priceRecord(row)); err != nil {
			sw.Close()
			return fmt.Errorf("failed to write dataset row for %s: %w", row.Symbol, err)
		}
	}
	return sw.Close()
}

// WriteAdjustedDataset streams the back-adjusted dataset.
func (w *CSVWriter) WriteAdjustedDataset(rows []domain.AdjustedPriceRow) error {
	sw, err := w.CreateStreamWriter(w.paths.AdjustedCSV, adjustedHeaders)
	if err != nil {
		return err
	}
	for _, row := range rows {
		record := append(priceRecord(row.PriceRow), formatFloat(row.AdjClose))
		if err := sw.WriteRecord(record); err != nil {
			sw.Close()
			return fmt.Errorf("failed to write adjusted row for %s: %w", row.Symbol, err)
		}
	}
	return sw.Close()
}

// WriteActionsAudit writes the corporate-actions audit CSV, including
// unknown and rights actions that never contribute factors.
func (w *CSVWriter) WriteActionsAudit(actions []domain.CorporateAction) error {
	records := make([][]string, 0, len(actions))
	for _, action := range actions {
		ratio := ""
		if action.Ratio != nil {
			ratio = action.Ratio.String()
		}
		amount := ""
		if action.DividendAmount > 0 {
			amount = formatFloat(action.DividendAmount)
		}
		records = append(records, []string{
			action.Symbol,
			action.Series,
			action.ExDate.Format(storedDateFormat),
			string(action.Type),
			amount,
			ratio,
			action.Purpose,
		})
	}
	return w.WriteSimpleCSV(w.paths.ActionsCSV, actionsHeaders, records)
}

// WriteDiscrepancies writes the per-date comparison records.
func (w *CSVWriter) WriteDiscrepancies(records []domain.DiscrepancyRecord) error {
	out := make([][]string, 0, len(records))
	for _, rec := range records {
		out = append(out, []string{
			rec.Symbol,
			rec.Date.Format(storedDateFormat),
			formatFloat(rec.ReferenceClose),
			formatFloat(rec.ReferenceAdjClose),
			formatFloat(rec.ComputedClose),
			formatFloat(rec.ComputedAdjClose),
			formatFloat(rec.CloseDiff),
			formatFloat(rec.AdjCloseDiff),
		})
	}
	return w.WriteSimpleCSV(w.paths.DiscrepancyCSV, discrepancyHeaders, out)
}

// WriteBulkDealStats writes the enriched bulk-deal aggregates.
func (w *CSVWriter) WriteBulkDealStats(stats []domain.BulkDealStats) error {
	records := make([][]string, 0, len(stats))
	for _, s := range stats {
		records = append(records, []string{
			s.Symbol,
			s.Date.Format(storedDateFormat),
			strconv.FormatInt(s.TotalQuantity, 10),
			formatFloat(s.AvgTradePrice),
			formatFloat(s.DayOpen),
			formatFloat(s.DayClose),
			strconv.FormatInt(s.DayVolume, 10),
			formatFloat(s.DeliveryPct),
			formatFloat(s.ShareOfVolume),
			strconv.FormatBool(s.UpDay),
		})
	}
	return w.WriteSimpleCSV(w.paths.BulkDealStatsCSV, bulkStatsHeaders, records)
}

func priceRecord(row domain.PriceRow) []string {
	return []string{
		row.Symbol,
		row.Series,
		row.Date.Format(storedDateFormat),
		formatFloat(row.PrevClose),
		formatFloat(row.Open),
		formatFloat(row.High),
		formatFloat(row.Low),
		formatFloat(row.Last),
		formatFloat(row.Close),
		formatFloat(row.Avg),
		strconv.FormatInt(row.Volume, 10),
		formatFloat(row.TurnoverLacs),
		strconv.FormatInt(row.NumTrades, 10),
		strconv.FormatInt(row.DeliveryQty, 10),
		formatFloat(row.DeliveryPct),
		string(row.Source),
	}
}

// ReadDiscrepancies loads a previously written discrepancy CSV back into
// records, tolerating the BOM its writer emits.
func ReadDiscrepancies(path string) ([]domain.DiscrepancyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open discrepancy report %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read discrepancy header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\xef\xbb\xbf")
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	get := func(record []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	var records []domain.DiscrepancyRecord
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read discrepancy row: %w", err)
		}
		date, err := time.Parse(storedDateFormat, get(record, "DATE"))
		if err != nil {
			return nil, fmt.Errorf("bad date in discrepancy report: %w", err)
		}
		records = append(records, domain.DiscrepancyRecord{
			Symbol:            get(record, "SYMBOL"),
			Date:              date,
			ReferenceClose:    parseCSVFloat(get(record, "REF_CLOSE")),
			ReferenceAdjClose: parseCSVFloat(get(record, "REF_ADJ_CLOSE")),
			ComputedClose:     parseCSVFloat(get(record, "COMPUTED_CLOSE")),
			ComputedAdjClose:  parseCSVFloat(get(record, "COMPUTED_ADJ_CLOSE")),
			CloseDiff:         parseCSVFloat(get(record, "CLOSE_DIFF")),
			AdjCloseDiff:      parseCSVFloat(get(record, "ADJ_CLOSE_DIFF")),
		})
	}
	return records, nil
}

func parseCSVFloat(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
