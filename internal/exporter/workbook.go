package exporter

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"nsecli/internal/config"
	"nsecli/pkg/contracts/domain"
)

// WorkbookWriter exports the reference comparison as an Excel workbook:
// an overview sheet of per-symbol summaries plus one sheet per symbol with
// its matched dates.
type WorkbookWriter struct {
	paths *config.Paths
}

// NewWorkbookWriter creates a workbook writer.
func NewWorkbookWriter(paths *config.Paths) *WorkbookWriter {
	return &WorkbookWriter{paths: paths}
}

// WriteComparison writes the comparison workbook to its well-known report
// path.
func (w *WorkbookWriter) WriteComparison(summaries []domain.SymbolComparison, records []domain.DiscrepancyRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	const overview = "Overview"
	f.SetSheetName("Sheet1", overview)

	overviewHeaders := []string{
		"Symbol", "Matched Dates", "Mean AdjClose Diff", "Median AdjClose Diff",
		"Mean Close Diff", "Median Close Diff", "Within Tolerance", "Max AdjClose Diff",
	}
	for i, h := range overviewHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(overview, cell, h)
	}
	for i, s := range summaries {
		values := []interface{}{
			s.Symbol, s.MatchedDates, s.MeanAdjCloseDiff, s.MedianAdjCloseDiff,
			s.MeanCloseDiff, s.MedianCloseDiff, s.WithinTolerance, s.MaxAdjCloseDiff,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			f.SetCellValue(overview, cell, v)
		}
	}

	bySymbol := make(map[string][]domain.DiscrepancyRecord)
	for _, rec := range records {
		bySymbol[rec.Symbol] = append(bySymbol[rec.Symbol], rec)
	}

	detailHeaders := []string{
		"Date", "Ref Close", "Ref AdjClose", "Computed Close", "Computed AdjClose",
		"Close Diff", "AdjClose Diff",
	}
	for _, s := range summaries {
		sheet := s.Symbol
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
		for i, h := range detailHeaders {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}
		for i, rec := range bySymbol[s.Symbol] {
			values := []interface{}{
				rec.Date.Format(storedDateFormat),
				rec.ReferenceClose, rec.ReferenceAdjClose,
				rec.ComputedClose, rec.ComputedAdjClose,
				rec.CloseDiff, rec.AdjCloseDiff,
			}
			for j, v := range values {
				cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
				f.SetCellValue(sheet, cell, v)
			}
		}
	}

	if err := f.SaveAs(w.paths.ComparisonXLSX); err != nil {
		return fmt.Errorf("failed to save comparison workbook: %w", err)
	}

	slog.Info("Wrote comparison workbook",
		slog.String("path", w.paths.ComparisonXLSX),
		slog.Int("symbols", len(summaries)),
		slog.Int("records", len(records)))

	return nil
}
