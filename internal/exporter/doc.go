// Package exporter writes the pipeline's outputs: merged and adjusted price
// CSVs, the corporate-actions audit trail, discrepancy reports, and the
// Excel comparison workbook.
package exporter
