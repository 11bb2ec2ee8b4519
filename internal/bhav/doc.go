// Package bhav parses NSE end-of-day bhavcopy files and merges them into a
// single deduplicated price dataset.
//
// Three file families exist. The legacy bhavcopy (cm<date>bhav.csv) and the
// delivery report (MTO_<date>.DAT) were discontinued by the exchange after
// 2024-07-04; the full bhavcopy (sec_bhavdata_full_<date>.csv) carries both
// price and delivery columns and supersedes them. Rows from the full
// bhavcopy win over legacy rows for the same (symbol, series, date).
package bhav
