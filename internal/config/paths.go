package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Paths contains all the application paths.
// This is the single source of truth for ALL file paths in the application.
type Paths struct {
	ExecutableDir string
	DataDir       string
	DownloadsDir  string
	ReportsDir    string
	CacheDir      string
	LogsDir       string

	// Download subdirectories, one per NSE archive type
	LegacyBhavDir string // cm*bhav.csv(.zip)
	DeliveryDir   string // MTO_*.DAT
	FullBhavDir   string // sec_bhavdata_full_*.csv
	ActionsDir    string // CF-CA-equities*.csv
	BulkDealsDir  string // bulk-deals CSVs
	ReferenceDir  string // cached reference series

	// Well-known output files
	CombinedDataCSV  string
	AdjustedCSV      string
	ActionsCSV       string
	DiscrepancyCSV   string
	ComparisonXLSX   string
	BulkDealStatsCSV string
	RunMetadataJSON  string
}

// GetPaths returns the application paths relative to the executable location.
// All paths are ALWAYS relative to the executable directory, never the
// current working directory.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	return PathsAt(filepath.Dir(exe)), nil
}

// PathsAt builds the path layout rooted at the given directory. Split out
// from GetPaths so tests can target a temp dir.
//
// Directory structure:
//
//	<root>/
//	  ├── config.yaml
//	  ├── data/
//	  │   ├── downloads/
//	  │   │   ├── bhav/       (legacy cm*bhav.csv files)
//	  │   │   ├── delivery/   (MTO_*.DAT files)
//	  │   │   ├── bhav_full/  (sec_bhavdata_full_*.csv files)
//	  │   │   ├── actions/    (corporate-action CSVs)
//	  │   │   ├── bulk_deals/ (bulk-deal CSVs)
//	  │   │   └── reference/  (cached reference series)
//	  │   ├── reports/        (generated CSV/XLSX outputs)
//	  │   └── cache/
//	  └── logs/
func PathsAt(root string) *Paths {
	dataDir := filepath.Join(root, "data")
	downloadsDir := filepath.Join(dataDir, "downloads")
	reportsDir := filepath.Join(dataDir, "reports")

	return &Paths{
		ExecutableDir: root,
		DataDir:       dataDir,
		DownloadsDir:  downloadsDir,
		ReportsDir:    reportsDir,
		CacheDir:      filepath.Join(dataDir, "cache"),
		LogsDir:       filepath.Join(root, "logs"),

		LegacyBhavDir: filepath.Join(downloadsDir, "bhav"),
		DeliveryDir:   filepath.Join(downloadsDir, "delivery"),
		FullBhavDir:   filepath.Join(downloadsDir, "bhav_full"),
		ActionsDir:    filepath.Join(downloadsDir, "actions"),
		BulkDealsDir:  filepath.Join(downloadsDir, "bulk_deals"),
		ReferenceDir:  filepath.Join(downloadsDir, "reference"),

		CombinedDataCSV:  filepath.Join(reportsDir, "bhav_complete_data.csv"),
		AdjustedCSV:      filepath.Join(reportsDir, "bhav_adjusted_prices.csv"),
		ActionsCSV:       filepath.Join(reportsDir, "corporate_actions.csv"),
		DiscrepancyCSV:   filepath.Join(reportsDir, "reference_discrepancies.csv"),
		ComparisonXLSX:   filepath.Join(reportsDir, "reference_comparison.xlsx"),
		BulkDealStatsCSV: filepath.Join(reportsDir, "bulk_deal_stats.csv"),
		RunMetadataJSON:  filepath.Join(reportsDir, "last_run.json"),
	}
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.DataDir,
		p.DownloadsDir,
		p.ReportsDir,
		p.CacheDir,
		p.LogsDir,
		p.LegacyBhavDir,
		p.DeliveryDir,
		p.FullBhavDir,
		p.ActionsDir,
		p.BulkDealsDir,
		p.ReferenceDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// GetDownloadPath returns the full path for a file in the downloads directory
func (p *Paths) GetDownloadPath(filename string) string {
	return filepath.Join(p.DownloadsDir, filename)
}

// GetReportPath returns the full path for a file in the reports directory
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the full path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// GetCachePath returns the full path for a cache file
func (p *Paths) GetCachePath(filename string) string {
	return filepath.Join(p.CacheDir, filename)
}

// GetDailyDiscrepancyCSVPath returns the discrepancy CSV for a comparison run
// covering the given date range.
func (p *Paths) GetDailyDiscrepancyCSVPath(from, to time.Time) string {
	name := fmt.Sprintf("reference_discrepancies_%s_to_%s.csv",
		from.Format("20060102"), to.Format("20060102"))
	return filepath.Join(p.ReportsDir, name)
}
