package config

import "time"

// Application constants for the NSE EOD pipeline.
const (
	// Application Info
	AppName    = "NSE EOD Pipeline"
	AppVersion = "1.2.0"

	// NSE archive URL patterns. Dates are substituted by the retriever:
	// legacy bhav uses DDMMMYYYY (upper-case month), the delivery and full
	// bhav files use DDMMYYYY.
	LegacyBhavURLPattern = "https://nsearchives.nseindia.com/content/historical/EQUITIES/%s/%s/cm%sbhav.csv.zip"
	DeliveryURLPattern   = "https://nsearchives.nseindia.com/archives/equities/mto/MTO_%s.DAT"
	FullBhavURLPattern   = "https://nsearchives.nseindia.com/products/content/sec_bhavdata_full_%s.csv"

	// Corporate-actions feed on the cookie-guarded equities portal.
	ActionsPortalURL = "https://www.nseindia.com/companies-listing/corporate-filings-actions"
	ActionsCSVURL    = "https://www.nseindia.com/api/corporates-corporateActions?index=equities&csv=true"

	// Yahoo Finance chart endpoint for the reference series.
	ReferenceChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/%s"

	// LegacySourceCutoff is the last date NSE published the cm*bhav.csv and
	// MTO archives as separate files; afterwards sec_bhavdata_full carries
	// everything.
	LegacySourceCutoff = "2024-07-04"

	// Exchange date formats.
	ExchangeDateFormat  = "02-Jan-2006" // dd-MMM-yyyy, e.g. 28-Mar-2024
	CompactDateFormat   = "02012006"    // DDMMYYYY used in archive filenames
	LegacyBhavMonthCase = "Jan"         // month abbreviation is upper-cased in URLs

	// Adjustment defaults; overridable via configuration.
	DefaultRoundPrecision = 2
	DefaultTolerance      = 0.01
	DefaultWorkers        = 4

	// Network settings
	DefaultHTTPTimeout   = 30 * time.Second
	DefaultDownloadPause = 500 * time.Millisecond
	DefaultRetryAttempts = 3
	ChromedpTimeout      = 90 * time.Second

	// File Paths (relative to executable)
	DefaultDataDir      = "data"
	DefaultLogsDir      = "logs"
	DefaultDownloadsDir = "data/downloads"
	DefaultReportsDir   = "data/reports"
)
