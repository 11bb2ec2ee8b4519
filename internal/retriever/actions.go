package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"nsecli/internal/config"
)

// ActionsFetcher retrieves the corporate-actions CSV from the NSE equities
// portal. The API endpoint sits behind cookie and fingerprint checks that
// reject plain HTTP clients, so the fetch runs inside a headless browser:
// load the portal page to establish a session, then call the CSV endpoint
// from within that page.
type ActionsFetcher struct {
	logger    *slog.Logger
	headless  bool
	userAgent string
	timeout   time.Duration
}

// NewActionsFetcher creates an actions fetcher.
func NewActionsFetcher(cfg config.RetrieverConfig, logger *slog.Logger) *ActionsFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActionsFetcher{
		logger:    logger,
		headless:  cfg.Headless,
		userAgent: cfg.UserAgent,
		timeout:   config.ChromedpTimeout,
	}
}

// Fetch downloads the corporate-actions CSV for [from, to] and writes it
// under destDir, returning the written path.
func (f *ActionsFetcher) Fetch(ctx context.Context, destDir string, from, to time.Time) (string, error) {
	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts, chromedp.Flag("headless", f.headless))
	if f.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(f.userAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, f.timeout)
	defer cancelTimeout()

	csvURL := fmt.Sprintf("%s&from_date=%s&to_date=%s",
		config.ActionsCSVURL,
		from.Format(config.ExchangeDateFormat),
		to.Format(config.ExchangeDateFormat))

	// fetch() runs with the page's session cookies, which is the whole
	// point of going through the browser.
	script := fmt.Sprintf(
		`fetch(%q, {headers: {accept: "text/csv"}}).then(r => { if (!r.ok) throw new Error("status " + r.status); return r.text(); })`,
		csvURL)

	var csvText string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(config.ActionsPortalURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second),
		chromedp.Evaluate(script, &csvText, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("failed to fetch corporate actions: %w", err)
	}
	if csvText == "" {
		return "", fmt.Errorf("corporate actions endpoint returned an empty document")
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create actions directory: %w", err)
	}
	dest := filepath.Join(destDir, fmt.Sprintf("CF-CA-equities-%s-to-%s.csv",
		from.Format("02-01-2006"), to.Format("02-01-2006")))
	if err := os.WriteFile(dest, []byte(csvText), 0644); err != nil {
		return "", fmt.Errorf("failed to write actions csv: %w", err)
	}

	f.logger.Info("fetched corporate actions",
		slog.String("path", dest),
		slog.Int("bytes", len(csvText)))

	return dest, nil
}
