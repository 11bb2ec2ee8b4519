// Package retriever downloads NSE daily archives: bhavcopies, delivery
// reports, and the corporate-actions feed.
package retriever

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"nsecli/internal/config"
	"nsecli/internal/validation"
)

// Downloader fetches daily archive files over plain HTTP. Requests are
// paced by a shared limiter and fanned out over a bounded errgroup; the
// exchange serves static files but dislikes bursts.
type Downloader struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      *slog.Logger
	paths       *config.Paths
	validator   *validation.PayloadValidator
	concurrency int
	attempts    int
	userAgent   string

	// URL patterns live on the struct so tests can point them at a stub
	// server.
	legacyBhavURL string
	deliveryURL   string
	fullBhavURL   string
}

// NewDownloader creates a downloader from retriever configuration.
func NewDownloader(cfg config.RetrieverConfig, paths *config.Paths, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultHTTPTimeout
	}
	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = 2
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = config.DefaultWorkers
	}
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = config.DefaultRetryAttempts
	}
	return &Downloader{
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(rate.Limit(perSecond), burst),
		logger:      logger,
		paths:       paths,
		validator:   validation.NewPayloadValidator(logger),
		concurrency: concurrency,
		attempts:    attempts,
		userAgent:   cfg.UserAgent,

		legacyBhavURL: config.LegacyBhavURLPattern,
		deliveryURL:   config.DeliveryURLPattern,
		fullBhavURL:   config.FullBhavURLPattern,
	}
}

// Result summarizes one download run.
type Result struct {
	Downloaded int
	Skipped    int
	Missed     []time.Time
}

// DownloadRange fetches every archive for the business days in [from, to].
// Legacy sources stop at the exchange's cutoff; the full bhavcopy is
// fetched for every date. Files already on disk are skipped, and a 404 is
// recorded as a missed date (a holiday, or not yet published), never an
// error.
func (d *Downloader) DownloadRange(ctx context.Context, from, to time.Time) (*Result, error) {
	cutoff, err := time.Parse("2006-01-02", config.LegacySourceCutoff)
	if err != nil {
		return nil, fmt.Errorf("bad legacy cutoff constant: %w", err)
	}

	var (
		mu     sync.Mutex
		result Result
	)
	missedDates := make(map[time.Time]bool)

	record := func(outcome fetchOutcome, date time.Time) {
		mu.Lock()
		defer mu.Unlock()
		switch outcome {
		case fetchDownloaded:
			result.Downloaded++
		case fetchSkipped:
			result.Skipped++
		case fetchMissing:
			missedDates[date] = true
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			continue
		}

		for _, task := range d.tasksFor(date, cutoff) {
			g.Go(func() error {
				outcome, err := d.fetch(ctx, task)
				if err != nil {
					return err
				}
				record(outcome, task.date)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for date := range missedDates {
		result.Missed = append(result.Missed, date)
	}
	sort.Slice(result.Missed, func(i, j int) bool { return result.Missed[i].Before(result.Missed[j]) })

	d.logger.Info("archive download finished",
		slog.Int("downloaded", result.Downloaded),
		slog.Int("skipped", result.Skipped),
		slog.Int("missed_dates", len(result.Missed)))

	return &result, nil
}

// fetchTask is one file to retrieve: its URL, where it lands, and whether
// the payload is a zip to extract.
type fetchTask struct {
	url      string
	destPath string
	date     time.Time
	unzip    bool
}

func (d *Downloader) tasksFor(date time.Time, cutoff time.Time) []fetchTask {
	var tasks []fetchTask

	compact := date.Format(config.CompactDateFormat)
	if !date.After(cutoff) {
		legacy := strings.ToUpper(date.Format("02Jan2006"))
		tasks = append(tasks,
			fetchTask{
				url:      fmt.Sprintf(d.legacyBhavURL, date.Format("2006"), strings.ToUpper(date.Format("Jan")), legacy),
				destPath: filepath.Join(d.paths.LegacyBhavDir, fmt.Sprintf("cm%sbhav.csv", legacy)),
				date:     date,
				unzip:    true,
			},
			fetchTask{
				url:      fmt.Sprintf(d.deliveryURL, compact),
				destPath: filepath.Join(d.paths.DeliveryDir, fmt.Sprintf("MTO_%s.DAT", compact)),
				date:     date,
			},
		)
	}
	tasks = append(tasks, fetchTask{
		url:      fmt.Sprintf(d.fullBhavURL, compact),
		destPath: filepath.Join(d.paths.FullBhavDir, fmt.Sprintf("sec_bhavdata_full_%s.csv", compact)),
		date:     date,
	})
	return tasks
}

type fetchOutcome int

const (
	fetchDownloaded fetchOutcome = iota
	fetchSkipped
	fetchMissing
)

func (d *Downloader) fetch(ctx context.Context, task fetchTask) (fetchOutcome, error) {
	if _, err := os.Stat(task.destPath); err == nil {
		return fetchSkipped, nil
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	body, status, err := d.getWithRetry(ctx, task.url)
	if err != nil {
		return 0, fmt.Errorf("failed to download %s: %w", task.url, err)
	}
	if status == http.StatusNotFound || status == http.StatusForbidden {
		// Holidays and unpublished dates come back 404 (or 403 from
		// the archive front end).
		return fetchMissing, nil
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("failed to download %s: unexpected status %d", task.url, status)
	}

	// The archive front end serves HTML error pages with a 200 for some
	// unpublished dates; treat those like a 404.
	name := filepath.Base(task.destPath)
	if task.unzip {
		name += ".zip"
	}
	if err := d.validator.Validate(name, body); err != nil {
		d.logger.Warn("discarding invalid payload",
			slog.String("url", task.url),
			slog.String("error", err.Error()))
		return fetchMissing, nil
	}

	if err := os.MkdirAll(filepath.Dir(task.destPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create download directory: %w", err)
	}

	if task.unzip {
		if err := extractSingleCSV(body, task.destPath); err != nil {
			return 0, fmt.Errorf("failed to extract %s: %w", task.url, err)
		}
	} else {
		if err := os.WriteFile(task.destPath, body, 0644); err != nil {
			return 0, fmt.Errorf("failed to write %s: %w", task.destPath, err)
		}
	}

	d.logger.Debug("downloaded archive file",
		slog.String("url", task.url),
		slog.String("dest", task.destPath))

	return fetchDownloaded, nil
}

// getWithRetry retries transient failures; 404/403 return immediately with
// their status so the caller can record a missed date.
func (d *Downloader) getWithRetry(ctx context.Context, rawURL string) ([]byte, int, error) {
	var lastErr error
	backoff := time.Second
	for attempt := 1; attempt <= d.attempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, 0, err
		}
		if d.userAgent != "" {
			req.Header.Set("User-Agent", d.userAgent)
		}

		resp, err := d.httpClient.Do(req)
		if err == nil {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr == nil && resp.StatusCode < 500 {
				return body, resp.StatusCode, nil
			}
			lastErr = readErr
			if lastErr == nil {
				lastErr = fmt.Errorf("server status %d", resp.StatusCode)
			}
		} else {
			lastErr = err
		}

		if attempt == d.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, 0, lastErr
}

// extractSingleCSV unpacks the first .csv member of a zip payload to
// destPath. Bhavcopy zips contain exactly one file.
func extractSingleCSV(payload []byte, destPath string) error {
	reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return err
	}
	for _, member := range reader.File {
		if !strings.HasSuffix(strings.ToLower(member.Name), ".csv") {
			continue
		}
		rc, err := member.Open()
		if err != nil {
			return err
		}
		defer rc.Close()

		out, err := os.Create(destPath)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, rc); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	}
	return fmt.Errorf("no csv member in archive")
}
