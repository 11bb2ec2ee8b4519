// Package reference fetches daily close and adjusted-close series from the
// Yahoo Finance chart API for use as an external reference when validating
// computed adjustments.
package reference

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"nsecli/internal/config"
	apperrors "nsecli/internal/errors"
	"nsecli/pkg/contracts/domain"
)

// Client talks to the chart endpoint. One request per ticker; the limiter
// paces requests so a comparison run over many symbols stays polite.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	baseURL    string
	userAgent  string
	attempts   int
}

// NewClient creates a reference client from retriever configuration.
func NewClient(cfg config.RetrieverConfig, logger *slog.Logger) *Client {
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
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = config.DefaultRetryAttempts
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(perSecond), burst),
		logger:     logger,
		baseURL:    config.ReferenceChartURL,
		userAgent:  cfg.UserAgent,
		attempts:   attempts,
	}
}

// chartResponse mirrors the slice of the chart payload this client needs.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDaily returns the daily series for one ticker over [from, to]. Rows
// come back sorted by date; null bars (holidays, halts) are skipped. The
// symbol on the returned rows is the NSE symbol, not the ticker.
func (c *Client) FetchDaily(ctx context.Context, symbol, ticker string, from, to time.Time) ([]domain.ReferenceRow, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf(c.baseURL, url.PathEscape(ticker))
	params := url.Values{}
	params.Set("period1", fmt.Sprintf("%d", from.Unix()))
	params.Set("period2", fmt.Sprintf("%d", to.AddDate(0, 0, 1).Unix()))
	params.Set("interval", "1d")
	params.Set("events", "div,splits")

	body, err := c.getWithRetry(ctx, endpoint+"?"+params.Encode())
	if err != nil {
		return nil, apperrors.NewNetworkError("reference fetch", err)
	}

	var payload chartResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewParsingError("reference response", err)
	}
	if payload.Chart.Error != nil {
		return nil, apperrors.NewNetworkError("reference fetch",
			fmt.Errorf("%s: %s", payload.Chart.Error.Code, payload.Chart.Error.Description))
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := payload.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	var adjCloses []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjCloses = result.Indicators.AdjClose[0].AdjClose
	}

	var rows []domain.ReferenceRow
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		adj := *closes[i]
		if i < len(adjCloses) && adjCloses[i] != nil {
			adj = *adjCloses[i]
		}
		// The API stamps bars with the session open in exchange time;
		// normalize to a bare UTC date to match the bhav dataset.
		bar := time.Unix(ts, 0).In(exchangeTZ)
		rows = append(rows, domain.ReferenceRow{
			Symbol:   symbol,
			Ticker:   ticker,
			Date:     time.Date(bar.Year(), bar.Month(), bar.Day(), 0, 0, 0, 0, time.UTC),
			Close:    *closes[i],
			AdjClose: adj,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	c.logger.Debug("fetched reference series",
		slog.String("symbol", symbol),
		slog.String("ticker", ticker),
		slog.Int("rows", len(rows)))

	return rows, nil
}

// exchangeTZ is IST; NSE has no half-offset-free zone in time's stdlib
// database guaranteed to be present, so it is fixed here.
var exchangeTZ = time.FixedZone("IST", 5*3600+1800)

// getWithRetry performs a GET with capped exponential backoff. Client
// errors other than 429 do not retry; they will not heal.
func (c *Client) getWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	backoff := time.Second
	for attempt := 1; attempt <= c.attempts; attempt++ {
		body, retryable, err := c.get(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable || attempt == c.attempts {
			break
		}
		c.logger.Warn("reference request failed, retrying",
			slog.String("url", rawURL),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, lastErr
}

func (c *Client) get(ctx context.Context, rawURL string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	return data, false, nil
}
