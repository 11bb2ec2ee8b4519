package retriever

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsecli/internal/config"
)

func zipWithCSV(t *testing.T, name, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func testDownloader(t *testing.T, srv *httptest.Server) (*Downloader, *config.Paths) {
	t.Helper()
	paths := config.PathsAt(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())
	d := NewDownloader(config.RetrieverConfig{
		Timeout:       5 * time.Second,
		RatePerSecond: 1000,
		Burst:         1000,
		Concurrency:   2,
		RetryAttempts: 2,
	}, paths, nil)
	d.legacyBhavURL = srv.URL + "/historical/%s/%s/cm%sbhav.csv.zip"
	d.deliveryURL = srv.URL + "/mto/MTO_%s.DAT"
	d.fullBhavURL = srv.URL + "/full/sec_bhavdata_full_%s.csv"
	return d, paths
}

func TestDownloadRangeLegacyEra(t *testing.T) {
	legacyZip := zipWithCSV(t, "cm03JUN2024bhav.csv", "SYMBOL,SERIES\nRELIANCE,EQ\n")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "bhav.csv.zip"):
			w.Write(legacyZip)
		case strings.Contains(r.URL.Path, "MTO_"):
			w.Write([]byte("mto data"))
		case strings.Contains(r.URL.Path, "sec_bhavdata_full_"):
			w.Write([]byte("SYMBOL\n"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	d, paths := testDownloader(t, srv)
	// Monday 2024-06-03, before the legacy cutoff: three files expected.
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	result, err := d.DownloadRange(context.Background(), day, day)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Downloaded)
	assert.Empty(t, result.Missed)

	// The zip payload lands extracted.
	assert.FileExists(t, filepath.Join(paths.LegacyBhavDir, "cm03JUN2024bhav.csv"))
	assert.FileExists(t, filepath.Join(paths.DeliveryDir, "MTO_03062024.DAT"))
	assert.FileExists(t, filepath.Join(paths.FullBhavDir, "sec_bhavdata_full_03062024.csv"))
}

func TestDownloadRangeAfterCutoffFetchesOnlyFullBhav(t *testing.T) {
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.Path)
		w.Write([]byte("SYMBOL\n"))
	}))
	defer srv.Close()

	d, _ := testDownloader(t, srv)
	day := time.Date(2024, 8, 5, 0, 0, 0, 0, time.UTC) // Monday, post-cutoff
	result, err := d.DownloadRange(context.Background(), day, day)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Downloaded)
	require.Len(t, requests, 1)
	assert.Contains(t, requests[0], "sec_bhavdata_full_05082024")
}

func TestDownloadRangeSkipsWeekendsAndExistingFiles(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("SYMBOL\n"))
	}))
	defer srv.Close()

	d, _ := testDownloader(t, srv)
	// Friday through Monday, post-cutoff: Saturday and Sunday are skipped.
	from := time.Date(2024, 8, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 8, 5, 0, 0, 0, 0, time.UTC)

	result, err := d.DownloadRange(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Downloaded)
	assert.Equal(t, 2, calls)

	// Second run finds everything on disk.
	result, err = d.DownloadRange(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Downloaded)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 2, calls)
}

func TestDownloadRangeRecordsMissedDates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d, _ := testDownloader(t, srv)
	day := time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC) // a market holiday
	result, err := d.DownloadRange(context.Background(), day, day)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Downloaded)
	require.Len(t, result.Missed, 1)
	assert.Equal(t, day, result.Missed[0])
}
