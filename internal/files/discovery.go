// Package files discovers downloaded NSE archive files on disk and extracts
// trade dates from their names, which is the only place some of the formats
// record the date.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"nsecli/internal/config"
)

// DatedFile is a discovered archive file together with the trade date
// encoded in its filename.
type DatedFile struct {
	Path string
	Name string
	Size int64
	Date time.Time
}

// Discovery locates archive files under a base downloads directory.
type Discovery struct {
	basePath string
}

// NewDiscovery creates a discovery rooted at basePath.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindLegacyBhavFiles finds cm<DDMMMYYYY>bhav.csv files, sorted by trade date.
func (d *Discovery) FindLegacyBhavFiles(dir string) ([]DatedFile, error) {
	return d.findDated(dir, func(name string) (time.Time, bool) {
		lower := strings.ToLower(name)
		if !strings.HasPrefix(lower, "cm") || !strings.HasSuffix(lower, "bhav.csv") {
			return time.Time{}, false
		}
		dateText := name[2 : len(name)-len("bhav.csv")]
		t, err := time.Parse("02Jan2006", canonicalMonthCase(dateText))
		return t, err == nil
	})
}

// FindDeliveryFiles finds MTO_<DDMMYYYY>.DAT files, sorted by trade date.
func (d *Discovery) FindDeliveryFiles(dir string) ([]DatedFile, error) {
	return d.findDated(dir, func(name string) (time.Time, bool) {
		upper := strings.ToUpper(name)
		if !strings.HasPrefix(upper, "MTO_") || !strings.HasSuffix(upper, ".DAT") {
			return time.Time{}, false
		}
		dateText := name[len("MTO_") : len(name)-len(".DAT")]
		t, err := time.Parse(config.CompactDateFormat, dateText)
		return t, err == nil
	})
}

// FindFullBhavFiles finds sec_bhavdata_full_<DDMMYYYY>.csv files, sorted by
// trade date.
func (d *Discovery) FindFullBhavFiles(dir string) ([]DatedFile, error) {
	return d.findDated(dir, func(name string) (time.Time, bool) {
		lower := strings.ToLower(name)
		if !strings.HasPrefix(lower, "sec_bhavdata_full_") || !strings.HasSuffix(lower, ".csv") {
			return time.Time{}, false
		}
		dateText := name[len("sec_bhavdata_full_") : len(name)-len(".csv")]
		t, err := time.Parse(config.CompactDateFormat, dateText)
		return t, err == nil
	})
}

// findDated scans a directory and keeps files whose names yield a date.
// Files that do not match are simply ignored; download directories collect
// partial files and zips.
func (d *Discovery) findDated(dir string, extract func(name string) (time.Time, bool)) ([]DatedFile, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []DatedFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		date, ok := extract(name)
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, DatedFile{
			Path: filepath.Join(fullPath, name),
			Name: name,
			Size: info.Size(),
			Date: date,
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Date.Before(files[j].Date) })
	return files, nil
}

// LatestDate returns the newest trade date in a discovered set, used to
// resume downloads after the last file already on disk.
func LatestDate(files []DatedFile) (time.Time, bool) {
	if len(files) == 0 {
		return time.Time{}, false
	}
	latest := files[0].Date
	for _, f := range files[1:] {
		if f.Date.After(latest) {
			latest = f.Date
		}
	}
	return latest, true
}

// HasDate reports whether any discovered file carries the given trade date.
func HasDate(files []DatedFile, date time.Time) bool {
	for _, f := range files {
		if f.Date.Equal(date) {
			return true
		}
	}
	return false
}

// canonicalMonthCase rewrites the exchange's all-caps month abbreviation
// (cm03JUN2024bhav.csv) into the form time.Parse accepts.
func canonicalMonthCase(dateText string) string {
	if len(dateText) != 9 {
		return dateText
	}
	month := dateText[2:5]
	return dateText[:2] + strings.ToUpper(month[:1]) + strings.ToLower(month[1:]) + dateText[5:]
}
