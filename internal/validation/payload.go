// Package validation checks downloaded archive payloads before they are
// written to disk. The exchange's archive front end serves HTML error pages
// with a 200 status for some missing dates, so a successful response is not
// proof of a usable file.
package validation

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

var zipMagic = []byte("PK\x03\x04")

// PayloadValidator validates raw download payloads against the file type
// their name implies.
type PayloadValidator struct {
	logger *slog.Logger
}

// NewPayloadValidator creates a payload validator.
func NewPayloadValidator(logger *slog.Logger) *PayloadValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &PayloadValidator{logger: logger}
}

// Validate checks that payload plausibly matches the format implied by
// name's extension. It rejects empty bodies, HTML error pages, and zip
// archives without the zip magic.
func (v *PayloadValidator) Validate(name string, payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("empty payload for %s", name)
	}
	if isHTML(payload) {
		v.logger.Warn("Archive endpoint returned an HTML page",
			slog.String("file", name),
			slog.Int("bytes", len(payload)))
		return fmt.Errorf("HTML error page instead of %s", name)
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".zip":
		if !bytes.HasPrefix(payload, zipMagic) {
			return fmt.Errorf("payload for %s is not a zip archive", name)
		}
	case ".csv", ".dat":
		// Text formats: the first line must be printable.
		line := payload
		if idx := bytes.IndexByte(line, '\n'); idx >= 0 {
			line = line[:idx]
		}
		for _, b := range line {
			if b < 0x09 || (b > 0x0d && b < 0x20) {
				return fmt.Errorf("payload for %s contains binary data", name)
			}
		}
	}
	return nil
}

// isHTML reports whether the payload starts with an HTML document marker,
// ignoring leading whitespace and a UTF-8 BOM.
func isHTML(payload []byte) bool {
	head := bytes.TrimLeft(bytes.TrimPrefix(payload, []byte("\xef\xbb\xbf")), " \t\r\n")
	if len(head) > 64 {
		head = head[:64]
	}
	lower := bytes.ToLower(head)
	return bytes.HasPrefix(lower, []byte("<!doctype")) || bytes.HasPrefix(lower, []byte("<html"))
}
