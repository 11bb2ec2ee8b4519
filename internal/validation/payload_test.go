package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	v := NewPayloadValidator(nil)

	tests := []struct {
		name    string
		file    string
		payload []byte
		wantErr string
	}{
		{
			name:    "valid csv",
			file:    "sec_bhavdata_full_05082024.csv",
			payload: []byte("SYMBOL, SERIES, DATE1\nRELIANCE, EQ, 05-Aug-2024\n"),
		},
		{
			name:    "valid zip",
			file:    "cm05AUG2024bhav.csv.zip",
			payload: []byte("PK\x03\x04rest-of-archive"),
		},
		{
			name:    "valid dat",
			file:    "MTO_05082024.DAT",
			payload: []byte("Security Wise Delivery Position\n20,1,RELIANCE,EQ\n"),
		},
		{
			name:    "empty payload",
			file:    "cm05AUG2024bhav.csv.zip",
			payload: nil,
			wantErr: "empty payload",
		},
		{
			name:    "html error page",
			file:    "sec_bhavdata_full_05082024.csv",
			payload: []byte("<!DOCTYPE html><html><body>File not found</body></html>"),
			wantErr: "HTML error page",
		},
		{
			name:    "html with leading whitespace",
			file:    "cm05AUG2024bhav.csv.zip",
			payload: []byte("\n  <html><head></head></html>"),
			wantErr: "HTML error page",
		},
		{
			name:    "html behind utf8 bom",
			file:    "sec_bhavdata_full_05082024.csv",
			payload: []byte("\xef\xbb\xbf<!DOCTYPE html><html></html>"),
			wantErr: "HTML error page",
		},
		{
			name:    "zip without magic",
			file:    "cm05AUG2024bhav.csv.zip",
			payload: []byte("this is not a zip"),
			wantErr: "not a zip archive",
		},
		{
			name:    "binary bytes in csv",
			file:    "sec_bhavdata_full_05082024.csv",
			payload: []byte{0x00, 0x01, 0x02, '\n'},
			wantErr: "binary data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.file, tt.payload)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
