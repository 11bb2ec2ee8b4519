package errors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordErrorFormatting(t *testing.T) {
	exDate := time.Date(2024, 8, 5, 0, 0, 0, 0, time.UTC)

	withSymbol := NewInvalidFactorError("RELIANCE", exDate, "factor 1.2000 outside (0, 1]")
	assert.Equal(t, "[INVALID_FACTOR] RELIANCE: factor 1.2000 outside (0, 1]", withSymbol.Error())

	withoutSymbol := NewParseError("", "SYMBOL")
	assert.Equal(t, `[PARSE] missing mandatory field "SYMBOL"`, withoutSymbol.Error())
}

func TestRecordErrorWarning(t *testing.T) {
	exDate := time.Date(2024, 8, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		kind    RecordErrorKind
		err     *RecordError
		warning bool
	}{
		{KindDateFormat, NewDateFormatError("ABB", "32-Jan-2024", nil), false},
		{KindParse, NewParseError("ABB", "PURPOSE"), false},
		{KindInvalidFactor, NewInvalidFactorError("ABB", exDate, "zero prior close"), false},
		{KindAmbiguousClassification, NewAmbiguousClassificationError("ABB", exDate, "DIVIDEND RS 2 AND BONUS 1:1", "dividend"), true},
		{KindNoOverlap, NewNoOverlapWarning("ABB"), true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.Equal(t, tt.warning, tt.err.Warning())
		})
	}
}

func TestRecordErrorsByKindAndSkipped(t *testing.T) {
	exDate := time.Date(2024, 8, 5, 0, 0, 0, 0, time.UTC)
	errs := RecordErrors{
		*NewDateFormatError("A", "bad date", nil),
		*NewParseError("B", "SYMBOL"),
		*NewAmbiguousClassificationError("C", exDate, "conflicting cues", "dividend"),
		*NewInvalidFactorError("D", exDate, "negative factor"),
		*NewDateFormatError("E", "bad date", nil),
	}

	assert.Len(t, errs.ByKind(KindDateFormat), 2)
	assert.Len(t, errs.ByKind(KindAmbiguousClassification), 1)
	assert.Empty(t, errs.ByKind(KindNoOverlap))

	// Warnings do not count as skipped records.
	assert.Equal(t, 4, errs.Skipped())
}
