package errors

import (
	"fmt"
	"time"
)

// RecordErrorKind classifies per-record failures in a batch. None of them is
// fatal to the batch: the failing record is skipped (or the failing factor is
// excluded) and the rest of the input keeps processing.
type RecordErrorKind string

const (
	// KindDateFormat marks an unparsable ex-date text. The record is skipped.
	KindDateFormat RecordErrorKind = "DATE_FORMAT"
	// KindParse marks a record missing a mandatory field (symbol or date).
	KindParse RecordErrorKind = "PARSE"
	// KindAmbiguousClassification marks a notice carrying conflicting cues.
	// The record is NOT skipped; the classifier's precedence policy resolves
	// it and this is surfaced as a warning.
	KindAmbiguousClassification RecordErrorKind = "AMBIGUOUS_CLASSIFICATION"
	// KindInvalidFactor marks an action whose multiplier would be
	// non-positive. The action is excluded from the cumulative product; the
	// symbol's remaining rows still process.
	KindInvalidFactor RecordErrorKind = "INVALID_FACTOR"
	// KindNoOverlap marks a requested symbol with zero joinable dates
	// between the computed and reference series.
	KindNoOverlap RecordErrorKind = "NO_OVERLAP"
)

// RecordError carries the context of one skipped, excluded, or warned-about
// record. Batches return a []RecordError beside their successful output so
// the caller decides its own tolerance.
type RecordError struct {
	Kind   RecordErrorKind `json:"kind"`
	Symbol string          `json:"symbol,omitempty"`
	Date   time.Time       `json:"date,omitempty"`
	Detail string          `json:"detail"`
	Cause  error           `json:"-"`
}

func (e *RecordError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Symbol, e.Detail)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Detail)
}

func (e *RecordError) Unwrap() error {
	return e.Cause
}

// Warning reports whether this record error is advisory rather than a skip.
func (e *RecordError) Warning() bool {
	return e.Kind == KindAmbiguousClassification || e.Kind == KindNoOverlap
}

// NewDateFormatError reports an ex-date that could not be parsed.
func NewDateFormatError(symbol, dateText string, cause error) *RecordError {
	return &RecordError{
		Kind:   KindDateFormat,
		Symbol: symbol,
		Detail: fmt.Sprintf("unparsable ex-date %q", dateText),
		Cause:  cause,
	}
}

// NewParseError reports a record missing a mandatory field.
func NewParseError(symbol, field string) *RecordError {
	return &RecordError{
		Kind:   KindParse,
		Symbol: symbol,
		Detail: fmt.Sprintf("missing mandatory field %q", field),
	}
}

// NewAmbiguousClassificationError reports a notice that matched more than one
// classification cue and was resolved by the precedence policy.
func NewAmbiguousClassificationError(symbol string, exDate time.Time, purpose, resolved string) *RecordError {
	return &RecordError{
		Kind:   KindAmbiguousClassification,
		Symbol: symbol,
		Date:   exDate,
		Detail: fmt.Sprintf("ambiguous purpose %q resolved as %s", purpose, resolved),
	}
}

// NewInvalidFactorError reports an action whose multiplier is non-physical.
func NewInvalidFactorError(symbol string, exDate time.Time, detail string) *RecordError {
	return &RecordError{
		Kind:   KindInvalidFactor,
		Symbol: symbol,
		Date:   exDate,
		Detail: detail,
	}
}

// NewNoOverlapWarning reports a symbol with no joinable reference dates.
func NewNoOverlapWarning(symbol string) *RecordError {
	return &RecordError{
		Kind:   KindNoOverlap,
		Symbol: symbol,
		Detail: "no overlapping dates between computed and reference series",
	}
}

// RecordErrors is the structured list surfaced beside a batch's output.
type RecordErrors []RecordError

// ByKind returns the subset of errors with the given kind.
func (es RecordErrors) ByKind(kind RecordErrorKind) RecordErrors {
	var out RecordErrors
	for _, e := range es {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Skipped counts non-warning entries, i.e. records actually dropped or
// excluded from output.
func (es RecordErrors) Skipped() int {
	n := 0
	for _, e := range es {
		if !e.Warning() {
			n++
		}
	}
	return n
}
