package ingest

import (
	"errors"
	"fmt"
)

// Common errors returned by the ingest package.
var (
	// ErrParse is matched by every *ParseError.
	ErrParse = errors.New("parse error")

	// ErrColumnCount is returned when a row does not have exactly three columns.
	ErrColumnCount = errors.New("expected 3 columns")

	// ErrEmptyCaller is returned when the caller column is blank.
	ErrEmptyCaller = errors.New("caller must not be empty")
)

// ParseError locates a malformed input row.
type ParseError struct {
	Row    int    // 1-indexed input line
	Column string // caller, start, end, or empty for row-level problems
	Value  string // offending value, truncated if too long
	Err    error
}

func (e *ParseError) Error() string {
	value := e.Value
	if len(value) > 100 {
		value = value[:100] + "..."
	}
	if e.Column == "" {
		return fmt.Sprintf("parse error at row %d: %q: %v", e.Row, value, e.Err)
	}
	return fmt.Sprintf("parse error at row %d, column %s: %q: %v", e.Row, e.Column, value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
