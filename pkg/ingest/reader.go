// Package ingest reads header-less call detail record files.
//
// Each row holds exactly three columns: caller, start timestamp and end
// timestamp. The caller is kept verbatim as text so identifiers such as
// "0042" keep their leading zeros.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ogulcanaydogan/callbill/pkg/model"
)

// Timestamp layout presets.
const (
	LayoutISO = "2006-01-02 15:04:05"
	LayoutUS  = "01/02/2006 15:04"
)

// Options control how rows are decoded.
type Options struct {
	Layout    string         // Go time layout or a preset name (iso, us)
	Delimiter rune           // defaults to ','
	Location  *time.Location // defaults to time.UTC
}

// ResolveLayout maps preset names to Go layouts. Any other value is returned unchanged.
func ResolveLayout(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "iso":
		return LayoutISO
	case "us":
		return LayoutUS
	default:
		return name
	}
}

// Read parses every row from r. It stops at the first bad row.
func Read(r io.Reader, opts Options) ([]model.CallRecord, error) {
	layout := ResolveLayout(opts.Layout)
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	// Spreadsheet exports often start with a byte order mark. Drop a UTF-8
	// one and decode UTF-16 input; anything else passes through untouched.
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(transform.Nop)))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}

	var records []model.CallRecord
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				return nil, &ParseError{Row: csvErr.Line, Err: csvErr.Err}
			}
			return nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}

		line, _ := cr.FieldPos(0)
		rec, err := parseRow(line, fields, layout, loc)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// ReadFile opens path and parses it with Read.
func ReadFile(path string, opts Options) ([]model.CallRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open calls file: %w", err)
	}
	defer f.Close()

	records, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func parseRow(row int, fields []string, layout string, loc *time.Location) (model.CallRecord, error) {
	if len(fields) != 3 {
		return model.CallRecord{}, &ParseError{
			Row:   row,
			Value: strings.Join(fields, ","),
			Err:   fmt.Errorf("%w, got %d", ErrColumnCount, len(fields)),
		}
	}

	caller := strings.TrimSpace(fields[0])
	if caller == "" {
		return model.CallRecord{}, &ParseError{Row: row, Column: "caller", Value: fields[0], Err: ErrEmptyCaller}
	}

	start, err := time.ParseInLocation(layout, strings.TrimSpace(fields[1]), loc)
	if err != nil {
		return model.CallRecord{}, &ParseError{Row: row, Column: "start", Value: fields[1], Err: err}
	}
	end, err := time.ParseInLocation(layout, strings.TrimSpace(fields[2]), loc)
	if err != nil {
		return model.CallRecord{}, &ParseError{Row: row, Column: "end", Value: fields[2], Err: err}
	}

	return model.CallRecord{Caller: caller, Start: start, End: end}, nil
}
