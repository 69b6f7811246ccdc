// Package report renders a bill as a terminal table, JSON or CSV.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ogulcanaydogan/callbill/pkg/model"
	"golang.org/x/term"
)

// Format selects an output renderer.
type Format string

const (
	FormatAuto  Format = "auto"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// TimeLayout is used for call timestamps in every format.
const TimeLayout = "2006-01-02 15:04:05"

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatTable, FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want auto, table, json or csv)", s)
	}
}

// Resolve turns FormatAuto into table when w is a terminal and JSON otherwise.
func (f Format) Resolve(w io.Writer) Format {
	if f != FormatAuto {
		return f
	}
	if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		return FormatTable
	}
	return FormatJSON
}

// Options controls rendering.
type Options struct {
	Format Format
	// Detailed adds the per-call table to table output. JSON and CSV always include it.
	Detailed bool
}

// Row is one line of the per-call table.
type Row struct {
	Index        int     `json:"index"`
	Caller       string  `json:"caller"`
	Start        string  `json:"start"`
	End          string  `json:"end"`
	MainSeconds  float64 `json:"main_seconds"`
	OtherSeconds float64 `json:"other_seconds"`
	BonusSeconds float64 `json:"bonus_seconds"`
	model.CostBreakdown
	Free bool `json:"free"`
}

// Document is the serialized form of a bill.
type Document struct {
	Summary model.BillingSummary `json:"summary"`
	Calls   []Row                `json:"calls"`
}

// NewDocument flattens a bill into its serialized form.
func NewDocument(bill *model.Bill) Document {
	rows := make([]Row, len(bill.Calls))
	for i, rc := range bill.Calls {
		rows[i] = NewRow(rc)
	}
	return Document{Summary: bill.Summary, Calls: rows}
}

// NewRow flattens a rated call.
func NewRow(rc model.RatedCall) Row {
	return Row{
		Index:         rc.Index,
		Caller:        rc.Call.Caller,
		Start:         rc.Call.Start.Format(TimeLayout),
		End:           rc.Call.End.Format(TimeLayout),
		MainSeconds:   rc.Segments.Main.Seconds(),
		OtherSeconds:  rc.Segments.Other.Seconds(),
		BonusSeconds:  rc.Segments.Bonus.Seconds(),
		CostBreakdown: rc.Cost,
		Free:          rc.Free,
	}
}

// Write renders bill to w.
func Write(w io.Writer, bill *model.Bill, opts Options) error {
	switch opts.Format.Resolve(w) {
	case FormatTable:
		return WriteTable(w, bill, opts.Detailed)
	case FormatJSON:
		return WriteJSON(w, bill)
	case FormatCSV:
		return WriteCSV(w, bill)
	default:
		return fmt.Errorf("unknown output format %q", opts.Format)
	}
}
