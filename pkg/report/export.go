package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/ogulcanaydogan/callbill/pkg/model"
)

// WriteJSON writes the summary and per-call table as indented JSON.
func WriteJSON(w io.Writer, bill *model.Bill) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewDocument(bill))
}

// CSVHeader is the header row written by WriteCSV.
var CSVHeader = []string{
	"index",
	"caller",
	"start",
	"end",
	"main_seconds",
	"other_seconds",
	"bonus_seconds",
	"main_cost",
	"other_cost",
	"bonus_cost",
	"total_cost",
	"free",
}

// WriteCSV writes the per-call table. Per-call seconds and costs keep full
// precision, matching JSON. The rounded run total goes into a trailing row
// with caller "TOTAL".
func WriteCSV(w io.Writer, bill *model.Bill) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(CSVHeader); err != nil {
		return err
	}

	for _, rc := range bill.Calls {
		r := NewRow(rc)
		row := []string{
			strconv.Itoa(r.Index + 1),
			r.Caller,
			r.Start,
			r.End,
			formatFloat(r.MainSeconds, -1),
			formatFloat(r.OtherSeconds, -1),
			formatFloat(r.BonusSeconds, -1),
			formatFloat(r.Main, -1),
			formatFloat(r.Other, -1),
			formatFloat(r.Bonus, -1),
			formatFloat(r.Total, -1),
			strconv.FormatBool(r.Free),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	total := make([]string, len(CSVHeader))
	total[1] = "TOTAL"
	total[10] = formatFloat(bill.Summary.TotalMonthSum, 2)
	if err := writer.Write(total); err != nil {
		return err
	}

	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
