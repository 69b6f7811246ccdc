package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ogulcanaydogan/callbill/pkg/model"
)

// WriteTable prints a human-readable bill.
func WriteTable(w io.Writer, bill *model.Bill, detailed bool) error {
	s := bill.Summary

	fmt.Fprintf(w, "=== Call Bill (%s) ===\n", tariffName(s))
	if s.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", s.RunID)
	}
	fmt.Fprintf(w, "\nTotal:        %.2f %s\n", s.TotalMonthSum, s.Currency)
	fmt.Fprintf(w, "Calls:        %d\n", s.CallCount)
	if s.TopCaller != "" {
		fmt.Fprintf(w, "Top Caller:   %s (%d calls, free)\n", s.TopCaller, s.TopCallerCalls)
	}
	fmt.Fprintf(w, "Main time:    %s\n", minutes(s.MainSeconds))
	fmt.Fprintf(w, "Other time:   %s\n", minutes(s.OtherSeconds))
	fmt.Fprintf(w, "Bonus time:   %s\n", minutes(s.BonusSeconds))

	if s.CallCount > 0 {
		fmt.Fprintf(w, "\nStatistics:\n")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "  COLUMN\tCOUNT\tMEAN\tSTD\tMIN\t25%%\t50%%\t75%%\tMAX\n")
		for _, c := range []struct {
			name  string
			stats model.ColumnStats
		}{
			{"main_cost", s.Stats.MainCost},
			{"other_cost", s.Stats.OtherCost},
			{"bonus_cost", s.Stats.BonusCost},
			{"total_cost", s.Stats.TotalCost},
		} {
			st := c.stats
			fmt.Fprintf(tw, "  %s\t%d\t%.4f\t%.4f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
				c.name, st.Count, st.Mean, st.Std, st.Min, st.P25, st.P50, st.P75, st.Max)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if detailed && len(bill.Calls) > 0 {
		fmt.Fprintf(w, "\nCalls:\n")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "  #\tCALLER\tSTART\tEND\tMAIN\tOTHER\tBONUS\tCOST\t\n")
		for _, rc := range bill.Calls {
			free := ""
			if rc.Free {
				free = "free"
			}
			fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%.0fs\t%.0fs\t%.0fs\t%.2f\t%s\n",
				rc.Index+1,
				rc.Call.Caller,
				rc.Call.Start.Format(TimeLayout),
				rc.Call.End.Format(TimeLayout),
				rc.Segments.Main.Seconds(),
				rc.Segments.Other.Seconds(),
				rc.Segments.Bonus.Seconds(),
				rc.Cost.Total,
				free,
			)
		}
		return tw.Flush()
	}

	return nil
}

func tariffName(s model.BillingSummary) string {
	if s.Tariff == "" {
		return "default"
	}
	return s.Tariff
}

func minutes(sec float64) string {
	return fmt.Sprintf("%.2f min", sec/60)
}
