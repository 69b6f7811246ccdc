package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ogulcanaydogan/callbill/pkg/alerts"
	"github.com/ogulcanaydogan/callbill/pkg/billing"
	"github.com/ogulcanaydogan/callbill/pkg/ingest"
	"github.com/ogulcanaydogan/callbill/pkg/model"
	"github.com/ogulcanaydogan/callbill/pkg/report"
	"github.com/ogulcanaydogan/callbill/pkg/tariff"
)

var billCmd = &cobra.Command{
	Use:   "bill <calls.csv>",
	Short: "Bill a call detail file",
	Long: `Bill a header-less CSV file of caller,start,end rows. Use "-" to read
from standard input. Tariff values come from config, optionally replaced by a
named plan and individual flags.`,
	Args: cobra.ExactArgs(1),
	RunE: runBill,
}

func init() {
	rootCmd.AddCommand(billCmd)
	addBillFlags(billCmd.Flags())
}

// addBillFlags registers the flags shared by bill and watch.
func addBillFlags(fs *pflag.FlagSet) {
	fs.StringP("plan", "p", "", "Named tariff plan")
	fs.String("main-start", "", "Main window start (HH:MM)")
	fs.String("main-end", "", "Main window end (HH:MM)")
	fs.Float64("main-rate", 0, "Per-minute rate inside the main window")
	fs.Float64("other-rate", 0, "Per-minute rate outside the main window")
	fs.Float64("bonus-threshold", 0, "Minutes after which the bonus rate applies (0 disables)")
	fs.Float64("bonus-rate", 0, "Per-minute rate past the bonus threshold")
	fs.String("layout", "", "Timestamp layout: iso, us or a Go layout (default from config)")
	fs.StringP("format", "f", "", "Output format: auto, table, json, csv (default from config)")
	fs.Bool("detailed", false, "Show individual calls in table output")
	fs.Bool("notify", false, "Send the run summary to configured notifiers")
}

// overrideFromFlags collects only the tariff flags that were set explicitly.
func overrideFromFlags(fs *pflag.FlagSet) tariff.Override {
	var o tariff.Override
	str := func(name string) *string {
		if !fs.Changed(name) {
			return nil
		}
		v, _ := fs.GetString(name)
		return &v
	}
	num := func(name string) *float64 {
		if !fs.Changed(name) {
			return nil
		}
		v, _ := fs.GetFloat64(name)
		return &v
	}

	o.MainWindowStart = str("main-start")
	o.MainWindowEnd = str("main-end")
	o.MainRate = num("main-rate")
	o.OtherRate = num("other-rate")
	o.BonusThresholdMinutes = num("bonus-threshold")
	o.BonusRate = num("bonus-rate")
	return o
}

// billRequest is everything needed to bill one file.
type billRequest struct {
	engine *billing.Engine
	ingest ingest.Options
	path   string
	stdin  io.Reader
	output report.Options
	notify []alerts.Notifier
}

// prepareBill resolves tariff and input options from config and flags.
func prepareBill(a *app, fs *pflag.FlagSet, path string) (*billRequest, error) {
	plan, _ := fs.GetString("plan")
	t, err := tariff.Resolve(a.plans, a.engine.Tariff(), plan, overrideFromFlags(fs))
	if err != nil {
		return nil, err
	}
	engine, err := a.engine.WithTariff(t)
	if err != nil {
		return nil, err
	}

	opts, err := a.cfg.IngestOptions()
	if err != nil {
		return nil, err
	}
	if layout, _ := fs.GetString("layout"); layout != "" {
		opts.Layout = ingest.ResolveLayout(layout)
	}

	formatName := a.cfg.Output.Format
	if fs.Changed("format") {
		formatName, _ = fs.GetString("format")
	}
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}
	detailed, _ := fs.GetBool("detailed")

	req := &billRequest{
		engine: engine,
		ingest: opts,
		path:   path,
		stdin:  os.Stdin,
		output: report.Options{Format: format, Detailed: detailed},
	}
	if notify, _ := fs.GetBool("notify"); notify {
		req.notify = a.notifiers
	}
	return req, nil
}

// run reads, bills and renders the file once.
func (r *billRequest) run(ctx context.Context, w io.Writer, a *app) (*model.Bill, error) {
	var (
		calls []model.CallRecord
		err   error
	)
	if r.path == "-" {
		calls, err = ingest.Read(r.stdin, r.ingest)
	} else {
		calls, err = ingest.ReadFile(r.path, r.ingest)
	}
	if err != nil {
		return nil, fmt.Errorf("read calls: %w", err)
	}

	bill, err := r.engine.Run(ctx, calls)
	if err != nil {
		return nil, fmt.Errorf("bill calls: %w", err)
	}

	if len(r.notify) > 0 {
		alerts.Dispatch(ctx, r.notify, alerts.SummaryAlert(bill.Summary), a.logger)
	}

	if err := report.Write(w, bill, r.output); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	return bill, nil
}

func runBill(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := initApp(cfg, nil)
	if err != nil {
		return err
	}

	req, err := prepareBill(a, cmd.Flags(), args[0])
	if err != nil {
		return err
	}
	req.stdin = cmd.InOrStdin()

	_, err = req.run(cmd.Context(), cmd.OutOrStdout(), a)
	return err
}
