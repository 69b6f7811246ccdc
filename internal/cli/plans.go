package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/callbill/pkg/model"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Manage tariff plans",
}

var plansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the default tariff and all named plans",
	RunE:  runPlansList,
}

func init() {
	rootCmd.AddCommand(plansCmd)
	plansCmd.AddCommand(plansListCmd)
}

func runPlansList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	registry, err := initRegistry(cfg)
	if err != nil {
		return err
	}

	base, err := cfg.DefaultTariff()
	if err != nil {
		return fmt.Errorf("default tariff: %w", err)
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "PLAN\tMAIN WINDOW\tMAIN\tOTHER\tBONUS AFTER\tBONUS\tCURRENCY\n")
	for _, t := range append([]model.TariffConfig{base}, registry.All()...) {
		bonusAfter, bonusRate := "-", "-"
		if t.BonusEnabled() {
			bonusAfter = fmt.Sprintf("%g min", t.BonusThreshold.Minutes())
			bonusRate = fmt.Sprintf("%.2f", t.BonusRate)
		}
		fmt.Fprintf(w, "%s\t%s-%s\t%.2f\t%.2f\t%s\t%s\t%s\n",
			t.Name,
			t.MainWindowStart, t.MainWindowEnd,
			t.MainRate, t.OtherRate,
			bonusAfter, bonusRate,
			t.Currency,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(registry.List()) == 0 {
		fmt.Fprintf(out, "\nNo named plans found in %s.\n", cfg.Plans.Dir)
	}
	return nil
}
