package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/capmodel/internal/analysis"
	"github.com/sells-group/capmodel/internal/report"
	"github.com/sells-group/capmodel/internal/scenario"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep <scenario.yaml>",
	Short: "Sweep one parameter across a range for sensitivity analysis",
	Long: `Linearly interpolate steps+1 values of a single parameter, re-run the
scenario once per value, and report each stakeholder's ownership delta
and each exit's return delta against the unmodified base run.

Supported parameter paths:
  rounds[i].pre_money        rounds[i].investment
  rounds[i].price_per_share  rounds[i].option_pool_pct
  exits[i].exit_value        exits[i].probability

Example:
  capmodel sweep scenario.yaml --positions captable.yaml \
    --param 'rounds[0].pre_money' --min 500000000 --max 2000000000 --steps 10`,
	Args: cobra.ExactArgs(1),
	RunE: runSweep,
}

func init() {
	f := sweepCmd.Flags()
	f.String("positions", "", "path to the current cap-table positions YAML (required)")
	f.String("param", "", "parameter path to sweep (required)")
	f.Float64("min", 0, "range start")
	f.Float64("max", 0, "range end")
	f.Int("steps", 10, "number of interpolation steps (produces steps+1 samples)")
	f.Bool("json", false, "emit the sweep as JSON")
	_ = sweepCmd.MarkFlagRequired("positions")
	_ = sweepCmd.MarkFlagRequired("param")

	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	positionsPath, _ := cmd.Flags().GetString("positions")
	param, _ := cmd.Flags().GetString("param")
	min, _ := cmd.Flags().GetFloat64("min")
	max, _ := cmd.Flags().GetFloat64("max")
	steps, _ := cmd.Flags().GetInt("steps")
	asJSON, _ := cmd.Flags().GetBool("json")

	positions, err := loadPositions(positionsPath)
	if err != nil {
		return err
	}
	sc, err := loadScenario(args[0])
	if err != nil {
		return err
	}

	o, err := scenario.New(cfg.Modeling)
	if err != nil {
		return err
	}

	sens, err := analysis.NewAnalyzer(o).Sweep(ctx, positions, sc, param, min, max, steps)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sens)
	}

	f := report.NewFormatter(cfg.Modeling)
	fmt.Printf("Sweep %s over [%v, %v], %d steps:\n", sens.Parameter, sens.Min, sens.Max, sens.Steps)
	for _, pt := range sens.Points {
		fmt.Printf("\n  value=%v\n", pt.Value)

		ids := make([]string, 0, len(pt.OwnershipDeltaPct))
		for id := range pt.OwnershipDeltaPct {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Printf("    %-32s Δ%s\n", id, f.Pct(pt.OwnershipDeltaPct[id]))
		}

		exits := make([]string, 0, len(pt.ExitReturnDeltaCents))
		for name := range pt.ExitReturnDeltaCents {
			exits = append(exits, name)
		}
		sort.Strings(exits)
		for _, name := range exits {
			fmt.Printf("    exit %-27s Δ%s\n", name, f.Cents(pt.ExitReturnDeltaCents[name]))
		}
	}
	return nil
}
