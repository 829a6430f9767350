package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/capmodel/internal/report"
	"github.com/sells-group/capmodel/internal/scenario"
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Run one scenario: rounds, anti-dilution, notes, and exit waterfalls",
	Long: `Run a complete modeling scenario from a YAML definition.

Processes each funding round in order (note conversions first, then
dilution, then anti-dilution adjustments), runs the waterfall for every
exit scenario, and prints the consolidated result.

Examples:
  # Human-readable summary
  capmodel run scenario.yaml --positions captable.yaml

  # Full result as JSON for downstream tooling
  capmodel run scenario.yaml --positions captable.yaml --json`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.String("positions", "", "path to the current cap-table positions YAML (required)")
	f.Bool("json", false, "emit the full result as JSON")
	_ = runCmd.MarkFlagRequired("positions")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	positionsPath, _ := cmd.Flags().GetString("positions")
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

	log := zap.L().With(zap.String("command", "run"), zap.String("scenario", sc.Name))
	start := time.Now()

	res, err := o.Run(ctx, positions, sc)
	if err != nil {
		return err
	}
	log.Info("scenario complete",
		zap.Int("rounds", len(res.Rounds)),
		zap.Int("exits", len(res.Waterfalls)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	printResult(res)
	return nil
}

// printResult writes the human-readable summary tables.
func printResult(res *scenario.Result) {
	f := report.NewFormatter(cfg.Modeling)

	fmt.Printf("Scenario: %s\n\n", res.Scenario.Name)

	for _, r := range res.Rounds {
		fmt.Printf("Round %s: %s new shares at post-money %s\n",
			r.RoundName, f.Shares(r.NewShares), f.Cents(r.PostMoneyCents))
	}
	for _, adj := range res.Adjustments {
		fmt.Printf("Anti-dilution (%s) on %s in %s: conversion ratio %s\n",
			adj.Policy, adj.SeriesName, adj.RoundName, adj.ConversionRatio.Round(4))
	}
	for _, nc := range res.NoteConversions {
		fmt.Printf("Note %s converts in %s: %s shares\n",
			nc.Holder, nc.RoundName, f.Shares(nc.SharesIssued))
	}

	fmt.Printf("\nFinal ownership (raised %s, post-money %s):\n",
		f.Cents(res.Summary.TotalRaisedCents), f.Cents(res.Summary.FinalPostMoneyCents))
	for _, line := range res.Summary.FinalOwnership {
		fmt.Printf("  %-32s %12s  %8s\n", line.Name, f.Shares(line.Shares), f.Pct(line.Pct))
	}

	for _, wr := range res.Waterfalls {
		fmt.Printf("\nExit %q at %s:\n", wr.ExitName, f.Cents(wr.ExitValueCents))
		for _, p := range wr.Payouts {
			fmt.Printf("  %-32s %14s  %8s\n", p.Name, f.Cents(p.TotalCents), f.Pct(p.PctOfExit))
		}
	}
}
