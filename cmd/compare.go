package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/capmodel/internal/analysis"
	"github.com/sells-group/capmodel/internal/captable"
	"github.com/sells-group/capmodel/internal/report"
	"github.com/sells-group/capmodel/internal/scenario"
)

var compareCmd = &cobra.Command{
	Use:   "compare <scenario.yaml>...",
	Short: "Compare stakeholder outcomes across scenario variants",
	Long: `Run several scenarios from the same starting positions and tabulate
each stakeholder's ownership and each exit's return side by side.

Example:
  capmodel compare conservative.yaml aggressive.yaml --positions captable.yaml`,
	Args: cobra.MinimumNArgs(2),
	RunE: runCompare,
}

func init() {
	f := compareCmd.Flags()
	f.String("positions", "", "path to the current cap-table positions YAML (required)")
	f.Bool("json", false, "emit the comparison as JSON")
	_ = compareCmd.MarkFlagRequired("positions")

	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	positionsPath, _ := cmd.Flags().GetString("positions")
	asJSON, _ := cmd.Flags().GetBool("json")

	positions, err := loadPositions(positionsPath)
	if err != nil {
		return err
	}

	scenarios := make([]*captable.Scenario, 0, len(args))
	for _, path := range args {
		sc, err := loadScenario(path)
		if err != nil {
			return err
		}
		scenarios = append(scenarios, sc)
	}

	o, err := scenario.New(cfg.Modeling)
	if err != nil {
		return err
	}

	cmp, err := analysis.NewAnalyzer(o).Compare(ctx, positions, scenarios)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cmp)
	}

	f := report.NewFormatter(cfg.Modeling)

	fmt.Println("Stakeholder ownership by scenario:")
	for _, row := range cmp.Stakeholders {
		fmt.Printf("  %-32s", row.Name)
		for _, name := range cmp.ScenarioNames {
			if out, ok := row.PerScenario[name]; ok {
				fmt.Printf("  %s=%s", name, f.Pct(out.OwnershipPct))
			} else {
				fmt.Printf("  %s=–", name)
			}
		}
		fmt.Println()
	}

	fmt.Println("\nExit returns by scenario:")
	for _, row := range cmp.Exits {
		fmt.Printf("  exit %s:", f.Cents(row.ExitValueCents))
		for _, name := range cmp.ScenarioNames {
			if out, ok := row.PerScenario[name]; ok {
				fmt.Printf("  %s=%s (%s)", name, f.Cents(out.TotalReturnCents), f.Multiple(out.ReturnMultiple))
			}
		}
		fmt.Println()
	}
	return nil
}
