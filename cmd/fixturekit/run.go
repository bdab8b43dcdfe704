package main

import (
	"fmt"

	"github.com/flanksource/clicky"
	"github.com/flanksource/commons/logger"
	"github.com/spf13/cobra"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/flanksource/fixturekit/isolation"
	"github.com/flanksource/fixturekit/lifecycle"
	"github.com/flanksource/fixturekit/plan"
)

var (
	isolationDB     string
	isolationTables []string
)

var runCmd = &cobra.Command{
	Use:          "run [plan-files...]",
	Short:        "Run fixture plans: resolve, apply and revert each test's fixtures",
	Args:         cobra.MinimumNArgs(1),
	RunE:         runPlans,
	SilenceUsage: true,
}

func runPlans(cmd *cobra.Command, args []string) error {
	wd, err := getWorkingDir()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	var checker lifecycle.IsolationChecker
	if isolationDB != "" {
		db, err := gorm.Open(sqlite.Open(isolationDB), &gorm.Config{})
		if err != nil {
			return fmt.Errorf("failed to open isolation database: %w", err)
		}
		checker = isolation.NewChecker(db, isolationTables...)
	}

	runner := plan.NewRunner(plan.RunnerOptions{
		Paths:   args,
		WorkDir: wd,
		Checker: checker,
		Logger:  logger.StandardLogger(),
	})

	report, err := runner.Run()
	if err != nil {
		return err
	}

	fmt.Println(clicky.MustFormat(*report))

	if report.Stats.HasFailures() {
		return fmt.Errorf("fixture plans failed")
	}
	return nil
}

func init() {
	runCmd.Flags().StringVar(&isolationDB, "isolation-db", "", "SQLite database to check for state leakage between tests")
	runCmd.Flags().StringSliceVar(&isolationTables, "isolation-tables", nil, "Tables to watch for leakage (default: all)")
	rootCmd.AddCommand(runCmd)
}
