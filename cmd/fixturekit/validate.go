package main

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/flanksource/clicky"
	"github.com/spf13/cobra"

	"github.com/flanksource/fixturekit/annotations"
	"github.com/flanksource/fixturekit/lifecycle"
	"github.com/flanksource/fixturekit/plan"
)

var validateCmd = &cobra.Command{
	Use:          "validate [plan-files...]",
	Short:        "Validate fixture plans and print each test's resolved directives",
	Args:         cobra.MinimumNArgs(1),
	RunE:         validatePlans,
	SilenceUsage: true,
}

func validatePlans(cmd *cobra.Command, args []string) error {
	parser := annotations.NewParser()

	for _, pattern := range args {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return fmt.Errorf("invalid glob pattern '%s': %w", pattern, err)
		}
		for _, path := range matches {
			p, err := plan.Load(path)
			if err != nil {
				return err
			}

			fmt.Println(clicky.Text(path, "font-bold text-blue-600").ANSI())
			for _, class := range p.Tests {
				for _, method := range class.Methods {
					test := lifecycle.TestRef{Class: class.Class, Method: method.Name}
					fmt.Println("  " + test.Pretty().ANSI())
					for _, raw := range append(append([]string{}, class.Annotations...), method.Annotations...) {
						directive, err := parser.Parse(raw)
						if err != nil {
							return fmt.Errorf("%s: %w", test, err)
						}
						fmt.Println("    " + directive.Pretty().ANSI())
					}
				}
			}
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
