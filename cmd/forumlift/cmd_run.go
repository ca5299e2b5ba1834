package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: extract, transform, load, recalc, verify",
		RunE: func(cmd *cobra.Command, args []string) error {
			stages := []struct {
				name string
				fn   func() error
			}{
				{"extract", func() error { return runExtract(cmd) }},
				{"transform", runTransform},
				{"load", func() error { return runLoad(cmd) }},
				{"recalc", func() error { return runRecalc(cmd) }},
				{"verify", func() error { return runVerify(cmd) }},
			}

			for _, stage := range stages {
				if cfg.DryRun && (stage.name == "recalc" || stage.name == "verify") {
					log.WithField("stage", stage.name).Info("dry run, skipping")
					continue
				}
				fmt.Printf("\n--- %s ---\n", stage.name)
				if err := stage.fn(); err != nil {
					return fmt.Errorf("%s: %w", stage.name, err)
				}
			}

			return nil
		},
	}
}
