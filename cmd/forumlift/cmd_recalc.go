package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forumlift/forumlift/internal/dbpool"
	"github.com/forumlift/forumlift/internal/recalc"
)

func newRecalcCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recalc",
		Short: "Rebuild aggregate counters in the target store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecalc(cmd)
		},
	}
}

func runRecalc(cmd *cobra.Command) error {
	if err := cfg.ValidateTarget(); err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := dbpool.New(ctx, cfg.DatabaseURL.Value())
	if err != nil {
		return err
	}
	defer pool.Close()

	report, err := recalc.New(pool, log).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("recalculated aggregates for %d threads, %d categories, %d users\n",
		report.Threads, report.Categories, report.Users)

	return nil
}
