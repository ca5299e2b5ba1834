package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forumlift/forumlift/internal/dbpool"
	"github.com/forumlift/forumlift/internal/verify"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Reconcile the target store against the legacy snapshots",
		Long:  "Run read-only checks and print a pass/warn/fail report; exits non-zero only on a fail-level finding",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd)
		},
	}
}

func runVerify(cmd *cobra.Command) error {
	if err := cfg.ValidateTarget(); err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := dbpool.New(ctx, cfg.DatabaseURL.Value())
	if err != nil {
		return err
	}
	defer pool.Close()

	report, err := verify.New(pool, cfg, log).Run(ctx)
	if err != nil {
		return err
	}

	report.Print(os.Stdout)

	if report.Failed() {
		return fmt.Errorf("verification failed")
	}

	return nil
}
