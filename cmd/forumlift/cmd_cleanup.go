package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forumlift/forumlift/internal/cleanup"
	"github.com/forumlift/forumlift/internal/config"
	"github.com/forumlift/forumlift/internal/dbpool"
	"github.com/forumlift/forumlift/internal/identity"
)

func newCleanupCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete all migrated data from the target store",
		Long:  "Remove posts, threads, categories, profiles and identities in reverse-dependency order, then delete the snapshots and ID mapping store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCleanup(cmd, yes)
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")

	return cmd
}

func runCleanup(cmd *cobra.Command, yes bool) error {
	if err := cfg.ValidateTarget(); err != nil {
		return err
	}
	if !cfg.DryRun {
		if err := cfg.ValidateIdentity(); err != nil {
			return err
		}
	}

	if !yes && !cfg.DryRun {
		fmt.Print("This deletes every migrated row, identity and snapshot. Type 'yes' to continue: ")
		var answer string
		fmt.Scanln(&answer) //nolint:errcheck
		if answer != "yes" {
			return fmt.Errorf("cleanup aborted")
		}
	}

	log.WithField("target", config.RedactURL(cfg.DatabaseURL.Value())).Info("connecting to target store")

	ctx := cmd.Context()
	pool, err := dbpool.New(ctx, cfg.DatabaseURL.Value())
	if err != nil {
		return err
	}
	defer pool.Close()

	ident := identity.New(cfg.IdentityURL, cfg.ServiceRoleKey.Value())
	report, err := cleanup.New(pool, ident, cfg, log).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("removed %d posts, %d threads, %d categories, %d profiles, %d identities, %d files\n",
		report.Posts, report.Threads, report.Categories, report.Profiles, report.Identities, report.Files)

	return nil
}
