package main

import (
	"github.com/spf13/cobra"

	"github.com/forumlift/forumlift/internal/config"
	"github.com/forumlift/forumlift/internal/dbpool"
	"github.com/forumlift/forumlift/internal/identity"
	"github.com/forumlift/forumlift/internal/load"
)

func newLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Write transformed snapshots into the target store",
		Long:  "Insert identities, profiles, categories, threads and posts in foreign-key order, validating each stage against what actually landed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd)
		},
	}
}

func runLoad(cmd *cobra.Command) error {
	ctx := cmd.Context()

	// A dry run only reads the snapshots; no target needed.
	if cfg.DryRun {
		report, err := load.New(nil, nil, cfg, log).Run(ctx)
		if err != nil {
			return err
		}
		printStages(report.Users, report.Categories, report.Threads, report.Posts)
		return nil
	}

	if err := cfg.ValidateTarget(); err != nil {
		return err
	}
	if err := cfg.ValidateIdentity(); err != nil {
		return err
	}

	log.WithField("target", config.RedactURL(cfg.DatabaseURL.Value())).Info("connecting to target store")

	pool, err := dbpool.New(ctx, cfg.DatabaseURL.Value())
	if err != nil {
		return err
	}
	defer pool.Close()

	ident := identity.New(cfg.IdentityURL, cfg.ServiceRoleKey.Value())
	l := load.New(load.NewPGStore(pool), ident, cfg, log)

	report, err := l.Run(ctx)
	if err != nil {
		return err
	}

	printStages(report.Users, report.Categories, report.Threads, report.Posts)

	return nil
}
