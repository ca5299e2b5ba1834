package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forumlift/forumlift/internal/extract"
)

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Read the legacy forum database into snapshot files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd)
		},
	}
}

func runExtract(cmd *cobra.Command) error {
	if err := cfg.ValidateSource(); err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := extract.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	e := &extract.Extractor{DB: db, Cfg: cfg, Log: log}
	report, err := e.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("extracted %d users, %d categories, %d discussions, %d comments to %s\n",
		report.Users, report.Categories, report.Discussions, report.Comments, cfg.WorkDir)

	return nil
}
