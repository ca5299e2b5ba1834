package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forumlift/forumlift/internal/idmap"
	"github.com/forumlift/forumlift/internal/models"
	"github.com/forumlift/forumlift/internal/transform"
)

func newTransformCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transform",
		Short: "Convert legacy snapshots into target-shaped snapshots",
		Long:  "Dedupe usernames, flatten the category tree, convert content formats, and assign stable generated identifiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform()
		},
	}
}

func runTransform() error {
	maps, err := idmap.Load(cfg.MappingPath())
	if err != nil {
		return err
	}

	t := transform.New(maps, cfg, log)
	report, err := t.Run()
	if err != nil {
		return err
	}

	printStages(report.Users, report.Categories, report.Threads, report.Posts)

	return nil
}

func printStages(users, categories, threads, posts models.StageReport) {
	rows := []struct {
		name string
		r    models.StageReport
	}{
		{"users", users},
		{"categories", categories},
		{"threads", threads},
		{"posts", posts},
	}
	for _, row := range rows {
		fmt.Printf("  %-12s created %-6d skipped %-6d errored %d\n",
			row.name, row.r.Created, row.r.Skipped, row.r.Errored)
	}
}
