package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/switchyard/internal/db"
	"github.com/zulandar/switchyard/internal/project"
)

func newRepairCmd() *cobra.Command {
	var (
		configPath string
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Re-derive canonical boards and remap orphaned tasks",
		Long:  "Rewrites every stored board to its canonical form and moves tasks on unknown statuses to the board's default status. Safe to run repeatedly.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepair(cmd, configPath, workers)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchyard config file")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel project workers (default from config)")
	return cmd
}

func runRepair(cmd *cobra.Command, configPath string, workers int) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	gormDB, err := db.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open %s database: %w", cfg.Database.Driver, err)
	}
	defer db.Close(gormDB)

	if workers <= 0 {
		workers = cfg.Repair.Workers
	}
	result, err := project.Repair(context.Background(), gormDB, project.RepairOpts{Workers: workers})
	if err != nil {
		return err
	}
	printRepair(cmd, result)
	return nil
}

func printRepair(cmd *cobra.Command, result *project.RepairResult) {
	out := cmd.OutOrStdout()
	if result.Skipped {
		fmt.Fprintln(out, "Repair skipped: schema has no board columns yet")
		return
	}
	fmt.Fprintf(out, "Checked %d project(s): %d config(s) rewritten, %d task(s) remapped\n",
		result.Projects, result.ConfigsRewritten, result.TasksRemapped)
	if len(result.Details) == 0 {
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROJECT\tCONFIG\tREMAPPED")
	for _, d := range result.Details {
		config := "-"
		switch {
		case d.ConfigCleared:
			config = "cleared"
		case d.ConfigRewritten:
			config = "rewritten"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\n", d.ProjectID, config, len(d.Remapped))
	}
	w.Flush()
}
