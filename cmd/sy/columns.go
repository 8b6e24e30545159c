package main

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/switchyard/internal/db"
	"github.com/zulandar/switchyard/internal/notify"
	"github.com/zulandar/switchyard/internal/project"
	"github.com/zulandar/switchyard/internal/workflow"
)

func newProjectColumnsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "columns",
		Short: "Show or change a project's board columns",
	}

	cmd.AddCommand(newColumnsShowCmd())
	cmd.AddCommand(newColumnsSetCmd())
	cmd.AddCommand(newColumnsResetCmd())
	cmd.AddCommand(newColumnsTemplatesCmd())
	return cmd
}

func newColumnsShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show the resolved board of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			defer db.Close(gormDB)

			cols, err := project.Columns(gormDB, args[0])
			if err != nil {
				return err
			}
			return printColumns(cmd, cols)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchyard config file")
	return cmd
}

func newColumnsSetCmd() *cobra.Command {
	var (
		configPath string
		template   string
		file       string
	)

	cmd := &cobra.Command{
		Use:   "set <project-id>",
		Short: "Replace a project's board",
		Long: "Validates and stores a new board. Tasks on statuses the new board no longer has " +
			"are moved to its default status and tracker bindings are rebuilt, all in one transaction.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if template == "" && file == "" {
				return fmt.Errorf("one of --template or --file is required")
			}
			return runColumnsUpdate(cmd, configPath, args[0], project.SetColumns, template, file)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchyard config file")
	cmd.Flags().StringVar(&template, "template", "", "board template from the config file")
	cmd.Flags().StringVarP(&file, "file", "f", "", "board columns file (YAML or JSON)")
	cmd.MarkFlagsMutuallyExclusive("template", "file")
	return cmd
}

func newColumnsResetCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "reset <project-id>",
		Short: "Return a project to the default board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runColumnsUpdate(cmd, configPath, args[0], func([]workflow.Column) project.ColumnsChange {
				return project.ResetColumns()
			}, "", "")
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchyard config file")
	return cmd
}

func newColumnsTemplatesCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List board templates defined in the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(cfg.Templates) == 0 {
				fmt.Fprintln(out, "No templates defined.")
				return nil
			}
			names := make([]string, 0, len(cfg.Templates))
			for name := range cfg.Templates {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				cols, err := cfg.Template(name)
				if err != nil {
					return err
				}
				ids := make([]string, len(cols))
				for i, c := range cols {
					ids[i] = c.ID
				}
				fmt.Fprintf(out, "%s: %s\n", name, strings.Join(ids, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchyard config file")
	return cmd
}

func runColumnsUpdate(cmd *cobra.Command, configPath, id string, change func([]workflow.Column) project.ColumnsChange, template, file string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	cols, err := columnsFromFlags(cfg, template, file)
	if err != nil {
		return columnsError(err)
	}

	ctx := context.Background()
	p, report, err := project.Update(ctx, gormDB, id, project.UpdateOpts{Columns: change(cols)})
	if err != nil {
		return columnsError(err)
	}
	printUpdateReport(cmd, report)

	n, err := buildNotifier(cfg)
	if err != nil {
		return err
	}
	if msg, ok := notify.FromUpdate(p.Name, report); ok {
		if err := n.Notify(ctx, msg); err != nil {
			log.Printf("sy: notify: %v", err)
		}
	}
	return nil
}

func printUpdateReport(cmd *cobra.Command, report *project.UpdateReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Board updated for project %s: %d task(s) remapped, %d link(s) reconciled\n",
		report.ProjectID, len(report.Remapped), len(report.Links))

	if len(report.Remapped) > 0 {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TASK\tFROM\tTO")
		for _, r := range report.Remapped {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.TaskID, r.From, r.To)
		}
		w.Flush()
	}
	for _, l := range report.Links {
		line := fmt.Sprintf("Link %s (%s): %s, %d bound", l.LinkID, l.Provider, l.Status, l.Bound)
		if len(l.Unmapped) > 0 {
			line += ", unmapped: " + strings.Join(l.Unmapped, ", ")
		}
		fmt.Fprintln(out, line)
	}
}
