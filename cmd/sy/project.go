package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/switchyard/internal/config"
	"github.com/zulandar/switchyard/internal/db"
	"github.com/zulandar/switchyard/internal/project"
	"github.com/zulandar/switchyard/internal/workflow"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// isTerminal reports whether stdin is interactive. Tests replace it.
var isTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project and board management commands",
	}

	cmd.AddCommand(newProjectCreateCmd())
	cmd.AddCommand(newProjectListCmd())
	cmd.AddCommand(newProjectShowCmd())
	cmd.AddCommand(newProjectRenameCmd())
	cmd.AddCommand(newProjectDeleteCmd())
	cmd.AddCommand(newProjectColumnsCmd())
	return cmd
}

func newProjectCreateCmd() *cobra.Command {
	var (
		configPath  string
		name        string
		description string
		template    string
		file        string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new project",
		Long:  "Creates a project with the default board, a board from a config template, or a board read from a YAML or JSON file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectCreate(cmd, configPath, name, description, template, file)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchyard config file")
	cmd.Flags().StringVar(&name, "name", "", "project name (required)")
	cmd.Flags().StringVar(&description, "description", "", "project description")
	cmd.Flags().StringVar(&template, "template", "", "board template from the config file")
	cmd.Flags().StringVarP(&file, "file", "f", "", "board columns file (YAML or JSON)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagsMutuallyExclusive("template", "file")
	return cmd
}

func runProjectCreate(cmd *cobra.Command, configPath, name, description, template, file string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	cols, err := columnsFromFlags(cfg, template, file)
	if err != nil {
		return err
	}

	p, err := project.Create(context.Background(), gormDB, project.CreateOpts{
		Name:        name,
		Description: description,
		Columns:     cols,
	})
	if err != nil {
		return columnsError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", p.ID, p.Name)
	return nil
}

func newProjectListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectList(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchyard config file")
	return cmd
}

func runProjectList(cmd *cobra.Command, configPath string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	projects, err := project.List(gormDB)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(projects) == 0 {
		fmt.Fprintln(out, "No projects found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBOARD\tCOLUMNS")
	for _, p := range projects {
		board := "default"
		if p.ColumnsConfig != nil {
			board = "custom"
		}
		cols := workflow.ResolveStored(p.ColumnsConfig)
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", p.ID, truncate(p.Name, 40), board, len(cols))
	}
	return w.Flush()
}

func newProjectShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project and its board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectShow(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchyard config file")
	return cmd
}

func runProjectShow(cmd *cobra.Command, configPath, id string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	p, err := project.Get(gormDB, id)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:          %s\n", p.ID)
	fmt.Fprintf(out, "Name:        %s\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", p.Description)
	}
	fmt.Fprintf(out, "Created:     %s\n", p.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(out)
	return printColumns(cmd, workflow.ResolveStored(p.ColumnsConfig))
}

func newProjectRenameCmd() *cobra.Command {
	var (
		configPath  string
		description string
	)

	cmd := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var desc *string
			if cmd.Flags().Changed("description") {
				desc = &description
			}
			return runProjectRename(cmd, configPath, args[0], args[1], desc)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchyard config file")
	cmd.Flags().StringVar(&description, "description", "", "replace the project description")
	return cmd
}

func runProjectRename(cmd *cobra.Command, configPath, id, name string, description *string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	p, _, err := project.Update(context.Background(), gormDB, id, project.UpdateOpts{
		Name:        &name,
		Description: description,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Project %s renamed to %s\n", p.ID, p.Name)
	return nil
}

func newProjectDeleteCmd() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project with its tasks and tracker links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectDelete(cmd, configPath, args[0], yes)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchyard config file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func runProjectDelete(cmd *cobra.Command, configPath, id string, yes bool) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	p, err := project.Get(gormDB, id)
	if err != nil {
		return err
	}

	if !yes {
		if !isTerminal() {
			return fmt.Errorf("refusing to delete project %s without --yes on a non-interactive terminal", p.ID)
		}
		if !confirmDelete(cmd, p.Name) {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	if err := project.Delete(context.Background(), gormDB, p.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s (%s)\n", p.ID, p.Name)
	return nil
}

// confirmDelete prompts the user to type "yes" to confirm the deletion.
func confirmDelete(cmd *cobra.Command, name string) bool {
	out := cmd.OutOrStdout()
	in := cmd.InOrStdin()

	fmt.Fprintf(out, "WARNING: This will permanently delete project %q with all of its tasks and tracker links.\n", name)
	fmt.Fprint(out, "Type \"yes\" to confirm: ")

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()) == "yes"
	}
	return false
}

// columnsFromFlags returns the board named by --template or read from --file,
// or nil when neither is set.
func columnsFromFlags(cfg *config.Config, template, file string) ([]workflow.Column, error) {
	switch {
	case template != "":
		return cfg.Template(template)
	case file != "":
		return readColumnsFile(file)
	}
	return nil, nil
}

// readColumnsFile parses a YAML or JSON list of columns.
func readColumnsFile(path string) ([]workflow.Column, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read columns file: %w", err)
	}
	var cols []workflow.Column
	if err := yaml.Unmarshal(data, &cols); err != nil {
		return nil, fmt.Errorf("parse columns file %s: %w", path, err)
	}
	if cols == nil {
		cols = []workflow.Column{}
	}
	return cols, nil
}

// columnsError prefixes a column validation failure with a readable hint.
func columnsError(err error) error {
	var ve *workflow.ValidationError
	if errors.As(err, &ve) {
		return fmt.Errorf("invalid board (%s): %w", ve.Kind, err)
	}
	return err
}

func printColumns(cmd *cobra.Command, cols []workflow.Column) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POS\tID\tLABEL\tCOLOR\tCATEGORY")
	for _, c := range cols {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", c.Position, c.ID, truncate(c.Label, 30), c.Color, c.Category)
	}
	return w.Flush()
}
