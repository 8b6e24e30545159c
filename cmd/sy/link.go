package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/switchyard/internal/db"
	"github.com/zulandar/switchyard/internal/integration"
	"github.com/zulandar/switchyard/internal/workflow"
)

func newLinkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "External tracker link commands",
	}

	cmd.AddCommand(newLinkAddCmd())
	cmd.AddCommand(newLinkListCmd())
	cmd.AddCommand(newLinkBindCmd())
	cmd.AddCommand(newLinkRemoveCmd())
	return cmd
}

func newLinkAddCmd() *cobra.Command {
	var (
		configPath string
		projectID  string
		provider   string
		external   string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Link a project to an external tracker",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			defer db.Close(gormDB)

			l, err := integration.Link(gormDB, integration.LinkOpts{
				ProjectID:         projectID,
				Provider:          provider,
				ExternalProjectID: external,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created link %s (%s)\n", l.ID, l.Provider)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchyard config file")
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "project ID (required)")
	cmd.Flags().StringVar(&provider, "provider", "", "tracker: "+strings.Join(integration.Providers, ", "))
	cmd.Flags().StringVar(&external, "external", "", "external project or team id (owner/repo for github)")
	cmd.MarkFlagRequired("project")
	cmd.MarkFlagRequired("provider")
	cmd.MarkFlagRequired("external")
	return cmd
}

func newLinkListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List a project's tracker links and their bindings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			defer db.Close(gormDB)

			links, err := integration.ListLinks(gormDB, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(links) == 0 {
				fmt.Fprintln(out, "No links found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "LINK\tPROVIDER\tEXTERNAL\tSTATUS\tSTATE\tTYPE")
			for _, l := range links {
				if len(l.Bindings) == 0 {
					fmt.Fprintf(w, "%s\t%s\t%s\t-\t-\t-\n", l.ID, l.Provider, l.ExternalProjectID)
					continue
				}
				for _, b := range l.Bindings {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						l.ID, l.Provider, l.ExternalProjectID, b.LocalStatus, b.ExternalStateID, b.ExternalStateType)
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchyard config file")
	return cmd
}

func newLinkBindCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "bind <link-id> <status=state-id:type>...",
		Short: "Replace a link's status bindings",
		Long: "Replaces every binding of a link. Each argument maps a local status to an external " +
			"state id and that state's workflow type, e.g. doing=st_42:started.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bindings, err := parseBindings(args[1:])
			if err != nil {
				return err
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			defer db.Close(gormDB)

			if err := integration.ReplaceBindings(gormDB, args[0], bindings); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Link %s now has %d binding(s)\n", args[0], len(bindings))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchyard config file")
	return cmd
}

// parseBindings parses status=state-id:type arguments.
func parseBindings(args []string) ([]integration.Binding, error) {
	bindings := make([]integration.Binding, 0, len(args))
	for _, arg := range args {
		status, rest, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("binding %q: want status=state-id:type", arg)
		}
		i := strings.LastIndex(rest, ":")
		if i < 0 {
			return nil, fmt.Errorf("binding %q: want status=state-id:type", arg)
		}
		bindings = append(bindings, integration.Binding{
			LocalStatus: strings.TrimSpace(status),
			StateID:     strings.TrimSpace(rest[:i]),
			StateType:   workflow.Category(strings.TrimSpace(rest[i+1:])),
		})
	}
	return bindings, nil
}

func newLinkRemoveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "remove <link-id>",
		Short: "Remove a tracker link and its bindings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			defer db.Close(gormDB)

			if err := integration.Unlink(gormDB, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed link %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchyard config file")
	return cmd
}
