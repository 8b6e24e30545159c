package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/switchyard/internal/db"
	ghtracker "github.com/zulandar/switchyard/internal/tracker/github"
)

// newGitHubClient is replaced in tests to point at a fake API.
var newGitHubClient = ghtracker.NewClient

func newPushCmd() *cobra.Command {
	var (
		configPath string
		linkID     string
		issue      int
	)

	cmd := &cobra.Command{
		Use:   "push <task-id>",
		Short: "Push a task's state to its linked GitHub issue",
		Long:  "Opens, closes or reopens a GitHub issue to match the category of the task's current column.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			defer db.Close(gormDB)

			ctx := context.Background()
			client := newGitHubClient(ctx, cfg.GitHubToken())
			pusher := ghtracker.NewPusher(client, cfg.GitHub.Owner, cfg.GitHub.Repo)
			res, err := pusher.Push(ctx, gormDB, ghtracker.PushOpts{
				LinkID: linkID,
				TaskID: args[0],
				Issue:  issue,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s#%d is now %s (%s)\n", res.Owner, res.Repo, res.Issue, res.State, res.StateReason)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchyard config file")
	cmd.Flags().StringVar(&linkID, "link", "", "github link ID (required)")
	cmd.Flags().IntVar(&issue, "issue", 0, "issue number (required)")
	cmd.MarkFlagRequired("link")
	cmd.MarkFlagRequired("issue")
	return cmd
}
