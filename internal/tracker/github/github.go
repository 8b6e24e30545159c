// Package github pushes local task status to linked GitHub issues.
package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v68/github"
	"github.com/zulandar/switchyard/internal/integration"
	"github.com/zulandar/switchyard/internal/models"
	"github.com/zulandar/switchyard/internal/task"
	"github.com/zulandar/switchyard/internal/workflow"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// NewClient returns a GitHub client authenticated with a static token.
// An empty token gives an unauthenticated client.
func NewClient(ctx context.Context, token string) *github.Client {
	if token == "" {
		return github.NewClient(nil)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return github.NewClient(oauth2.NewClient(ctx, ts))
}

// Pusher updates issue state from task status.
type Pusher struct {
	client *github.Client
	owner  string
	repo   string
}

// NewPusher returns a Pusher. owner and repo are used when a link's external
// project id is not of the form "owner/repo".
func NewPusher(client *github.Client, owner, repo string) *Pusher {
	return &Pusher{client: client, owner: owner, repo: repo}
}

// PushOpts identifies what to push.
type PushOpts struct {
	LinkID string
	TaskID string
	Issue  int
}

// PushResult reports the state written to the issue.
type PushResult struct {
	Owner       string
	Repo        string
	Issue       int
	State       string // open or closed
	StateReason string // completed, not_planned or reopened
}

// Push sets the issue's state from the task's status. The link's binding for
// the status decides the external type; without one, the column's own
// category is used.
func (p *Pusher) Push(ctx context.Context, db *gorm.DB, opts PushOpts) (*PushResult, error) {
	if opts.Issue <= 0 {
		return nil, fmt.Errorf("github: issue number is required")
	}
	link, err := integration.GetLink(db, opts.LinkID)
	if err != nil {
		return nil, err
	}
	if link.Provider != "github" {
		return nil, fmt.Errorf("github: link %s is a %s link", link.ID, link.Provider)
	}
	t, err := task.Get(db, opts.TaskID)
	if err != nil {
		return nil, err
	}
	if t.ProjectID != link.ProjectID {
		return nil, fmt.Errorf("github: task %s is not in the linked project", t.ID)
	}

	stateType, err := externalType(db, link, t)
	if err != nil {
		return nil, err
	}

	owner, repo := p.target(link)
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("github: no repository for link %s", link.ID)
	}
	res := &PushResult{Owner: owner, Repo: repo, Issue: opts.Issue}
	res.State, res.StateReason = issueState(stateType)

	req := &github.IssueRequest{State: github.Ptr(res.State), StateReason: github.Ptr(res.StateReason)}
	if _, _, err := p.client.Issues.Edit(ctx, owner, repo, opts.Issue, req); err != nil {
		return nil, fmt.Errorf("github: edit %s/%s#%d: %w", owner, repo, opts.Issue, err)
	}
	return res, nil
}

func externalType(db *gorm.DB, link *models.IntegrationLink, t *models.Task) (workflow.Category, error) {
	for _, b := range link.Bindings {
		if b.LocalStatus == t.Status {
			return workflow.Category(b.ExternalStateType), nil
		}
	}
	var p models.Project
	if err := db.Select("id", "columns_config").Where("id = ?", t.ProjectID).First(&p).Error; err != nil {
		return "", fmt.Errorf("github: load project %s: %w", t.ProjectID, err)
	}
	col := workflow.ColumnByID(t.Status, workflow.ResolveStored(p.ColumnsConfig))
	if col == nil {
		return "", fmt.Errorf("github: status %q is not on the board", t.Status)
	}
	return col.Category, nil
}

// issueState maps an external state type to a GitHub issue state.
func issueState(c workflow.Category) (state, reason string) {
	switch c {
	case workflow.CategoryCompleted:
		return "closed", "completed"
	case workflow.CategoryCanceled:
		return "closed", "not_planned"
	default:
		return "open", "reopened"
	}
}

func (p *Pusher) target(link *models.IntegrationLink) (string, string) {
	if owner, repo, ok := strings.Cut(link.ExternalProjectID, "/"); ok && owner != "" && repo != "" {
		return owner, repo
	}
	return p.owner, p.repo
}
