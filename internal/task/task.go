// Package task provides task lifecycle operations on top of a project's board.
package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/switchyard/internal/models"
	"github.com/zulandar/switchyard/internal/workflow"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a task or its project does not exist.
var ErrNotFound = errors.New("task: not found")

// ErrUnknownStatus is returned when a status is not a column of the project's board.
var ErrUnknownStatus = errors.New("task: unknown status")

// CreateOpts holds parameters for creating a new task.
type CreateOpts struct {
	ProjectID   string
	Title       string
	Description string
	Status      string // empty means the board's default status
	Priority    int    // 0=critical, 4=backlog
}

// ListFilters holds optional filters for listing tasks.
type ListFilters struct {
	ProjectID  string
	Status     string
	ActiveOnly bool // exclude tasks in terminal columns
}

// Create creates a new task. The status defaults to the first non-terminal
// column of the project's board.
func Create(db *gorm.DB, opts CreateOpts) (*models.Task, error) {
	if opts.Title == "" {
		return nil, fmt.Errorf("task: title is required")
	}
	if opts.ProjectID == "" {
		return nil, fmt.Errorf("task: project is required")
	}
	if opts.Priority < 0 || opts.Priority > 4 {
		return nil, fmt.Errorf("task: priority %d out of range 0-4", opts.Priority)
	}

	var t models.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		cols, err := lockedProjectColumns(tx, opts.ProjectID)
		if err != nil {
			return err
		}

		status := opts.Status
		if status == "" {
			status = workflow.GetDefaultStatus(cols)
		} else if !workflow.IsKnownStatus(status, cols) {
			return fmt.Errorf("%w: %q is not a column of project %s", ErrUnknownStatus, status, opts.ProjectID)
		}

		t = models.Task{
			ID:          uuid.NewString(),
			ProjectID:   opts.ProjectID,
			Title:       opts.Title,
			Description: opts.Description,
			Status:      status,
			Priority:    opts.Priority,
		}
		if workflow.IsCompletedStatus(status, cols) {
			now := time.Now()
			t.CompletedAt = &now
		}
		if err := tx.Create(&t).Error; err != nil {
			return fmt.Errorf("task: create: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Get retrieves a task by ID.
func Get(db *gorm.DB, id string) (*models.Task, error) {
	var t models.Task
	if err := db.Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("task: get %s: %w", id, err)
	}
	return &t, nil
}

// List returns tasks matching the given filters, ordered by priority then creation time.
func List(db *gorm.DB, filters ListFilters) ([]models.Task, error) {
	q := db.Model(&models.Task{})
	if filters.ProjectID != "" {
		q = q.Where("project_id = ?", filters.ProjectID)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}

	var tasks []models.Task
	if err := q.Order("priority ASC, created_at ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("task: list: %w", err)
	}
	if !filters.ActiveOnly {
		return tasks, nil
	}

	boards, err := boardsFor(db, tasks)
	if err != nil {
		return nil, err
	}
	active := tasks[:0]
	for _, t := range tasks {
		if !workflow.IsTerminalStatus(t.Status, boards[t.ProjectID]) {
			active = append(active, t)
		}
	}
	return active, nil
}

// Move changes a task's status. The target must be a column of the task's
// project. CompletedAt is set on entry to a completed column and cleared when
// the task leaves one.
func Move(db *gorm.DB, id, status string) (*models.Task, error) {
	var t models.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		var projectIDs []string
		if err := tx.Model(&models.Task{}).Where("id = ?", id).Pluck("project_id", &projectIDs).Error; err != nil {
			return fmt.Errorf("task: get %s for move: %w", id, err)
		}
		if len(projectIDs) == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		// Project before task, the same order a board update takes them.
		cols, err := lockedProjectColumns(tx, projectIDs[0])
		if err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, id)
			}
			return fmt.Errorf("task: get %s for move: %w", id, err)
		}
		if !workflow.IsKnownStatus(status, cols) {
			return fmt.Errorf("%w: %q is not a column of project %s", ErrUnknownStatus, status, t.ProjectID)
		}
		if status == t.Status {
			return nil
		}

		updates := map[string]interface{}{"status": status}
		wasDone := workflow.IsCompletedStatus(t.Status, cols)
		isDone := workflow.IsCompletedStatus(status, cols)
		switch {
		case isDone && !wasDone:
			now := time.Now()
			updates["completed_at"] = &now
		case !isDone && wasDone:
			updates["completed_at"] = nil
		}

		if err := tx.Model(&models.Task{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("task: move %s: %w", id, err)
		}
		change := models.StatusChange{
			TaskID:     id,
			ProjectID:  t.ProjectID,
			FromStatus: t.Status,
			ToStatus:   status,
			Reason:     "move",
		}
		if err := tx.Create(&change).Error; err != nil {
			return fmt.Errorf("task: record move of %s: %w", id, err)
		}
		t = models.Task{}
		return tx.Where("id = ?", id).First(&t).Error
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Ranked returns the project's active tasks in work order: priority first,
// then oldest first. Tasks in terminal columns are never scored.
func Ranked(db *gorm.DB, projectID string) ([]models.Task, error) {
	tasks, err := List(db, ListFilters{ProjectID: projectID, ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// CountCompletedSince counts tasks that reached a completed column at or after since
// and are still in one.
func CountCompletedSince(db *gorm.DB, since time.Time) (int64, error) {
	var tasks []models.Task
	if err := db.Where("completed_at >= ?", since).Find(&tasks).Error; err != nil {
		return 0, fmt.Errorf("task: count completed: %w", err)
	}
	boards, err := boardsFor(db, tasks)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, t := range tasks {
		if workflow.IsCompletedStatus(t.Status, boards[t.ProjectID]) {
			n++
		}
	}
	return n, nil
}

// projectColumns loads a project's resolved board.
func projectColumns(db *gorm.DB, projectID string) ([]workflow.Column, error) {
	var p models.Project
	if err := db.Select("id", "columns_config").Where("id = ?", projectID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: project %s", ErrNotFound, projectID)
		}
		return nil, fmt.Errorf("task: load project %s: %w", projectID, err)
	}
	return workflow.ResolveStored(p.ColumnsConfig), nil
}

// lockedProjectColumns reads the board under a shared lock on the project
// row. A board update holds that row FOR UPDATE until it commits.
func lockedProjectColumns(tx *gorm.DB, projectID string) ([]workflow.Column, error) {
	return projectColumns(tx.Clauses(clause.Locking{Strength: "SHARE"}), projectID)
}

// boardsFor resolves the boards of every project referenced by tasks.
func boardsFor(db *gorm.DB, tasks []models.Task) (map[string][]workflow.Column, error) {
	ids := make([]string, 0)
	seen := make(map[string]bool)
	for _, t := range tasks {
		if !seen[t.ProjectID] {
			seen[t.ProjectID] = true
			ids = append(ids, t.ProjectID)
		}
	}
	boards := make(map[string][]workflow.Column, len(ids))
	if len(ids) == 0 {
		return boards, nil
	}

	var projects []models.Project
	if err := db.Select("id", "columns_config").Where("id IN ?", ids).Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("task: load boards: %w", err)
	}
	for _, p := range projects {
		boards[p.ID] = workflow.ResolveStored(p.ColumnsConfig)
	}
	return boards, nil
}
