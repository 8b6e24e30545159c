// Package project owns project records and is the only writer of a
// project's column configuration. Every config change restores task
// statuses and external state bindings in the same transaction.
package project

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/zulandar/switchyard/internal/integration"
	"github.com/zulandar/switchyard/internal/models"
	"github.com/zulandar/switchyard/internal/workflow"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a project does not exist.
var ErrNotFound = errors.New("project: not found")

// CreateOpts holds parameters for creating a project.
type CreateOpts struct {
	Name        string
	Description string
	Columns     []workflow.Column // nil uses the default board
}

// ColumnsChange is a requested change to a project's columns. The zero
// value leaves the columns untouched.
type ColumnsChange struct {
	set     bool
	columns []workflow.Column
}

// SetColumns replaces the board with cols. A nil cols is the same as ResetColumns.
func SetColumns(cols []workflow.Column) ColumnsChange {
	return ColumnsChange{set: true, columns: cols}
}

// ResetColumns reverts the board to the defaults.
func ResetColumns() ColumnsChange {
	return ColumnsChange{set: true}
}

// IsSet reports whether the change touches the columns.
func (c ColumnsChange) IsSet() bool { return c.set }

// UpdateOpts holds the fields to change. Nil fields are left as they are.
type UpdateOpts struct {
	Name        *string
	Description *string
	Columns     ColumnsChange
}

// UpdateReport describes the dependent state an update rewrote.
type UpdateReport struct {
	ProjectID      string
	ColumnsChanged bool
	Remapped       []RemappedTask
	Links          []integration.LinkReport
}

// Create creates a new project. Columns, when given, are validated and
// stored in canonical form.
func Create(ctx context.Context, db *gorm.DB, opts CreateOpts) (*models.Project, error) {
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		return nil, fmt.Errorf("project: name is required")
	}

	p := models.Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: opts.Description,
	}
	if opts.Columns != nil {
		stored, err := canonicalize(opts.Columns)
		if err != nil {
			return nil, err
		}
		p.ColumnsConfig = stored
	}

	if err := db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, fmt.Errorf("project: create: %w", err)
	}
	return &p, nil
}

// Get retrieves a project by ID.
func Get(db *gorm.DB, id string) (*models.Project, error) {
	var p models.Project
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("project: get %s: %w", id, err)
	}
	return &p, nil
}

// List returns all projects ordered by name.
func List(db *gorm.DB) ([]models.Project, error) {
	var projects []models.Project
	if err := db.Order("name ASC, id ASC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("project: list: %w", err)
	}
	return projects, nil
}

// Columns returns the resolved board of a project.
func Columns(db *gorm.DB, id string) ([]workflow.Column, error) {
	p, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	return workflow.ResolveStored(p.ColumnsConfig), nil
}

// Delete removes a project with its tasks, history, links and bindings.
func Delete(ctx context.Context, db *gorm.DB, id string) error {
	unlock := locks.lock(id)
	defer unlock()

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var linkIDs []string
		if err := tx.Model(&models.IntegrationLink{}).Where("project_id = ?", id).Pluck("id", &linkIDs).Error; err != nil {
			return fmt.Errorf("project: list links of %s: %w", id, err)
		}
		if len(linkIDs) > 0 {
			if err := tx.Where("link_id IN ?", linkIDs).Delete(&models.StateBinding{}).Error; err != nil {
				return fmt.Errorf("project: delete bindings of %s: %w", id, err)
			}
		}
		for _, m := range []interface{}{&models.IntegrationLink{}, &models.StatusChange{}, &models.Task{}} {
			if err := tx.Where("project_id = ?", id).Delete(m).Error; err != nil {
				return fmt.Errorf("project: delete %T of %s: %w", m, id, err)
			}
		}
		res := tx.Where("id = ?", id).Delete(&models.Project{})
		if res.Error != nil {
			return fmt.Errorf("project: delete %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil
	})
}

// Update applies opts to a project.
//
// New columns are validated before anything is written; a
// *workflow.ValidationError is returned unwrapped and nothing changes,
// including the name and description. When the columns change, the config
// write, the task remap and the integration reconciliation commit together
// or not at all.
func Update(ctx context.Context, db *gorm.DB, id string, opts UpdateOpts) (*models.Project, *UpdateReport, error) {
	var stored *string
	if opts.Columns.set && opts.Columns.columns != nil {
		s, err := canonicalize(opts.Columns.columns)
		if err != nil {
			return nil, nil, err
		}
		stored = s
	}
	if opts.Name != nil && strings.TrimSpace(*opts.Name) == "" {
		return nil, nil, fmt.Errorf("project: name is required")
	}

	unlock := locks.lock(id)
	defer unlock()

	report := &UpdateReport{ProjectID: id, ColumnsChanged: opts.Columns.set}
	var p models.Project
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, id)
			}
			return fmt.Errorf("project: lock %s: %w", id, err)
		}

		updates := map[string]interface{}{}
		if opts.Name != nil {
			updates["name"] = strings.TrimSpace(*opts.Name)
		}
		if opts.Description != nil {
			updates["description"] = *opts.Description
		}
		if opts.Columns.set {
			if stored == nil {
				updates["columns_config"] = nil
			} else {
				updates["columns_config"] = *stored
			}
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&models.Project{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("project: update %s: %w", id, err)
		}
		if !opts.Columns.set {
			return tx.Where("id = ?", id).First(&p).Error
		}

		resolved := workflow.ResolveStored(stored)
		remapped, err := RemapTaskStatuses(tx, id, resolved, "remap")
		if err != nil {
			return err
		}
		links, err := integration.ReconcileProject(tx, id, resolved)
		if err != nil {
			return err
		}
		report.Remapped = remapped
		report.Links = links
		return tx.Where("id = ?", id).First(&p).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &p, report, nil
}

// canonicalize validates cols and returns their stored form.
func canonicalize(cols []workflow.Column) (*string, error) {
	normalized, err := workflow.ValidateColumns(cols)
	if err != nil {
		return nil, err
	}
	s, err := workflow.MarshalColumns(normalized)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	return &s, nil
}
