package project

import (
	"context"
	"fmt"
	"log"

	"github.com/zulandar/switchyard/internal/models"
	"github.com/zulandar/switchyard/internal/workflow"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RepairOpts configures a repair pass.
type RepairOpts struct {
	Workers int // projects repaired concurrently, default 1
}

// ProjectRepair describes what the pass changed on one project.
type ProjectRepair struct {
	ProjectID       string
	ConfigRewritten bool // stored config replaced by its canonical form
	ConfigCleared   bool // stored config was invalid and reset to defaults
	Remapped        []RemappedTask
}

// Changed reports whether anything was written.
func (r ProjectRepair) Changed() bool {
	return r.ConfigRewritten || r.ConfigCleared || len(r.Remapped) > 0
}

// RepairResult aggregates a repair pass.
type RepairResult struct {
	Skipped          bool // schema has no columns_config yet
	Projects         int
	ConfigsRewritten int
	TasksRemapped    int
	Details          []ProjectRepair // projects that changed, in id order
}

// Repair re-derives canonical state for every project: stored configs are
// rewritten to their canonical form (invalid ones to NULL) and tasks on
// unknown statuses are moved to the default status. It is idempotent.
//
// When the projects table has no columns_config column the pass is skipped.
func Repair(ctx context.Context, db *gorm.DB, opts RepairOpts) (*RepairResult, error) {
	db = db.WithContext(ctx)
	if !db.Migrator().HasColumn(&models.Project{}, "columns_config") {
		log.Printf("project: repair skipped, projects.columns_config not migrated")
		return &RepairResult{Skipped: true}, nil
	}

	var ids []string
	if err := db.Model(&models.Project{}).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("project: repair: list projects: %w", err)
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	details := make([]ProjectRepair, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, id := range ids {
		g.Go(func() error {
			d, err := repairProject(gctx, db, id)
			if err != nil {
				return err
			}
			details[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &RepairResult{Projects: len(ids)}
	for _, d := range details {
		if !d.Changed() {
			continue
		}
		if d.ConfigRewritten || d.ConfigCleared {
			result.ConfigsRewritten++
		}
		result.TasksRemapped += len(d.Remapped)
		result.Details = append(result.Details, d)
	}
	return result, nil
}

// repairProject repairs one project in its own transaction.
func repairProject(ctx context.Context, db *gorm.DB, id string) (ProjectRepair, error) {
	unlock := locks.lock(id)
	defer unlock()

	d := ProjectRepair{ProjectID: id}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Project
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id", "columns_config").Where("id = ?", id).First(&p).Error; err != nil {
			return fmt.Errorf("project: repair %s: %w", id, err)
		}

		if p.ColumnsConfig != nil {
			canonical, err := workflow.CanonicalConfig(p.ColumnsConfig)
			if err != nil {
				return fmt.Errorf("project: repair %s: %w", id, err)
			}
			switch {
			case canonical == nil:
				d.ConfigCleared = true
			case *canonical != *p.ColumnsConfig:
				d.ConfigRewritten = true
			}
			if d.ConfigCleared || d.ConfigRewritten {
				var value interface{}
				if canonical != nil {
					value = *canonical
				}
				if err := tx.Model(&models.Project{}).Where("id = ?", id).UpdateColumn("columns_config", value).Error; err != nil {
					return fmt.Errorf("project: repair %s: write config: %w", id, err)
				}
			}
			p.ColumnsConfig = canonical
		}

		remapped, err := RemapTaskStatuses(tx, id, workflow.ResolveStored(p.ColumnsConfig), "repair")
		if err != nil {
			return err
		}
		d.Remapped = remapped
		return nil
	})
	if err != nil {
		return ProjectRepair{}, err
	}
	if d.Changed() {
		log.Printf("project: repaired %s (config rewritten=%v cleared=%v, %d tasks remapped)",
			id, d.ConfigRewritten, d.ConfigCleared, len(d.Remapped))
	}
	return d, nil
}
