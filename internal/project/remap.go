package project

import (
	"fmt"

	"github.com/zulandar/switchyard/internal/models"
	"github.com/zulandar/switchyard/internal/workflow"
	"gorm.io/gorm"
)

// RemappedTask records one task moved off a status that no longer exists.
type RemappedTask struct {
	TaskID string `json:"task_id"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// RemapTaskStatuses moves every task of the project whose status is not a
// column of columns onto the board's default status. Tasks on a known
// column are left untouched. reason is recorded on each StatusChange.
//
// It must run inside the same transaction that wrote the project's config.
func RemapTaskStatuses(tx *gorm.DB, projectID string, columns []workflow.Column, reason string) ([]RemappedTask, error) {
	resolved := workflow.ResolveColumns(columns)
	known := workflow.KnownStatusSet(resolved)
	target := workflow.GetDefaultStatus(resolved)

	var tasks []models.Task
	if err := tx.Select("id", "status").Where("project_id = ?", projectID).Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("project: load tasks of %s: %w", projectID, err)
	}

	var remapped []RemappedTask
	for _, t := range tasks {
		if _, ok := known[t.Status]; ok {
			continue
		}
		// The default status is never terminal, so completion is cleared.
		err := tx.Model(&models.Task{}).Where("id = ?", t.ID).Updates(map[string]interface{}{
			"status":       target,
			"completed_at": nil,
		}).Error
		if err != nil {
			return nil, fmt.Errorf("project: remap task %s: %w", t.ID, err)
		}
		change := models.StatusChange{
			TaskID:     t.ID,
			ProjectID:  projectID,
			FromStatus: t.Status,
			ToStatus:   target,
			Reason:     reason,
		}
		if err := tx.Create(&change).Error; err != nil {
			return nil, fmt.Errorf("project: record remap of %s: %w", t.ID, err)
		}
		remapped = append(remapped, RemappedTask{TaskID: t.ID, From: t.Status, To: target})
	}
	return remapped, nil
}
