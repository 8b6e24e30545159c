// Package integration maintains the mapping between a project's board and
// the workflow states of linked external trackers.
package integration

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/zulandar/switchyard/internal/models"
	"github.com/zulandar/switchyard/internal/workflow"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a link or its project does not exist.
var ErrNotFound = errors.New("integration: not found")

// ErrNoBinding is returned when a link has no binding for a local status.
var ErrNoBinding = errors.New("integration: no binding")

// Providers lists the supported external trackers.
var Providers = []string{"linear", "github", "jira"}

// LinkOpts holds parameters for linking a project to an external tracker.
type LinkOpts struct {
	ProjectID         string
	Provider          string
	ExternalProjectID string
}

// Binding is one requested local status to external state mapping.
type Binding struct {
	LocalStatus string
	StateID     string
	StateType   workflow.Category
}

// Link creates a new link with no bindings.
func Link(db *gorm.DB, opts LinkOpts) (*models.IntegrationLink, error) {
	if !validProvider(opts.Provider) {
		return nil, fmt.Errorf("integration: unknown provider %q (valid: %v)", opts.Provider, Providers)
	}
	if opts.ExternalProjectID == "" {
		return nil, fmt.Errorf("integration: external project id is required")
	}
	var count int64
	if err := db.Model(&models.Project{}).Where("id = ?", opts.ProjectID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("integration: check project %s: %w", opts.ProjectID, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: project %s", ErrNotFound, opts.ProjectID)
	}

	link := models.IntegrationLink{
		ID:                uuid.NewString(),
		ProjectID:         opts.ProjectID,
		Provider:          opts.Provider,
		ExternalProjectID: opts.ExternalProjectID,
	}
	if err := db.Create(&link).Error; err != nil {
		return nil, fmt.Errorf("integration: create link: %w", err)
	}
	return &link, nil
}

// GetLink retrieves a link with its bindings.
func GetLink(db *gorm.DB, id string) (*models.IntegrationLink, error) {
	var link models.IntegrationLink
	err := db.Preload("Bindings", func(q *gorm.DB) *gorm.DB {
		return q.Order("position ASC, id ASC")
	}).Where("id = ?", id).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: link %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("integration: get link %s: %w", id, err)
	}
	return &link, nil
}

// ListLinks returns a project's links with their bindings.
func ListLinks(db *gorm.DB, projectID string) ([]models.IntegrationLink, error) {
	var links []models.IntegrationLink
	err := db.Preload("Bindings", func(q *gorm.DB) *gorm.DB {
		return q.Order("position ASC, id ASC")
	}).Where("project_id = ?", projectID).Order("created_at ASC, id ASC").Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("integration: list links for %s: %w", projectID, err)
	}
	return links, nil
}

// Bindings returns a link's bindings in order.
func Bindings(db *gorm.DB, linkID string) ([]models.StateBinding, error) {
	var bindings []models.StateBinding
	if err := db.Where("link_id = ?", linkID).Order("position ASC, id ASC").Find(&bindings).Error; err != nil {
		return nil, fmt.Errorf("integration: bindings for %s: %w", linkID, err)
	}
	return bindings, nil
}

// ReplaceBindings overwrites all bindings of a link. Every local status must
// be a column of the linked project's board and every state type a known
// category.
func ReplaceBindings(db *gorm.DB, linkID string, bindings []Binding) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var link models.IntegrationLink
		if err := tx.Where("id = ?", linkID).First(&link).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: link %s", ErrNotFound, linkID)
			}
			return fmt.Errorf("integration: get link %s: %w", linkID, err)
		}
		var p models.Project
		if err := tx.Select("id", "columns_config").Where("id = ?", link.ProjectID).First(&p).Error; err != nil {
			return fmt.Errorf("integration: load project %s: %w", link.ProjectID, err)
		}
		cols := workflow.ResolveStored(p.ColumnsConfig)

		rows := make([]models.StateBinding, 0, len(bindings))
		seen := make(map[string]bool, len(bindings))
		for i, b := range bindings {
			if !workflow.IsKnownStatus(b.LocalStatus, cols) {
				return fmt.Errorf("integration: binding %d: %q is not a column of project %s", i, b.LocalStatus, p.ID)
			}
			if seen[b.LocalStatus] {
				return fmt.Errorf("integration: binding %d: %q is bound more than once", i, b.LocalStatus)
			}
			seen[b.LocalStatus] = true
			if !b.StateType.Valid() {
				return fmt.Errorf("integration: binding %d: invalid state type %q", i, b.StateType)
			}
			if b.StateID == "" {
				return fmt.Errorf("integration: binding %d: state id is required", i)
			}
			rows = append(rows, models.StateBinding{
				LinkID:            linkID,
				LocalStatus:       b.LocalStatus,
				ExternalStateID:   b.StateID,
				ExternalStateType: string(b.StateType),
				Position:          i,
			})
		}

		if err := tx.Where("link_id = ?", linkID).Delete(&models.StateBinding{}).Error; err != nil {
			return fmt.Errorf("integration: clear bindings for %s: %w", linkID, err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("integration: write bindings for %s: %w", linkID, err)
		}
		return nil
	})
}

// Unlink deletes a link and its bindings.
func Unlink(db *gorm.DB, linkID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("link_id = ?", linkID).Delete(&models.StateBinding{}).Error; err != nil {
			return fmt.Errorf("integration: delete bindings for %s: %w", linkID, err)
		}
		res := tx.Where("id = ?", linkID).Delete(&models.IntegrationLink{})
		if res.Error != nil {
			return fmt.Errorf("integration: delete link %s: %w", linkID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: link %s", ErrNotFound, linkID)
		}
		return nil
	})
}

// BindingFor returns the binding of a local status on a link.
func BindingFor(db *gorm.DB, linkID, status string) (*models.StateBinding, error) {
	var b models.StateBinding
	if err := db.Where("link_id = ? AND local_status = ?", linkID, status).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w for %q on link %s", ErrNoBinding, status, linkID)
		}
		return nil, fmt.Errorf("integration: binding for %q on %s: %w", status, linkID, err)
	}
	return &b, nil
}

func validProvider(p string) bool {
	for _, v := range Providers {
		if v == p {
			return true
		}
	}
	return false
}
