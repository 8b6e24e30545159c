package integration

import (
	"fmt"
	"log"

	"github.com/zulandar/switchyard/internal/models"
	"github.com/zulandar/switchyard/internal/workflow"
	"gorm.io/gorm"
)

// LinkStatus describes what reconciliation did to a link.
type LinkStatus string

const (
	LinkRebuilt           LinkStatus = "rebuilt"
	LinkSkippedNoBindings LinkStatus = "skipped_no_bindings"
	LinkSkippedNoMatch    LinkStatus = "skipped_no_match"
)

// LinkReport summarizes the reconciliation of one link.
// Unmapped lists local column ids that found no acceptable external state;
// it is informational and never an error.
type LinkReport struct {
	LinkID   string
	Provider string
	Status   LinkStatus
	Bound    int
	Unmapped []string
}

// ReconcileLink rebuilds a link's bindings so every column of the board maps
// to an existing external state of an acceptable type. It only reuses
// external states already present in the link's bindings. A link with no
// bindings, or one where no column finds a match, is left untouched.
//
// tx should be the caller's transaction; the delete and reinsert are not
// atomic on their own.
func ReconcileLink(tx *gorm.DB, link models.IntegrationLink, columns []workflow.Column) (LinkReport, error) {
	report := LinkReport{LinkID: link.ID, Provider: link.Provider}

	var existing []models.StateBinding
	if err := tx.Where("link_id = ?", link.ID).Order("position ASC, id ASC").Find(&existing).Error; err != nil {
		return report, fmt.Errorf("integration: load bindings for %s: %w", link.ID, err)
	}
	if len(existing) == 0 {
		report.Status = LinkSkippedNoBindings
		return report, nil
	}

	var rebuilt []models.StateBinding
	for _, col := range workflow.ResolveColumns(columns) {
		b, ok := pickBinding(col, existing)
		if !ok {
			report.Unmapped = append(report.Unmapped, col.ID)
			continue
		}
		rebuilt = append(rebuilt, models.StateBinding{
			LinkID:            link.ID,
			LocalStatus:       col.ID,
			ExternalStateID:   b.ExternalStateID,
			ExternalStateType: b.ExternalStateType,
			Position:          len(rebuilt),
		})
	}

	if len(rebuilt) == 0 {
		report.Status = LinkSkippedNoMatch
		return report, nil
	}

	if err := tx.Where("link_id = ?", link.ID).Delete(&models.StateBinding{}).Error; err != nil {
		return report, fmt.Errorf("integration: clear bindings for %s: %w", link.ID, err)
	}
	if err := tx.Create(&rebuilt).Error; err != nil {
		return report, fmt.Errorf("integration: write bindings for %s: %w", link.ID, err)
	}
	report.Status = LinkRebuilt
	report.Bound = len(rebuilt)
	return report, nil
}

// pickBinding chooses the external state for col: the most preferred
// acceptable type that any binding carries wins. Among bindings of that type,
// one already attached to the same local id is kept; otherwise the first in
// binding order is used.
func pickBinding(col workflow.Column, existing []models.StateBinding) (models.StateBinding, bool) {
	for _, want := range fallbackOrder[col.Category] {
		var first *models.StateBinding
		for i := range existing {
			b := &existing[i]
			if b.ExternalStateType != string(want) {
				continue
			}
			if b.LocalStatus == col.ID {
				return *b, true
			}
			if first == nil {
				first = b
			}
		}
		if first != nil {
			return *first, true
		}
	}
	return models.StateBinding{}, false
}

// ReconcileProject reconciles every link of a project against its board.
func ReconcileProject(tx *gorm.DB, projectID string, columns []workflow.Column) ([]LinkReport, error) {
	var links []models.IntegrationLink
	if err := tx.Where("project_id = ?", projectID).Order("created_at ASC, id ASC").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("integration: list links for %s: %w", projectID, err)
	}

	reports := make([]LinkReport, 0, len(links))
	for _, link := range links {
		r, err := ReconcileLink(tx, link, columns)
		if err != nil {
			return nil, err
		}
		if r.Status != LinkRebuilt {
			log.Printf("integration: link %s (%s) left as-is: %s", link.ID, link.Provider, r.Status)
		} else if len(r.Unmapped) > 0 {
			log.Printf("integration: link %s (%s) has no state for %v", link.ID, link.Provider, r.Unmapped)
		}
		reports = append(reports, r)
	}
	return reports, nil
}
