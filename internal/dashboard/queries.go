package dashboard

import (
	"time"

	"github.com/zulandar/switchyard/internal/models"
	"github.com/zulandar/switchyard/internal/project"
	"github.com/zulandar/switchyard/internal/workflow"
)

// projectView is the JSON shape of a project.
type projectView struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description,omitempty"`
	CustomColumns bool              `json:"custom_columns"`
	Columns       []workflow.Column `json:"columns,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func newProjectView(p models.Project, withColumns bool) projectView {
	v := projectView{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		CustomColumns: p.ColumnsConfig != nil,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if withColumns {
		v.Columns = workflow.ResolveStored(p.ColumnsConfig)
	}
	return v
}

// taskView is the JSON shape of a task.
type taskView struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	Priority    int        `json:"priority"`
	Terminal    bool       `json:"terminal"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func newTaskViews(tasks []models.Task, cols []workflow.Column) []taskView {
	views := make([]taskView, len(tasks))
	for i, t := range tasks {
		views[i] = taskView{
			ID:          t.ID,
			Title:       t.Title,
			Status:      t.Status,
			Priority:    t.Priority,
			Terminal:    workflow.IsTerminalStatus(t.Status, cols),
			CreatedAt:   t.CreatedAt,
			CompletedAt: t.CompletedAt,
		}
	}
	return views
}

// linkReportView is the JSON shape of one reconciled link.
type linkReportView struct {
	LinkID   string   `json:"link_id"`
	Provider string   `json:"provider"`
	Status   string   `json:"status"`
	Bound    int      `json:"bound"`
	Unmapped []string `json:"unmapped,omitempty"`
}

// updateView is the response to a column change.
type updateView struct {
	Columns  []workflow.Column      `json:"columns"`
	Remapped []project.RemappedTask `json:"remapped"`
	Links    []linkReportView       `json:"links"`
}

func newUpdateView(p *models.Project, r *project.UpdateReport) updateView {
	v := updateView{
		Columns:  workflow.ResolveStored(p.ColumnsConfig),
		Remapped: r.Remapped,
		Links:    make([]linkReportView, 0, len(r.Links)),
	}
	if v.Remapped == nil {
		v.Remapped = []project.RemappedTask{}
	}
	for _, l := range r.Links {
		v.Links = append(v.Links, linkReportView{
			LinkID:   l.LinkID,
			Provider: l.Provider,
			Status:   string(l.Status),
			Bound:    l.Bound,
			Unmapped: l.Unmapped,
		})
	}
	return v
}

// startOfDay returns local midnight of t.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
