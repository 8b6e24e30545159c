package models

import "time"

// IntegrationLink connects a project to a team or project in an external tracker.
type IntegrationLink struct {
	ID                string `gorm:"primaryKey;size:36"`
	ProjectID         string `gorm:"size:36;not null;index"`
	Provider          string `gorm:"size:16;not null"` // linear, github, jira
	ExternalProjectID string `gorm:"size:128"`
	CreatedAt         time.Time

	Bindings []StateBinding `gorm:"foreignKey:LinkID"`
}

// StateBinding maps one local status to one external workflow state.
// A link's bindings are always replaced as a whole.
type StateBinding struct {
	ID                uint   `gorm:"primaryKey;autoIncrement"`
	LinkID            string `gorm:"size:36;not null;index"`
	LocalStatus       string `gorm:"size:64;not null"`
	ExternalStateID   string `gorm:"size:128;not null"`
	ExternalStateType string `gorm:"size:16;not null"`
	Position          int
}
