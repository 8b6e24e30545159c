package models

import "time"

// Task is a work item on a project's board. Status must equal one of the
// project's resolved column ids; this is kept true procedurally, not by a
// database constraint, since columns are data.
type Task struct {
	ID          string `gorm:"primaryKey;size:36"`
	ProjectID   string `gorm:"size:36;not null;index"`
	Title       string `gorm:"not null"`
	Description string `gorm:"type:text"`
	Status      string `gorm:"size:64;not null;index"`
	Priority    int    `gorm:"not null"` // 0=critical, 4=backlog
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time `gorm:"index"`
}

// StatusChange records a task status rewrite.
type StatusChange struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	TaskID     string `gorm:"size:36;index"`
	ProjectID  string `gorm:"size:36;index"`
	FromStatus string `gorm:"size:64"`
	ToStatus   string `gorm:"size:64"`
	Reason     string `gorm:"size:16"` // move, remap, repair
	CreatedAt  time.Time
}
