package models

import "time"

// Project owns a board. ColumnsConfig holds the canonical JSON of its columns;
// nil means the project uses the default board.
type Project struct {
	ID            string  `gorm:"primaryKey;size:36"`
	Name          string  `gorm:"size:128;not null"`
	Description   string  `gorm:"type:text"`
	ColumnsConfig *string `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Tasks []Task            `gorm:"foreignKey:ProjectID"`
	Links []IntegrationLink `gorm:"foreignKey:ProjectID"`
}
