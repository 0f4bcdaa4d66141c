package models

import "time"

// TaskTag links a task to a tag. The composite primary key forbids duplicate pairs,
// Position keeps the order in which tags were attached.
type TaskTag struct {
	TaskID    string    `gorm:"primarykey;type:varchar(36)" json:"task_id"`
	TagID     string    `gorm:"primarykey;type:varchar(36);index" json:"tag_id"`
	Position  int       `gorm:"not null" json:"position"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"-"`
	Tag  Tag  `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE" json:"-"`
}
