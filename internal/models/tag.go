package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag is a user-defined label. Names are not unique per user.
type Tag struct {
	ID        string    `gorm:"primarykey;type:varchar(36)" json:"id"`
	Name      string    `gorm:"type:varchar(50);not null" json:"name"`
	UserID    string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	// Computed
	TaskCount int64 `gorm:"-" json:"task_count"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
