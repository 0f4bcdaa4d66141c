package repository

import (
	"time"

	"github.com/yukikurage/tasktag-api/internal/database"
	"github.com/yukikurage/tasktag-api/internal/models"
	"gorm.io/gorm"
)

// GormTagRepository is a GORM implementation of TagRepository
type GormTagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new TagRepository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &GormTagRepository{db: db}
}

// Create creates a new tag
func (r *GormTagRepository) Create(tag *models.Tag) error {
	return r.db.Create(tag).Error
}

// tagWithCount receives a tag row plus its joined task count
type tagWithCount struct {
	ID        string
	Name      string
	UserID    string
	CreatedAt time.Time
	TaskCount int64
}

// ListByUserID lists the owner's tags, oldest first, with their task counts
func (r *GormTagRepository) ListByUserID(userID string) ([]models.Tag, error) {
	var rows []tagWithCount
	if err := r.db.Table("tags").
		Select("tags.id, tags.name, tags.user_id, tags.created_at, COUNT(task_tags.task_id) AS task_count").
		Joins("LEFT JOIN task_tags ON task_tags.tag_id = tags.id").
		Scopes(database.OwnedBy("tags", userID)).
		Group("tags.id, tags.name, tags.user_id, tags.created_at").
		Order("tags.created_at ASC").
		Order("tags.id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	tags := make([]models.Tag, len(rows))
	for i, row := range rows {
		tags[i] = models.Tag{
			ID:        row.ID,
			Name:      row.Name,
			UserID:    row.UserID,
			CreatedAt: row.CreatedAt,
			TaskCount: row.TaskCount,
		}
	}
	return tags, nil
}

// CountOwned counts how many of the given tag IDs exist under userID
func (r *GormTagRepository) CountOwned(userID string, tagIDs []string) (int64, error) {
	if len(tagIDs) == 0 {
		return 0, nil
	}

	var count int64
	err := r.db.Model(&models.Tag{}).
		Scopes(database.OwnedBy("tags", userID)).
		Where("tags.id IN ?", tagIDs).
		Count(&count).Error

	return count, err
}
