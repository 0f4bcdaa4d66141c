package repository

import (
	"time"

	"github.com/yukikurage/tasktag-api/internal/database"
	"github.com/yukikurage/tasktag-api/internal/models"
	"github.com/yukikurage/tasktag-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create inserts the task and its associations atomically
func (r *GormTaskRepository) Create(task *models.Task, tagIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return err
		}
		return insertTaskTags(tx, task.ID, tagIDs)
	})
}

// FindByID finds a task by ID within the owner's tasks
func (r *GormTaskRepository) FindByID(id, userID string) (*models.Task, error) {
	var task models.Task
	if err := r.db.Scopes(database.OwnedBy("tasks", userID)).
		Where("tasks.id = ?", id).
		First(&task).Error; err != nil {
		return nil, err
	}

	tasks := []models.Task{task}
	if err := attachTags(r.db, tasks); err != nil {
		return nil, err
	}

	return &tasks[0], nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.Model(&models.Task{}).Scopes(database.OwnedBy("tasks", filter.UserID)).
		Session(&gorm.Session{})

	// Apply filters
	if filter.TagID != nil {
		tagSubQuery := r.db.Model(&models.TaskTag{}).
			Select("1").
			Where("task_tags.task_id = tasks.id").
			Where("task_tags.tag_id = ?", *filter.TagID)
		query = query.Where("EXISTS (?)", tagSubQuery)
	}
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("tasks.created_at DESC").Order("tasks.id")

	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.PaginationParams{
			Page:   filter.Page,
			Limit:  filter.PageSize,
			Offset: (filter.Page - 1) * filter.PageSize,
		}))
	}

	if err := listQuery.Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	if err := attachTags(r.db, tasks); err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// lockOwnedTask locks the owner's task row for the rest of tx.
// Writers touching the same task's associations are serialized behind this lock.
func lockOwnedTask(tx *gorm.DB, id, userID string) error {
	var task models.Task
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(database.OwnedBy("tasks", userID)).
		Where("tasks.id = ?", id).
		First(&task).Error
}

// Update writes the task's mutable fields and, when requested, replaces its tag set in the
// same transaction. A task that no longer exists yields gorm.ErrRecordNotFound.
func (r *GormTaskRepository) Update(task *models.Task, tagIDs []string, replaceTags bool) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockOwnedTask(tx, task.ID, task.UserID); err != nil {
			return err
		}

		task.UpdatedAt = time.Now()
		if err := tx.Model(&models.Task{}).
			Where("id = ? AND user_id = ?", task.ID, task.UserID).
			Updates(map[string]interface{}{
				"title":       task.Title,
				"description": task.Description,
				"status":      task.Status,
				"priority":    task.Priority,
				"updated_at":  task.UpdatedAt,
			}).Error; err != nil {
			return err
		}

		if !replaceTags {
			return nil
		}
		return replaceTaskTags(tx, task.ID, tagIDs)
	})
}

// Delete removes the task's associations and then the task
func (r *GormTaskRepository) Delete(id, userID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockOwnedTask(tx, id, userID); err != nil {
			return err
		}

		if err := deleteTaskTags(tx, id); err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, "id = ?", id).Error
	})
}
