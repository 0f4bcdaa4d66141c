package repository

import (
	"github.com/yukikurage/tasktag-api/internal/models"
)

// TaskRepository defines the interface for owner-scoped task data access.
// Every method that touches task_tags runs inside a single transaction.
type TaskRepository interface {
	// Create inserts a task and one task_tags row per tag ID, in order
	Create(task *models.Task, tagIDs []string) error

	// FindByID finds a task owned by userID with its tags attached
	FindByID(id, userID string) (*models.Task, error)

	// List retrieves tasks with filtering, pagination and attached tags
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update writes an existing task; when replaceTags is set its associations are replaced by tagIDs.
	// It never re-creates a deleted task.
	Update(task *models.Task, tagIDs []string, replaceTags bool) error

	// Delete removes a task owned by userID and all its associations
	Delete(id, userID string) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	UserID   string
	TagID    *string
	Status   *models.TaskStatus
	Priority *models.TaskPriority
	Page     int
	PageSize int
}

// TagRepository defines the interface for owner-scoped tag data access
type TagRepository interface {
	// Create creates a new tag
	Create(tag *models.Tag) error

	// ListByUserID lists a user's tags with the number of tasks carrying each
	ListByUserID(userID string) ([]models.Tag, error)

	// CountOwned counts how many of the given tag IDs belong to userID
	CountOwned(userID string, tagIDs []string) (int64, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id string) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)
}
