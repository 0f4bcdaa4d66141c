package dto

import (
	"time"

	"github.com/yukikurage/tasktag-api/internal/models"
	"github.com/yukikurage/tasktag-api/internal/services"
	"github.com/yukikurage/tasktag-api/internal/utils"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// TagRefDTO is the projection of a tag embedded in a task
type TagRefDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TagDTO represents a tag in API responses
type TagDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	TaskCount int64     `json:"task_count"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	UserID      string              `json:"user_id"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Tags        []TagRefDTO         `json:"tags"`
}

// TaskListResponse represents a list of tasks, paginated when requested
type TaskListResponse struct {
	Tasks      []TaskDTO                 `json:"tasks"`
	Pagination *utils.PaginationResponse `json:"pagination,omitempty"`
}

// GeneratedTaskDTO is a task suggestion that has not been persisted
type GeneratedTaskDTO struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
	}
}

// ToTagDTO converts a Tag model to TagDTO
func ToTagDTO(tag models.Tag) TagDTO {
	return TagDTO{
		ID:        tag.ID,
		Name:      tag.Name,
		UserID:    tag.UserID,
		CreatedAt: tag.CreatedAt,
		TaskCount: tag.TaskCount,
	}
}

// ToTagDTOs converts a slice of tags
func ToTagDTOs(tags []models.Tag) []TagDTO {
	items := make([]TagDTO, len(tags))
	for i, tag := range tags {
		items[i] = ToTagDTO(tag)
	}
	return items
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	tags := make([]TagRefDTO, len(task.Tags))
	for i, tag := range task.Tags {
		tags[i] = TagRefDTO{ID: tag.ID, Name: tag.Name}
	}

	return TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		UserID:      task.UserID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		Tags:        tags,
	}
}

// ToTaskListResponse converts a slice of tasks; pagination is nil for unpaginated listings
func ToTaskListResponse(tasks []models.Task, pagination *utils.PaginationResponse) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	return TaskListResponse{
		Tasks:      items,
		Pagination: pagination,
	}
}

// ToGeneratedTaskDTOs converts AI suggestions for a response
func ToGeneratedTaskDTOs(tasks []services.GeneratedTask) []GeneratedTaskDTO {
	items := make([]GeneratedTaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = GeneratedTaskDTO{
			Title:       task.Title,
			Description: task.Description,
			Priority:    task.Priority,
		}
	}
	return items
}
