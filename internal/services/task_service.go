package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yukikurage/tasktag-api/internal/constants"
	"github.com/yukikurage/tasktag-api/internal/models"
	"github.com/yukikurage/tasktag-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrTitleRequired          = errors.New("title is required")
	ErrTitleEmpty             = errors.New("title cannot be empty")
	ErrTitleTooLong           = errors.New("title is too long")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidPriority        = errors.New("invalid priority")
	ErrInvalidTagIDs          = errors.New("one or more tags do not exist")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo  repository.TaskRepository
	tagRepo   repository.TagRepository
	aiService TaskGenerator
}

// TaskGenerator extracts task suggestions from free text
type TaskGenerator interface {
	GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error)
}

// NewTaskService creates a new TaskService. aiService may be nil.
func NewTaskService(taskRepo repository.TaskRepository, tagRepo repository.TagRepository, aiService TaskGenerator) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		tagRepo:   tagRepo,
		aiService: aiService,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	UserID   string
	TagID    *string
	Status   *models.TaskStatus
	Priority *models.TaskPriority
	Page     int
	PageSize int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	UserID      string
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	TagIDs      []string
}

// UpdateTaskInput represents input for updating a task.
// Nil fields are left unchanged; a non-nil TagIDs replaces the whole tag set.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
	Priority    *models.TaskPriority
	TagIDs      *[]string
}

// ListTasks returns the user's tasks matching the provided filters
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, 0, ErrInvalidPriority
	}

	tasks, total, err := s.taskRepo.List(repository.TaskFilter{
		UserID:   input.UserID,
		TagID:    input.TagID,
		Status:   input.Status,
		Priority: input.Priority,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task owned by userID with its tags
func (s *TaskService) GetTask(taskID, userID string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// CreateTask creates a new task with validation and attaches its tags
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	if err := validateTitle(input.Title, ErrTitleRequired); err != nil {
		return nil, err
	}

	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}

	tagIDs := uniqueStrings(input.TagIDs)
	if err := s.verifyTags(input.UserID, tagIDs); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		UserID:      input.UserID,
	}

	if err := s.taskRepo.Create(task, tagIDs); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.GetTask(task.ID, input.UserID)
}

// UpdateTask applies the supplied fields to a task owned by userID
func (s *TaskService) UpdateTask(taskID, userID string, input UpdateTaskInput) (*models.Task, error) {
	if input.Title != nil {
		if err := validateTitle(*input.Title, ErrTitleEmpty); err != nil {
			return nil, err
		}
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}

	task, err := s.GetTask(taskID, userID)
	if err != nil {
		return nil, err
	}

	var tagIDs []string
	if input.TagIDs != nil {
		tagIDs = uniqueStrings(*input.TagIDs)
		if err := s.verifyTags(userID, tagIDs); err != nil {
			return nil, err
		}
	}

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}

	if err := s.taskRepo.Update(task, tagIDs, input.TagIDs != nil); err != nil {
		// Deleted after it was loaded
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.GetTask(task.ID, userID)
}

// DeleteTask deletes a task owned by userID together with its tag associations
func (s *TaskService) DeleteTask(taskID, userID string) error {
	if err := s.taskRepo.Delete(taskID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// GenerateTasksInput represents input for AI task generation
type GenerateTasksInput struct {
	Text   string
	UserID string
}

// GenerateTasks uses AI to suggest tasks from text. Suggestions are not persisted.
func (s *TaskService) GenerateTasks(ctx context.Context, input GenerateTasksInput) ([]GeneratedTask, error) {
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}

	aiTasks, err := s.aiService.GenerateTasksFromText(ctx, input.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		return nil, fmt.Errorf("AI generated too many tasks (max %d)", constants.MaxAIGeneratedTasks)
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	for _, aiTask := range aiTasks {
		aiTask.Title = strings.TrimSpace(aiTask.Title)
		if aiTask.Title == "" || utf8.RuneCountInString(aiTask.Title) > constants.MaxTitleLength {
			continue
		}

		if !aiTask.Priority.Valid() {
			aiTask.Priority = models.TaskPriorityMedium
		}

		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

// verifyTags checks that every tag ID belongs to userID
func (s *TaskService) verifyTags(userID string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}

	count, err := s.tagRepo.CountOwned(userID, tagIDs)
	if err != nil {
		return fmt.Errorf("failed to verify tags: %w", err)
	}
	if count != int64(len(tagIDs)) {
		return ErrInvalidTagIDs
	}

	return nil
}

func validateTitle(title string, emptyErr error) error {
	if strings.TrimSpace(title) == "" {
		return emptyErr
	}
	if utf8.RuneCountInString(title) > constants.MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

// uniqueStrings removes duplicate values from a slice, keeping first occurrences in order
func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
