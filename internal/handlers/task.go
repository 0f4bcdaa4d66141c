package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/tasktag-api/internal/dto"
	apierrors "github.com/yukikurage/tasktag-api/internal/errors"
	"github.com/yukikurage/tasktag-api/internal/middleware"
	"github.com/yukikurage/tasktag-api/internal/models"
	"github.com/yukikurage/tasktag-api/internal/services"
	"github.com/yukikurage/tasktag-api/internal/utils"
	"github.com/yukikurage/tasktag-api/internal/validation"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// CreateTaskRequest is the body of POST /tasks
type CreateTaskRequest struct {
	Title       string              `json:"title" validate:"notblank,max=255"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status" validate:"omitempty,oneof=todo in_progress completed"`
	Priority    models.TaskPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
	Tags        []string            `json:"tags" validate:"omitempty,dive,notblank"`
}

// UpdateTaskRequest is the body of PATCH /tasks/:id; absent fields are left unchanged
type UpdateTaskRequest struct {
	Title       *string              `json:"title" validate:"omitempty,notblank,max=255"`
	Description *string              `json:"description"`
	Status      *models.TaskStatus   `json:"status" validate:"omitempty,oneof=todo in_progress completed"`
	Priority    *models.TaskPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
	Tags        *[]string            `json:"tags" validate:"omitempty,dive,notblank"`
}

// GenerateTasksRequest is the body of POST /tasks/generate
type GenerateTasksRequest struct {
	Text string `json:"text" validate:"notblank,max=5000"`
}

// ListTasks returns the current user's tasks.
// Filters: tag, status, priority. Pagination applies only when page or limit is given.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	input := services.ListTasksInput{UserID: userID}

	if tagID, ok := c.GetQuery("tag"); ok {
		input.TagID = &tagID
	}
	if status, ok := c.GetQuery("status"); ok {
		s := models.TaskStatus(status)
		input.Status = &s
	}
	if priority, ok := c.GetQuery("priority"); ok {
		p := models.TaskPriority(priority)
		input.Priority = &p
	}

	paginate := utils.PaginationRequested(c)
	params := utils.GetPaginationParams(c)
	if paginate {
		input.Page = params.Page
		input.PageSize = params.Limit
	}

	tasks, total, err := h.taskService.ListTasks(input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	var pagination *utils.PaginationResponse
	if paginate {
		pagination = &utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		}
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, pagination))
}

// GetTask returns a specific task by ID
// Task is already loaded with its tags by RequireTaskAccess middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": dto.ToTaskDTO(*task)})
}

// CreateTask creates a new task with its tags
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		apierrors.BadRequestWithDetails(c, "Validation failed", validation.Details(err))
		return
	}

	task, err := h.taskService.CreateTask(services.CreateTaskInput{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		TagIDs:      req.Tags,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"task": dto.ToTaskDTO(*task)})
}

// UpdateTask applies a partial update; a supplied tags list replaces the task's tags
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		apierrors.BadRequestWithDetails(c, "Validation failed", validation.Details(err))
		return
	}

	task, err := h.taskService.UpdateTask(c.Param("id"), userID, services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		TagIDs:      req.Tags,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": dto.ToTaskDTO(*task)})
}

// DeleteTask deletes a task and its tag associations
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	if err := h.taskService.DeleteTask(c.Param("id"), userID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// GenerateTasks suggests tasks extracted from free text without saving them
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		apierrors.BadRequestWithDetails(c, "Validation failed", validation.Details(err))
		return
	}

	tasks, err := h.taskService.GenerateTasks(c.Request.Context(), services.GenerateTasksInput{
		Text:   req.Text,
		UserID: userID,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": dto.ToGeneratedTaskDTOs(tasks)})
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleEmpty),
		errors.Is(err, services.ErrTitleTooLong),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrInvalidTagIDs):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	case errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.BadRequest(c, err.Error())
	default:
		logrus.WithError(err).Error("task request failed")
		apierrors.InternalError(c, "Internal server error")
	}
}
