package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/tasktag-api/internal/constants"
	apierrors "github.com/yukikurage/tasktag-api/internal/errors"
	"github.com/yukikurage/tasktag-api/internal/models"
	"github.com/yukikurage/tasktag-api/internal/services"
)

// RequireTaskAccess loads the task named by the :id parameter into the context.
// Tasks of other users answer 404 so their existence is not leaked.
func RequireTaskAccess(taskService *services.TaskService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		task, err := taskService.GetTask(c.Param("id"), userID)
		if err != nil {
			if errors.Is(err, services.ErrTaskNotFound) {
				apierrors.NotFound(c, "Task not found")
			} else {
				logrus.WithError(err).Error("failed to load task")
				apierrors.InternalError(c, "Failed to fetch task")
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, task)
		c.Next()
	}
}

// GetTask retrieves the task loaded by RequireTaskAccess
func GetTask(c *gin.Context) (*models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return nil, false
	}
	task, ok := value.(*models.Task)
	return task, ok
}
