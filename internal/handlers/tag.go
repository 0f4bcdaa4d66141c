package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/tasktag-api/internal/dto"
	apierrors "github.com/yukikurage/tasktag-api/internal/errors"
	"github.com/yukikurage/tasktag-api/internal/middleware"
	"github.com/yukikurage/tasktag-api/internal/services"
	"github.com/yukikurage/tasktag-api/internal/validation"
)

type TagHandler struct {
	tagService *services.TagService
}

func NewTagHandler(tagService *services.TagService) *TagHandler {
	return &TagHandler{
		tagService: tagService,
	}
}

// CreateTagRequest is the body of POST /tags
type CreateTagRequest struct {
	Name string `json:"name" validate:"notblank,max=50"`
}

// ListTags returns the current user's tags
func (h *TagHandler) ListTags(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	tags, err := h.tagService.ListTags(userID)
	if err != nil {
		logrus.WithError(err).Error("failed to list tags")
		apierrors.InternalError(c, "Failed to fetch tags")
		return
	}

	c.JSON(http.StatusOK, gin.H{"tags": dto.ToTagDTOs(tags)})
}

// CreateTag creates a tag for the current user
func (h *TagHandler) CreateTag(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		apierrors.BadRequestWithDetails(c, "Validation failed", validation.Details(err))
		return
	}

	tag, err := h.tagService.CreateTag(userID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTagNameRequired), errors.Is(err, services.ErrTagNameTooLong):
			apierrors.BadRequest(c, err.Error())
		default:
			logrus.WithError(err).Error("failed to create tag")
			apierrors.InternalError(c, "Failed to create tag")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"tag": dto.ToTagDTO(*tag)})
}
