package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/tasktag-api/internal/constants"
	"github.com/yukikurage/tasktag-api/internal/dto"
	apierrors "github.com/yukikurage/tasktag-api/internal/errors"
	"github.com/yukikurage/tasktag-api/internal/middleware"
	"github.com/yukikurage/tasktag-api/internal/services"
	"github.com/yukikurage/tasktag-api/internal/validation"
)

// AuthHandler serves signup, login and session endpoints.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// CredentialsRequest is the body of signup and login
type CredentialsRequest struct {
	Username string `json:"username" validate:"notblank,min=3,max=50"`
	Password string `json:"password" validate:"required"`
}

// bindCredentials decodes and validates the request body, answering 400 on failure
func bindCredentials(c *gin.Context) (CredentialsRequest, bool) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return req, false
	}
	if err := validation.ValidateStruct(req); err != nil {
		apierrors.BadRequestWithDetails(c, "Validation failed", validation.Details(err))
		return req, false
	}
	return req, true
}

// Signup registers a new user. It does not log the user in.
func (h *AuthHandler) Signup(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		return
	}

	user, err := h.authService.Signup(services.SignupInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// Login checks credentials and stores the user id in the session.
func (h *AuthHandler) Login(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		return
	}

	user, err := h.authService.Login(services.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(constants.ContextKeyUserID, user.ID)
	if err := session.Save(); err != nil {
		logrus.WithError(err).Error("failed to save session")
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	logrus.WithField("user_id", user.ID).Info("User logged in")
	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// Logout clears the session.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		logrus.WithError(err).Error("failed to clear session")
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the user owning the session.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	user, err := h.authService.GetUser(userID)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUsernameRequired):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrUsernameTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.RespondWithError(c, http.StatusUnauthorized,
			apierrors.NewAPIError(apierrors.ErrCodeInvalidCredentials, err.Error()))
	case errors.Is(err, services.ErrUserNotFound):
		// Session points at a user that no longer exists
		apierrors.Unauthorized(c, "")
	default:
		logrus.WithError(err).Error("auth request failed")
		apierrors.InternalError(c, "Internal server error")
	}
}
