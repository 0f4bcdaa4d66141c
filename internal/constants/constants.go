package constants

// Session and context keys
const (
	SessionCookieName = "task_session"
	ContextKeyUserID  = "user_id"
	ContextKeyTask    = "task"
)

// Auth
const (
	MinPasswordLength = 8
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Limits
const (
	MaxTagNameLength    = 50
	MaxTitleLength      = 255
	MaxAIGeneratedTasks = 20
)
