package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/tasktag-api/internal/config"
	"github.com/yukikurage/tasktag-api/internal/dto"
	"github.com/yukikurage/tasktag-api/internal/models"
	"github.com/yukikurage/tasktag-api/internal/routes"
	"github.com/yukikurage/tasktag-api/internal/services"
	"github.com/yukikurage/tasktag-api/internal/testutil"
	"gorm.io/gorm"
)

// TaskHandlerTestSuite drives the full router with a cookie session store
type TaskHandlerTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
}

type taskResponse struct {
	Task dto.TaskDTO `json:"task"`
}

type errorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details"`
}

func (suite *TaskHandlerTestSuite) setupRouter(aiService services.TaskGenerator) {
	cfg := &config.Config{AllowedOrigins: "http://localhost:5173"}
	store := cookie.NewStore([]byte("test-secret"))
	suite.router = routes.Setup(suite.db, cfg, store, aiService)
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.db = testutil.NewDB(suite.T())
	suite.setupRouter(nil)
}

func (suite *TaskHandlerTestSuite) request(method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// login signs a user up, logs in and returns the session cookies
func (suite *TaskHandlerTestSuite) login(username string) []*http.Cookie {
	creds := map[string]string{"username": username, "password": "supersecret"}

	w := suite.request(http.MethodPost, "/api/auth/signup", creds, nil)
	suite.Require().Equal(http.StatusCreated, w.Code)

	w = suite.request(http.MethodPost, "/api/auth/login", creds, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	suite.Require().NotEmpty(cookies)
	return cookies
}

func (suite *TaskHandlerTestSuite) createTag(cookies []*http.Cookie, name string) dto.TagDTO {
	w := suite.request(http.MethodPost, "/api/tags", map[string]string{"name": name}, cookies)
	suite.Require().Equal(http.StatusCreated, w.Code)

	var resp struct {
		Tag dto.TagDTO `json:"tag"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Tag
}

func (suite *TaskHandlerTestSuite) createTask(cookies []*http.Cookie, body map[string]any) dto.TaskDTO {
	w := suite.request(http.MethodPost, "/api/tasks", body, cookies)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp taskResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Task
}

func (suite *TaskHandlerTestSuite) listTasks(cookies []*http.Cookie, query string) dto.TaskListResponse {
	w := suite.request(http.MethodGet, "/api/tasks"+query, nil, cookies)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp dto.TaskListResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func tagRefNames(task dto.TaskDTO) []string {
	names := make([]string, len(task.Tags))
	for i, tag := range task.Tags {
		names[i] = tag.Name
	}
	return names
}

func (suite *TaskHandlerTestSuite) TestBuyMilkScenario() {
	cookies := suite.login("alice")
	errands := suite.createTag(cookies, "errands")
	home := suite.createTag(cookies, "home")

	task := suite.createTask(cookies, map[string]any{
		"title": "Buy milk",
		"tags":  []string{errands.ID, home.ID},
	})
	suite.Equal("Buy milk", task.Title)
	suite.Equal(models.TaskStatusTodo, task.Status)
	suite.Equal(models.TaskPriorityMedium, task.Priority)
	suite.Equal([]string{"errands", "home"}, tagRefNames(task))

	list := suite.listTasks(cookies, "?tag="+home.ID)
	suite.Require().Len(list.Tasks, 1)
	suite.Equal(task.ID, list.Tasks[0].ID)
	suite.Equal([]string{"errands", "home"}, tagRefNames(list.Tasks[0]))
	suite.Nil(list.Pagination)

	w := suite.request(http.MethodPatch, "/api/tasks/"+task.ID, map[string]any{
		"status": "completed",
		"tags":   []string{home.ID},
	}, cookies)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var updated taskResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &updated))
	suite.Equal(models.TaskStatusCompleted, updated.Task.Status)
	suite.Equal("Buy milk", updated.Task.Title)
	suite.Equal([]string{"home"}, tagRefNames(updated.Task))

	suite.Empty(suite.listTasks(cookies, "?tag="+errands.ID).Tasks)

	w = suite.request(http.MethodDelete, "/api/tasks/"+task.ID, nil, cookies)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, "/api/tasks/"+task.ID, nil, cookies)
	suite.Equal(http.StatusNotFound, w.Code)

	var links int64
	suite.db.Model(&models.TaskTag{}).Count(&links)
	suite.Equal(int64(0), links)
}

func (suite *TaskHandlerTestSuite) TestGetTask() {
	cookies := suite.login("alice")
	task := suite.createTask(cookies, map[string]any{"title": "Read", "priority": "high"})

	w := suite.request(http.MethodGet, "/api/tasks/"+task.ID, nil, cookies)
	suite.Require().Equal(http.StatusOK, w.Code)

	var resp taskResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(task.ID, resp.Task.ID)
	suite.Equal(models.TaskPriorityHigh, resp.Task.Priority)
	suite.NotNil(resp.Task.Tags)
	suite.Empty(resp.Task.Tags)
}

func (suite *TaskHandlerTestSuite) TestUnauthenticatedRequestsAreRejected() {
	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/tasks"},
		{http.MethodPost, "/api/tasks"},
		{http.MethodGet, "/api/tasks/some-id"},
		{http.MethodPatch, "/api/tasks/some-id"},
		{http.MethodDelete, "/api/tasks/some-id"},
		{http.MethodGet, "/api/tags"},
		{http.MethodPost, "/api/tags"},
	} {
		w := suite.request(tc.method, tc.path, map[string]string{}, nil)
		suite.Equal(http.StatusUnauthorized, w.Code, tc.method+" "+tc.path)

		var resp errorResponse
		suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		suite.Equal("Unauthorized", resp.Error)
	}
}

func (suite *TaskHandlerTestSuite) TestCrossUserIsolation() {
	alice := suite.login("alice")
	bob := suite.login("bob")

	aliceTag := suite.createTag(alice, "private")
	task := suite.createTask(alice, map[string]any{"title": "Secret", "tags": []string{aliceTag.ID}})

	w := suite.request(http.MethodGet, "/api/tasks/"+task.ID, nil, bob)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodPatch, "/api/tasks/"+task.ID, map[string]any{"title": "Mine now"}, bob)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodDelete, "/api/tasks/"+task.ID, nil, bob)
	suite.Equal(http.StatusNotFound, w.Code)

	suite.Empty(suite.listTasks(bob, "").Tasks)
	suite.Empty(suite.listTasks(bob, "?tag="+aliceTag.ID).Tasks)

	// Bob cannot attach Alice's tag to his own task
	w = suite.request(http.MethodPost, "/api/tasks", map[string]any{
		"title": "Borrowed tag",
		"tags":  []string{aliceTag.ID},
	}, bob)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodGet, "/api/tags", nil, bob)
	suite.Require().Equal(http.StatusOK, w.Code)
	var tags struct {
		Tags []dto.TagDTO `json:"tags"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &tags))
	suite.Empty(tags.Tags)

	// Alice's task is untouched
	w = suite.request(http.MethodGet, "/api/tasks/"+task.ID, nil, alice)
	suite.Require().Equal(http.StatusOK, w.Code)
	var resp taskResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("Secret", resp.Task.Title)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_ValidationErrors() {
	cookies := suite.login("alice")

	w := suite.request(http.MethodPost, "/api/tasks", map[string]any{"title": "   "}, cookies)
	suite.Equal(http.StatusBadRequest, w.Code)

	var resp errorResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("VALIDATION_FAILED", resp.Code)
	suite.Equal("notblank", resp.Details["title"])

	w = suite.request(http.MethodPost, "/api/tasks", map[string]any{"title": "x", "status": "archived"}, cookies)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, "/api/tasks", map[string]any{"title": "x", "tags": []string{"unknown"}}, cookies)
	suite.Equal(http.StatusBadRequest, w.Code)

	var count int64
	suite.db.Model(&models.Task{}).Count(&count)
	suite.Equal(int64(0), count)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_MultibyteTitleWithinLimit() {
	cookies := suite.login("alice")
	title := strings.Repeat("牛", 200)

	task := suite.createTask(cookies, map[string]any{"title": title})
	suite.Equal(title, task.Title)
}

func (suite *TaskHandlerTestSuite) TestUpdateTask_EmptyTitleRejected() {
	cookies := suite.login("alice")
	task := suite.createTask(cookies, map[string]any{"title": "Keep"})

	w := suite.request(http.MethodPatch, "/api/tasks/"+task.ID, map[string]any{"title": ""}, cookies)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodGet, "/api/tasks/"+task.ID, nil, cookies)
	var resp taskResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("Keep", resp.Task.Title)
}

func (suite *TaskHandlerTestSuite) TestListTasks_FiltersAndPagination() {
	cookies := suite.login("alice")
	suite.createTask(cookies, map[string]any{"title": "one"})
	suite.createTask(cookies, map[string]any{"title": "two", "priority": "high"})
	suite.createTask(cookies, map[string]any{"title": "three", "status": "in_progress"})

	suite.Len(suite.listTasks(cookies, "").Tasks, 3)
	suite.Len(suite.listTasks(cookies, "?priority=high").Tasks, 1)
	suite.Len(suite.listTasks(cookies, "?status=in_progress").Tasks, 1)

	list := suite.listTasks(cookies, "?page=1&limit=2")
	suite.Len(list.Tasks, 2)
	suite.Require().NotNil(list.Pagination)
	suite.Equal(int64(3), list.Pagination.Total)
	suite.Equal(2, list.Pagination.Limit)

	// Newest first
	suite.Equal("three", list.Tasks[0].Title)

	w := suite.request(http.MethodGet, "/api/tasks?status=archived", nil, cookies)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestListTags_TaskCounts() {
	cookies := suite.login("alice")
	work := suite.createTag(cookies, "work")
	suite.createTag(cookies, "idle")
	suite.createTask(cookies, map[string]any{"title": "Report", "tags": []string{work.ID}})

	w := suite.request(http.MethodGet, "/api/tags", nil, cookies)
	suite.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Tags []dto.TagDTO `json:"tags"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Require().Len(resp.Tags, 2)
	suite.Equal("work", resp.Tags[0].Name)
	suite.Equal(int64(1), resp.Tags[0].TaskCount)
	suite.Equal(int64(0), resp.Tags[1].TaskCount)
}

func (suite *TaskHandlerTestSuite) TestCreateTag_BlankName() {
	cookies := suite.login("alice")

	w := suite.request(http.MethodPost, "/api/tags", map[string]string{"name": "  "}, cookies)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestGenerateTasks_NotConfigured() {
	cookies := suite.login("alice")

	w := suite.request(http.MethodPost, "/api/tasks/generate", map[string]string{"text": "buy milk tomorrow"}, cookies)
	suite.Equal(http.StatusServiceUnavailable, w.Code)
}

type fixedGenerator struct{}

func (fixedGenerator) GenerateTasksFromText(ctx context.Context, text string) ([]services.GeneratedTask, error) {
	return []services.GeneratedTask{{Title: "Buy milk", Priority: models.TaskPriorityLow}}, nil
}

func (suite *TaskHandlerTestSuite) TestGenerateTasks_ReturnsSuggestions() {
	suite.setupRouter(fixedGenerator{})
	cookies := suite.login("alice")

	w := suite.request(http.MethodPost, "/api/tasks/generate", map[string]string{"text": "buy milk"}, cookies)
	suite.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Tasks []dto.GeneratedTaskDTO `json:"tasks"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Require().Len(resp.Tasks, 1)
	suite.Equal("Buy milk", resp.Tasks[0].Title)

	// Suggestions are not saved
	var count int64
	suite.db.Model(&models.Task{}).Count(&count)
	suite.Equal(int64(0), count)
}

func (suite *TaskHandlerTestSuite) TestLogoutEndsSession() {
	cookies := suite.login("alice")

	w := suite.request(http.MethodPost, "/api/auth/logout", nil, cookies)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, "/api/auth/me", nil, w.Result().Cookies())
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func TestSetup_WithoutCORSOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)

	var router *gin.Engine
	assert.NotPanics(t, func() {
		router = routes.Setup(db, &config.Config{}, cookie.NewStore([]byte("test-secret")), nil)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
