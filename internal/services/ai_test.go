package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/tasktag-api/internal/models"
)

func newTestAIService(t *testing.T, content string) *AIService {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
			},
		})
	}))
	t.Cleanup(server.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1"
	return NewAIServiceWithConfig(cfg)
}

func TestAIService_GenerateTasksFromText(t *testing.T) {
	service := newTestAIService(t, `[{"title":"Buy milk","description":"2 liters","priority":"high"}]`)

	tasks, err := service.GenerateTasksFromText(context.Background(), "remember to buy milk")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.Equal(t, "2 liters", tasks[0].Description)
	assert.Equal(t, models.TaskPriorityHigh, tasks[0].Priority)
}

func TestAIService_InvalidJSON(t *testing.T) {
	service := newTestAIService(t, "Sure! Here are your tasks")

	_, err := service.GenerateTasksFromText(context.Background(), "anything")
	assert.ErrorContains(t, err, "failed to parse AI response")
}
