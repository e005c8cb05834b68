package deepseek

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonnyWalker81/heldairy/backend/internal/logger"
)

func chatServer(t *testing.T, status int, content string) (*httptest.Server, *map[string]any) {
	t.Helper()
	received := map[string]any{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&received)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"upstream unavailable","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   "deepseek-chat",
			"choices": []map[string]any{{"index": 0, "finish_reason": "stop", "message": map[string]any{"role": "assistant", "content": content}}},
			"usage":   map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &received
}

func newTestClient(url string) *Client {
	return NewClient(Config{BaseURL: url, Timeout: 2 * time.Second}, logger.Nop())
}

func TestClient_FetchAdvice(t *testing.T) {
	srv, received := chatServer(t, http.StatusOK, "```json\n{\"observations\":[\"ok\"],\"actions\":[\"rest\"]}\n```")

	c := newTestClient(srv.URL)
	p, err := c.FetchAdvice(context.Background(), "test-key", "system", "user prompt")
	require.NoError(t, err)

	assert.Equal(t, []string{"ok"}, p.Observations)
	assert.Equal(t, []string{"rest"}, p.Actions)
	assert.Equal(t, DefaultModel, (*received)["model"])

	msgs, ok := (*received)["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user prompt", msgs[1].(map[string]any)["content"])
}

func TestClient_FetchAdvice_FormatError(t *testing.T) {
	srv, _ := chatServer(t, http.StatusOK, "I am unable to produce JSON today.")

	_, err := newTestClient(srv.URL).FetchAdvice(context.Background(), "test-key", "s", "u")
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
}

func TestClient_FetchAdvice_TransportError(t *testing.T) {
	srv, _ := chatServer(t, http.StatusBadGateway, "")

	_, err := newTestClient(srv.URL).FetchAdvice(context.Background(), "test-key", "s", "u")
	require.Error(t, err)
	assert.False(t, IsFormatError(err))
}

func TestClient_MissingKey(t *testing.T) {
	_, err := newTestClient("http://127.0.0.1:1").FetchWeeklyInsight(context.Background(), "  ", "s", "u")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestClient_FetchWeeklyInsight(t *testing.T) {
	srv, _ := chatServer(t, http.StatusOK, `{"schema_version":1,"week_start_date":"2026-10-12","week_end_date":"2026-10-18","summary":"s","highlights":["h"],"suggestions":["g"],"cautions":[],"confidence":"medium"}`)

	p, err := newTestClient(srv.URL).FetchWeeklyInsight(context.Background(), "test-key", "s", "u")
	require.NoError(t, err)
	assert.Empty(t, p.Normalized().ValidationErrors())
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{}, nil)
	assert.Equal(t, DefaultModel, c.Model())
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}
