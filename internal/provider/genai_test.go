// internal/provider/genai_test.go
package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evaldash/internal/common/config"
	stderrors "evaldash/internal/common/errors"
	"evaldash/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig(baseURL string) config.GenAIConfig {
	return config.GenAIConfig{
		BaseURL:     baseURL,
		APIKey:      "test-key",
		Model:       "gpt-4o",
		Temperature: 0.7,
		MaxTokens:   1000,
		Timeout:     5000,
		MaxRetries:  1,
	}
}

func createChatResponse(content string) string {
	response := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]interface{}{"role": "assistant", "content": content}},
		},
	}
	data, _ := json.Marshal(response)
	return string(data)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestClient_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify request
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var reqBody chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "gpt-4o", reqBody.Model)
		assert.Equal(t, 0.7, reqBody.Temperature)
		assert.Equal(t, 1000, reqBody.MaxTokens)
		require.Len(t, reqBody.Messages, 2)
		assert.Equal(t, "system", reqBody.Messages[0].Role)
		assert.Equal(t, "user", reqBody.Messages[1].Role)
		assert.Equal(t, "evaluate my scores", reqBody.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(createChatResponse("Focus on communication and delegation.")))
	}))
	defer server.Close()

	client := NewClient(createTestConfig(server.URL), logger.NewTestLogger(t))

	text, err := client.Complete(context.Background(), "evaluate my scores")
	require.NoError(t, err)
	assert.Equal(t, "Focus on communication and delegation.", text)
}

func TestClient_Complete_Retry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(createChatResponse("Second attempt response.")))
	}))
	defer server.Close()

	client := NewClient(createTestConfig(server.URL), logger.NewTestLogger(t))

	text, err := client.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Second attempt response.", text)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_Complete_RetriesExhausted(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(createTestConfig(server.URL), logger.NewTestLogger(t))

	_, err := client.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeGenerationFailed))
	// Initial attempt plus one retry
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_Complete_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(createChatResponse("too late")))
	}))
	defer server.Close()

	cfg := createTestConfig(server.URL)
	cfg.Timeout = 50 // milliseconds
	client := NewClient(cfg, logger.NewTestLogger(t))

	_, err := client.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeGenerationTimeout))
}

func TestClient_Complete_EmptyCompletion(t *testing.T) {
	tests := []struct {
		name        string
		apiResponse string
	}{
		{name: "whitespace content", apiResponse: createChatResponse("   \n\t  ")},
		{name: "empty content", apiResponse: createChatResponse("")},
		{name: "no choices", apiResponse: `{"choices":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.apiResponse))
			}))
			defer server.Close()

			client := NewClient(createTestConfig(server.URL), logger.NewTestLogger(t))

			_, err := client.Complete(context.Background(), "prompt")
			require.Error(t, err)
			assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeEmptyCompletion))
		})
	}
}

func TestClient_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"model overloaded","type":"server_error"}}`))
	}))
	defer server.Close()

	client := NewClient(createTestConfig(server.URL), logger.NewTestLogger(t))

	_, err := client.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeGenerationFailed))
}

func TestClient_Complete_NotConfigured(t *testing.T) {
	cfg := createTestConfig("http://localhost:0")
	cfg.APIKey = ""
	client := NewClient(cfg, logger.NewTestLogger(t))

	assert.False(t, client.Enabled())

	_, err := client.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeConfiguration))
}
