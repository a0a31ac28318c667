package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"task-command-router/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestConfig(baseURL string) *Config {
	return &Config{
		BaseURL:      baseURL,
		APIKey:       "test-key",
		Model:        "openai/gpt-4o-mini",
		SystemPrompt: DefaultSystemPrompt,
		Timeout:      2 * time.Second,
		MaxTokens:    500,
		Temperature:  0.7,
		MaxRetries:   2,
		Burst:        1,
	}
}

func completionBody(content string) string {
	data, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]interface{}{"role": "assistant", "content": content}},
		},
	})
	return string(data)
}

func TestOpenRouter_Generate_Success(t *testing.T) {
	var got completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("  Paris is the capital of France.  ")))
	}))
	defer server.Close()

	o := NewOpenRouter(createTestConfig(server.URL+"/"), logger.NewTestLogger(t))

	reply, err := o.Generate(context.Background(), "what is the capital of france")
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital of France.", reply)

	assert.Equal(t, "openai/gpt-4o-mini", got.Model)
	assert.Equal(t, 500, got.MaxTokens)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "what is the capital of france", got.Messages[1].Content)
}

func TestOpenRouter_Generate_RetriesTransientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(completionBody("third time lucky")))
	}))
	defer server.Close()

	o := NewOpenRouter(createTestConfig(server.URL), logger.NewTestLogger(t))

	reply, err := o.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "third time lucky", reply)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestOpenRouter_Generate_Failures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCalls int32
	}{
		{"unauthorized is not retried", http.StatusUnauthorized, `{"error":"bad key"}`, 1},
		{"exhausted retries", http.StatusBadGateway, "", 3},
		{"no choices", http.StatusOK, `{"choices":[]}`, 1},
		{"null content", http.StatusOK, `{"choices":[{"message":{"content":null}}]}`, 1},
		{"short content", http.StatusOK, completionBody("ok"), 1},
		{"malformed json", http.StatusOK, `{"choices":`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			o := NewOpenRouter(createTestConfig(server.URL), logger.NewTestLogger(t))

			_, err := o.Generate(context.Background(), "tell me a joke")
			assert.ErrorIs(t, err, ErrFallbackFailed)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestOpenRouter_Generate_MissingAPIKey(t *testing.T) {
	cfg := createTestConfig("http://127.0.0.1:0")
	cfg.APIKey = ""
	o := NewOpenRouter(cfg, logger.NewTestLogger(t))

	_, err := o.Generate(context.Background(), "hello there")
	assert.ErrorIs(t, err, ErrFallbackFailed)
}

func TestOpenRouter_Generate_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	cfg := createTestConfig(server.URL)
	cfg.Timeout = 100 * time.Millisecond
	o := NewOpenRouter(cfg, logger.NewTestLogger(t))

	start := time.Now()
	_, err := o.Generate(context.Background(), "slow question")
	assert.ErrorIs(t, err, ErrFallbackTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestOpenRouter_Generate_SharesInflightCalls(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		_, _ = w.Write([]byte(completionBody("shared answer")))
	}))
	defer server.Close()

	o := NewOpenRouter(createTestConfig(server.URL), logger.NewTestLogger(t))

	var wg sync.WaitGroup
	replies := make([]string, 5)
	for i := range replies {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			replies[i], _ = o.Generate(context.Background(), "same question")
		}(i)
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range replies {
		assert.Equal(t, "shared answer", r)
	}
}

func TestOpenRouter_Generate_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completionBody("limited answer")))
	}))
	defer server.Close()

	cfg := createTestConfig(server.URL)
	cfg.RateLimit = 0.01
	o := NewOpenRouter(cfg, logger.NewTestLogger(t))

	_, err := o.Generate(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = o.Generate(ctx, "second")
	assert.True(t, errors.Is(err, ErrFallbackTimeout), "got %v", err)
}
