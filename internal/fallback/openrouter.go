package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"task-command-router/internal/common/logger"
	"task-command-router/internal/common/metrics"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const sourceOpenRouter = "openrouter"

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// OpenRouter calls the OpenRouter chat completions API. Identical utterances
// in flight at the same time share one upstream call.
type OpenRouter struct {
	config  *Config
	client  *http.Client
	limiter *rate.Limiter
	group   singleflight.Group
	logger  logger.Logger
}

func NewOpenRouter(config *Config, log logger.Logger) *OpenRouter {
	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), config.Burst)
	}
	return &OpenRouter{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		limiter: limiter,
		logger: log.With(map[string]interface{}{
			"responder": sourceOpenRouter,
		}),
	}
}

func (o *OpenRouter) Generate(ctx context.Context, utterance string) (string, error) {
	ch := o.group.DoChan(utterance, func() (interface{}, error) {
		return o.generate(ctx, utterance)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			metrics.FallbackRequests.WithLabelValues(sourceOpenRouter, metrics.OutcomeFailure).Inc()
			return "", res.Err
		}
		metrics.FallbackRequests.WithLabelValues(sourceOpenRouter, metrics.OutcomeSuccess).Inc()
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ErrFallbackTimeout
	}
}

func (o *OpenRouter) generate(ctx context.Context, utterance string) (string, error) {
	if o.config.APIKey == "" {
		return "", fmt.Errorf("%w: api key not configured", ErrFallbackFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: rate limiter: %v", ErrFallbackTimeout, err)
		}
	}

	body, err := json.Marshal(completionRequest{
		Model: o.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: o.config.SystemPrompt},
			{Role: "user", Content: utterance},
		},
		MaxTokens:   o.config.MaxTokens,
		Temperature: o.config.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFallbackFailed, err)
	}

	var lastErr error
	for attempt := 0; attempt <= o.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ErrFallbackTimeout
			}
		}

		reply, retry, err := o.do(ctx, body)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ErrFallbackTimeout
		}
		if !retry {
			break
		}
		o.logger.Warn("openrouter attempt failed", map[string]interface{}{
			"attempt": attempt + 1,
			"error":   err.Error(),
		})
	}

	return "", fmt.Errorf("%w: %v", ErrFallbackFailed, lastErr)
}

// do performs one request. retry reports whether the failure is transient.
func (o *OpenRouter) do(ctx context.Context, body []byte) (reply string, retry bool, err error) {
	url := strings.TrimRight(o.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.config.APIKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		transient := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", transient, fmt.Errorf("status %d", resp.StatusCode)
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", false, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", false, errors.New("response has no choices")
	}

	content := ""
	if c := parsed.Choices[0].Message.Content; c != nil {
		content = strings.TrimSpace(*c)
	}
	if !Usable(content) {
		return "", false, fmt.Errorf("reply too short (%d chars)", len(content))
	}
	return content, false, nil
}
