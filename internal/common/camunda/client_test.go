package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"task-command-router/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRetryClient(maxRetries int) *Client {
	return &Client{config: &ClientConfig{
		ConnectionTimeout: time.Second,
		RetryConfig: &RetryConfig{
			MaxRetries: maxRetries,
			BaseDelay:  time.Millisecond,
			MaxDelay:   5 * time.Millisecond,
		},
	}}
}

func TestExecuteWithRetry_SucceedsAfterTransientErrors(t *testing.T) {
	c := newRetryClient(3)
	calls := 0

	result, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, stderrors.New("rpc error: code = Unavailable desc = connection refused")
		}
		return "ok", nil
	}, "complete-job")

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_GivesUp(t *testing.T) {
	c := newRetryClient(2)
	calls := 0

	_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		return nil, stderrors.New("connection reset by peer")
	}, "publish-message")

	require.Error(t, err)
	assert.Equal(t, 3, calls)

	stdErr := errors.AsStandardError(err)
	assert.Equal(t, errors.ErrCodeEngineUnavailable, stdErr.Code)
	assert.Equal(t, "publish-message", stdErr.Metadata["operation"])
}

func TestExecuteWithRetry_DoesNotRetryPermanentErrors(t *testing.T) {
	c := newRetryClient(3)
	calls := 0

	_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		return nil, stderrors.New("NOT_FOUND: job 42 not found")
	}, "complete-job")

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, errors.ErrCodeEngineRejected, errors.AsStandardError(err).Code)
}

func TestExecuteWithRetry_ContextCancelled(t *testing.T) {
	c := newRetryClient(5)
	c.config.RetryConfig.BaseDelay = time.Second
	c.config.RetryConfig.MaxDelay = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ExecuteWithRetry(ctx, func(context.Context) (interface{}, error) {
		return nil, stderrors.New("unavailable")
	}, "topology")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeEngineTimeout, errors.AsStandardError(err).Code)
}

func TestMapZeebeError(t *testing.T) {
	tests := []struct {
		msg  string
		want errors.ErrorCode
	}{
		{"context deadline exceeded", errors.ErrCodeEngineTimeout},
		{"i/o timeout", errors.ErrCodeEngineTimeout},
		{"permission denied", errors.ErrCodeEngineRejected},
		{"process already exists", errors.ErrCodeEngineRejected},
		{"connection refused", errors.ErrCodeEngineUnavailable},
		{"something odd", errors.ErrCodeEngineUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			got := mapZeebeError(stderrors.New(tt.msg), "op", 0)
			assert.Equal(t, tt.want, got.Code)
			assert.Contains(t, got.Details, tt.msg)
		})
	}
}

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(stderrors.New("Unavailable")))
	assert.True(t, isRetryableZeebeError(stderrors.New("write: broken pipe")))
	assert.False(t, isRetryableZeebeError(stderrors.New("invalid argument")))
}
