package fallback

import (
	"context"
	"errors"
	"testing"

	"task-command-router/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockResponder struct {
	mock.Mock
}

func (m *MockResponder) Generate(ctx context.Context, utterance string) (string, error) {
	args := m.Called(ctx, utterance)
	return args.String(0), args.Error(1)
}

func TestChain_FallsThroughOnFailure(t *testing.T) {
	primary := new(MockResponder)
	primary.On("Generate", mock.Anything, "hello").Return("", ErrFallbackFailed)
	secondary := new(MockResponder)
	secondary.On("Generate", mock.Anything, "hello").Return("Hello from backup", nil)

	c := NewChain(logger.NewTestLogger(t), primary, secondary)

	reply, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello from backup", reply)
	primary.AssertExpectations(t)
	secondary.AssertExpectations(t)
}

func TestChain_SkipsShortReplies(t *testing.T) {
	primary := new(MockResponder)
	primary.On("Generate", mock.Anything, "x").Return("ok", nil)
	secondary := new(MockResponder)
	secondary.On("Generate", mock.Anything, "x").Return("a proper reply", nil)

	reply, err := NewChain(logger.NewTestLogger(t), primary, secondary).Generate(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "a proper reply", reply)
}

func TestChain_AllFail(t *testing.T) {
	boom := errors.New("boom")
	only := new(MockResponder)
	only.On("Generate", mock.Anything, "x").Return("", boom)

	_, err := NewChain(logger.NewTestLogger(t), only).Generate(context.Background(), "x")
	assert.ErrorIs(t, err, boom)

	_, err = NewChain(logger.NewTestLogger(t)).Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrFallbackFailed)
}

func TestChain_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	primary := new(MockResponder)
	primary.On("Generate", mock.Anything, "x").Return("", context.Canceled)
	secondary := new(MockResponder)

	_, err := NewChain(logger.NewTestLogger(t), primary, secondary).Generate(ctx, "x")
	assert.ErrorIs(t, err, ErrFallbackTimeout)
	secondary.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}
