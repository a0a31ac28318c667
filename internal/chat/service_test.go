package chat

import (
	"context"
	"errors"
	"testing"

	"task-command-router/internal/common/logger"
	"task-command-router/internal/dispatch"
	"task-command-router/internal/fallback"
	"task-command-router/internal/intent"
	"task-command-router/internal/journal"
	"task-command-router/internal/tasks"
	"task-command-router/pkg/registry"

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

type MockJournal struct {
	mock.Mock
}

func (m *MockJournal) Record(ctx context.Context, e journal.Entry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockJournal) Recent(ctx context.Context, limit int) ([]journal.Entry, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]journal.Entry), args.Error(1)
}

func newTestService(t *testing.T, opts ...Option) (*Service, *tasks.MemoryStore) {
	store := tasks.NewMemoryStore()
	log := logger.NewTestLogger(t)
	d := dispatch.NewDispatcher(store, registry.Default(), log)
	s := NewService(intent.MustNewClassifier(), d, log, opts...)
	s.newID = func() string { return "req-test" }
	return s, store
}

func TestService_EmptyMessage(t *testing.T) {
	s, _ := newTestService(t)

	for _, msg := range []string{"", "   ", "\n\t"} {
		resp := s.Handle(context.Background(), msg)
		assert.Equal(t, StatusError, resp.Status)
		assert.Equal(t, "Message cannot be empty", resp.Message)
		assert.Equal(t, "req-test", resp.RequestID)
	}
}

func TestService_TaskCommands(t *testing.T) {
	responder := new(MockResponder)
	s, store := newTestService(t, WithResponder(responder))
	ctx := context.Background()

	resp := s.Handle(ctx, `Add a task "Buy milk"`)
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, "Added task: Buy milk", resp.Message)
	assert.Equal(t, "add_task", resp.Intent)
	assert.Equal(t, "add_task", resp.Operation)

	resp = s.Handle(ctx, "complete task 1")
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, "Completed task 1: Buy milk", resp.Message)

	resp = s.Handle(ctx, "complete task 1")
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, "Task 1 is already complete: Buy milk", resp.Message)

	resp = s.Handle(ctx, "delete task 7")
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "Failed to delete task 7", resp.Message)

	resp = s.Handle(ctx, "show task summary")
	assert.Equal(t, "summary", resp.Intent)
	assert.Equal(t, "Task summary: 1 total, 1 completed, 0 incomplete", resp.Message)

	list, err := store.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	responder.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestService_FallbackRules(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		err        error
		wantStatus Status
		wantMsg    string
	}{
		{
			name:       "usable reply",
			reply:      "  Go was released in 2009.  ",
			wantStatus: StatusSuccess,
			wantMsg:    "Go was released in 2009.",
		},
		{
			name:       "problematic phrase replaced",
			reply:      "Sorry, I'm having trouble generating a response right now.",
			wantStatus: StatusSuccess,
			wantMsg:    "I understand you asked: 'when was go released'. I'm an AI assistant ready to help with your questions about tasks, skills, or general topics.",
		},
		{
			name:       "short reply",
			reply:      " ok ",
			wantStatus: StatusFallback,
			wantMsg:    "I received your message 'when was go released', but I need more details to provide a helpful response. Could you elaborate on what you'd like help with?",
		},
		{
			name:       "responder error",
			err:        fallback.ErrFallbackFailed,
			wantStatus: StatusError,
			wantMsg:    "I'm experiencing technical difficulties right now. Please try again shortly.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			responder := new(MockResponder)
			responder.On("Generate", mock.Anything, "when was go released").Return(tt.reply, tt.err)
			s, _ := newTestService(t, WithResponder(responder))

			resp := s.Handle(context.Background(), "when was go released")
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantMsg, resp.Message)
			assert.Equal(t, "unknown", resp.Intent)
			assert.Nil(t, resp.Data)
			responder.AssertExpectations(t)
		})
	}
}

func TestService_UnknownWithoutResponder(t *testing.T) {
	s, _ := newTestService(t)

	resp := s.Handle(context.Background(), "delete task abc")
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "unknown", resp.Intent)
	assert.Contains(t, resp.Message, "I didn't understand that command.")
	assert.Equal(t, "delete task abc", resp.Data["input"])
}

func TestService_SimulatedResponder(t *testing.T) {
	s, _ := newTestService(t, WithResponder(fallback.NewSimulated()))

	resp := s.Handle(context.Background(), "hello there")
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Contains(t, resp.Message, "hello there")
}

func TestService_JournalsEveryTurn(t *testing.T) {
	j := new(MockJournal)
	j.On("Record", mock.Anything, mock.MatchedBy(func(e journal.Entry) bool {
		return e.RequestID == "req-test" && e.Intent == "list_tasks" && e.Success && e.Source == SourceRouter
	})).Return(nil).Once()
	j.On("Record", mock.Anything, mock.MatchedBy(func(e journal.Entry) bool {
		return e.Status == "error" && e.Source == SourceRejected
	})).Return(errors.New("es down")).Once()

	s, _ := newTestService(t, WithJournal(j))

	resp := s.Handle(context.Background(), "list my tasks")
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, "No tasks found", resp.Message)

	resp = s.Handle(context.Background(), " ")
	assert.Equal(t, StatusError, resp.Status, "journal failures never change the response")

	j.AssertExpectations(t)
}

func TestService_Recent(t *testing.T) {
	j := new(MockJournal)
	j.On("Recent", mock.Anything, 3).Return([]journal.Entry{{RequestID: "a"}}, nil)
	s, _ := newTestService(t, WithJournal(j))

	entries, err := s.Recent(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
