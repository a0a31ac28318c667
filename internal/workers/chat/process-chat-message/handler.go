package processchatmessage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"task-command-router/internal/chat"
	"task-command-router/internal/common/config"
	"task-command-router/internal/common/errors"
	"task-command-router/internal/common/metrics"
	"task-command-router/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "process-chat-message"

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Chatter answers one chat message. *chat.Service satisfies it.
type Chatter interface {
	Handle(ctx context.Context, message string) chat.Response
}

type Handler struct {
	config       *Config
	chat         Chatter
	errorHandler *errors.ErrorHandler
	logger       Logger
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Chat         Chatter
	Logger       Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Chat == nil {
		return nil, fmt.Errorf("%s: chat service is required", TaskType)
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("%s: logger is required", TaskType)
	}

	log := opts.Logger.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       cfg,
		chat:         opts.Chat,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	output, err := h.run(ctx, job)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.AsStandardError(err).Code)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) run(ctx context.Context, job entities.Job) (*Output, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidChatRequestError(fmt.Sprintf("parse job variables: %v", err))
	}
	input, err := parseInput(variables)
	if err != nil {
		return nil, err
	}
	return h.Execute(ctx, input)
}

// parseInput validates the job variables against the chat request schema.
func parseInput(variables map[string]interface{}) (*Input, error) {
	result, err := validation.ValidateChatRequest(variables)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if !result.Valid {
		return nil, errors.NewInvalidChatRequestError(result.Summary())
	}

	input := &Input{Message: variables["message"].(string)}
	if id, ok := variables["conversationId"].(string); ok {
		input.ConversationID = id
	}
	return input, nil
}

// Execute runs one chat turn. Empty messages are thrown as EMPTY_MESSAGE;
// a turn that outlives the job deadline is retried as FALLBACK_TIMEOUT.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.Message) == "" {
		return nil, errors.NewEmptyMessageError()
	}

	resp := h.chat.Handle(ctx, input.Message)
	if ctx.Err() != nil {
		return nil, errors.NewFallbackTimeoutError().WithMetadata("chatRequestId", resp.RequestID)
	}

	return &Output{
		RequestID:      resp.RequestID,
		Status:         string(resp.Status),
		Reply:          resp.Message,
		Intent:         resp.Intent,
		Operation:      resp.Operation,
		Data:           resp.Data,
		ConversationID: input.ConversationID,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("chat message processed", map[string]interface{}{
		"jobKey":    job.GetKey(),
		"requestId": output.RequestID,
		"status":    output.Status,
		"intent":    output.Intent,
	})
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) GetConfig() *Config {
	return h.config
}
