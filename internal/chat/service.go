// Package chat answers a single chat message: task commands go to the
// dispatcher, everything else to the fallback responder.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"task-command-router/internal/common/logger"
	"task-command-router/internal/common/metrics"
	"task-command-router/internal/common/observability"
	"task-command-router/internal/dispatch"
	"task-command-router/internal/fallback"
	"task-command-router/internal/intent"
	"task-command-router/internal/journal"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const journalTimeout = 2 * time.Second

type Service struct {
	classifier      *intent.Classifier
	dispatcher      *dispatch.Dispatcher
	responder       fallback.Responder
	journal         journal.Journal
	obs             *observability.Observability
	logger          logger.Logger
	responseTimeout time.Duration
	newID           func() string
}

type Option func(*Service)

// WithResponder enables free-text replies for unmatched utterances. Without
// one, unmatched utterances get the dispatcher's guidance envelope.
func WithResponder(r fallback.Responder) Option {
	return func(s *Service) { s.responder = r }
}

func WithJournal(j journal.Journal) Option {
	return func(s *Service) { s.journal = j }
}

func WithObservability(o *observability.Observability) Option {
	return func(s *Service) { s.obs = o }
}

// WithResponseTimeout bounds each fallback call.
func WithResponseTimeout(d time.Duration) Option {
	return func(s *Service) { s.responseTimeout = d }
}

func NewService(classifier *intent.Classifier, dispatcher *dispatch.Dispatcher, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		classifier:      classifier,
		dispatcher:      dispatcher,
		journal:         journal.Nop{},
		obs:             &observability.Observability{},
		logger:          log.With(map[string]interface{}{"component": "chat"}),
		responseTimeout: 30 * time.Second,
		newID:           func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle never fails: every problem is reported in the Response.
func (s *Service) Handle(ctx context.Context, message string) Response {
	start := time.Now()
	reqID := s.newID()

	ctx, span := s.obs.StartSpan(ctx, "chat.handle", attribute.String("router.request_id", reqID))
	defer span.End()

	resp, source := s.handle(ctx, message)
	resp.RequestID = reqID

	span.SetAttributes(
		attribute.String("router.intent", resp.Intent),
		attribute.String("router.status", string(resp.Status)),
	)
	s.obs.RecordTurn(ctx, string(resp.Status))
	s.obs.RecordTurnDuration(ctx, time.Since(start), string(resp.Status))

	s.logger.Info("chat turn handled", map[string]interface{}{
		"requestId":  reqID,
		"intent":     resp.Intent,
		"status":     resp.Status,
		"source":     source,
		"durationMs": time.Since(start).Milliseconds(),
	})

	s.record(ctx, journal.Entry{
		RequestID:  reqID,
		Utterance:  message,
		Intent:     resp.Intent,
		Operation:  resp.Operation,
		Success:    resp.Status == StatusSuccess,
		Status:     string(resp.Status),
		Source:     source,
		DurationMs: time.Since(start).Milliseconds(),
		Timestamp:  start.UTC(),
	})
	return resp
}

func (s *Service) handle(ctx context.Context, message string) (Response, string) {
	if strings.TrimSpace(message) == "" {
		return Response{Status: StatusError, Message: msgEmpty}, SourceRejected
	}

	cmd := s.classifier.Classify(message)
	metrics.CommandsClassified.WithLabelValues(cmd.Intent.String()).Inc()

	if cmd.Intent != intent.Unknown || s.responder == nil {
		env := s.dispatcher.Dispatch(ctx, cmd)
		status := StatusSuccess
		if !env.Success {
			status = StatusError
		}
		source := SourceRouter
		if cmd.Intent == intent.Unknown {
			source = SourceGuidance
		}
		return Response{
			Status:    status,
			Message:   env.Message,
			Intent:    cmd.Intent.String(),
			Operation: env.Operation,
			Data:      env.Data,
		}, source
	}

	resp := Response{Intent: intent.Unknown.String()}
	resp.Status, resp.Message = s.converse(ctx, message)
	return resp, SourceFallback
}

// converse asks the responder and applies the reply rules for free text.
func (s *Service) converse(ctx context.Context, message string) (Status, string) {
	ctx, cancel := context.WithTimeout(ctx, s.responseTimeout)
	defer cancel()

	reply, err := s.responder.Generate(ctx, message)
	if err != nil {
		s.logger.Error("fallback responder failed", map[string]interface{}{
			"error": err.Error(),
		})
		return StatusError, msgTechnical
	}

	reply = strings.TrimSpace(reply)
	if !fallback.Usable(reply) {
		s.logger.Warn("fallback reply too short", map[string]interface{}{"length": len(reply)})
		return StatusFallback, fmt.Sprintf(msgNeedDetails, message)
	}
	if strings.Contains(reply, problematicReply) {
		return StatusSuccess, fmt.Sprintf(msgUnderstood, message)
	}
	return StatusSuccess, reply
}

func (s *Service) record(ctx context.Context, e journal.Entry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()

	if err := s.journal.Record(ctx, e); err != nil {
		s.logger.Warn("journal write failed", map[string]interface{}{
			"requestId": e.RequestID,
			"error":     err.Error(),
		})
	}
}

// Recent exposes the journal's latest entries.
func (s *Service) Recent(ctx context.Context, limit int) ([]journal.Entry, error) {
	return s.journal.Recent(ctx, limit)
}
