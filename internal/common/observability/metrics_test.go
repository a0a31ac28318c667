package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestObservability_SpansAndTurns(t *testing.T) {
	o := New("task-router-test")
	t.Cleanup(func() { _ = o.Shutdown(context.Background()) })

	ctx, span := o.StartSpan(context.Background(), "dispatch", attribute.String("operation", "list_tasks"))
	assert.True(t, span.SpanContext().IsValid())
	assert.True(t, span.IsRecording())
	span.End()

	assert.NotPanics(t, func() {
		o.RecordTurn(ctx, "success")
		o.RecordTurnDuration(ctx, 15*time.Millisecond, "success")
	})
}

func TestObservability_ZeroValueIsSafe(t *testing.T) {
	var o Observability

	_, span := o.StartSpan(context.Background(), "noop")
	span.End()
	o.RecordTurn(context.Background(), "error")
	assert.NoError(t, o.Shutdown(context.Background()))
}
