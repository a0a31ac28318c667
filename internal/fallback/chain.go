package fallback

import (
	"context"

	"task-command-router/internal/common/logger"
)

// Chain tries each responder in order and returns the first usable reply.
// A cancelled context stops the chain.
type Chain struct {
	responders []Responder
	logger     logger.Logger
}

func NewChain(log logger.Logger, responders ...Responder) *Chain {
	return &Chain{responders: responders, logger: log}
}

func (c *Chain) Generate(ctx context.Context, utterance string) (string, error) {
	lastErr := ErrFallbackFailed
	for i, r := range c.responders {
		reply, err := r.Generate(ctx, utterance)
		if err == nil && Usable(reply) {
			return reply, nil
		}
		if err == nil {
			err = ErrFallbackFailed
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ErrFallbackTimeout
		}
		if i < len(c.responders)-1 {
			c.logger.Warn("responder failed, trying next", map[string]interface{}{
				"position": i,
				"error":    err.Error(),
			})
		}
	}
	return "", lastErr
}
