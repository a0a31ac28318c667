package fallback

import (
	"time"

	"task-command-router/internal/common/config"
)

const DefaultSystemPrompt = "You are a helpful AI assistant for a task management application. " +
	"Respond concisely and helpfully to user requests about tasks, skills, or general questions. " +
	"Be friendly and professional."

// Config holds the OpenRouter client settings.
type Config struct {
	BaseURL      string
	APIKey       string
	Model        string
	SystemPrompt string
	Timeout      time.Duration
	MaxTokens    int
	Temperature  float64
	MaxRetries   int
	RateLimit    float64 // requests per second, 0 disables limiting
	Burst        int
	CacheTTL     time.Duration
}

func NewConfig(cfg config.OpenRouterConfig) *Config {
	c := &Config{
		BaseURL:      cfg.BaseURL,
		APIKey:       cfg.APIKey,
		Model:        cfg.Model,
		SystemPrompt: cfg.SystemPrompt,
		Timeout:      config.GetDuration(cfg.Timeout),
		MaxTokens:    cfg.MaxTokens,
		Temperature:  cfg.Temperature,
		MaxRetries:   cfg.MaxRetries,
		RateLimit:    cfg.RateLimit,
		Burst:        cfg.Burst,
		CacheTTL:     time.Duration(cfg.CacheTTL) * time.Second,
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Burst == 0 {
		c.Burst = 1
	}
	return c
}
