// Package completion provides the retrying completion client shared by all
// specialty agents. It wraps a single text-completion backend with prompt
// truncation, client-side rate limiting, and bounded exponential-backoff
// retry on rate-limit errors.
package completion

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"log/slog"

	"golang.org/x/time/rate"
)

// Backend is the sole external capability consumed by the client: turn a
// prompt into generated text. Implementations must return a *RateLimitError
// for transient rate-limit or quota conditions so the client can retry.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// User-facing fallback texts. The router and the UI never see a distinct
// error type from the client, only text.
const (
	// UnavailableMessage is returned after rate-limit retries are exhausted.
	UnavailableMessage = "Service temporarily unavailable. Please try again in a few minutes."

	// FailureMessage is returned for any non-rate-limit backend error.
	FailureMessage = "Sorry, there was an issue processing your request. Please try again."
)

// contentMarker separates the system/context portion of a prompt from the
// user-supplied content. Truncation never touches anything before it.
const contentMarker = "DATA TO ANALYZE:"

// truncationNotice is appended to truncated prompt content.
const truncationNotice = "\n\n[Content truncated to reduce token usage]"

// minContentKeep floors the kept data section. The system portion is never
// cut, so a long persona could otherwise consume the whole budget and leave
// nothing of the report itself; the floor raises the effective budget in
// that case instead of sending an empty data section.
const minContentKeep = 500

// Outcome labels reported to the metrics recorder.
const (
	OutcomeSuccess     = "success"
	OutcomeUnavailable = "unavailable"
	OutcomeFailure     = "failure"
)

// Recorder receives completion call outcomes for metrics export.
type Recorder interface {
	ObserveCompletion(outcome string, attempts int, duration time.Duration)
}

// Config tunes the client. Zero values select the defaults.
type Config struct {
	MaxRetries        int           // attempts on rate limiting (default: 3)
	BaseDelay         time.Duration // backoff base delay (default: 1s)
	PromptBudget      int           // prompt length budget (default: 2000)
	RequestsPerMinute int           // outbound rate limit, 0 disables
	Metrics           Recorder      // optional
}

// Client is the retrying completion client. It is safe for concurrent use.
type Client struct {
	backend      Backend
	maxRetries   int
	baseDelay    time.Duration
	promptBudget int
	limiter      *rate.Limiter
	metrics      Recorder

	// Injectable for deterministic tests.
	sleep  func(ctx context.Context, d time.Duration)
	jitter func() float64
}

// NewClient creates a completion client. A nil backend is a configuration
// error and fails fast.
func NewClient(backend Backend, cfg Config) (*Client, error) {
	if backend == nil {
		return nil, errors.New("completion: backend is required")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.PromptBudget <= 0 {
		cfg.PromptBudget = 2000
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), cfg.RequestsPerMinute)
	}

	return &Client{
		backend:      backend,
		maxRetries:   cfg.MaxRetries,
		baseDelay:    cfg.BaseDelay,
		promptBudget: cfg.PromptBudget,
		limiter:      limiter,
		metrics:      cfg.Metrics,
		sleep:        sleepContext,
		jitter:       rand.Float64,
	}, nil
}

// Complete sends the prompt to the backend, retrying on rate limiting with
// exponential backoff plus jitter. It always returns text: generated content
// on success, UnavailableMessage after retry exhaustion, FailureMessage for
// any other backend error. It may block for the full backoff duration.
func (c *Client) Complete(ctx context.Context, prompt string) string {
	prompt = c.fitPrompt(prompt)
	start := time.Now()

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				c.observe(OutcomeUnavailable, attempt+1, start)
				return UnavailableMessage
			}
		}

		text, err := c.backend.Generate(ctx, prompt)
		if err == nil {
			c.observe(OutcomeSuccess, attempt+1, start)
			return text
		}

		var rateLimited *RateLimitError
		if !errors.As(err, &rateLimited) {
			slog.Warn("completion: backend error, not retrying", "error", err, "attempt", attempt+1)
			c.observe(OutcomeFailure, attempt+1, start)
			return FailureMessage
		}

		if attempt == c.maxRetries-1 {
			break
		}

		delay := c.backoffDelay(attempt)
		if rateLimited.RetryAfter > delay {
			delay = rateLimited.RetryAfter
		}
		slog.Debug("completion: rate limited, backing off",
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"delay_ms", delay.Milliseconds(),
		)
		c.sleep(ctx, delay)
	}

	slog.Warn("completion: rate-limit retries exhausted", "attempts", c.maxRetries)
	c.observe(OutcomeUnavailable, c.maxRetries, start)
	return UnavailableMessage
}

// backoffDelay computes base * 2^attempt plus up to one second of jitter.
func (c *Client) backoffDelay(attempt int) time.Duration {
	backoff := c.baseDelay * time.Duration(1<<uint(attempt))
	return backoff + time.Duration(c.jitter()*float64(time.Second))
}

// fitPrompt keeps the prompt within the configured budget. The system portion
// before the content marker is preserved verbatim; only trailing content is
// cut, with a visible truncation notice appended. At least minContentKeep
// bytes of the data section always survive, so the marker and the leading
// report text reach the backend even when the system portion alone exceeds
// the budget.
func (c *Client) fitPrompt(prompt string) string {
	if len(prompt) <= c.promptBudget {
		return prompt
	}

	system, content, found := strings.Cut(prompt, contentMarker)
	if !found {
		return prompt[:c.promptBudget] + truncationNotice
	}
	content = contentMarker + content

	keep := c.promptBudget - len(system) - 100
	if keep < minContentKeep {
		keep = minContentKeep
	}
	if len(content) > keep {
		content = content[:keep] + truncationNotice
	}
	return system + content
}

func (c *Client) observe(outcome string, attempts int, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveCompletion(outcome, attempts, time.Since(start))
}

// sleepContext sleeps for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
