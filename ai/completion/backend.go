package completion

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/hrygo/triagesense/ai/core/llm"
)

// LLMBackend adapts an llm.Service to the Backend interface, classifying
// provider errors into typed rate-limit errors.
type LLMBackend struct {
	svc llm.Service
}

// NewLLMBackend creates a Backend over the given LLM service.
func NewLLMBackend(svc llm.Service) *LLMBackend {
	return &LLMBackend{svc: svc}
}

func (b *LLMBackend) Generate(ctx context.Context, prompt string) (string, error) {
	content, _, err := b.svc.Chat(ctx, []llm.Message{llm.UserMessage(prompt)})
	if err != nil {
		return "", classifyProviderError(err)
	}
	return content, nil
}

// retryAfterPattern extracts a provider-suggested delay from error messages
// like "Please retry after 21s" or "retry in 4.5 seconds".
var retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in)\s+(\d+(?:\.\d+)?)\s*s`)

// classifyProviderError maps OpenAI-protocol errors onto the client's error
// taxonomy. HTTP 429 and quota exhaustion are rate limits; everything else
// passes through untouched and will not be retried.
func classifyProviderError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 || apiErr.Type == "insufficient_quota" {
			return &RateLimitError{
				RetryAfter: suggestedRetryDelay(apiErr.Message),
				Err:        err,
			}
		}
		return err
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == 429 {
		return &RateLimitError{Err: err}
	}

	return err
}

func suggestedRetryDelay(message string) time.Duration {
	m := retryAfterPattern.FindStringSubmatch(message)
	if m == nil {
		return 0
	}
	seconds, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
