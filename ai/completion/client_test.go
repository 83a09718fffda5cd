package completion

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/triagesense/ai/agent"
)

// fakeBackend fails with err for failures calls, then succeeds with text.
type fakeBackend struct {
	failures int
	err      error
	text     string
	calls    int
	prompts  []string
}

func (f *fakeBackend) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.calls <= f.failures {
		return "", f.err
	}
	return f.text, nil
}

// newTestClient builds a client with deterministic jitter and a sleep spy.
func newTestClient(t *testing.T, backend Backend, cfg Config) (*Client, *[]time.Duration) {
	t.Helper()
	client, err := NewClient(backend, cfg)
	require.NoError(t, err)

	var sleeps []time.Duration
	client.sleep = func(_ context.Context, d time.Duration) {
		sleeps = append(sleeps, d)
	}
	client.jitter = func() float64 { return 0 }
	return client, &sleeps
}

func TestNewClientRequiresBackend(t *testing.T) {
	_, err := NewClient(nil, Config{})
	require.Error(t, err)
}

func TestCompleteSuccessFirstAttempt(t *testing.T) {
	backend := &fakeBackend{text: "analysis text"}
	client, sleeps := newTestClient(t, backend, Config{})

	got := client.Complete(context.Background(), "prompt")

	assert.Equal(t, "analysis text", got)
	assert.Equal(t, 1, backend.calls)
	assert.Empty(t, *sleeps)
}

func TestCompleteRetriesOnRateLimit(t *testing.T) {
	for failures := 1; failures <= 2; failures++ {
		backend := &fakeBackend{
			failures: failures,
			err:      &RateLimitError{},
			text:     "recovered",
		}
		client, sleeps := newTestClient(t, backend, Config{MaxRetries: 3, BaseDelay: time.Second})

		got := client.Complete(context.Background(), "prompt")

		assert.Equal(t, "recovered", got)
		assert.Equal(t, failures+1, backend.calls)
		require.Len(t, *sleeps, failures, "one sleep per failed attempt")
		for i, d := range *sleeps {
			// With zero jitter the delay is exactly base * 2^i.
			assert.Equal(t, time.Second*time.Duration(1<<uint(i)), d)
		}
	}
}

func TestCompleteRateLimitExhaustion(t *testing.T) {
	backend := &fakeBackend{
		failures: 100,
		err:      &RateLimitError{},
	}
	client, sleeps := newTestClient(t, backend, Config{MaxRetries: 3})

	got := client.Complete(context.Background(), "prompt")

	assert.Equal(t, UnavailableMessage, got)
	assert.Equal(t, 3, backend.calls, "exactly max_retries attempts")
	assert.Len(t, *sleeps, 2, "no sleep after the final attempt")
}

func TestCompleteNoRetryOnOtherErrors(t *testing.T) {
	backend := &fakeBackend{
		failures: 100,
		err:      errors.New("invalid request"),
	}
	client, sleeps := newTestClient(t, backend, Config{MaxRetries: 3})

	got := client.Complete(context.Background(), "prompt")

	assert.Equal(t, FailureMessage, got)
	assert.Equal(t, 1, backend.calls, "permanent errors get a single attempt")
	assert.Empty(t, *sleeps)
}

func TestCompleteHonorsProviderRetryAfter(t *testing.T) {
	backend := &fakeBackend{
		failures: 1,
		err:      &RateLimitError{RetryAfter: 30 * time.Second},
		text:     "ok",
	}
	client, sleeps := newTestClient(t, backend, Config{MaxRetries: 3, BaseDelay: time.Second})

	got := client.Complete(context.Background(), "prompt")

	assert.Equal(t, "ok", got)
	require.Len(t, *sleeps, 1)
	assert.Equal(t, 30*time.Second, (*sleeps)[0], "provider-suggested delay wins when larger")
}

func TestFitPromptShortUnchanged(t *testing.T) {
	client, _ := newTestClient(t, &fakeBackend{text: "x"}, Config{PromptBudget: 100})
	prompt := "short prompt"
	assert.Equal(t, prompt, client.fitPrompt(prompt))
}

func TestFitPromptPreservesSystemPortion(t *testing.T) {
	system := "You are a cardiology specialist.\n"
	content := contentMarker + "\n" + strings.Repeat("finding ", 500)
	prompt := system + content

	client, _ := newTestClient(t, &fakeBackend{text: "x"}, Config{PromptBudget: 700})
	fitted := client.fitPrompt(prompt)

	assert.True(t, strings.HasPrefix(fitted, system), "system portion preserved verbatim")
	assert.Contains(t, fitted, truncationNotice)
	assert.LessOrEqual(t, len(fitted), 700+len(truncationNotice))
}

func TestFitPromptKeepsDataWhenSystemExceedsBudget(t *testing.T) {
	system := strings.Repeat("instruction ", 300) // well over the budget by itself
	content := contentMarker + "\nMedical Report: elevated troponin levels " + strings.Repeat("finding ", 400)

	client, _ := newTestClient(t, &fakeBackend{text: "x"}, Config{PromptBudget: 2000})
	fitted := client.fitPrompt(system + content)

	assert.True(t, strings.HasPrefix(fitted, system), "system portion preserved verbatim")
	assert.Contains(t, fitted, contentMarker)
	assert.Contains(t, fitted, "elevated troponin levels", "leading report text survives truncation")
	assert.Contains(t, fitted, truncationNotice)
}

func TestFitPromptWithoutMarker(t *testing.T) {
	client, _ := newTestClient(t, &fakeBackend{text: "x"}, Config{PromptBudget: 50})
	fitted := client.fitPrompt(strings.Repeat("a", 200))

	assert.Contains(t, fitted, truncationNotice)
	assert.LessOrEqual(t, len(fitted), 50+len(truncationNotice))
}

func TestTruncatedPromptReachesBackend(t *testing.T) {
	backend := &fakeBackend{text: "x"}
	client, _ := newTestClient(t, backend, Config{PromptBudget: 700})

	system := "Context portion.\n"
	client.Complete(context.Background(), system+contentMarker+"\n"+strings.Repeat("report ", 500))

	require.Len(t, backend.prompts, 1)
	sent := backend.prompts[0]
	assert.True(t, strings.HasPrefix(sent, system))
	assert.Contains(t, sent, truncationNotice)
	assert.LessOrEqual(t, len(sent), 700+len(truncationNotice))
}

// A real analysis prompt carries a persona larger than the default budget.
// The report data must still reach the backend after fitting.
func TestAnalysisPromptReportReachesBackend(t *testing.T) {
	profile, err := agent.Cardiology()
	require.NoError(t, err)

	const report = "ECG shows ST elevation in leads V1-V4 with troponin I at 4.2 ng/mL"
	prompt := profile.AnalysisPrompt(report+" "+strings.Repeat("stable vitals ", 300), "chest pain", "hypertension")

	backend := &fakeBackend{text: "x"}
	client, _ := newTestClient(t, backend, Config{})
	client.Complete(context.Background(), prompt)

	require.Len(t, backend.prompts, 1)
	sent := backend.prompts[0]
	assert.Contains(t, sent, contentMarker)
	assert.Contains(t, sent, report, "report text survives the default budget")
}

func TestClassifyProviderError(t *testing.T) {
	t.Run("429 api error is rate limit", func(t *testing.T) {
		err := classifyProviderError(&openai.APIError{HTTPStatusCode: 429, Message: "Rate limit reached. Please retry after 21s."})
		var rateLimited *RateLimitError
		require.ErrorAs(t, err, &rateLimited)
		assert.Equal(t, 21*time.Second, rateLimited.RetryAfter)
	})

	t.Run("quota exhaustion is rate limit", func(t *testing.T) {
		err := classifyProviderError(&openai.APIError{HTTPStatusCode: 403, Type: "insufficient_quota"})
		var rateLimited *RateLimitError
		assert.ErrorAs(t, err, &rateLimited)
	})

	t.Run("other api errors pass through", func(t *testing.T) {
		orig := &openai.APIError{HTTPStatusCode: 400, Message: "bad request"}
		err := classifyProviderError(orig)
		var rateLimited *RateLimitError
		assert.False(t, errors.As(err, &rateLimited))
	})

	t.Run("wrapped errors are still classified", func(t *testing.T) {
		wrapped := errors.Join(errors.New("llm chat failed"), &openai.APIError{HTTPStatusCode: 429})
		var rateLimited *RateLimitError
		assert.ErrorAs(t, classifyProviderError(wrapped), &rateLimited)
	})
}

func TestSuggestedRetryDelay(t *testing.T) {
	testCases := []struct {
		message  string
		expected time.Duration
	}{
		{"Please retry after 21s.", 21 * time.Second},
		{"retry in 4.5 seconds", 4500 * time.Millisecond},
		{"rate limit exceeded", 0},
		{"", 0},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, suggestedRetryDelay(tc.message), "message: %q", tc.message)
	}
}
