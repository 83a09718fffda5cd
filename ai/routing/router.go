// Package routing selects specialty agents for medical report analysis.
// It scores every specialty's keyword relevance against the input, picks a
// primary agent (falling back to general medicine below a confidence
// threshold), fans out to secondary agents above a lower threshold, and
// collects one generated analysis per selected agent.
package routing

import (
	"context"
	"time"

	"log/slog"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/triagesense/ai/agent"
)

// Routing thresholds. Literal policy constants; tunable, not fundamental
// invariants.
const (
	// primaryThreshold is the minimum confidence for a specialty to be
	// selected as primary; below it the general agent takes over.
	primaryThreshold = 0.3

	// secondaryThreshold is the minimum confidence for a non-primary
	// specialty to be consulted for an additional opinion.
	secondaryThreshold = 0.2

	// fallbackScore is the sentinel confidence recorded when the general
	// agent is selected by threshold fallback. It is not a computed score.
	fallbackScore = 1.0
)

// Completer turns a prompt into generated text. It never fails: backend
// errors surface as fallback text, which keeps each agent's completion
// isolated from the others.
type Completer interface {
	Complete(ctx context.Context, prompt string) string
}

// Recorder receives routing outcomes for metrics export.
type Recorder interface {
	ObserveRouting(primary string, fellBack bool, secondaries int)
}

// Decision is the routing outcome for one analysis request.
type Decision struct {
	// Primary is the selected specialty key.
	Primary string `json:"primary"`

	// PrimaryScore is the primary's confidence, or the fallback sentinel 1.0
	// when general was selected by threshold fallback.
	PrimaryScore float64 `json:"primary_score"`

	// Secondary maps each consulted secondary specialty to its confidence.
	// It never contains the primary.
	Secondary map[string]float64 `json:"secondary"`

	// Scores holds every computed specialty score, for display as routing
	// info. On fallback it additionally records general's sentinel score.
	Scores map[string]float64 `json:"scores"`
}

// AgentResult is one specialty's generated analysis.
type AgentResult struct {
	Key        string  `json:"key"`
	Name       string  `json:"name"`
	Icon       string  `json:"icon"`
	Confidence float64 `json:"confidence"`
	Analysis   string  `json:"analysis"`
}

// Analysis is a Decision plus the generated text of every selected agent.
type Analysis struct {
	Decision  Decision      `json:"decision"`
	Primary   AgentResult   `json:"primary"`
	Secondary []AgentResult `json:"secondary"`
}

// Router holds the fixed specialty set and routes reports to agents.
// It is immutable after construction and safe for concurrent use.
type Router struct {
	profiles  []*agent.Profile // registration order, general last
	general   *agent.Profile
	completer Completer
	cache     *AnalysisCache
	metrics   Recorder
}

// Option configures a Router.
type Option func(*Router)

// WithCache enables analysis result caching.
func WithCache(c *AnalysisCache) Option {
	return func(r *Router) { r.cache = c }
}

// WithRecorder enables routing metrics.
func WithRecorder(rec Recorder) Option {
	return func(r *Router) { r.metrics = rec }
}

// NewRouter creates a router over the given specialty profiles. The set must
// contain the general profile (the threshold fallback target) and every
// profile must carry a non-empty keyword set; violations fail here, at
// construction, never at scoring time.
func NewRouter(completer Completer, profiles []*agent.Profile, opts ...Option) (*Router, error) {
	if completer == nil {
		return nil, errors.New("routing: completer is required")
	}
	if len(profiles) == 0 {
		return nil, errors.New("routing: at least one specialty profile is required")
	}

	var general *agent.Profile
	for _, p := range profiles {
		if len(p.Keywords()) == 0 {
			return nil, errors.Errorf("routing: profile %q has an empty keyword set", p.Key())
		}
		if p.Key() == agent.KeyGeneral {
			general = p
		}
	}
	if general == nil {
		return nil, errors.New("routing: general fallback profile is required")
	}

	r := &Router{
		profiles:  profiles,
		general:   general,
		completer: completer,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Profiles returns the specialty set in registration order.
func (r *Router) Profiles() []*agent.Profile {
	return r.profiles
}

// Route scores the input against every non-general specialty and selects
// primary and secondary agents. History text is not scored. Deterministic:
// ties break toward the earlier profile in registration order.
func (r *Router) Route(reportText, symptoms string) Decision {
	input := reportText + " " + symptoms

	scores := make(map[string]float64)
	var best *agent.Profile
	var bestScore float64
	for _, p := range r.profiles {
		if p.Key() == agent.KeyGeneral {
			continue
		}
		score := p.Confidence(input)
		scores[p.Key()] = score
		if best == nil || score > bestScore {
			best = p
			bestScore = score
		}
	}

	primary := best
	primaryScore := bestScore
	fellBack := false
	if primary == nil || bestScore < primaryThreshold {
		primary = r.general
		primaryScore = fallbackScore
		scores[agent.KeyGeneral] = fallbackScore
		fellBack = true
	}

	secondary := make(map[string]float64)
	for _, p := range r.profiles {
		if p.Key() == primary.Key() || p.Key() == agent.KeyGeneral {
			continue
		}
		if score := scores[p.Key()]; score > secondaryThreshold {
			secondary[p.Key()] = score
		}
	}

	slog.Debug("router: routed report",
		"primary", primary.Key(),
		"primary_score", primaryScore,
		"fallback", fellBack,
		"secondaries", len(secondary),
	)
	if r.metrics != nil {
		r.metrics.ObserveRouting(primary.Key(), fellBack, len(secondary))
	}

	return Decision{
		Primary:      primary.Key(),
		PrimaryScore: primaryScore,
		Secondary:    secondary,
		Scores:       scores,
	}
}

// Analyze routes the report and generates one analysis per selected agent.
// The primary runs first; secondary agents run concurrently afterwards. No
// agent's failure aborts the others: the completer always returns text.
// Synchronous; may block for seconds while the completion client retries.
func (r *Router) Analyze(ctx context.Context, reportText, symptoms, medicalHistory string) *Analysis {
	if r.cache != nil {
		if cached, ok := r.cache.Get(reportText, symptoms, medicalHistory); ok {
			slog.Debug("router: analysis served from cache")
			return cached
		}
	}

	start := time.Now()
	decision := r.Route(reportText, symptoms)

	primaryProfile := r.profile(decision.Primary)
	result := &Analysis{
		Decision: decision,
		Primary: AgentResult{
			Key:        primaryProfile.Key(),
			Name:       primaryProfile.Name(),
			Icon:       primaryProfile.Icon(),
			Confidence: decision.PrimaryScore,
			Analysis:   r.completer.Complete(ctx, primaryProfile.AnalysisPrompt(reportText, symptoms, medicalHistory)),
		},
	}

	// Secondary opinions are independent of each other and of the primary;
	// run them concurrently in registration order slots.
	var selected []*agent.Profile
	for _, p := range r.profiles {
		if _, ok := decision.Secondary[p.Key()]; ok {
			selected = append(selected, p)
		}
	}
	if len(selected) > 0 {
		result.Secondary = make([]AgentResult, len(selected))
		g, gctx := errgroup.WithContext(ctx)
		for i, p := range selected {
			i, p := i, p
			g.Go(func() error {
				result.Secondary[i] = AgentResult{
					Key:        p.Key(),
					Name:       p.Name(),
					Icon:       p.Icon(),
					Confidence: decision.Secondary[p.Key()],
					Analysis:   r.completer.Complete(gctx, p.AnalysisPrompt(reportText, symptoms, medicalHistory)),
				}
				return nil
			})
		}
		_ = g.Wait() //nolint:errcheck // workers never return errors
	}

	slog.Info("router: analysis complete",
		"primary", decision.Primary,
		"secondaries", len(result.Secondary),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if r.cache != nil {
		r.cache.Set(reportText, symptoms, medicalHistory, result)
	}
	return result
}

// Chat answers a general medical question through the general-medicine
// persona with the brevity-constrained chat prompt.
func (r *Router) Chat(ctx context.Context, message string) string {
	return r.completer.Complete(ctx, agent.ChatPrompt(message))
}

func (r *Router) profile(key string) *agent.Profile {
	for _, p := range r.profiles {
		if p.Key() == key {
			return p
		}
	}
	return r.general
}
