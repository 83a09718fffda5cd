// Package v1 implements the REST API surface.
package v1

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/triagesense/ai/agent"
	"github.com/hrygo/triagesense/ai/completion"
	"github.com/hrygo/triagesense/ai/core/llm"
	"github.com/hrygo/triagesense/ai/metrics"
	"github.com/hrygo/triagesense/ai/routing"
	"github.com/hrygo/triagesense/internal/profile"
	"github.com/hrygo/triagesense/store"
)

// sessionHeader carries the client session identifier. When absent the
// server assigns one and echoes it back so the client can persist it.
const sessionHeader = "X-Session-ID"

type APIV1Service struct {
	Profile  *profile.Profile
	Store    *store.Store
	Exporter *metrics.Exporter

	// Router is nil when AI features are disabled.
	Router   *routing.Router
	Profiles []*agent.Profile
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, exporter *metrics.Exporter) (*APIV1Service, error) {
	profiles, err := agent.Defaults()
	if err != nil {
		return nil, err
	}

	service := &APIV1Service{
		Profile:  profile,
		Store:    store,
		Exporter: exporter,
		Profiles: profiles,
	}

	if profile.IsAIEnabled() {
		llmService, err := llm.NewService(&llm.Config{
			Provider: profile.LLMProvider,
			Model:    profile.LLMModel,
			APIKey:   profile.LLMAPIKey,
			BaseURL:  profile.LLMBaseURL,
			Timeout:  profile.LLMTimeout,
		})
		if err != nil {
			slog.Warn("failed to initialize LLM service",
				"provider", profile.LLMProvider,
				"error", err,
				"note", "analysis features will be disabled",
			)
			return service, nil
		}
		slog.Info("LLM service initialized",
			"provider", profile.LLMProvider,
			"model", profile.LLMModel,
		)

		// Warm up the connection asynchronously to reduce first-request
		// latency. Best-effort: failures don't affect startup.
		go func() {
			warmupCtx, warmupCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer warmupCancel()
			llmService.Warmup(warmupCtx)
		}()

		client, err := completion.NewClient(completion.NewLLMBackend(llmService), completion.Config{
			MaxRetries:        profile.MaxRetries,
			BaseDelay:         time.Duration(profile.BaseRetryDelay * float64(time.Second)),
			PromptBudget:      profile.PromptBudget,
			RequestsPerMinute: profile.RequestsPerMin,
			Metrics:           exporter,
		})
		if err != nil {
			return nil, err
		}

		router, err := routing.NewRouter(client, profiles,
			routing.WithCache(routing.NewAnalysisCache(100, 30*time.Minute)),
			routing.WithRecorder(exporter),
		)
		if err != nil {
			return nil, err
		}
		service.Router = router
	} else {
		slog.Warn("no LLM API key configured, analysis features disabled")
	}

	return service, nil
}

// RegisterRoutes registers all REST routes on the echo server.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	apiGroup := echoServer.Group("/api/v1", middleware.CORS())

	apiGroup.GET("/status", s.GetStatus)
	apiGroup.POST("/analyze", s.Analyze)

	apiGroup.GET("/chat/messages", s.ListChatMessages)
	apiGroup.POST("/chat/messages", s.CreateChatMessage)
	apiGroup.DELETE("/chat/messages", s.ClearChatMessages)

	apiGroup.GET("/history", s.ListHistory)
	apiGroup.DELETE("/history", s.ClearHistory)
	apiGroup.GET("/history/stats", s.GetHistoryStats)
	apiGroup.GET("/history/export", s.ExportHistory)

	if s.Exporter != nil {
		echoServer.GET("/metrics", echo.WrapHandler(s.Exporter.Handler()))
	}
}

// sessionID resolves the client session, assigning a fresh one when the
// header is missing. The effective session is always echoed back.
func (s *APIV1Service) sessionID(c echo.Context) string {
	session := c.Request().Header.Get(sessionHeader)
	if session == "" {
		session = shortuuid.New()
	}
	c.Response().Header().Set(sessionHeader, session)
	return session
}

// errAIDisabled is returned by AI endpoints when no provider is configured.
func errAIDisabled() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusServiceUnavailable, "AI analysis is not configured on this instance")
}
