// Package server hosts the HTTP server and wires the API surface.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/triagesense/ai/metrics"
	"github.com/hrygo/triagesense/internal/profile"
	apiv1 "github.com/hrygo/triagesense/server/router/api/v1"
	"github.com/hrygo/triagesense/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	apiService *apiv1.APIV1Service
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true

	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			slog.Debug("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	}))

	server := &Server{
		Profile:    profile,
		Store:      store,
		echoServer: echoServer,
	}

	exporter := metrics.NewExporter(metrics.DefaultConfig())
	apiService, err := apiv1.NewAPIV1Service(profile, store, exporter)
	if err != nil {
		return nil, err
	}
	apiService.RegisterRoutes(echoServer)
	server.apiService = apiService

	return server, nil
}

// Start launches the HTTP listener. It returns immediately; listener errors
// other than graceful close are logged.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}

	slog.Info("triagesense stopped properly")
}

func (s *Server) GetEcho() *echo.Echo {
	return s.echoServer
}
