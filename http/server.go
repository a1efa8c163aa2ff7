// Package http serves the phishing classifier over HTTP.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"phishurl/config"
)

// Server is the HTTP server.
type Server struct {
	server *http.Server
	config ServerConfig
	logger *zap.Logger
}

// ServerConfig holds server settings.
type ServerConfig struct {
	Port           int
	Timeout        time.Duration
	AllowedOrigins []string
	MaxBodySize    int64

	// RateLimit is requests per second across all clients; 0 disables it.
	RateLimit float64
	RateBurst int
}

// DefaultServerConfig returns the default server settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           8080,
		Timeout:        30 * time.Second,
		AllowedOrigins: []string{"*"},
		RateLimit:      20,
		RateBurst:      40,
		MaxBodySize:    1 << 20,
	}
}

// ServerConfigFrom converts the http section of the config file.
func ServerConfigFrom(cfg config.HTTPConfig) ServerConfig {
	sc := DefaultServerConfig()
	sc.Port = cfg.Port
	if cfg.TimeoutSeconds > 0 {
		sc.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	sc.AllowedOrigins = cfg.AllowedOrigins
	sc.RateLimit = cfg.RateLimit
	sc.RateBurst = cfg.RateBurst
	return sc
}

// NewServer creates a server for api.
func NewServer(config ServerConfig, api *API, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      NewHandler(config, api, logger),
			ReadTimeout:  config.Timeout,
			WriteTimeout: config.Timeout,
			IdleTimeout:  120 * time.Second,
		},
		config: config,
		logger: logger,
	}
}

// NewHandler builds the routed and wrapped handler used by Server.
func NewHandler(config ServerConfig, api *API, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	api.allowedOrigins = config.AllowedOrigins
	api.RegisterHandlers(mux)

	chain := Chain(
		RecoveryMiddleware(logger),
		LoggerMiddleware(logger),
		SecurityHeadersMiddleware,
		CORSMiddleware(config.AllowedOrigins),
		RateLimitMiddleware(config.RateLimit, config.RateBurst),
		RequestSizeMiddleware(config.MaxBodySize),
		TimeoutMiddleware(config.Timeout),
	)
	return chain(mux)
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server",
		zap.String("addr", s.server.Addr),
		zap.String("websocket", fmt.Sprintf("ws://localhost%s/api/ws/predict", s.server.Addr)),
	)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("shutting down HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}
