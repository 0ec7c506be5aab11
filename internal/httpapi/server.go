// Package httpapi provides the HTTP API for carpoold.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/chat2carpool/carpoold/internal/extraction"
	"github.com/chat2carpool/carpoold/internal/match"
	"github.com/chat2carpool/carpoold/internal/metrics"
	"github.com/chat2carpool/carpoold/internal/notify"
	"github.com/chat2carpool/carpoold/internal/ridedb"
	"github.com/chat2carpool/carpoold/internal/store"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server wires the extraction engine, session store, and matcher behind
// an echo server.
type Server struct {
	echo           *echo.Echo
	engine         *extraction.Engine
	sessions       *store.Store
	matcher        *match.Matcher
	rides          *ridedb.Store
	publisher      *notify.Publisher
	metrics        *metrics.Metrics
	logger         *zap.Logger
	config         *Config
	requestTimeout time.Duration
}

// Config holds HTTP server configuration.
type Config struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
}

// Deps are the collaborators the server needs. Rides and Publisher are
// optional; nil disables persistence and notifications respectively.
type Deps struct {
	Engine    *extraction.Engine
	Sessions  *store.Store
	Matcher   *match.Matcher
	Rides     *ridedb.Store
	Publisher *notify.Publisher
	Metrics   *metrics.Metrics
	Registry  *prometheus.Registry
}

// NewServer creates a new HTTP server.
func NewServer(deps Deps, logger *zap.Logger, cfg *Config) (*Server, error) {
	if deps.Engine == nil {
		return nil, fmt.Errorf("extraction engine cannot be nil")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session store cannot be nil")
	}
	if deps.Matcher == nil {
		return nil, fmt.Errorf("matcher cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host:           "localhost",
			Port:           8002,
			RequestTimeout: 90 * time.Second,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			if deps.Metrics != nil {
				endpoint := c.Path()
				if endpoint == "" {
					endpoint = c.Request().URL.Path
				}
				deps.Metrics.HTTPRequests.WithLabelValues(
					c.Request().Method, endpoint, strconv.Itoa(c.Response().Status),
				).Inc()
				deps.Metrics.HTTPDuration.WithLabelValues(
					c.Request().Method, endpoint,
				).Observe(duration.Seconds())
			}

			return err
		}
	})

	s := &Server{
		echo:           e,
		engine:         deps.Engine,
		sessions:       deps.Sessions,
		matcher:        deps.Matcher,
		rides:          deps.Rides,
		publisher:      deps.Publisher,
		metrics:        deps.Metrics,
		logger:         logger,
		config:         cfg,
		requestTimeout: cfg.RequestTimeout,
	}

	s.registerRoutes(deps.Registry)

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes(registry *prometheus.Registry) {
	s.echo.GET("/", s.handleDashboard)
	s.echo.GET("/health", s.handleHealth)

	if registry != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	v1 := s.echo.Group("/api/v1")
	v1.POST("/extract", s.handleExtract)
	v1.GET("/sessions/:id/records", s.handleSessionRecords)
	v1.POST("/sessions/:id/match", s.handleSessionMatch)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// ServeHTTP makes the server usable with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
