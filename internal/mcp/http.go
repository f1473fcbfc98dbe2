package mcp

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dshills/acme-orders-mcp/internal/identity"
)

// Fixed HTTP routes next to the MCP endpoint
const (
	HealthPath  = "/healthz"
	MetricsPath = "/metrics"
)

const shutdownTimeout = 5 * time.Second

// Router builds the echo instance serving the MCP endpoint, metrics and
// health checks
func (s *Server) Router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	if s.cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiterWithConfig(s.rateLimiterConfig()))
	}

	streamable := server.NewStreamableHTTPServer(s.mcp,
		server.WithEndpointPath(s.cfg.HTTPPath),
		server.WithStateLess(true),
		server.WithHTTPContextFunc(s.httpContext),
	)

	e.Any(s.cfg.HTTPPath, echo.WrapHandler(streamable))
	e.GET(MetricsPath, echo.WrapHandler(s.metrics.Handler()))
	e.GET(HealthPath, s.handleHealth)
	return e
}

func (s *Server) rateLimiterConfig() middleware.RateLimiterConfig {
	burst := int(math.Ceil(s.cfg.RateLimit))
	if burst < 1 {
		burst = 1
	}

	return middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == HealthPath
		},
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(s.cfg.RateLimit),
				Burst:     burst,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "unable to identify client"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		},
	}
}

// httpContext resolves the user-info header of each request
func (s *Server) httpContext(ctx context.Context, r *http.Request) context.Context {
	return s.withCaller(ctx, r.Header.Get(identity.HeaderName))
}

func (s *Server) handleHealth(c echo.Context) error {
	products, err := s.storage.CountProducts(c.Request().Context())
	if err != nil {
		s.log.Error().Err(err).Msg("health check failed")
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
			"status": "unavailable",
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"service":  ServerName,
		"version":  ServerVersion,
		"products": products,
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}

// ListenAndServe serves HTTP on the configured port until ctx is canceled,
// then shuts the listener down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	e := s.Router()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info().Str("addr", s.cfg.Addr()).Str("path", s.cfg.HTTPPath).Msg("MCP server listening")
		if err := e.Start(s.cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
