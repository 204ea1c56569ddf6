// Package httpapi exposes assessments over HTTP with gin.
//
// The API is stateless: a client submits a whole questionnaire in one
// request and the server walks it through the assessment state machine, so
// gate failures come back exactly as they would in an interactive session.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/HendryAvila/lifetest/internal/app"
)

// timeNow is replaced in tests.
var timeNow = time.Now

// Server is the HTTP front end.
type Server struct {
	app     *app.App
	log     zerolog.Logger
	metrics *Metrics
	router  *gin.Engine
}

// New builds the router. Requests are limited per client IP to
// a.Config.HTTP.RatePerMinute.
func New(a *app.App) *Server {
	s := &Server{
		app:     a,
		log:     a.Log.With().Str("component", "http").Logger(),
		metrics: NewMetrics(),
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.metrics.Middleware())

	r.GET("/healthz", s.health)
	r.GET("/metrics", s.metrics.Handler())

	api := r.Group("/api", RateLimit(a.Config.HTTP.RatePerMinute))
	{
		api.GET("/catalog", s.catalog)
		api.POST("/assessments", s.submitAssessment)
		api.POST("/reports", s.saveReport)
		api.GET("/reports/:id", s.getReport)
		api.GET("/reports/:id/print", s.printReport)
		api.GET("/view", s.viewCode)
		api.GET("/export.csv", s.exportCSV)
	}
	s.router = r
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled, then drains in-flight
// requests for up to five seconds.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server forced to shutdown: %w", err)
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("request")
	}
}
