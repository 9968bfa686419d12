package bridge

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/dtnitsch/inbox-digest/models"
	"github.com/dtnitsch/inbox-digest/pkg/summarizer"
)

const (
	EndPointHealth  = "/api/v1/health"
	EndPointSummary = "/api/v1/summary"

	// HeaderCycleID carries the page-side cycle id with a request.
	HeaderCycleID = "X-Cycle-ID"

	DefaultRequestsPerMinute = 60
	shutdownTimeout          = 5 * time.Second
)

// Server exposes a Handler over HTTP.
type Server struct {
	handler        Handler
	logger         *slog.Logger
	allowedOrigins string
	limiter        *rate.Limiter
	router         *gin.Engine
}

type ServerOption func(*Server)

func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// WithAllowedOrigins sets the CORS origin header for browser callers.
func WithAllowedOrigins(origins string) ServerOption {
	return func(s *Server) { s.allowedOrigins = origins }
}

// WithServerRateLimit caps summary requests per minute. Zero or less disables it.
func WithServerRateLimit(perMinute int) ServerOption {
	return func(s *Server) {
		if perMinute <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}
}

func NewServer(h Handler, opts ...ServerOption) *Server {
	s := &Server{
		handler:        h,
		logger:         slog.Default(),
		allowedOrigins: "*",
		limiter:        rate.NewLimiter(rate.Every(time.Minute/DefaultRequestsPerMinute), DefaultRequestsPerMinute),
	}
	for _, opt := range opts {
		opt(s)
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger(), s.cors())

	router.GET(EndPointHealth, s.health)
	limited := router.Group("/")
	limited.Use(s.rateLimit())
	{
		limited.POST(EndPointSummary, s.summary)
	}

	s.router = router
	return s
}

// Router returns the HTTP handler, for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("bridge server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("bridge server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(c *gin.Context) {
	body := gin.H{
		"status":  "healthy",
		"service": "inbox-digest",
	}
	if b, ok := s.handler.(interface{ Busy() bool }); ok {
		body["busy"] = b.Busy()
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) summary(c *gin.Context) {
	var req models.SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !req.KnownAction() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
		return
	}

	ctx := c.Request.Context()
	if id := c.GetHeader(HeaderCycleID); id != "" {
		ctx = summarizer.WithCycleID(ctx, id)
	}

	resp, ok := s.handler.Handle(ctx, req)
	if !ok {
		// Rejected while busy: no response body, the caller falls back.
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter != nil && !s.limiter.Allow() {
			s.logger.Warn("rate limit exceeded", "client", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", s.allowedOrigins)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+HeaderCycleID)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
