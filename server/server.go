package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/poiesic/storefront/search"
)

// Assistant answers a customer's chat message.
type Assistant interface {
	Converse(ctx context.Context, userID, message string) (*search.Answer, error)
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
	UserID  string `json:"userId"`
}

// ChatResponse is the reply to POST /chat.
type ChatResponse struct {
	BotMessage string `json:"botMessage"`
}

// Server exposes the assistant over HTTP.
type Server struct {
	assistant       Assistant
	engine          *gin.Engine
	allowOrigins    []string
	requestTimeout  time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAllowOrigins restricts cross-origin requests to the given origins.
// By default any origin may call the API.
func WithAllowOrigins(origins ...string) Option {
	return func(s *Server) {
		s.allowOrigins = origins
	}
}

// WithRequestTimeout bounds the time spent answering one message.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.requestTimeout = d
	}
}

// New creates a Server for the given assistant.
func New(assistant Assistant, opts ...Option) *Server {
	s := &Server{
		assistant:       assistant,
		requestTimeout:  60 * time.Second,
		shutdownTimeout: 30 * time.Second,
		logger:          slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}

	corsConfig := cors.DefaultConfig()
	if len(s.allowOrigins) > 0 {
		corsConfig.AllowOrigins = s.allowOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", RequestIDHeader}

	engine := gin.New()
	engine.Use(requestID(), requestLogger(s.logger), gin.Recovery(), cors.New(corsConfig))
	engine.GET("/health", s.health)
	engine.POST("/chat", s.chat)
	s.engine = engine
	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().UTC()})
}

func (s *Server) chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error_code": "invalid_input",
			"message":    "message is required",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.requestTimeout)
	defer cancel()

	answer, err := s.assistant.Converse(ctx, req.UserID, req.Message)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, ChatResponse{BotMessage: answer.Reply})
	case errors.Is(err, search.ErrNoMatchFound):
		c.JSON(http.StatusOK, ChatResponse{BotMessage: search.OffTopicReply})
	case errors.Is(err, search.ErrEmptyQuestion):
		c.JSON(http.StatusBadRequest, gin.H{
			"error_code": "invalid_input",
			"message":    "message is required",
		})
	default:
		s.logger.Error("chat failed", "request_id", GetRequestID(c), "user", req.UserID, "err", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error_code": "assistant_unavailable",
			"message":    "The assistant could not answer right now",
		})
	}
}
