// Package server exposes research runs and answer cards over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/henrybloomingdale/biofan/internal/answer"
	"github.com/henrybloomingdale/biofan/internal/rank"
	"github.com/henrybloomingdale/biofan/internal/research"
	"github.com/henrybloomingdale/biofan/internal/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Researcher runs a research spec.
type Researcher interface {
	Run(ctx context.Context, spec research.Spec) (*research.Result, error)
}

// Answerer builds an answer card.
type Answerer interface {
	Answer(ctx context.Context, req answer.Request) (*answer.Card, error)
}

// RunStore persists research runs.
type RunStore interface {
	SaveRun(ctx context.Context, res *research.Result) error
	LoadRun(ctx context.Context, id string) (*research.Result, error)
	ListRuns(ctx context.Context, limit int) ([]store.Summary, error)
}

// RunRecorder counts finished runs.
type RunRecorder interface {
	ObserveRun(kind string, calls, failures int)
}

// Server holds the handlers' collaborators.
type Server struct {
	research Researcher
	answer   Answerer
	store    RunStore
	recorder RunRecorder
	metrics  http.Handler
	logger   *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithStore persists every research run and enables the /v1/runs routes.
func WithStore(s RunStore) Option {
	return func(srv *Server) { srv.store = s }
}

// WithMetrics mounts h on /metrics and reports finished runs to rec.
func WithMetrics(h http.Handler, rec RunRecorder) Option {
	return func(srv *Server) {
		srv.metrics = h
		srv.recorder = rec
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(srv *Server) {
		if l != nil {
			srv.logger = l
		}
	}
}

// New creates a Server.
func New(r Researcher, a Answerer, opts ...Option) *Server {
	srv := &Server{research: r, answer: a, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.accessLog())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics))
	}

	v1 := router.Group("/v1")
	v1.POST("/research", s.handleResearch)
	v1.POST("/answer", s.handleAnswer)
	if s.store != nil {
		v1.GET("/runs", s.handleListRuns)
		v1.GET("/runs/:id", s.handleGetRun)
	}
	return router
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func (s *Server) handleResearch(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable request body"})
		return
	}
	if len(body) > maxBodyBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
		return
	}
	spec, err := research.ParseSpec(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.research.Run(c.Request.Context(), spec)
	if err != nil {
		s.fail(c, "research run failed", err)
		return
	}
	if s.recorder != nil {
		s.recorder.ObserveRun("research", len(res.Calls), res.Failures)
	}
	if s.store != nil {
		if err := s.store.SaveRun(c.Request.Context(), res); err != nil {
			s.logger.Error("saving run failed", zap.String("run_id", res.RunID), zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, res)
}

type answerBody struct {
	Question string     `json:"question" binding:"max=2000"`
	Slots    rank.Slots `json:"slots"`
}

func (s *Server) handleAnswer(c *gin.Context) {
	var body answerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	card, err := s.answer.Answer(c.Request.Context(), answer.Request{Question: body.Question, Slots: body.Slots})
	if err != nil {
		if errors.Is(err, answer.ErrEmptyRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.fail(c, "answer failed", err)
		return
	}
	if s.recorder != nil {
		s.recorder.ObserveRun("answer", len(card.Calls), card.Failures)
	}
	c.JSON(http.StatusOK, card)
}

func (s *Server) handleListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := s.store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, "listing runs failed", err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) handleGetRun(c *gin.Context) {
	res, err := s.store.LoadRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		s.fail(c, "loading run failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) fail(c *gin.Context, msg string, err error) {
	var verr *research.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn(msg, zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request canceled"})
	default:
		s.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
