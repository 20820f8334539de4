// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes review evaluation over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/treatment-reviews/internal/reliability"
	"github.com/pdiddy/treatment-reviews/internal/store"
	"github.com/pdiddy/treatment-reviews/pkg/types"
)

const shutdownTimeout = 10 * time.Second

// Server serves the evaluation API.
type Server struct {
	eval    *reliability.Evaluator
	store   *store.Store
	cfg     types.ServerConfig
	log     logrus.FieldLogger
	router  *gin.Engine
	version string
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables saving batch runs and the results endpoints.
func WithStore(s *store.Store) Option {
	return func(srv *Server) { srv.store = s }
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(srv *Server) { srv.version = v }
}

// New builds a Server around eval.
func New(eval *reliability.Evaluator, cfg types.ServerConfig, log logrus.FieldLogger, opts ...Option) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{eval: eval, cfg: cfg, log: log, version: "dev"}
	for _, opt := range opts {
		opt(s)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))
	router.GET("/health", s.handleHealth)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/evaluate", s.handleEvaluate)
		v1.POST("/evaluate/batch", s.handleBatch)
		v1.GET("/runs", s.handleRuns)
		v1.GET("/results", s.handleResults)
	}
	s.router = router
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run listens on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.cfg.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("request")
	}
}

type evaluateRequest struct {
	Review   types.ReviewRecord          `json:"review"`
	Criteria types.ClinicalTrialCriteria `json:"criteria"`
}

type batchRequest struct {
	Reviews  []types.ReviewRecord        `json:"reviews"`
	Criteria types.ClinicalTrialCriteria `json:"criteria"`

	// Save stores the batch as a run when the server has a store.
	Save   bool   `json:"save"`
	Source string `json:"source"`
}

type batchResponse struct {
	RunID   string                    `json:"run_id,omitempty"`
	Results []types.ReliabilityResult `json:"results"`
	Summary reliability.Summary       `json:"summary"`
}

func (s *Server) handleHealth(c *gin.Context) {
	cfg := s.eval.Config()
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"version":     s.version,
		"threshold":   cfg.Threshold,
		"ai_detector": cfg.EnableAdvancedAIDetection,
		"store":       s.store != nil,
	})
}

func (s *Server) handleEvaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}
	res, err := s.eval.Evaluate(c.Request.Context(), req.Review, req.Criteria)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}
	if s.cfg.MaxBatchSize > 0 && len(req.Reviews) > s.cfg.MaxBatchSize {
		abort(c, http.StatusRequestEntityTooLarge,
			fmt.Errorf("batch has %d reviews; the limit is %d", len(req.Reviews), s.cfg.MaxBatchSize))
		return
	}
	if req.Save && s.store == nil {
		abort(c, http.StatusBadRequest, errors.New("this server has no result store"))
		return
	}

	results, err := s.eval.EvaluateBatch(c.Request.Context(), req.Reviews, req.Criteria, s.cfg.Workers)
	if err != nil {
		abortErr(c, err)
		return
	}
	if results == nil {
		results = []types.ReliabilityResult{}
	}
	resp := batchResponse{Results: results, Summary: reliability.Summarize(results)}

	if req.Save {
		entries := make([]store.Entry, len(results))
		for i := range results {
			entries[i] = store.Entry{Review: req.Reviews[i], Result: results[i]}
		}
		source := req.Source
		if source == "" {
			source = "api"
		}
		run, err := s.store.SaveRun(c.Request.Context(), source, req.Criteria, s.eval.Config(), entries)
		if err != nil {
			abort(c, http.StatusInternalServerError, err)
			return
		}
		resp.RunID = run.ID
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRuns(c *gin.Context) {
	if s.store == nil {
		abort(c, http.StatusNotFound, errors.New("this server has no result store"))
		return
	}
	runs, err := s.store.Runs(c.Request.Context())
	if err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleResults(c *gin.Context) {
	if s.store == nil {
		abort(c, http.StatusNotFound, errors.New("this server has no result store"))
		return
	}
	opts := store.QueryOptions{
		Query:        c.Query("q"),
		RunID:        c.Query("run_id"),
		Platform:     c.Query("platform"),
		ReliableOnly: c.Query("reliable") == "true",
	}
	if v := c.Query("min_score"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			abort(c, http.StatusBadRequest, fmt.Errorf("invalid min_score %q", v))
			return
		}
		opts.MinScore = f
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			abort(c, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		opts.MaxResults = n
	}

	records, err := s.store.Retrieve(c.Request.Context(), opts)
	if err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"results": records})
}

// abortErr maps evaluation errors to status codes.
func abortErr(c *gin.Context, err error) {
	var ve *types.ValidationError
	switch {
	case errors.As(err, &ve):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": ve.Error(), "field": ve.Field})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		abort(c, http.StatusServiceUnavailable, err)
	default:
		abort(c, http.StatusInternalServerError, err)
	}
}

func abort(c *gin.Context, code int, err error) {
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}
