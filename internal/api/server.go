// Package api exposes the analysis engine over HTTP.
package api

import (
	"context"
	"time"

	"github.com/buaazp/fasthttprouter"
	fasthttpprometheus "github.com/flf2ko/fasthttp-prometheus"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"StockSentinel/internal/config"
	"StockSentinel/internal/model"
	"StockSentinel/internal/portfolio"
)

// BatchAnalyzer is the part of *analyzer.Analyzer the server needs.
type BatchAnalyzer interface {
	Analyze(ctx context.Context, req model.AnalyzeRequest) (*model.BatchResult, error)
}

// Server serves the analysis endpoints.
type Server struct {
	analyzer  BatchAnalyzer
	cfg       *config.Config
	portfolio *portfolio.Manager
	logger    *zap.Logger
	router    *fasthttprouter.Router
	base      context.Context
	cancel    context.CancelFunc
	http      *fasthttp.Server
}

// New builds the server and its routes. pm and logger may be nil.
func New(cfg *config.Config, a BatchAnalyzer, pm *portfolio.Manager, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	base, cancel := context.WithCancel(context.Background())
	s := &Server{
		analyzer:  a,
		cfg:       cfg,
		portfolio: pm,
		logger:    logger.Named("api"),
		router:    fasthttprouter.New(),
		base:      base,
		cancel:    cancel,
	}
	s.router.POST("/analyze", s.handleAnalyze)
	s.router.POST("/analyze_portfolio", s.handlePortfolio)
	s.router.POST("/analyze/:context", s.handleContext)
	s.router.GET("/healthz", s.handleHealth)
	s.router.NotFound = func(ctx *fasthttp.RequestCtx) {
		writeError(ctx, fasthttp.StatusNotFound, "not found", "")
	}
	return s
}

// Handler returns the routed handler with request logging and without
// metrics instrumentation.
func (s *Server) Handler() fasthttp.RequestHandler {
	return s.logRequests(s.router.Handler)
}

// ListenAndServe serves on addr until Shutdown. Request metrics and the
// /metrics endpoint are attached to the default Prometheus registry.
func (s *Server) ListenAndServe(addr string) error {
	p := fasthttpprometheus.NewPrometheus("sentinel")
	s.http = &fasthttp.Server{
		Handler:            s.logRequests(p.WrapHandler(s.router)),
		MaxRequestBodySize: s.cfg.Server.MaxBodySize,
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       s.cfg.Server.RequestTimeout + 10*time.Second,
	}
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.http.ListenAndServe(addr)
}

// Shutdown cancels in-flight analyses and stops the listener.
func (s *Server) Shutdown() error {
	s.cancel()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown()
}

func (s *Server) logRequests(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		s.logger.Info("request",
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("path", ctx.Path()),
			zap.Int("status", ctx.Response.StatusCode()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
