package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/pretty"
	"github.com/valyala/fasthttp"

	"StockSentinel/internal/analyzer"
	"StockSentinel/internal/collector"
	"StockSentinel/internal/model"
)

type analyzeRequest struct {
	Symbol string `json:"symbol"`
	Period string `json:"period"`
}

type batchRequest struct {
	Symbols symbolList `json:"symbols"`
	Period  string     `json:"period"`
	TopN    int        `json:"top_n"`
}

func (s *Server) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(s.base, s.cfg.Server.RequestTimeout)
}

func (s *Server) defaultPeriod(p string) model.Period {
	if strings.TrimSpace(p) == "" {
		return model.Period(s.cfg.Analysis.DefaultPeriod)
	}
	return model.Period(p)
}

func (s *Server) handleAnalyze(ctx *fasthttp.RequestCtx) {
	var req analyzeRequest
	if err := decode(ctx, &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error(), "")
		return
	}
	sym := model.NormalizeSymbol(req.Symbol)
	if sym == "" {
		writeError(ctx, fasthttp.StatusBadRequest, "symbol is required", "")
		return
	}

	rctx, cancel := s.requestContext()
	defer cancel()
	res, err := s.analyzer.Analyze(rctx, model.AnalyzeRequest{Symbols: []string{sym}, Period: s.defaultPeriod(req.Period)})
	if err != nil {
		writeAnalyzeError(ctx, err)
		return
	}
	rec, ok := res.Succeeded[sym]
	if !ok {
		status := fasthttp.StatusBadGateway
		stage := ""
		if msg := res.Failures[sym]; strings.Contains(msg, analyzer.StageData) {
			status = fasthttp.StatusUnprocessableEntity
			stage = analyzer.StageData
		} else if strings.Contains(msg, collector.ErrNoData.Error()) {
			stage = analyzer.StageAcquire
		}
		writeError(ctx, status, res.Failures[sym], stage)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, NewRecord(rec))
}

func (s *Server) handlePortfolio(ctx *fasthttp.RequestCtx) {
	var req batchRequest
	if err := decode(ctx, &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error(), "")
		return
	}
	topN := req.TopN
	if topN <= 0 {
		topN = 10
	}
	s.runBatch(ctx, "", model.AnalyzeRequest{Symbols: req.Symbols, Period: s.defaultPeriod(req.Period), TopN: topN})
}

func (s *Server) handleContext(ctx *fasthttp.RequestCtx) {
	name, _ := ctx.UserValue("context").(string)
	var req batchRequest
	if len(ctx.PostBody()) > 0 {
		if err := decode(ctx, &req); err != nil {
			writeError(ctx, fasthttp.StatusBadRequest, err.Error(), "")
			return
		}
	}
	areq, err := s.portfolio.ContextRequest(s.cfg, name, req.Period, req.TopN)
	if err != nil {
		if strings.Contains(err.Error(), "unknown context") {
			writeError(ctx, fasthttp.StatusNotFound, err.Error(), "")
		} else {
			writeError(ctx, fasthttp.StatusBadRequest, err.Error(), "")
		}
		return
	}
	if len(req.Symbols) > 0 {
		areq.Symbols = req.Symbols
	}
	s.runBatch(ctx, strings.ToLower(name), areq)
}

func (s *Server) runBatch(ctx *fasthttp.RequestCtx, contextName string, req model.AnalyzeRequest) {
	rctx, cancel := s.requestContext()
	defer cancel()
	res, err := s.analyzer.Analyze(rctx, req)
	if err != nil {
		writeAnalyzeError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, NewBatchResponse(res, contextName, req.TopN))
}

func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}

func decode(ctx *fasthttp.RequestCtx, v interface{}) error {
	body := ctx.PostBody()
	if len(body) == 0 {
		return errors.New("request body is required")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode JSON request: %v", err)
	}
	return nil
}

func writeAnalyzeError(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, analyzer.ErrNoSymbols), errors.Is(err, analyzer.ErrUnknownPeriod):
		writeError(ctx, fasthttp.StatusBadRequest, err.Error(), "")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(ctx, fasthttp.StatusGatewayTimeout, err.Error(), "")
	default:
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error(), "")
	}
}

func writeError(ctx *fasthttp.RequestCtx, status int, msg, stage string) {
	writeJSON(ctx, status, errorResponse{Error: msg, Stage: stage})
}

// writeJSON encodes v; ?pretty=1 indents the body.
func writeJSON(ctx *fasthttp.RequestCtx, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		ctx.Error(fmt.Sprintf(`{"error":%q}`, err.Error()), fasthttp.StatusInternalServerError)
		ctx.SetContentType("application/json")
		return
	}
	if len(ctx.QueryArgs().Peek("pretty")) > 0 {
		body = pretty.Pretty(body)
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}
