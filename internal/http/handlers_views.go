package http

import (
	"context"
	"net/http"
	"time"

	"lifeboard/internal/cache"
	"lifeboard/internal/log"
	"lifeboard/internal/middleware/ratelimit"
	"lifeboard/internal/middleware/security"
	"lifeboard/internal/middleware/trace"
)

func (s *Server) handleSetupStatus(w http.ResponseWriter, r *http.Request) {
	s.cached(w, r, keySetup, func(ctx context.Context) (any, error) {
		return s.svc.SetupStatus(ctx)
	})
}

func (s *Server) handleInitializeSetup(w http.ResponseWriter, r *http.Request) {
	status, err := s.svc.InitializeSetup(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status)
}

func (s *Server) handleBudgetView(w http.ResponseWriter, r *http.Request) {
	s.cached(w, r, keyBudgetView, func(ctx context.Context) (any, error) {
		return s.svc.BudgetOverview(ctx)
	})
}

func (s *Server) handleExpenseView(w http.ResponseWriter, r *http.Request) {
	p, err := ParseSeriesParams(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.cached(w, r, expensesKey(p), func(ctx context.Context) (any, error) {
		return s.svc.ExpenseSeries(ctx, p.Range, p.Anchor)
	})
}

// handleTaskView depends on the current date, so it bypasses the read cache.
func (s *Server) handleTaskView(w http.ResponseWriter, r *http.Request) {
	f, err := ParseTaskFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	tasks, err := s.svc.FilteredTasks(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, tasks)
}

func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txs, err := s.svc.ListTransactions(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.exporter.Export(ctx, txs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.ready(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		ErrorResponse(http.StatusServiceUnavailable, "not ready").Write(w)
		return
	}
	writeJSON(w, map[string]string{"status": "ready"})
}

type serverMetrics struct {
	HTTP      trace.Metrics             `json:"http"`
	RateLimit ratelimit.Metrics         `json:"rateLimit"`
	Security  security.DetectionMetrics `json:"security"`
	Cache     cache.Stats               `json:"cache"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, serverMetrics{
		HTTP:      s.tracer.GetMetrics(),
		RateLimit: s.limiter.GetMetrics(),
		Security:  s.detector.GetMetrics(),
		Cache:     s.readCache.Stats(),
	})
}
