package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"lifeboard/internal/amqp"
	"lifeboard/internal/auth"
	"lifeboard/internal/cache"
	"lifeboard/internal/log"
	"lifeboard/internal/middleware/ratelimit"
	"lifeboard/internal/middleware/security"
	"lifeboard/internal/middleware/trace"
	"lifeboard/internal/services"
	"lifeboard/internal/sheets"
)

// Read cache keys outside the resource collections.
const (
	keySetup        = "setup"
	keyViewsPrefix  = "views:"
	keyBudgetView   = keyViewsPrefix + "budgets"
	keyExpensesView = keyViewsPrefix + "expenses:"
)

// cachedResources are the shared collections whose GET responses go through
// the read cache. User-scoped collections are never cached.
var cachedResources = map[string]bool{
	services.ResourceTransactions: true,
	services.ResourceBudgets:      true,
	services.ResourceCards:        true,
	services.ResourceInstallments: true,
	services.ResourceTasks:        true,
}

type Options struct {
	Addr     string
	Service  *services.Service
	Verifier *auth.Verifier
	// RequireAuthAll puts the shared finance routes behind a session too.
	RequireAuthAll bool

	CacheTTL           time.Duration
	CacheSize          int
	RateLimitPerMinute int

	// Exporter is optional; without it POST /api/export/sheets is not routed.
	Exporter *sheets.Exporter
	// Ready backs /readyz.
	Ready func(context.Context) error

	Logger *log.Logger
}

type Server struct {
	http.Server
	svc      *services.Service
	verifier *auth.Verifier
	exporter *sheets.Exporter
	ready    func(context.Context) error
	logger   *log.Logger

	readCache *cache.LRUCache[[]byte]
	cacheGen  atomic.Uint64
	cacheMgr  *cache.Manager

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	financeAuth func(http.Handler) http.Handler

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 64
	}
	if opts.Ready == nil {
		opts.Ready = func(context.Context) error { return nil }
	}
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		svc:       opts.Service,
		verifier:  opts.Verifier,
		exporter:  opts.Exporter,
		ready:     opts.Ready,
		logger:    logger,
		readCache: cache.NewLRUCache[[]byte](opts.CacheSize, opts.CacheTTL),
		cacheMgr:  cache.NewManager(),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:  security.NewDetector(opts.Logger),
	}
	s.tracer = trace.NewMiddleware(opts.Logger, s.detector.ExtractClientIP)
	s.financeAuth = s.verifier.Optional
	if opts.RequireAuthAll {
		s.financeAuth = s.verifier.Require
	}

	s.cacheMgr.Register(s.readCache)
	s.cacheMgr.StartCleanup(max(opts.CacheTTL*2, time.Minute))

	mux := http.NewServeMux()
	s.routes(mux)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(s.detector.ExtractClientIP, ratelimit.Mutating, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
	})
	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.tracer.Middleware(headers.Middleware(s.detector.Middleware(limit(mux)))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	shared := func(pattern string, h http.HandlerFunc) { mux.Handle(pattern, s.financeAuth(h)) }
	user := func(pattern string, h http.HandlerFunc) { mux.Handle(pattern, s.verifier.Require(h)) }

	shared("GET /api/transactions", s.handleListTransactions)
	shared("POST /api/transactions", s.handleCreateTransaction)
	shared("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	shared("GET /api/budgets", s.handleListBudgets)
	shared("POST /api/budgets", s.handleCreateBudget)
	shared("PUT /api/budgets", s.handleUpsertBudget)
	shared("DELETE /api/budgets/{category}", s.handleDeleteBudget)

	shared("GET /api/cards", s.handleListCards)
	shared("POST /api/cards", s.handleCreateCard)
	shared("PUT /api/cards/{id}", s.handleUpdateCard)
	shared("DELETE /api/cards/{id}", s.handleDeleteCard)

	shared("GET /api/installments", s.handleListInstallments)
	shared("POST /api/installments", s.handleCreateInstallment)
	shared("PUT /api/installments/{id}", s.handleUpdateInstallment)
	shared("DELETE /api/installments/{id}", s.handleDeleteInstallment)

	shared("GET /api/tasks", s.handleListTasks)
	shared("POST /api/tasks", s.handleCreateTask)
	shared("PUT /api/tasks/{id}", s.handleUpdateTask)
	shared("DELETE /api/tasks/{id}", s.handleDeleteTask)

	user("GET /api/categories", s.handleListCategories)
	user("POST /api/categories", s.handleCreateCategory)
	user("PUT /api/categories/{id}", s.handleUpdateCategory)
	user("DELETE /api/categories/{id}", s.handleDeleteCategory)

	user("GET /api/task-categories", s.handleListTaskCategories)
	user("POST /api/task-categories", s.handleCreateTaskCategory)
	user("PUT /api/task-categories/{id}", s.handleUpdateTaskCategory)
	user("DELETE /api/task-categories/{id}", s.handleDeleteTaskCategory)

	user("GET /api/habits", s.handleListHabits)
	user("POST /api/habits", s.handleCreateHabit)
	user("PUT /api/habits/{id}", s.handleUpdateHabit)
	user("DELETE /api/habits/{id}", s.handleArchiveHabit)
	user("POST /api/habits/log", s.handleLogHabit)
	user("GET /api/habits/stats", s.handleHabitStats)

	shared("GET /api/setup", s.handleSetupStatus)
	shared("POST /api/setup", s.handleInitializeSetup)

	shared("GET /api/views/budgets", s.handleBudgetView)
	shared("GET /api/views/expenses", s.handleExpenseView)
	shared("GET /api/views/tasks", s.handleTaskView)

	if s.exporter != nil {
		shared("POST /api/export/sheets", s.handleExportSheets)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusNotFound, "Not found").Write(w)
	})
}

// cached serves key from the read cache, loading and storing it on a miss.
// A load that raced with an invalidation is served but not stored.
func (s *Server) cached(w http.ResponseWriter, r *http.Request, key string, load func(context.Context) (any, error)) {
	if data, ok := s.readCache.Get(key); ok {
		NewResponse().Header("X-Cache", "HIT").Raw(data).Write(w)
		return
	}

	gen := s.cacheGen.Load()
	v, err := load(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if s.cacheGen.Load() == gen {
		s.readCache.Set(key, data)
	}
	NewResponse().Header("X-Cache", "MISS").Raw(data).Write(w)
}

// Invalidate drops every read-cache entry derived from resource.
func (s *Server) Invalidate(resource string) {
	if !cachedResources[resource] {
		return
	}
	s.cacheGen.Add(1)
	removed := s.readCache.DeletePrefix(resource)
	removed += s.readCache.DeletePrefix(keyViewsPrefix)
	if resource == services.ResourceBudgets {
		removed += s.readCache.DeletePrefix(keySetup)
	}
	s.logger.Debug("Read cache invalidated", log.FieldResource, resource, "entries_removed", removed)
}

// HandleChange applies a change event, local or from another instance.
func (s *Server) HandleChange(ev amqp.ChangeEvent) {
	s.Invalidate(ev.Resource)
}

// Shutdown stops background work and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheMgr.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func expensesKey(p SeriesParams) string {
	anchor := "today:" + time.Now().UTC().Format("2006-01-02")
	if !p.Anchor.IsZero() {
		anchor = p.Anchor.Format("2006-01-02")
	}
	return keyExpensesView + string(p.Range) + ":" + anchor
}
