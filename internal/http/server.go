package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	applog "splitledger/internal/log"
	"splitledger/internal/middleware/ratelimit"
	"splitledger/internal/middleware/security"
	"splitledger/internal/middleware/trace"
	"splitledger/internal/services"
)

// Options configures NewServer.
type Options struct {
	Addr               string
	Service            *services.LedgerService
	Logger             *applog.Logger
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	svc      *services.LedgerService
	limiter  *ratelimit.Limiter
	draining atomic.Bool

	shutdownOnce sync.Once
}

func NewServer(opts Options) *Server {
	mux := http.NewServeMux()
	clientIP := security.NewClientIP()
	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})

	s := &Server{
		svc:     opts.Service,
		limiter: limiter,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/expenses", s.handleView)
	mux.HandleFunc("POST /api/expenses", s.handleCreate)
	mux.HandleFunc("PATCH /api/expenses/{id}", s.handleEdit)
	mux.HandleFunc("POST /api/expenses/archive", s.handleArchive)
	mux.HandleFunc("POST /api/undo", s.handleUndo)
	mux.HandleFunc("GET /api/export.csv", s.handleExportCSV)
	mux.HandleFunc("POST /api/import", s.handleImportCSV)
	mux.HandleFunc("POST /api/sheets/export", s.handleSheetsExport)
	mux.HandleFunc("POST /api/sheets/import", s.handleSheetsImport)
	mux.HandleFunc("GET /api/currencies", s.handleCurrencies)
	mux.HandleFunc("GET /api/activity", s.handleActivity)

	onLimit := func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
	}

	var handler http.Handler = mux
	handler = limiter.Middleware(clientIP.Extract, onLimit)(handler)
	handler = trace.NewMiddleware(opts.Logger, clientIP.Extract).Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown marks the server not ready, stops the limiter and drains
// connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.draining.Store(true)
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
