// Package http exposes the JSON API over the transaction, insights,
// and auth services.
package http

import (
	"context"
	"net/http"
	"sync"

	"spendtrack/internal/core"
	"spendtrack/internal/importer"
	"spendtrack/internal/insights"
)

// TransactionAPI is the write/read surface the handlers call.
// *services.TransactionService satisfies it.
type TransactionAPI interface {
	Create(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	SmartCreate(ctx context.Context, owner, text string) (core.Transaction, error)
	List(ctx context.Context, owner string) ([]core.Transaction, error)
	Import(ctx context.Context, owner, blob string) (importer.Result, error)
	EnqueueImport(ctx context.Context, owner, blob string) error
}

// InsightsAPI is the aggregation surface. *insights.Service satisfies it.
type InsightsAPI interface {
	Daily(ctx context.Context, owner, method string) ([]insights.SeriesPoint, error)
	Monthly(ctx context.Context, owner, method string) ([]insights.SeriesPoint, error)
	Yearly(ctx context.Context, owner, method string) ([]insights.SeriesPoint, error)
	Categories(ctx context.Context, owner, method string) ([]insights.CategoryTotal, error)
	Summarize(ctx context.Context, owner string) (insights.Summary, error)
	DashboardStats(ctx context.Context, owner string) (insights.Dashboard, error)
}

// AuthAPI is the identity surface. *auth.Service satisfies it.
type AuthAPI interface {
	Register(ctx context.Context, name, email, password string) (core.User, string, error)
	Login(ctx context.Context, email, password string) (core.User, string, error)
	VerifyToken(token string) (string, error)
}

type Server struct {
	http.Server
	txs          TransactionAPI
	insights     InsightsAPI
	auth         AuthAPI
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a
// ready-to-run server.
func NewServer(addr string, txs TransactionAPI, ins InsightsAPI, authSvc AuthAPI) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		txs:         txs,
		insights:    ins,
		auth:        authSvc,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/auth/register", s.withMiddleware(s.handleRegister))
	mux.HandleFunc("/auth/login", s.withMiddleware(s.handleLogin))

	mux.HandleFunc("/transactions", s.withMiddleware(s.withAuth(s.handleTransactions)))
	mux.HandleFunc("/transactions/parse", s.withMiddleware(s.withAuth(s.handleParse)))
	mux.HandleFunc("/transactions/import", s.withMiddleware(s.withAuth(s.handleImport)))

	mux.HandleFunc("/insights/daily", s.withMiddleware(s.withAuth(s.handleDaily)))
	mux.HandleFunc("/insights/monthly", s.withMiddleware(s.withAuth(s.handleMonthly)))
	mux.HandleFunc("/insights/yearly", s.withMiddleware(s.withAuth(s.handleYearly)))
	mux.HandleFunc("/insights/category", s.withMiddleware(s.withAuth(s.handleCategories)))
	mux.HandleFunc("/insights/summary", s.withMiddleware(s.withAuth(s.handleSummary)))

	mux.HandleFunc("/dashboard", s.withMiddleware(s.withAuth(s.handleDashboard)))

	return s
}

// Shutdown stops the rate limiter cleanup goroutine and drains the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
