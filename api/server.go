/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/transactions/*   Transaction recording and lookup
  /api/webhooks/*       Machine ingestion (UPI, bank import)
  /api/ledger/*         Raw ledger entry access
  /api/reports/*        Financial statements and dashboard
  /api/admin/*          Admin corrections
  /metrics              Prometheus scrape endpoint
  /healthz              Liveness probe

SECURITY NOTE:
  No authentication middleware currently. Tenancy is trusted from the
  X-Tenant-ID header; put a gateway that sets it in front of this service.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/ledger-engine/metrics"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Tenant-ID"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Transaction routes
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", h.RecordTransaction)
			r.Get("/", h.ListTransactions)
			r.Get("/{id}", h.GetTransaction)
		})

		// Webhook routes
		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/upi", h.UPIWebhook)
			r.Post("/bank-import", h.BankImport)
		})

		// Ledger routes
		r.Route("/ledger", func(r chi.Router) {
			r.Get("/entries", h.ListEntries)
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/profit-loss", h.ProfitLoss)
			r.Get("/balance-sheet", h.BalanceSheet)
			r.Get("/cash-flow", h.CashFlow)
			r.Get("/dashboard", h.Dashboard)
			r.Get("/top-expenses", h.TopExpenses)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Delete("/transactions/{id}", h.DeleteTransaction)
		})
	})

	// Operational endpoints
	r.Handle("/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
