// Package httpapi wires the HTTP surface of the rent ledger service.
// It keeps handlers thin, delegating business rules to the service layer.
package httpapi

import (
    "net/http"

    chi "github.com/go-chi/chi/v5"
    chimw "github.com/go-chi/chi/v5/middleware"
    "log/slog"
)

// Server wires handlers and middleware using Chi.
type Server struct {
    pay  PaymentService
    sync SyncEngine
    // ready is consulted by readyz; nil means always ready (memory store).
    ready ReadyChecker
    log   *slog.Logger
    rt    *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
// The logger is used by basic request/response logging and panic recovery.
func New(pay PaymentService, sync SyncEngine, ready ReadyChecker, logger *slog.Logger) *Server {
    r := chi.NewRouter()
    r.Use(chimw.RequestID)
    r.Use(requestLogger(logger))
    r.Use(recoverer(logger))
    r.Use(metricsMiddleware)

    s := &Server{pay: pay, sync: sync, ready: ready, log: logger, rt: r}
    s.routes()
    return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints.
func (s *Server) routes() {
    // Payments (v1)
    s.rt.Post("/v1/payments", s.postPayment)
    s.rt.Get("/v1/payments", s.listPayments)
    // Residents (v1)
    s.rt.Get("/v1/residents/{id}/ledger", s.getResidentLedger)
    s.rt.Get("/v1/residents/{id}/summary", s.getResidentSummary)
    s.rt.Delete("/v1/residents/{id}/payments", s.deleteResidentPayments)
    // Reconciliation (v1)
    s.rt.Post("/v1/sync", s.postSync)
    s.rt.Post("/v1/residents/{id}/sync", s.postResidentSync)
    // Reports (v1)
    s.rt.Get("/v1/reports/overdue", s.getOverdueReport)
    // Dictionary (v1)
    s.rt.Get("/v1/dictionary", s.getDictionary)
    // Health + metrics (unversioned)
    s.rt.Get("/healthz", s.healthz)
    s.rt.Get("/readyz", s.readyz)
    s.rt.Handle("/metrics", metricsHandler())
}
