// Package api exposes the clearance services over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/clearance/internal/ports/primary"
	"github.com/example/clearance/pkg/logger"
)

// ActorHeader names the caller for approve and reject.
const ActorHeader = "X-Actor"

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
}

// NewRouter creates a new API router
func NewRouter(clearanceService primary.ClearanceService, reconciliationService primary.ReconciliationService, log *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(clearanceService, reconciliationService, log),
		middleware: NewMiddleware(log),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(r.middleware.Actor)

	router.Route("/api/v1", func(router chi.Router) {
		router.Get("/health", r.handler.GetHealth)

		// Clearance requests
		router.Get("/requests", r.handler.ListRequests)
		router.Route("/requests/{id}", func(router chi.Router) {
			router.Get("/", r.handler.GetRequest)
			router.Get("/inspection", r.handler.GetInspection)
			router.Get("/eligibility", r.handler.GetEligibility)
			router.Get("/decisions", r.handler.ListDecisions)
			router.Post("/approve", r.handler.Approve)
			router.Post("/reject", r.handler.Reject)
			router.Post("/reconcile", r.handler.ReconcileRequest)
		})

		router.Post("/reconcile", r.handler.RunPass)
	})

	return router
}
