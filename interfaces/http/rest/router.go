package rest

import (
	"net/http"

	"schoolhub-backend/application/commands/bus"
	querybus "schoolhub-backend/application/queries/bus"
	"schoolhub-backend/interfaces/http/rest/handlers"
	"schoolhub-backend/interfaces/http/rest/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	commandBus   *bus.CommandBus
	queryBus     *querybus.QueryBus
	sweepHandler *handlers.SweepHandler
	logger       *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	sweepHandler *handlers.SweepHandler,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus:   commandBus,
		queryBus:     queryBus,
		sweepHandler: sweepHandler,
		logger:       logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	// CORS runs before authentication so preflight requests succeed
	// without credentials.
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate())

		// Loan endpoints
		r.Route("/loans", func(r chi.Router) {
			loanHandler := handlers.NewLoanHandler(rt.commandBus, rt.queryBus, rt.logger)
			r.Post("/", loanHandler.CheckoutLoan)
			r.Get("/", loanHandler.ListLoans)
			r.Post("/{loanID}/return", loanHandler.ReturnLoan)

			// The sweep is restricted to staff and the scheduler identity.
			r.With(middleware.RequireRole(middleware.RoleStaff, middleware.RoleScheduler)).
				Post("/sweep", rt.sweepHandler.RunSweep)
		})

		// Notification endpoints
		r.Route("/notifications", func(r chi.Router) {
			notificationHandler := handlers.NewNotificationHandler(rt.queryBus, rt.logger)
			r.Get("/", notificationHandler.ListNotifications)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
