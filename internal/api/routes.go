package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yegors/complaint-desk/internal/config"
	"github.com/yegors/complaint-desk/internal/templating"
	"github.com/yegors/complaint-desk/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(processor Processor, dashboard Dashboard, store ComplaintLister, renderer *templating.Renderer, config *config.Config, logger *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(processor, dashboard, store, renderer, config.Upload, logger),
		middleware: NewMiddleware(logger),
		config:     config,
		logger:     logger.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	// Dashboard page
	router.Get("/", r.handler.GetDashboardPage)
	router.Post("/", r.handler.SubmitComplaintForm)

	// API routes
	router.Route("/api/v1", func(router chi.Router) {
		router.Post("/complaints", r.handler.CreateComplaint)
		router.Get("/complaints", r.handler.GetAllComplaints)
		router.Get("/complaints/export.xlsx", r.handler.ExportComplaints)
		router.Get("/dashboard", r.handler.GetDashboard)

		// Health check
		router.Get("/health", r.handler.GetHealth)
	})

	return router
}
