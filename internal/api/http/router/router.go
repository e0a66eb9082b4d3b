package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dtroode/postkeeper-server/internal/api/http/handler"
	"github.com/dtroode/postkeeper-server/internal/api/http/middleware"
	"github.com/dtroode/postkeeper-server/internal/logger"
	"github.com/dtroode/postkeeper-server/internal/metrics"
	"github.com/dtroode/postkeeper-server/internal/model"
)

// Router builds the HTTP handler tree of the post API.
type Router struct {
	postService    handler.PostService
	authenticator  middleware.Authenticator
	authorizer     handler.Authorizer
	contextManager model.ContextManager
	pinger         handler.Pinger
	metrics        *metrics.Metrics
	gatherer       prometheus.Gatherer
	allowedOrigins []string
	logger         *logger.Logger
}

// Options holds the optional collaborators of the router.
type Options struct {
	// Pinger is probed by /health. Nil reports ok unconditionally.
	Pinger handler.Pinger
	// Gatherer backs /metrics. Nil means prometheus.DefaultGatherer.
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
}

// New creates new HTTP Router instance.
func New(
	postService handler.PostService,
	authenticator middleware.Authenticator,
	authorizer handler.Authorizer,
	contextManager model.ContextManager,
	m *metrics.Metrics,
	opts Options,
	logger *logger.Logger,
) *Router {
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Router{
		postService:    postService,
		authenticator:  authenticator,
		authorizer:     authorizer,
		contextManager: contextManager,
		pinger:         opts.Pinger,
		metrics:        m,
		gatherer:       gatherer,
		allowedOrigins: opts.AllowedOrigins,
		logger:         logger,
	}
}

// Register wires middleware and routes and returns the root handler.
func (r *Router) Register() http.Handler {
	authenticate := middleware.NewAuthenticate(r.authenticator, r.contextManager, r.logger)
	postHandler := handler.NewPost(r.postService, r.authorizer, r.contextManager, r.logger)
	meHandler := handler.NewMe(r.contextManager, r.logger)
	healthHandler := handler.NewHealth(r.pinger, r.logger)

	mux := chi.NewRouter()
	mux.Use(chimiddleware.RequestID)
	mux.Use(chimiddleware.RealIP)
	mux.Use(chimiddleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", chimiddleware.RequestIDHeader},
		ExposedHeaders:   []string{chimiddleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	mux.Use(middleware.NewLogging(r.logger).Handle)
	if r.metrics != nil {
		mux.Use(middleware.NewMetrics(r.metrics).Handle)
	}

	mux.Get("/health", healthHandler.Get)
	mux.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{}))

	mux.Route("/api", func(api chi.Router) {
		api.With(authenticate.Soft).Get("/me", meHandler.Get)

		api.Route("/posts", func(posts chi.Router) {
			posts.Get("/", postHandler.ListPosts)
			posts.Get("/all", postHandler.ListAllPosts)
			posts.Get("/archive", postHandler.Archive)
			posts.Get("/{id}", postHandler.GetPost)
			posts.Get("/{year}/{month}/{day}/{slug}", postHandler.GetPostByDateAndSlug)
			posts.Get("/{id}/attachments/{attachmentID}", postHandler.GetAttachment)

			posts.Group(func(protected chi.Router) {
				protected.Use(authenticate.Strict)
				protected.Post("/", postHandler.CreatePost)
				protected.Patch("/{id}", postHandler.UpdatePost)
				protected.Delete("/{id}", postHandler.DeletePost)
				protected.Post("/{id}/attachments", postHandler.AddAttachment)
			})
		})
	})

	return mux
}
