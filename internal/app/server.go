package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/markdave123-py/botgpt/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/botgpt/internal/api/middlewares"
	"github.com/markdave123-py/botgpt/internal/config"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Health        *handlers.HealthHandler
	Users         *handlers.UserHandler
	Documents     *handlers.DocumentHandler
	Conversations *handlers.ConversationHandler
}

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *zap.Logger
}

// NewRouter builds and wires all routes.
func NewRouter(cfg *config.Config, log *zap.Logger, h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appMiddleware.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health.Health)

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/users", func(users chi.Router) {
			users.Post("/", h.Users.Create)
			users.Get("/", h.Users.List)
			users.Get("/{userID}", h.Users.Get)
		})

		api.Route("/documents", func(docs chi.Router) {
			docs.Post("/", h.Documents.Create)
			docs.Post("/upload", h.Documents.UploadDocument)
			docs.Get("/", h.Documents.GetDocuments)
			docs.Get("/{documentID}", h.Documents.Get)
			docs.Get("/{documentID}/original", h.Documents.Original)
			docs.Delete("/{documentID}", h.Documents.Delete)
		})

		api.Route("/conversations", func(convs chi.Router) {
			convs.Post("/", h.Conversations.Create)
			convs.Get("/", h.Conversations.List)
			convs.Get("/{conversationID}", h.Conversations.Get)
			convs.Post("/{conversationID}/messages", h.Conversations.AppendMessage)
			convs.Delete("/{conversationID}", h.Conversations.Delete)
		})
	})

	return r
}

func NewServer(cfg *config.Config, log *zap.Logger, h Handlers) *Server {
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(cfg, log, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &Server{httpServer: httpSrv, log: log}
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
