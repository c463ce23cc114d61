// Package server is the composition root: it opens the store, builds the
// services and handlers, mounts the routes and runs the HTTP server with
// graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/watizat/connect/internal/auth"
	"github.com/watizat/connect/internal/config"
	"github.com/watizat/connect/internal/handler"
	"github.com/watizat/connect/internal/matching"
	"github.com/watizat/connect/internal/middleware"
	"github.com/watizat/connect/internal/model"
	"github.com/watizat/connect/internal/service"
)

// Server owns the router and the store. The store is closed when Start
// returns.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	store   Store
	version string
}

// New opens the configured store and wires the application on top of it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, version string) (*Server, error) {
	store, err := OpenStore(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s, err := NewWithStore(cfg, store, logger, version)
	if err != nil {
		store.Close()
		return nil, err
	}
	return s, nil
}

// NewWithStore wires the application on an already opened store.
func NewWithStore(cfg *config.Config, store Store, logger *slog.Logger, version string) (*Server, error) {
	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		store:   store,
		version: version,
	}
	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// setupRoutes mounts global middleware then the /api tree.
//
//	GET    /api/                    banner
//	GET    /api/categories          category enumeration
//	POST   /api/auth/register|login|logout
//	GET    /api/posts               optional auth
//	GET    /api/posts/{id}          optional auth
//	GET    /api/posts/{id}/comments optional auth
//	GET    /api/profile, PUT /api/profile
//	GET    /api/users/{id}
//	POST   /api/posts, DELETE /api/posts/{id}
//	POST   /api/posts/{id}/comments
//	GET    /api/can-chat/{userId}
//	POST   /api/messages, GET /api/messages/{userId}
//	GET    /api/admin/stats|users|posts            admin only
//	PUT    /api/admin/users/{id}/role              admin only
//	DELETE /api/admin/users/{id}, /api/admin/posts/{id}  admin only
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	tokens, err := auth.NewTokenService(s.config.Auth.JWTSecret, s.config.Auth.TokenTTL)
	if err != nil {
		return err
	}
	passwords := auth.NewPasswordService(s.config.Auth.BcryptCost)

	engine := matching.NewEngine(s.store, s.store, s.logger)

	authService := service.NewAuthService(s.store, tokens, passwords, s.logger)
	postService := service.NewPostService(s.store, s.store, engine, s.logger)
	chatService := service.NewChatService(s.store, s.store, engine, s.logger)
	commentService := service.NewCommentService(s.store, s.store, postService, s.logger)
	adminService := service.NewAdminService(s.store, s.store, s.store, s.logger)

	authHandler := handler.NewAuthHandler(authService, tokens, s.config.Server.SecureCookies, s.logger)
	postHandler := handler.NewPostHandler(postService, s.logger)
	chatHandler := handler.NewChatHandler(chatService, s.logger)
	commentHandler := handler.NewCommentHandler(commentService, s.logger)
	adminHandler := handler.NewAdminHandler(adminService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/", handler.HandleIndex(s.version))
		r.Get("/categories", handler.HandleCategories)

		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens))
			r.Get("/posts", postHandler.HandleList)
			r.Get("/posts/{id}", postHandler.HandleGet)
			r.Get("/posts/{id}/comments", commentHandler.HandleList)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/profile", authHandler.HandleProfile)
			r.Put("/profile", authHandler.HandleUpdateProfile)
			r.Get("/users/{id}", authHandler.HandleGetUser)

			r.Post("/posts", postHandler.HandleCreate)
			r.Delete("/posts/{id}", postHandler.HandleDelete)
			r.Post("/posts/{id}/comments", commentHandler.HandleAdd)

			r.Get("/can-chat/{userId}", chatHandler.HandleCanChat)
			r.Post("/messages", chatHandler.HandleSend)
			r.Get("/messages/{userId}", chatHandler.HandleConversation)

			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireRole(model.RoleAdmin))
				r.Get("/stats", adminHandler.HandleStats)
				r.Get("/users", adminHandler.HandleListUsers)
				r.Put("/users/{id}/role", adminHandler.HandleSetRole)
				r.Delete("/users/{id}", adminHandler.HandleDeleteUser)
				r.Get("/posts", adminHandler.HandleListPosts)
				r.Delete("/posts/{id}", adminHandler.HandleDeletePost)
			})
		})
	})

	return nil
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests within
// the configured shutdown timeout and closes the store.
func (s *Server) Start() error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("driver", s.config.Database.Driver),
			slog.String("version", s.version),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		timeout := s.config.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
