// Package server wires the application together: it owns the database
// connection, assembles the dependency graph (repositories → services →
// handlers), mounts every route, and runs the HTTP server with graceful
// shutdown.
//
// This is the composition root — nothing else in the codebase constructs
// cross-layer dependencies.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/inkwell/internal/auth"
	"github.com/sakif/inkwell/internal/handler"
	"github.com/sakif/inkwell/internal/middleware"
	"github.com/sakif/inkwell/internal/model"
	sqliteRepo "github.com/sakif/inkwell/internal/repository/sqlite"
	"github.com/sakif/inkwell/internal/service"
)

// Rate limit for the /api group: per client, per fixed window.
const (
	apiRateLimit  = 60
	apiRateWindow = time.Minute
)

// Config holds everything the server needs from the environment. It is
// built in main and passed in whole — no package reads env vars on its own.
type Config struct {
	Port        int
	TemplateDir string
	StaticDir   string
	DBPath      string
	JWTSecret   string
	Production  bool // gates the Secure flag on session cookies

	// GitHub sign-in is optional; routes are registered only when both
	// client credentials are present.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server owns the router and the database connection. The connection is
// closed during Start's shutdown path.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New builds the full dependency graph and mounts all routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes assembles middleware, services, handlers, and the route
// table.
//
// ROUTE MAP:
//
//	GET  /                              home page
//	GET  /signup, /register             signup form
//	GET  /login                         login form
//	GET  /logout                        clear session cookie, redirect home
//	GET  /contact /about /single        static pages
//	GET  /blogs                         paginated listing page
//	GET  /blogs/{slug}                  single post page
//	GET  /protected                     auth probe (JSON)
//	POST /api/register                  create account
//	POST /api/login                     start session
//	GET  /api/blogs                     public listing (JSON)
//	GET  /api/blogs/author/{username}   listing by author (JSON)
//	POST /api/blogs                     create post (auth + author role)
//	DELETE /api/blogs/{slug}            delete post (auth + author role)
//	GET  /auth/github/login|callback    GitHub sign-in (when configured)
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return err
	}
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	users := s.db.Users()
	authService := service.NewAuthService(users, tokens, passwords, s.logger)
	blogService := service.NewBlogService(s.db.Blogs(), users, s.logger)

	authHandler := handler.NewAuthHandler(authService, github, s.config.Production, s.logger)
	blogHandler := handler.NewBlogHandler(blogService, s.logger)
	pageHandler, err := handler.NewPageHandler(s.config.TemplateDir, blogService, s.logger)
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}

	// Global middleware, in order: request ID for tracing, real client IP
	// from proxy headers (the rate limiter keys on it), panic recovery,
	// request logging, hardening headers.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.SecureHeaders)

	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// Page routes. OptionalAuth lets templates show the logged-in state
	// without gating anything.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuth(tokens))

		r.Get("/", pageHandler.HandleHome)
		r.Get("/signup", pageHandler.HandleSignup)
		r.Get("/register", pageHandler.HandleSignup)
		r.Get("/login", pageHandler.HandleLogin)
		r.Get("/logout", authHandler.HandleLogout)
		r.Get("/contact", pageHandler.HandleContact)
		r.Get("/about", pageHandler.HandleAbout)
		r.Get("/single", pageHandler.HandleSingle)
		r.Get("/blogs", pageHandler.HandleBlogs)
		r.Get("/blogs/{slug}", pageHandler.HandleBlogBySlug)
	})

	// Authenticated probe.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/protected", authHandler.HandleProtected)
	})

	// JSON API, rate limited per client.
	rateLimiter := middleware.NewRateLimiter(apiRateLimit, apiRateWindow)
	s.router.Route("/api", func(r chi.Router) {
		r.Use(rateLimiter.Handler)

		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/blogs", blogHandler.HandleList)
		r.Get("/blogs/author/{username}", blogHandler.HandleListByAuthor)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Use(auth.RequireRole(model.RoleAuthor))

			r.Post("/blogs", blogHandler.HandleCreate)
			r.Delete("/blogs/{slug}", blogHandler.HandleDelete)
		})
	})

	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests (30s budget) and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
