// Package server is the composition root: it opens the stores named by the
// configuration, builds services and handlers, and mounts the routes.
//
// Access rules live here, as route middleware, so handlers only deal with
// their own page:
//
//	GET  /                 visitors only (session → /dashboard)
//	POST /appreciations    public
//	GET  /login, POST      visitors only
//	GET  /signup/{secret}  404 unless the secret matches, then visitors only
//	GET  /dashboard        employees only (no session → /login)
//	POST /auth/signout     public
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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/sakif/kudos/internal/auth"
	"github.com/sakif/kudos/internal/config"
	"github.com/sakif/kudos/internal/directory"
	"github.com/sakif/kudos/internal/handler"
	"github.com/sakif/kudos/internal/middleware"
	"github.com/sakif/kudos/internal/repository"
	"github.com/sakif/kudos/internal/repository/postgres"
	sqliteRepo "github.com/sakif/kudos/internal/repository/sqlite"
	"github.com/sakif/kudos/internal/service"
	"github.com/sakif/kudos/internal/storage"
	"github.com/sakif/kudos/internal/storage/disk"
	s3store "github.com/sakif/kudos/internal/storage/s3"
	"github.com/sakif/kudos/web"
)

const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 30 * time.Second
	startupTimeout  = 10 * time.Second
)

// openPostgres is replaced in tests.
var openPostgres = postgres.Open

// Server owns the record store and the optional Redis client; both are
// closed when Start returns.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger

	store repository.Store
	blobs storage.BlobStore
	// disk is set when blobs are kept on local disk and served under /storage.
	disk  *disk.Store
	redis *redis.Client
}

// New opens every dependency named by cfg and builds the router. On error
// anything already opened is closed.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	if err := s.open(ctx); err != nil {
		s.close()
		return nil, err
	}

	if err := s.setupRoutes(); err != nil {
		s.close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler returns the router with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) open(ctx context.Context) error {
	switch s.config.DatabaseDriver {
	case config.DriverPostgres:
		// openPostgres runs the migrations.
		db, err := openPostgres(ctx, s.config.DatabaseURL)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		s.store = db
	default:
		db, err := sqliteRepo.New(s.config.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		s.store = db
	}

	switch s.config.BlobBackend {
	case config.BlobS3:
		blobs, err := s3store.New(ctx, s3store.Options{
			Endpoint:  s.config.StoreURL,
			Region:    s.config.StoreRegion,
			AccessKey: s.config.StoreAPIKey,
			SecretKey: s.config.StoreAPISecret,
			PublicURL: s.config.StorePublicURL,
		})
		if err != nil {
			return fmt.Errorf("creating blob store: %w", err)
		}
		s.blobs = blobs
	default:
		blobs, err := disk.New(s.config.BlobDir, s.config.BlobPublicURL)
		if err != nil {
			return fmt.Errorf("creating blob store: %w", err)
		}
		s.blobs = blobs
		s.disk = blobs
	}

	if s.config.RedisAddr != "" {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     s.config.RedisAddr,
			Password: s.config.RedisPassword,
			DB:       s.config.RedisDB,
		})
		// The directory falls back to the database when Redis is down, so an
		// unreachable Redis is not fatal.
		if err := s.redis.Ping(ctx).Err(); err != nil {
			s.logger.Warn("redis unreachable, directory cache degraded",
				slog.String("addr", s.config.RedisAddr),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

func (s *Server) close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("closing redis", slog.String("error", err.Error()))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("closing database", slog.String("error", err.Error()))
		}
	}
}

func (s *Server) setupRoutes() error {
	renderer, err := handler.NewRenderer(web.Templates(), s.config.Location(), s.logger)
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	tokens, err := auth.NewTokenService(s.config.SessionSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	dir := directory.NewLoader(s.store, s.redis, s.config.DirectoryCacheTTL, s.logger)

	submissions := service.NewAppreciationService(s.store, s.blobs, s.logger)
	dashboards := service.NewDashboardService(s.store, s.store, s.logger)
	accounts := service.NewAuthService(s.store, tokens, auth.NewPasswordService(), dir, s.logger)

	secure := s.config.SecureCookies()
	appreciationHandler := handler.NewAppreciationHandler(submissions, dir, renderer, s.logger)
	authHandler := handler.NewAuthHandler(accounts, tokens, renderer, secure, s.logger)
	dashboardHandler := handler.NewDashboardHandler(dashboards, s.config.PublicSiteURL, secure, renderer, s.logger)
	employeesHandler := handler.NewEmployeesHandler(dir, s.logger)

	r := s.router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Metrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(auth.LoadSession(tokens))

	r.NotFound(renderer.NotFound)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))
	if s.disk != nil {
		r.Handle("/storage/*", http.StripPrefix("/storage", s.disk.Handler()))
	}
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.HandleHealth)

	toDashboard := auth.RedirectIfSession("/dashboard")

	r.With(toDashboard).Get("/", appreciationHandler.HandleForm)
	r.Post("/appreciations", appreciationHandler.HandleSubmit)

	r.Route("/login", func(r chi.Router) {
		r.Use(toDashboard)
		r.Get("/", authHandler.HandleLoginForm)
		r.Post("/", authHandler.HandleLogin)
	})

	r.Route("/signup/{secret}", func(r chi.Router) {
		// The secret is checked before the session, so a wrong secret is a
		// 404 for everyone.
		r.Use(auth.RequireSignupSecret(s.config.SignupSecret, http.HandlerFunc(renderer.NotFound)))
		r.Use(toDashboard)
		r.Get("/", authHandler.HandleSignupForm)
		r.Post("/", authHandler.HandleSignup)
	})

	r.With(auth.RequireSession("/login")).Get("/dashboard", dashboardHandler.HandleDashboard)
	r.Post("/auth/signout", authHandler.HandleSignout)

	r.Get("/api/employees", employeesHandler.HandleSearch)

	return nil
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests and
// closes the stores.
func (s *Server) Start() error {
	defer s.close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DatabaseDriver),
			slog.String("blobs", s.config.BlobBackend),
			slog.Bool("directoryCache", s.redis != nil),
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

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
