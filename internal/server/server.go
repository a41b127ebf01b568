// Package server wires handlers, middleware and routes into an HTTP server.
//
// COMPOSITION ROOT:
// main.go opens the store and the media host (both depend on configuration
// and may need network I/O) and hands them to New. New builds everything
// else:
//
//	store ─┬─ AccountService ── AccountHandler
//	       └─ CarService ────── CarHandler
//	media ──── Uploader ──┘
//
// The server owns the store from then on and closes it on shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/unrolled/secure"

	"github.com/sakif/car-listings/internal/auth"
	"github.com/sakif/car-listings/internal/config"
	"github.com/sakif/car-listings/internal/handler"
	"github.com/sakif/car-listings/internal/media"
	"github.com/sakif/car-listings/internal/middleware"
	"github.com/sakif/car-listings/internal/repository"
	"github.com/sakif/car-listings/internal/service"
)

// shutdownTimeout is how long in-flight requests get to finish.
const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  repository.Store
}

// Deps are the collaborators that need I/O to construct.
type Deps struct {
	Store repository.Store
	Media media.Store
	// MediaDir is served at /media/ when set. Only the disk media store
	// needs it; S3 objects are served by S3 or its CDN.
	MediaDir string
}

// New builds the services, handlers and routes.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Server, error) {
	if deps.Store == nil || deps.Media == nil {
		return nil, errors.New("server: store and media are required")
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("server: creating token service: %w", err)
	}
	passwords, err := auth.NewPasswordService(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("server: creating password service: %w", err)
	}

	accountService := service.NewAccountService(deps.Store, tokens, passwords, logger)
	carService := service.NewCarService(
		deps.Store,
		deps.Store,
		media.NewUploader(deps.Media, cfg.UploadConcurrency),
		cfg.MaxImages,
		logger,
	)

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  deps.Store,
	}
	s.setupRoutes(
		handler.NewAccountHandler(accountService, cfg.IsProduction(), logger),
		handler.NewCarHandler(carService, cfg.UploadMaxMemory, cfg.MaxImages, logger),
		tokens,
		deps.MediaDir,
	)

	return s, nil
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
//
//	GET    /media/*                  → uploaded images (disk media store only)
//	POST   /api/signup               → AccountHandler.HandleSignup
//	POST   /api/login                → AccountHandler.HandleLogin
//	GET    /api/docs                 → AccountHandler.HandleDocs
//	POST   /api/verify-token   [auth] → AccountHandler.HandleVerifyToken
//	POST   /api/logout         [auth] → AccountHandler.HandleLogout
//	GET    /api/me             [auth] → AccountHandler.HandleMe
//	POST   /api/addCar         [auth] → CarHandler.HandleAddCar
//	GET    /api/allCars        [auth] → CarHandler.HandleAllCars
//	GET    /api/carDetails/{id} [auth] → CarHandler.HandleGetCar
//	PUT    /api/carDetails/{id} [auth] → CarHandler.HandleUpdateCar
//	DELETE /api/carDetails/{id} [auth] → CarHandler.HandleDeleteCar
//
// MIDDLEWARE ORDER MATTERS:
// RequestID runs first so the logger can print it. CORS runs before any
// route so preflight OPTIONS requests are answered without a token.
func (s *Server) setupRoutes(accounts *handler.AccountHandler, cars *handler.CarHandler, tokens *auth.TokenService, mediaDir string) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(s.secureHeaders())
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.config.FrontendURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if mediaDir != "" {
		fileServer := http.FileServer(filesOnly{http.Dir(mediaDir)})
		s.router.Handle("/media/*", http.StripPrefix("/media/", fileServer))
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/signup", accounts.HandleSignup)
		r.Post("/login", accounts.HandleLogin)
		r.Get("/docs", accounts.HandleDocs)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens, s.logger))

			r.Post("/verify-token", accounts.HandleVerifyToken)
			r.Post("/logout", accounts.HandleLogout)
			r.Get("/me", accounts.HandleMe)

			r.Post("/addCar", cars.HandleAddCar)
			r.Get("/allCars", cars.HandleAllCars)
			r.Get("/carDetails/{id}", cars.HandleGetCar)
			r.Put("/carDetails/{id}", cars.HandleUpdateCar)
			r.Delete("/carDetails/{id}", cars.HandleDeleteCar)
		})
	})
}

func (s *Server) secureHeaders() func(http.Handler) http.Handler {
	return secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        s.config.IsProduction(),
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !s.config.IsProduction(),
	}).Handler
}

// Start runs the server until SIGINT or SIGTERM, then drains in-flight
// requests and closes the store.
func (s *Server) Start() error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // multipart uploads plus the media host round trip
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("env", s.config.AppEnv),
			slog.String("store", s.config.StoreDriver),
			slog.String("media", s.config.MediaDriver),
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

// filesOnly hides directories from http.FileServer. Without it /media/cars/
// would list every account ID, and each account's folder its images.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}
