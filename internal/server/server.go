// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer — it connects handlers, middleware, and routes.
// Think of it as the control centre that decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// WHY SEPARATE FROM main.go?
// Keeping server setup in its own package makes it:
// - Testable (we can create a test server without running main)
// - Reusable (multiple entry points could use the same server config)
// - Clean (main.go stays minimal — just "start the server")
//
// DEPENDENCY INJECTION FLOW:
// main.go creates:
//   Config (env vars) → passed to Server
//   Server.New() creates: sqlite.DB → services → handlers → routes
//
// This is the "composition root" pattern — all dependencies are wired
// in one place (New/setupRoutes), rather than scattered across the codebase.
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

	"github.com/sakif/foodbridge/internal/auth"
	"github.com/sakif/foodbridge/internal/handler"
	"github.com/sakif/foodbridge/internal/middleware"
	"github.com/sakif/foodbridge/internal/model"
	"github.com/sakif/foodbridge/internal/payment"
	sqliteRepo "github.com/sakif/foodbridge/internal/repository/sqlite"
	"github.com/sakif/foodbridge/internal/service"
)

// Config holds server configuration.
// Using a struct for config (instead of individual parameters) makes it easy to:
// - Add new config options without changing function signatures
// - Pass config around as a single value
// - Load config from files/env vars in one place
type Config struct {
	Port          int
	DBPath        string // path to the SQLite database file
	JWTSecret     string // HMAC signing key for identity tokens (required)
	PaymentAPIURL string // base URL of the payment-intent provider
	PaymentAPIKey string // secret key for the payment-intent provider
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns a database connection (db). When the server shuts down,
// we must close this connection to flush any pending writes and release the
// file lock. This is handled in Start() during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a new Server with the given config.
//
// DEPENDENCY INJECTION & WIRING:
// This is where the entire dependency chain is assembled:
//   1. Create the database connection (sqlite.New)
//   2. Create the token service from the signing secret
//   3. Create the service layer with the repositories
//   4. Create the handlers with the services
//   5. Wire handlers to routes, behind the right middleware
//
// Each layer only receives what it needs:
// - Services get repository interfaces (not the concrete sqlite.DB)
// - Handlers get services (not repositories or the DB)
//
// IMPORT ALIAS:
// We import repository/sqlite as `sqliteRepo` to avoid confusion with
// the sqlite driver package. Import aliases are common in Go when
// package names would otherwise collide or be unclear.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	// === CREATE DATABASE ===
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
		db.Close() // Clean up DB if route setup fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// Routes are grouped by who may call them, from most open to most locked-down:
//
//	public        — no token needed (login, browsing)
//	authenticated — any valid token
//	self-scoped   — valid token AND {email} path param matches the token
//	restaurant    — live role must be "restaurant"
//	charity       — live role must be "charity"
//	admin         — live role must be "admin"
//
// The token only proves identity (email). Roles are always re-fetched from
// the user store at request time, so a revoked privilege takes effect on the
// very next request, not when the token expires.
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added. Our order:
// 1. RequestID — assigns unique ID to each request (for tracing)
// 2. RealIP — extracts real client IP from proxy headers
// 3. Recoverer — catches panics and returns 500 instead of crashing
// 4. Logger — logs each request with timing info
func (s *Server) setupRoutes() error {
	// === Global Middleware ===
	// These run on EVERY request, in order

	s.router.Use(chimiddleware.RequestID) // Adds X-Request-ID header
	s.router.Use(chimiddleware.RealIP)    // Extracts real IP from X-Forwarded-For
	s.router.Use(chimiddleware.Recoverer) // Recovers from panics, returns 500

	// Our custom logging middleware
	s.router.Use(middleware.Logger(s.logger))

	// Browser clients call this API from a different origin
	s.router.Use(middleware.CORS)

	// === AUTH ===
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	// === SERVICES ===
	users := service.NewUserService(s.db.Users, s.logger)
	donations := service.NewDonationService(s.db.Donations, s.logger)
	requests := service.NewRequestService(s.db.Requests, s.db.Donations, s.logger)
	reviews := service.NewReviewService(s.db.Reviews, s.logger)
	favorites := service.NewFavoriteService(s.db.Favorites, s.db.Donations, s.logger)
	transactions := service.NewTransactionService(s.db.Transactions, s.logger)
	payments := payment.New(s.config.PaymentAPIURL, s.config.PaymentAPIKey, s.logger)

	// === HANDLERS ===
	jwtHandler := handler.NewJWTHandler(tokens, s.logger)
	userHandler := handler.NewUserHandler(users, s.logger)
	donationHandler := handler.NewDonationHandler(donations, s.logger)
	requestHandler := handler.NewRequestHandler(requests, s.logger)
	reviewHandler := handler.NewReviewHandler(reviews, s.logger)
	favoriteHandler := handler.NewFavoriteHandler(favorites, s.logger)
	transactionHandler := handler.NewTransactionHandler(transactions, payments, s.logger)

	// Middleware building blocks, composed per group below.
	// RequireRole uses the UserService for live role lookups.
	requireAuth := auth.RequireAuth(tokens)
	requireSelf := auth.RequireSelf("email")
	restaurantOnly := auth.RequireRole(users, model.RoleRestaurant)
	charityOnly := auth.RequireRole(users, model.RoleCharity)
	adminOnly := auth.RequireRole(users, model.RoleAdmin)

	// === Public Routes ===
	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "foodbridge server is running")
	})
	s.router.Post("/jwt", jwtHandler.HandleIssue)
	s.router.Post("/users", userHandler.HandleUpsert)
	s.router.Get("/featured-donations", donationHandler.HandleFeatured)
	s.router.Get("/donation/{id}", donationHandler.HandleGet)
	s.router.Get("/reviews/{donationId}", reviewHandler.HandleListByDonation)

	// === Authenticated Routes (any valid token) ===
	s.router.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Post("/favorites", favoriteHandler.HandleCreate)
		r.Post("/reviews", reviewHandler.HandleCreate)
		r.Delete("/reviews/{id}", reviewHandler.HandleDelete)
		r.Post("/charity-request", requestHandler.HandleCreateCharityRequest)
		r.Get("/charity-request/check", requestHandler.HandleCheckCharityRequest)
		r.Post("/create-payment-intent", transactionHandler.HandleCreateIntent)
		r.Post("/transactions", transactionHandler.HandleRecord)
	})

	// === Self-Scoped Routes ({email} must match the token) ===
	s.router.Group(func(r chi.Router) {
		r.Use(requireAuth, requireSelf)

		r.Get("/users/{email}", userHandler.HandleGet)
		r.Get("/favorites/{email}", favoriteHandler.HandleListByUser)
		r.Get("/requests/charity/{email}", requestHandler.HandleListByCharity)
		r.Get("/transactions/{email}", transactionHandler.HandleListForUser)
		r.Get("/reviews-by-user/{email}", reviewHandler.HandleListByAuthor)
		r.Get("/donations/restaurant/{email}", donationHandler.HandleListByRestaurant)
	})

	// === Restaurant Routes ===
	s.router.Group(func(r chi.Router) {
		r.Use(requireAuth, restaurantOnly)

		r.Post("/donations", donationHandler.HandleCreate)
		r.Patch("/donations/{id}", donationHandler.HandleUpdate)
		r.Patch("/requests/accept/{id}", requestHandler.HandleAccept)
		r.Patch("/requests/reject/{id}", requestHandler.HandleReject)
		r.Get("/requests/by-donation/{donationId}", requestHandler.HandleListByDonation)
	})

	// === Charity Routes ===
	s.router.Group(func(r chi.Router) {
		r.Use(requireAuth, charityOnly)

		r.Post("/requests", requestHandler.HandleCreatePickup)
		r.Patch("/requests/pickup/{id}", requestHandler.HandleConfirmPickup)
		r.Delete("/requests/{id}", requestHandler.HandleCancel)

		// Deprecated generic status endpoint, kept for older clients.
		// Routes through the same validated transitions as the ones above.
		// Deliberately charity-scoped: the only legacy callers are charity
		// clients confirming pickups, and restaurant clients all use the
		// named accept/reject routes — an Accepted/Rejected status sent here
		// still fails the donation-ownership check inside the service.
		r.Patch("/requests/{id}", requestHandler.HandleUpdateStatus)
	})

	// === Admin Routes ===
	s.router.Group(func(r chi.Router) {
		r.Use(requireAuth, adminOnly)

		r.Get("/users", userHandler.HandleSearch)
		r.Patch("/users/{email}/make-admin", userHandler.HandleSetRole(model.RoleAdmin))
		r.Patch("/users/{email}/make-charity", userHandler.HandleSetRole(model.RoleCharity))
		r.Patch("/users/{email}/make-restaurant", userHandler.HandleSetRole(model.RoleRestaurant))
		r.Patch("/users/{email}/remove-admin", userHandler.HandleSetRole(model.RoleUser))
		r.Patch("/users/{email}/remove-charity", userHandler.HandleSetRole(model.RoleUser))
		r.Patch("/users/{email}/remove-restaurant", userHandler.HandleSetRole(model.RoleUser))

		r.Get("/donations", donationHandler.HandleListAll)
		r.Patch("/donations/{id}/verify", donationHandler.HandleVerify)
		r.Patch("/donations/{id}/reject", donationHandler.HandleReject)

		r.Patch("/charity-request/approve/{id}", requestHandler.HandleApproveCharityRequest)
		r.Patch("/charity-request/reject/{id}", requestHandler.HandleRejectCharityRequest)

		r.Get("/transactions", transactionHandler.HandleListAll)
	})

	return nil
}

// Router exposes the configured router, mainly for tests that want to drive
// the full middleware + handler chain through httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close releases the server's resources (the database connection).
// Start() calls this itself; tests that only use Router() should call it
// directly when done.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// Because we hold a database connection, shutdown order matters:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases file lock)
//
// If we skip step 3, the database file might be left in an inconsistent state.
// The `defer s.db.Close()` ensures this happens even if something panics.
func (s *Server) Start() error {
	// Ensure the database is closed when the server stops.
	// This runs AFTER everything else in this function finishes.
	defer s.db.Close()

	// Create the HTTP server with sensible timeouts
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to receive OS signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Channel to receive server errors
	serverErrors := make(chan error, 1)

	// Start the server in a goroutine (so it doesn't block)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	// Block until we receive a signal or server error
	select {
	case err := <-serverErrors:
		// Server failed to start
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		// Received shutdown signal
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give in-flight requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
