// Package server assembles the HTTP application: stores chosen by
// configuration, the auth and notes services, and the chi router with its
// middleware chain.
package server

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/user/notebook-go/apperror"
	"github.com/user/notebook-go/auth"
	"github.com/user/notebook-go/config"
	"github.com/user/notebook-go/db"
	_ "github.com/user/notebook-go/docs" // registers the Swagger spec
	"github.com/user/notebook-go/logging"
	"github.com/user/notebook-go/metrics"
	"github.com/user/notebook-go/notes"
	"github.com/user/notebook-go/users"
)

// App is the wired application.
type App struct {
	Router http.Handler
	Tokens *auth.TokenService

	pool *pgxpool.Pool
}

// Close releases the database pool, if any.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// New wires the application from cfg. With the postgres backend it opens the
// pool and, when DB_AUTO_MIGRATE is set, applies pending migrations first.
func New(ctx context.Context, cfg *config.AppConfig, logger *logrus.Logger) (*App, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenDuration)
	if err != nil {
		return nil, apperror.NewConfigError("invalid token configuration", err)
	}

	app := &App{Tokens: tokens}

	var (
		userStore auth.UserStore
		noteStore notes.Store
		ping      func(context.Context) error
	)
	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		logger.Warn("using the in-memory store: data is lost on restart")
		userStore = auth.NewMemoryUserStore()
		noteStore = notes.NewMemoryStore()
	default:
		if cfg.DB.AutoMigrate {
			if err := db.RunMigrations(cfg.DB, db.MigrateUp); err != nil {
				return nil, err
			}
			logger.Info("database migrations applied")
		}
		pool, err := db.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		app.pool = pool
		userStore = auth.NewPostgresUserStore(pool)
		noteStore = notes.NewPostgresStore(pool)
		ping = pool.Ping
	}

	authService, err := auth.NewAuthService(userStore, auth.NewPasswordHasher(cfg.Auth.BcryptCost), tokens, m)
	if err != nil {
		app.Close()
		return nil, apperror.NewInternalError("failed to create auth service", err)
	}
	guard := notes.NewOwnershipGuard(noteStore, m, logger)

	app.Router = NewRouter(Deps{
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
		Metrics:  m,
		Tokens:   tokens,
		Auth:     auth.NewHandlers(authService),
		Users:    users.NewUserHandlers(users.NewUserService(userStore)),
		Notes:    notes.NewNoteHandler(notes.NewService(noteStore, guard)),
		Ping:     ping,
	})
	return app, nil
}

// Deps are the collaborators NewRouter mounts.
type Deps struct {
	Config   *config.AppConfig
	Logger   *logrus.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Tokens   *auth.TokenService
	Auth     *auth.Handlers
	Users    *users.UserHandlers
	Notes    *notes.NoteHandler
	// Ping checks the backing store for /healthz; nil means always healthy.
	Ping func(context.Context) error
}

// NewRouter builds the chi router.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// Chi requires all middleware to be registered before any routes.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.NewStructuredLogger(d.Logger))
	r.Use(recoverer)
	r.Use(d.Metrics.Middleware)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", d.Config.Auth.TokenHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", healthz(d.Ping))
	r.Method(http.MethodGet, "/metrics", metrics.Handler(d.Registry))
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	requireToken := auth.JWTMiddleware(d.Tokens, d.Config.Auth.TokenHeader, d.Metrics)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", d.Auth.HandleRegister())
		r.Post("/login", d.Auth.HandleLogin())

		r.Group(func(r chi.Router) {
			r.Use(requireToken)
			r.Get("/me", d.Users.HandleGetUserProfile())
			r.Post("/getuser", d.Users.HandleGetUserProfile())
		})
	})

	r.Route("/api/notes", func(r chi.Router) {
		r.Use(requireToken)
		d.Notes.RegisterRoutes(r)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		auth.WriteError(w, r, apperror.NewNotFoundError("route not found", nil))
	})

	return r
}

// recoverer turns a handler panic into the standard 500 body.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				logging.FromRequest(r).WithFields(logrus.Fields{
					"panic": fmt.Sprintf("%+v", rvr),
					"stack": string(debug.Stack()),
				}).Error("handler panicked")
				auth.WriteError(w, r, apperror.NewInternalError("internal server error", nil))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func healthz(ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				auth.WriteError(w, r, apperror.NewDatabaseError("store unreachable", err))
				return
			}
		}
		auth.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
