package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/coopsite/apiserver/config"
	"github.com/coopsite/apiserver/internal/catalog"
	"github.com/coopsite/apiserver/internal/db"
	"github.com/coopsite/apiserver/internal/events"
	"github.com/coopsite/apiserver/internal/handlers"
	"github.com/coopsite/apiserver/internal/services"
	"github.com/coopsite/apiserver/internal/session"
	"github.com/coopsite/apiserver/internal/sso"
	"github.com/coopsite/apiserver/internal/storage"
	"github.com/coopsite/apiserver/internal/store"
	"github.com/coopsite/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const (
	seedAdminEmail    = "admin@example.com"
	seedAdminPassword = "12345678"
	seedAdminName     = "Site Administrator"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     *events.Publisher
	log        zerolog.Logger
}

// New constructs a Server: opens the database, wires repositories,
// services, the session manager, the SSO issuer, the catalog, and the
// event publisher, then registers routes.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("component", "server").Logger()

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	userService := services.NewUserService(userRepo)

	if err := seedAdmin(ctx, userService, log); err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	sessionManager, err := services.NewSessionManager(session.NewMemoryRepo(), userRepo, cfg.Session)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	issuer := sso.NewIssuer(cfg.SSO)
	if issuer.Enabled() && cfg.SSO.Secret == "" {
		// Startup proceeds: only the token-issuance path is broken, and it
		// answers 500 on use. Flag it loudly anyway.
		log.Warn().Msg("SSO_BASE_URL is set but SSO_JWT_SECRET is empty; logins via SSO will fail")
	}

	catalogService, err := newCatalog(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	publisher, err := newPublisher(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	authHandler := handlers.NewAuthHandler(
		userService,
		sessionManager,
		issuer,
		publisher,
		cfg.FrontendURL,
		log.With().Str("component", "auth").Logger(),
	)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	handlers.AuthRouter(router, authHandler)
	router.Route("/api/services", func(r chi.Router) {
		handlers.ServicesRouter(r, catalogService)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 4000
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		events:     publisher,
		log:        log,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.events != nil {
		_ = s.events.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}

// seedAdmin creates the first-boot admin account when the user table is
// empty. Reruns are no-ops.
func seedAdmin(ctx context.Context, users *services.UserService, log zerolog.Logger) error {
	count, err := users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	admin := types.User{
		Email: seedAdminEmail,
		Name:  seedAdminName,
		Role:  types.RoleAdmin,
	}
	if _, err := users.Create(ctx, admin, seedAdminPassword); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	log.Info().Str("email", seedAdminEmail).Msg("seeded first-boot admin")
	return nil
}

func newCatalog(ctx context.Context, cfg config.Config) (*services.CatalogService, error) {
	var source catalog.Source
	switch cfg.Catalog.Source {
	case config.CatalogSourceFile, "":
		source = catalog.NewFileSource(cfg.Catalog.File)
	case config.CatalogSourceMinio:
		contentStore, err := storage.NewMinioStore(cfg.Minio)
		if err != nil {
			return nil, err
		}
		source = catalog.NewObjectSource(contentStore, cfg.Catalog.ObjectKey)
	case config.CatalogSourceGCS:
		contentStore, err := storage.NewGCSStore(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		source = catalog.NewObjectSource(contentStore, cfg.Catalog.ObjectKey)
	default:
		return nil, errors.New("unknown catalog source: " + cfg.Catalog.Source)
	}
	return services.NewCatalogService(ctx, source)
}

func newPublisher(ctx context.Context, cfg config.Config) (*events.Publisher, error) {
	switch cfg.Events.Backend {
	case config.EventsBackendNone, "":
		return nil, nil
	case config.EventsBackendRabbitMQ:
		backend, err := events.NewRabbitMQBackend(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return events.NewPublisher(backend, cfg.Events.Channel), nil
	case config.EventsBackendPubSub:
		backend, err := events.NewPubSubBackend(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return events.NewPublisher(backend, cfg.Events.Channel), nil
	default:
		return nil, errors.New("unknown events backend: " + cfg.Events.Backend)
	}
}
