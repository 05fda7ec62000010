package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/aurcc/bonafide-portal/internal/apiclient"
	appControllers "github.com/aurcc/bonafide-portal/internal/app/controllers"
	appMigrations "github.com/aurcc/bonafide-portal/internal/app/migrations"
	appRoutes "github.com/aurcc/bonafide-portal/internal/app/routes"
	appServices "github.com/aurcc/bonafide-portal/internal/app/services"
	"github.com/aurcc/bonafide-portal/internal/app/views"
	"github.com/aurcc/bonafide-portal/internal/config"
	"github.com/aurcc/bonafide-portal/internal/db"
	appMiddleware "github.com/aurcc/bonafide-portal/internal/middleware"
	"github.com/aurcc/bonafide-portal/internal/pkg/helpers"
	"github.com/aurcc/bonafide-portal/internal/pkg/logger"
	"github.com/aurcc/bonafide-portal/internal/session"
)

// DefaultConfigPath is read when no --config flag is given.
var DefaultConfigPath = filepath.Join("configs", "config.yaml")

const sweepInterval = 10 * time.Minute

// Dependencies holds all the application dependencies
type Dependencies struct {
	API         *apiclient.Client
	Sessions    *session.Provider
	Services    *appServices.Services
	Pages       *appMiddleware.SessionMiddleware
	Controllers appRoutes.Controllers
	Logger      zerolog.Logger

	closers []func()
}

// Close releases the session store's connections.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.ConfigFromStrings(cfg.Logging.Level, cfg.Logging.Format))
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase connects to postgres and applies the portal's migrations.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	applied, err := appMigrations.NewMigrator(database.Pool, lgr).Migrate(ctx)
	if err != nil {
		database.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Int("applied", applied).Msg("Database migrations successfully applied.")
	return database, nil
}

// setupSessionStore builds the configured session backend. The returned func closes its connections.
func setupSessionStore(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (session.Store, func(), error) {
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Using redis session store")
		return session.NewRedisStore(client), func() { client.Close() }, nil

	case config.SessionStorePostgres:
		database, err := SetupDatabase(ctx, cfg, lgr)
		if err != nil {
			return nil, nil, err
		}
		lgr.Info().Msg("Using postgres session store")
		return session.NewPostgresStore(database.Pool), database.Close, nil

	default:
		lgr.Warn().Msg("Using in-memory session store; sessions are lost on restart")
		return session.NewMemoryStore(), func() {}, nil
	}
}

// BuildDependencies initializes the API client, the session provider, services, and controllers.
// The session sweeper runs until ctx is cancelled.
func BuildDependencies(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	store, closeStore, err := setupSessionStore(ctx, cfg, lgr)
	if err != nil {
		return nil, err
	}
	deps.closers = append(deps.closers, closeStore)

	deps.API = apiclient.New(apiclient.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: helpers.ParseDuration(cfg.API.Timeout, 30*time.Second),
	})

	deps.Sessions = session.NewProvider(store, deps.API, helpers.ParseDuration(cfg.Session.TTL, 12*time.Hour))
	appMiddleware.LogSessionEvents(deps.Sessions, logger.Component("session"))
	go deps.Sessions.RunSweeper(ctx, sweepInterval)

	deps.Services = appServices.New(deps.API, deps.Sessions, cfg.API.MaxAttachmentBytes)

	deps.Pages = appMiddleware.NewSessionMiddleware(deps.Sessions, appMiddleware.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Server.SecureCookies,
		TTL:    helpers.ParseDuration(cfg.Session.TTL, 12*time.Hour),
	}, lgr)

	svc := deps.Services
	pages := deps.Pages
	deps.Controllers = appRoutes.Controllers{
		Auth:           appControllers.NewAuthController(svc.Auth, pages, logger.Component("auth")),
		Public:         appControllers.NewPublicController(svc.Certificates, pages, logger.Component("public")),
		Student:        appControllers.NewStudentController(svc, pages, cfg.API.MaxAttachmentBytes, logger.Component("student")),
		Review:         appControllers.NewReviewController(svc, pages, logger.Component("review")),
		Dean:           appControllers.NewDeanController(svc.Records, pages, logger.Component("dean")),
		StudentRecords: appControllers.NewStudentRecordsController(svc.Records, pages, cfg.API.MaxAttachmentBytes, logger.Component("students")),
		Departments:    appControllers.NewDepartmentController(svc.Records, pages, logger.Component("departments")),
		Hostels:        appControllers.NewHostelController(svc.Records, pages, logger.Component("hostels")),
		Wardens:        appControllers.NewWardenController(svc.Records, pages, logger.Component("wardens")),
	}
	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes, and wraps it in CSRF protection.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (http.Handler, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	renderer, err := views.New()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	router := gin.New()
	router.HTMLRender = renderer
	router.Use(
		deps.Pages.Recovery(),
		appMiddleware.RequestLogger(logger.Component("http")),
		deps.Pages.LoadSession(),
	)

	// Attachments and bulk uploads share the attachment cap plus room for the other form fields.
	uploadLimit := cfg.API.MaxAttachmentBytes + 1<<20
	appRoutes.SetupRouter(router, deps.Controllers, deps.Pages, uploadLimit)

	protect := appMiddleware.CSRF([]byte(cfg.Server.CSRFKey), cfg.Server.SecureCookies, trustedOrigins(cfg), logger.Component("csrf"))
	return protect(router), nil
}

// trustedOrigins lets forms posted from the configured public URL through the origin check.
func trustedOrigins(cfg *config.Config) []string {
	u, err := url.Parse(cfg.Server.BaseURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{strings.ToLower(u.Host)}
}
