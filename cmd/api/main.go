package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/data-portal/internal/api/http"
	"github.com/spec-kit/data-portal/internal/api/http/handlers"
	"github.com/spec-kit/data-portal/internal/api/http/views"
	"github.com/spec-kit/data-portal/internal/auth"
	"github.com/spec-kit/data-portal/internal/config"
	"github.com/spec-kit/data-portal/internal/events"
	"github.com/spec-kit/data-portal/internal/observability"
	"github.com/spec-kit/data-portal/internal/persistence"
	"github.com/spec-kit/data-portal/internal/repository"
	"github.com/spec-kit/data-portal/internal/repository/memory"
	"github.com/spec-kit/data-portal/internal/service"
	"github.com/spec-kit/data-portal/internal/worker"
)

type repositories struct {
	users       repository.UserRepository
	departments repository.DepartmentRepository
	tabs        repository.TabRepository
	records     repository.RecordRepository
}

func newRepositories(pool *pgxpool.Pool, logger *zap.Logger) repositories {
	if pool == nil {
		logger.Warn("using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return repositories{
			users:       memory.NewUserRepository(store),
			departments: memory.NewDepartmentRepository(store),
			tabs:        memory.NewTabRepository(store),
			records:     memory.NewRecordRepository(store),
		}
	}
	return repositories{
		users:       repository.NewUserRepository(pool),
		departments: repository.NewDepartmentRepository(pool),
		tabs:        repository.NewTabRepository(pool),
		records:     repository.NewRecordRepository(pool),
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	repos := newRepositories(pg.PoolHandle(), logger)
	metrics := observability.NewMetrics()

	queue := worker.NewAuditQueue(events.NewInMemoryDispatcher(), 0, logger)
	notificationService := service.NewNotificationService(queue, logger, metrics, cfg.Notification)
	worker.StartNotificationWorker(notificationService, queue)
	defer queue.Close()

	authService := service.NewAuthService(*cfg, repos.users)
	portalService := service.NewPortalService(service.PortalDependencies{
		DepartmentRepo: repos.departments,
		TabRepo:        repos.tabs,
	}, queue, logger)
	recordService := service.NewRecordService(repos.tabs, repos.records, queue, logger)
	importService := service.NewImportService(cfg.Import, repos.tabs, repos.records, queue, logger)

	renderer, err := views.New()
	if err != nil {
		logger.Fatal("failed to parse templates", zap.Error(err))
	}
	pages := handlers.NewPages(renderer, cfg.CSRF.FormField)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL())
	sessions := auth.NewSessionMiddleware(tokens, repos.users, cfg.Auth.SessionCookie, cfg.Auth.CookieSecure, logger)

	var csrfStorage fiber.Storage
	deps := map[string]handlers.Pinger{}
	if pg.Enabled() {
		deps["postgres"] = pg
	}
	if err := redis.Ping(ctx); err == nil {
		csrfStorage = redis.NewKeyStorage("portal_csrf:")
		deps["redis"] = redis
	}

	var throttle fiber.Handler
	if cfg.RateLimit.Enabled {
		rate, err := limiter.NewRateFromFormatted(cfg.RateLimit.Rate)
		if err != nil {
			logger.Fatal("invalid rate limit", zap.String("rate", cfg.RateLimit.Rate), zap.Error(err))
		}
		store := persistence.NewLimiterStore(cfg.RateLimit.Store, redis, logger)
		throttle = auth.RateLimit(limiter.New(store, rate), logger)
	}

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.App.BodyLimitBytes,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, renderer, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Auth:      handlers.NewAuthHandler(authService, sessions, pages),
		Portal:    handlers.NewPortalHandler(portalService, pages),
		Records:   handlers.NewRecordHandler(recordService, pages),
		Imports:   handlers.NewImportHandler(portalService, importService, pages),
		Sessions:  sessions,
		CSRF:      auth.NewCSRF(cfg.CSRF, cfg.Auth.CookieSecure, csrfStorage),
		RateLimit: throttle,
		Metrics:   metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
