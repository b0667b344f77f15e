package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/admin-gateway/internal/api/http"
	"github.com/spec-kit/admin-gateway/internal/api/http/handlers"
	"github.com/spec-kit/admin-gateway/internal/auth"
	"github.com/spec-kit/admin-gateway/internal/config"
	"github.com/spec-kit/admin-gateway/internal/events"
	"github.com/spec-kit/admin-gateway/internal/observability"
	"github.com/spec-kit/admin-gateway/internal/persistence"
	"github.com/spec-kit/admin-gateway/internal/repository"
	"github.com/spec-kit/admin-gateway/internal/service"
	"github.com/spec-kit/admin-gateway/internal/session"
	"github.com/spec-kit/admin-gateway/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.IsProduction())
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	auditWorker := worker.StartAuditWorker(ctx, dispatcher, service.NewAuditService(logger), logger, worker.DefaultAuditBuffer)

	sessions := session.NewManager(
		session.NewRedisStore(redis.Client),
		session.NewCookieSigner(cfg.Auth.JWTSecret),
		cfg.Auth.SessionCookieName,
		cfg.Auth.SessionTTL(),
		logger,
	)

	gateCfg := gateConfig(cfg)
	router, err := auth.NewRequestRouter(gateCfg, sessions, logger.Named("gate"))
	if err != nil {
		logger.Fatal("invalid admin gate configuration", zap.Error(err))
	}
	if gateCfg.EmergencySecret != "" {
		logger.Warn("emergency admin access is enabled", zap.String("cookie", gateCfg.EmergencyCookieName))
	}

	pool := pg.PoolHandle()
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:           repository.NewUserRepository(pool),
		PasswordResetRepo:  repository.NewPasswordResetRepository(pool),
		Sessions:           sessions,
		Logger:             logger,
		PrivilegedIdentity: router.Config().PrivilegedIdentity,
	})
	provisionPrivilegedUser(ctx, authService, cfg.Admin.InitialPassword, logger)

	app := fiber.New(httptransport.FiberConfig(cfg.App.Name))
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		AdminPath: router.Config().AdminPath,
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Users: handlers.NewUsersHandler(authService, handlers.CookieSettings{
			SessionCookieName: cfg.Auth.SessionCookieName,
			AdminCookieName:   gateCfg.AdminCookieName,
			AdminPath:         router.Config().AdminPath,
			Secure:            cfg.App.IsProduction(),
			ExposeResetToken:  !cfg.App.IsProduction(),
		}),
		Admin: handlers.NewAdminHandler(router.Config().AdminPath, gateCfg.LoginPath, metrics),
		App:   handlers.NewAppHandler(cfg.App.Name, cfg.App.Version),
		Gate:  auth.NewGateMiddleware(router, logger.Named("gate"), dispatcher, metrics),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	cancel()
	auditWorker.Wait()
}

// provisionPrivilegedUser creates the admin account out of band; public registration
// refuses the privileged identity.
func provisionPrivilegedUser(ctx context.Context, authService *service.AuthService, password string, logger *zap.Logger) {
	if password == "" {
		return
	}
	_, created, err := authService.EnsurePrivilegedUser(ctx, "Administrator", password)
	if err != nil {
		logger.Warn("could not provision privileged account", zap.Error(err))
		return
	}
	if !created {
		logger.Info("privileged account already exists; ADMIN_INITIAL_PASSWORD ignored")
	}
}

// gateConfig maps environment configuration onto the admin gate.
func gateConfig(cfg *config.Config) auth.GateConfig {
	gate := auth.DefaultGateConfig(cfg.Admin.Identity)
	gate.AdminPath = cfg.Admin.Path
	gate.LoginPath = cfg.Admin.LoginPath
	gate.PublicPaths = cfg.Admin.PublicPaths
	gate.AdminCookieName = cfg.Admin.TokenCookieName
	gate.AdminTokenTTL = cfg.Admin.TokenTTL()
	gate.EmergencyCookieName = cfg.Admin.EmergencyCookieName
	gate.EmergencySecret = cfg.Admin.EmergencySecret
	gate.EmergencyUserAgentMarker = cfg.Admin.EmergencyUserAgentMarker
	gate.EmergencyTTL = cfg.Admin.EmergencyTTL()
	gate.SessionLookupTimeout = cfg.Admin.SessionLookupTimeout()
	gate.Production = cfg.App.IsProduction()
	return gate
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
