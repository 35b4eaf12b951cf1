package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/feedback-service/internal/api/http"
	"github.com/spec-kit/feedback-service/internal/api/http/handlers"
	"github.com/spec-kit/feedback-service/internal/auth"
	"github.com/spec-kit/feedback-service/internal/config"
	"github.com/spec-kit/feedback-service/internal/events"
	"github.com/spec-kit/feedback-service/internal/observability"
	"github.com/spec-kit/feedback-service/internal/persistence"
	"github.com/spec-kit/feedback-service/internal/repository"
	"github.com/spec-kit/feedback-service/internal/service"
	"github.com/spec-kit/feedback-service/internal/uploads"
	"github.com/spec-kit/feedback-service/internal/worker"
)

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

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var (
		userRepo     repository.UserRepository
		productRepo  repository.ProductRepository
		feedbackRepo repository.FeedbackRepository
		historyRepo  repository.FeedbackHistoryRepository
	)
	if pg.Enabled() {
		pool := pg.PoolHandle()
		userRepo = repository.NewUserRepository(pool)
		productRepo = repository.NewProductRepository(pool)
		feedbackRepo = repository.NewFeedbackRepository(pool)
		historyRepo = repository.NewFeedbackHistoryRepository(pool)
	} else {
		logger.Warn("running with in-memory stores; data will not survive restarts")
		stores := repository.NewMemoryStores()
		userRepo = stores.Users
		productRepo = stores.Products
		feedbackRepo = stores.Feedback
		historyRepo = stores.History
	}

	uploadStore := uploads.NewStore(cfg.Uploads.Dir, cfg.Uploads.PublicPath)

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authService := service.NewAuthService(*cfg, userRepo)
	catalogService := service.NewCatalogService(service.CatalogDependencies{
		ProductRepo:  productRepo,
		FeedbackRepo: feedbackRepo,
		Images:       uploadStore,
		Cache:        redis,
		CacheTTL:     cfg.Catalog.CacheTTL(),
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	feedbackService := service.NewFeedbackService(service.FeedbackDependencies{
		FeedbackRepo: feedbackRepo,
		UserRepo:     userRepo,
		ProductRepo:  productRepo,
		HistoryRepo:  historyRepo,
		Dispatcher:   dispatcher,
	})

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if _, err := authService.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			logger.Fatal("failed to provision admin account", zap.Error(err))
		}
	}

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	app.Static(cfg.Uploads.PublicPath, uploadStore.Dir())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	usersHandler := handlers.NewUsersHandler(authService)
	productsHandler := handlers.NewProductsHandler(catalogService)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Users:          usersHandler,
		Products:       productsHandler,
		Feedback:       feedbackHandler,
		AuthMiddleware: authMiddleware,
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
