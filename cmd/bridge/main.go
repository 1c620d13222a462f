package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-bridge/internal/api/http"
	"github.com/spec-kit/ticket-bridge/internal/api/http/handlers"
	"github.com/spec-kit/ticket-bridge/internal/assistant"
	"github.com/spec-kit/ticket-bridge/internal/auth"
	"github.com/spec-kit/ticket-bridge/internal/bridge"
	"github.com/spec-kit/ticket-bridge/internal/config"
	"github.com/spec-kit/ticket-bridge/internal/events"
	"github.com/spec-kit/ticket-bridge/internal/gateway"
	"github.com/spec-kit/ticket-bridge/internal/observability"
	"github.com/spec-kit/ticket-bridge/internal/persistence"
	"github.com/spec-kit/ticket-bridge/internal/repository"
	"github.com/spec-kit/ticket-bridge/internal/service"
	"github.com/spec-kit/ticket-bridge/internal/worker"
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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	messageRepo := repository.NewTicketMessageRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	mappingRepo := repository.NewThreadMappingRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	gatewayClient := gateway.NewRESTClient(cfg.Gateway, logger)

	registry := bridge.NewRegistry(ticketRepo, mappingRepo, logger)
	sender := bridge.NewChunkedSender(cfg.Gateway.SegmentLimit, cfg.Gateway.SendDelay())

	lifecycle := bridge.NewLifecycle(cfg.Gateway, bridge.LifecycleDependencies{
		Client:      gatewayClient,
		Registry:    registry,
		TicketRepo:  ticketRepo,
		MappingRepo: mappingRepo,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	router := bridge.NewRouter(cfg.Gateway, bridge.RouterDependencies{
		Client:      gatewayClient,
		Registry:    registry,
		Lifecycle:   lifecycle,
		TicketRepo:  ticketRepo,
		MessageRepo: messageRepo,
		UserRepo:    userRepo,
		Sender:      sender,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})

	var asker bridge.Asker
	if completer := assistant.NewOpenAICompleter(cfg.Assistant); completer != nil {
		limiter := assistant.NewRateLimiter(cfg.Assistant.Window(), cfg.Assistant.MaxRequests, cfg.Assistant.MinSpacing())
		memory := assistant.NewMemory(assistant.DefaultMemoryTurns)
		asker = assistant.NewService(completer, limiter, memory, logger)
	} else {
		logger.Warn("ASSISTANT_API_KEY not set; /ask disabled")
	}

	commandDispatcher := bridge.NewDispatcher(cfg.Gateway, bridge.DispatcherDependencies{
		Client:     gatewayClient,
		Registry:   registry,
		Lifecycle:  lifecycle,
		Router:     router,
		TicketRepo: ticketRepo,
		Assistant:  asker,
		Sender:     sender,
		Logger:     logger,
	})

	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notifications)

	dedup := worker.NewEventDedup(redis, logger)
	pump := worker.NewEventPump(gatewayClient, registry, commandDispatcher, dedup, logger)
	go pump.Run(ctx)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.ServiceTokenTTLHours)
	serviceAuth := auth.NewServiceAuth(tokens)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, gatewayClient)
	bridgeHandler := handlers.NewBridgeHandler(cfg.Gateway, lifecycle, router, registry, metrics)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      healthHandler,
		Bridge:      bridgeHandler,
		ServiceAuth: serviceAuth,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
