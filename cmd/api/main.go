package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/city-issue-service/internal/advisor"
	httptransport "github.com/spec-kit/city-issue-service/internal/api/http"
	"github.com/spec-kit/city-issue-service/internal/api/http/handlers"
	"github.com/spec-kit/city-issue-service/internal/config"
	"github.com/spec-kit/city-issue-service/internal/geocode"
	"github.com/spec-kit/city-issue-service/internal/messaging"
	"github.com/spec-kit/city-issue-service/internal/observability"
	"github.com/spec-kit/city-issue-service/internal/persistence"
	"github.com/spec-kit/city-issue-service/internal/repository"
	"github.com/spec-kit/city-issue-service/internal/service"
	"github.com/spec-kit/city-issue-service/internal/worker"
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

	bus, err := persistence.NewNATS(cfg.NATS, logger)
	if err != nil {
		logger.Fatal("failed to connect nats", zap.Error(err))
	}
	defer bus.Close()

	pool := pg.PoolHandle()
	issueRepo := repository.NewIssueRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	statRepo := repository.NewResolutionStatRepository(pool)

	gate := geocode.NewIntervalGate(cfg.Geocoder.MinInterval)
	geocoder := geocode.NewCachedGeocoder(
		persistence.NewGeocodeCache(redis),
		geocode.NewHTTPClient(cfg.Geocoder),
		gate,
		cfg.Geocoder.CacheTTL,
		logger,
	)

	advisorClient := advisor.NewHTTPClient(cfg.Advisor)
	publisher := messaging.NewNATSPublisher(bus.Conn)

	routingService := service.NewRoutingService(service.RoutingDependencies{
		DepartmentRepo: departmentRepo,
		IssueRepo:      issueRepo,
		Advisor:        advisorClient,
		Publisher:      publisher,
		Config:         cfg.Routing,
		CallTimeout:    cfg.Advisor.RequestTimeout,
		Logger:         logger,
	})
	if err := routingService.ValidateDefaultDepartment(ctx); err != nil {
		logger.Fatal("routing reference data check failed", zap.Error(err))
	}

	intakeService := service.NewIntakeService(service.IntakeDependencies{
		IssueRepo:  issueRepo,
		Tx:         persistence.NewTxManager(pool),
		Duplicates: service.NewDuplicateDetector(issueRepo, cfg.Dedup, logger),
		Geocoder:   geocoder,
		Publisher:  publisher,
		Routing:    routingService,
		Logger:     logger,
	})

	predictionService := service.NewPredictionService(service.PredictionDependencies{
		IssueRepo:      issueRepo,
		DepartmentRepo: departmentRepo,
		StatRepo:       statRepo,
		Advisor:        advisorClient,
		Cache:          persistence.NewPredictionCache(redis),
		Config:         cfg.Predictor,
		CallTimeout:    cfg.Advisor.RequestTimeout,
		Logger:         logger,
	})

	if cfg.Predictor.Enabled {
		predictionWorker := worker.NewPredictionWorker(predictionService, cfg.Predictor.Interval, logger)
		go predictionWorker.Run(ctx)
	}

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, bus),
		Issues:      handlers.NewIssuesHandler(intakeService, predictionService),
		Locations:   handlers.NewLocationsHandler(geocoder),
		Departments: handlers.NewDepartmentsHandler(departmentRepo),
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
