package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/danger-5344/templa-socialV2/config"
	appmodel "github.com/danger-5344/templa-socialV2/internal/app/model"
	"github.com/danger-5344/templa-socialV2/internal/app/personalize"
	apprepository "github.com/danger-5344/templa-socialV2/internal/app/repository"
	appserver "github.com/danger-5344/templa-socialV2/internal/app/server"
	"github.com/danger-5344/templa-socialV2/internal/app/service"
	inthttp "github.com/danger-5344/templa-socialV2/internal/http/handler"
	"github.com/danger-5344/templa-socialV2/internal/http/middleware"
	"github.com/danger-5344/templa-socialV2/internal/infra/logger"
	infraNATS "github.com/danger-5344/templa-socialV2/internal/infra/nats"
	infraPostgres "github.com/danger-5344/templa-socialV2/internal/infra/postgres"
	infraPrometheus "github.com/danger-5344/templa-socialV2/internal/infra/prometheus"
	infraRedis "github.com/danger-5344/templa-socialV2/internal/infra/redis"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.MustInit(logger.FromApp(cfg.App, "templa-server"))
	defer func() { _ = logger.Sync() }()

	log.Info("Configuration loaded successfully",
		zap.String("env", cfg.App.Env),
		zap.String("addr", cfg.App.Addr),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.String("nats_host", cfg.NATS.Host),
		zap.Int("nats_port", cfg.NATS.Port),
		zap.Int("staff_users", len(cfg.App.StaffUsers)),
	)

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres, log)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB, appmodel.All()...); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()
	log.Info("Connected to Postgres successfully")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	natsConn, js, err := infraNATS.Connect(cfg.NATS)
	if err != nil {
		log.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Drain()
	if err := infraNATS.EnsureUsageStream(js); err != nil {
		log.Fatal("Failed to prepare usage stream", zap.Error(err))
	}
	log.Info("Connected to NATS successfully", zap.Bool("jetstream_ready", js != nil))

	m := infraPrometheus.NewMetrics()
	if cfg.App.IsProduction() {
		go infraPrometheus.Serve(ctx, cfg.Prometheus, m, log)
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	platformRepo := apprepository.NewPlatformRepository(gormDB)
	trackingRepo := apprepository.NewTrackingRepository(gormDB)
	tagRepo := apprepository.NewTagRepository(gormDB)
	templateRepo := apprepository.NewTemplateRepository(gormDB)
	catalogRepo := apprepository.NewCatalogRepository(gormDB)
	usageRepo := apprepository.NewUsageRepository(pool)
	popularityRepo := apprepository.NewPopularityRepository(redisClient)

	templates, err := service.NewTemplateService(service.TemplateDeps{
		Templates:  templateRepo,
		Platforms:  platformRepo,
		Links:      catalogRepo,
		Usage:      usageRepo,
		Popularity: popularityRepo,
		Resolver:   personalize.NewResolver(tagRepo, trackingRepo),
		Publisher:  service.NewUsageEventPublisher(js),
		Hooks:      []service.TemplateHook{service.PreviewInvalidator{Templates: templateRepo}},
		Logger:     log,
		Metrics:    m,
	})
	if err != nil {
		log.Fatal("Failed to build template service", zap.Error(err))
	}

	consumer := service.NewUsageEventConsumer(js, log, popularityRepo, m)
	if err := consumer.Start(ctx); err != nil {
		log.Fatal("Failed to start usage consumer", zap.Error(err))
	}

	window, err := time.ParseDuration(cfg.RateLimit.Window)
	if err != nil {
		log.Warn("Invalid rate limit window, using default", zap.String("window", cfg.RateLimit.Window), zap.Error(err))
		window = 0
	}

	server := appserver.New(appserver.Dependencies{
		Logger:    log,
		Redis:     redisClient,
		Platforms: service.NewPlatformService(platformRepo, trackingRepo),
		Tags:      service.NewTagService(tagRepo, platformRepo),
		Templates: templates,
		Catalog: service.NewCatalogService(catalogRepo, service.CatalogOptions{
			BatchSize: cfg.Import.BatchSize,
			Logger:    log,
			Metrics:   m,
		}),
		StaffUsers:  cfg.App.StaffUsers,
		CORSOrigins: cfg.App.CORSOrigins,
		RateLimit: middleware.RateLimitConfig{
			MaxRequests: cfg.RateLimit.MaxRequests,
			Window:      window,
		},
		MaxUploadBytes: cfg.Import.MaxUploadBytes,
		HealthChecks: map[string]inthttp.Pinger{
			"postgres": inthttp.PingFunc(pool.Ping),
			"redis": inthttp.PingFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}),
			"nats": inthttp.PingFunc(func(context.Context) error {
				if natsConn.Status() != nats.CONNECTED {
					return errors.New(natsConn.Status().String())
				}
				return nil
			}),
		},
	})

	go func() {
		<-ctx.Done()
		log.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("HTTP server shutdown failed", zap.Error(err))
		}
	}()

	log.Info("Starting HTTP server", zap.String("addr", cfg.App.Addr))
	if err := server.Listen(cfg.App.Addr); err != nil {
		log.Error("Fiber server exited", zap.Error(err))
	}
}
