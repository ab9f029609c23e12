// cmd/api-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"wastewise/internal/alerting"
	"wastewise/internal/api"
	"wastewise/internal/authsvc"
	"wastewise/internal/common/auth"
	"wastewise/internal/common/aws"
	"wastewise/internal/common/config"
	"wastewise/internal/common/crm"
	"wastewise/internal/common/database"
	"wastewise/internal/common/logger"
	"wastewise/internal/common/metrics"
	"wastewise/internal/common/observability"
	"wastewise/internal/forecast"
	"wastewise/internal/forecast/features"
	"wastewise/internal/forecast/model"
	"wastewise/internal/forecast/trends"
	"wastewise/internal/nutrition/catalog"
	"wastewise/internal/nutrition/menu"
	"wastewise/internal/nutrition/similarity"
	"wastewise/internal/wastage"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")

	zapLog.Info("Starting api-server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Rebuild with the configured level and format.
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New(cfg.Observability.ServiceName)
	defer obs.Shutdown()

	var tracing *observability.Tracing
	if cfg.Observability.TracingEnabled {
		tracing, err = observability.NewTracing(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint)
		if err != nil {
			zapLog.Fatal("tracing init failed", zap.Error(err))
		}
		defer tracing.Shutdown()
	}

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Load analytics assets (fail fast, requests never see a half-loaded server) ---
	cat, err := catalog.Load(cfg.Catalog.Path, log)
	if err != nil {
		zapLog.Fatal("nutrition catalog load failed", zap.Error(err))
	}
	metrics.CatalogEntries.Set(float64(cat.Len()))

	predictor, err := model.LoadActive(cfg.Model.RegistryPath, cfg.Model.ActiveID, features.Columns(), log)
	if err != nil {
		zapLog.Fatal("prediction model load failed", zap.Error(err))
	}

	// --- Build services ---
	engine := similarity.NewEngine(cat, similarity.Config{
		DefaultTopK: cfg.Similarity.DefaultTopK,
		MaxTopK:     cfg.Similarity.MaxTopK,
	}, log)
	aggregator := menu.NewAggregator(engine, log)
	analyzer := trends.NewAnalyzer(log)

	// High-waste alerts go out through SNS when enabled.
	var publisher alerting.Publisher
	if cfg.Alerts.Enabled && cfg.Integrations.AWS.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		publisher = snsClient
	}
	dispatcher := alerting.NewDispatcher(alerting.Config{
		Enabled:     cfg.Alerts.Enabled,
		ThresholdKg: cfg.Alerts.ThresholdKg,
		TopicARN:    cfg.Integrations.AWS.SNS.AlertTopicARN,
		QueueSize:   cfg.Alerts.QueueSize,
	}, publisher, log)
	dispatcher.Start()

	wastageSvc := wastage.NewService(
		wastage.NewStore(pg.DB, log),
		wastage.NewCache(redisClient.Client, time.Duration(cfg.Cache.WasteListTTL)*time.Millisecond, log),
		wastage.NewSearch(esClient.Client, cfg.Database.Elasticsearch.WasteIndex, log),
		analyzer,
		dispatcher,
		log,
	)
	forecastSvc := forecast.NewService(predictor, analyzer, wastageSvc, log)

	authSvc := authsvc.NewService(
		authsvc.NewUserStore(pg.DB, log),
		auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute),
		auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		authsvc.NewRevocationList(redisClient.Client, log),
		log,
	)
	if cfg.Integrations.AWS.SES.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		authSvc.WithMailer(sesClient, cfg.Integrations.AWS.SES.FromEmail)
	}
	if cfg.Integrations.CRM.Enabled {
		authSvc.WithContacts(crm.NewClient(cfg.Integrations.CRM.BaseURL, cfg.Integrations.CRM.AuthToken))
	}

	router := api.NewRouter(api.Dependencies{
		Logger:    log,
		Auth:      authSvc,
		Engine:    engine,
		Menu:      aggregator,
		Wastage:   wastageSvc,
		Forecast:  forecastSvc,
		Tracing:   tracing,
		Telemetry: obs,
		Checks: []api.ReadinessCheck{
			{Name: "postgres", Pinger: pg},
			{Name: "redis", Pinger: redisClient},
			{Name: "elasticsearch", Pinger: esClient},
		},
		CatalogCount: cat.Len(),
		ModelID:      predictor.ModelID(),
		Version:      cfg.App.Version,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	dispatcher.Stop(shutdownCtx)

	zapLog.Info("api-server stopped gracefully")
}
