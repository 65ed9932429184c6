package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"blockfeed/internal/alert"
	"blockfeed/internal/cache"
	"blockfeed/internal/client/indexer"
	"blockfeed/internal/config"
	cronrunner "blockfeed/internal/cron"
	"blockfeed/internal/db"
	"blockfeed/internal/handler"
	"blockfeed/internal/logger"
	"blockfeed/internal/registry"
	gormrepository "blockfeed/internal/repository/gorm"
	"blockfeed/internal/service"
)

func main() {
	cfgPath := os.Getenv("BF_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("BF_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	notifier, err := alert.NewNotifier(cfg.Alerts.TelegramToken, cfg.Alerts.TelegramChatID, logger)
	if err != nil {
		logger.Warn("telegram notifier disabled", zap.Error(err))
	}

	indexerHTTP := &http.Client{Timeout: cfg.Indexer.Timeout}
	indexerClient := indexer.NewClient(indexerHTTP, cfg.Indexer.BaseURL, cfg.Indexer.MaxRetries)

	store := gormrepository.New(dbConn.Gorm)
	reg := registry.New(store, logger, cfg.Moderation.LiteralBans)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := reg.RefreshFeeds(ctx); err != nil {
		logger.Warn("initial feed refresh failed", zap.Error(err))
	}
	if err := reg.RefreshModeration(ctx); err != nil {
		logger.Warn("initial moderation refresh failed", zap.Error(err))
	}
	if _, err := reg.ProvisionFeed(ctx, cfg.GlobalFeedID); err != nil {
		logger.Fatal("global feed provisioning failed", zap.Error(err))
	}

	feedCache := cache.New(store, reg, logger, cfg.Cache.WindowSize)
	if err := feedCache.RefreshAll(ctx); err != nil {
		logger.Warn("initial cache fill failed", zap.Error(err))
	}

	ingest := &service.IngestService{
		Store:     store,
		Indexer:   indexerClient,
		Registry:  reg,
		Publisher: service.RedisPublisher{Client: redisClient},
		Notifier:  notifier,
		Logger:    logger,
	}
	poller := &service.PollerService{
		Store:          store,
		Ingest:         ingest,
		Registry:       reg,
		Cache:          feedCache,
		Notifier:       notifier,
		Logger:         logger,
		PageLimit:      cfg.Indexer.PageLimit,
		AlertThreshold: cfg.Poller.AlertThreshold,
	}
	restore := &service.RestoreService{
		Store:   store,
		Indexer: indexerClient,
		Ingest:  ingest,
		Logger:  logger,
	}

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Poller.Enabled {
		_, err = cronRunner.Add("@every "+cfg.Poller.Interval.String(), poller.Tick)
		if err != nil {
			logger.Warn("cron register poller failed", zap.Error(err))
		}
		_, err = cronRunner.Add(cfg.Poller.ReconcileSpec, poller.Reconcile)
		if err != nil {
			logger.Warn("cron register reconcile failed", zap.Error(err))
		}
	}
	_, err = cronRunner.Add("@every "+cfg.Registry.FeedsInterval.String(), func(ctx context.Context) {
		if err := reg.RefreshFeeds(ctx); err != nil {
			logger.Warn("feed refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Warn("cron register feed refresh failed", zap.Error(err))
	}
	_, err = cronRunner.Add("@every "+cfg.Registry.ListsInterval.String(), func(ctx context.Context) {
		if err := reg.RefreshModeration(ctx); err != nil {
			logger.Warn("moderation refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Warn("cron register moderation refresh failed", zap.Error(err))
	}
	_, err = cronRunner.Add("@every "+cfg.Cache.RefreshInterval.String(), func(ctx context.Context) {
		if err := feedCache.RefreshAll(ctx); err != nil {
			logger.Warn("cache refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Warn("cron register cache refresh failed", zap.Error(err))
	}
	if cfg.Restore.Enabled {
		_, err = cronRunner.Add("@every "+cfg.Restore.Interval.String(), restore.Run)
		if err != nil {
			logger.Warn("cron register content restore failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	if cfg.Push.Enabled {
		pusher := &service.PusherService{
			Redis:        redisClient,
			Store:        store,
			Logger:       logger,
			VAPIDPublic:  cfg.Push.VAPIDPublicKey,
			VAPIDPrivate: cfg.Push.VAPIDPrivateKey,
			Subscriber:   cfg.Push.Subscriber,
		}
		go func() {
			if err := pusher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("push service stopped", zap.Error(err))
			}
		}()
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	postsHandler := &handler.PostsHandler{
		Store:        store,
		Cache:        feedCache,
		Registry:     reg,
		Logger:       logger,
		GlobalFeedID: strings.ToLower(cfg.GlobalFeedID),
		JWTSecret:    cfg.Auth.JWTSecret,
	}
	postsHandler.Register(engine)
	feedsHandler := &handler.FeedsHandler{
		Store:     store,
		Registry:  reg,
		JWTSecret: cfg.Auth.JWTSecret,
	}
	feedsHandler.Register(engine)
	adminHandler := &handler.AdminHandler{
		Store:     store,
		Cache:     feedCache,
		Registry:  reg,
		Logger:    logger,
		JWTSecret: cfg.Auth.JWTSecret,
	}
	adminHandler.Register(engine)
	subscriptionHandler := &handler.SubscriptionHandler{
		Store:     store,
		JWTSecret: cfg.Auth.JWTSecret,
	}
	subscriptionHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
