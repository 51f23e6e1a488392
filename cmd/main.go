package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oksasatya/foodgram/config"
	"github.com/oksasatya/foodgram/internal/application"
	"github.com/oksasatya/foodgram/internal/container"
	pginfra "github.com/oksasatya/foodgram/internal/infrastructure/postgres"
	"github.com/oksasatya/foodgram/internal/infrastructure/storage"
	"github.com/oksasatya/foodgram/internal/interface/middleware"
	"github.com/oksasatya/foodgram/internal/router"
	"github.com/oksasatya/foodgram/pkg/helpers"
	"github.com/oksasatya/foodgram/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	// Initialize Postgres pool
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	// Run migrations using database/sql with pgx stdlib
	if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		logger.Fatalf("migration failed: %v", err)
	}

	// Redis is optional: sessions, catalog cache and rate limits degrade without it
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.WithError(err).Warn("redis unavailable; running without sessions cache and shared rate limits")
		_ = rdb.Close()
		rdb = nil
	} else {
		defer func() { _ = rdb.Close() }()
	}
	cancelPing()

	images, closeImages := buildImageStore(ctx, cfg, logger)
	if cfg.PDFFontPath == "" {
		logger.Warn("PDF_FONT_PATH not set; shopping lists outside cp1252 are served as txt")
	} else if _, err := os.Stat(cfg.PDFFontPath); err != nil {
		logger.Fatalf("PDF_FONT_PATH: %v", err)
	}
	defer closeImages()

	// Elasticsearch user search
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Warn("elasticsearch disabled")
		} else if err := helpers.EnsureUsersIndex(ctx, es, cfg.ESUsersIndex); err != nil {
			logger.WithError(err).Warn("elasticsearch users index unavailable")
		} else {
			container.SetES(es)
		}
	}

	// RabbitMQ email queue
	if cfg.MailSendEnabled && cfg.RabbitMQURL != "" {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; notifications disabled")
		} else {
			defer pub.Close()
			container.SetRabbitPub(pub)
		}
	}

	// Provide infra singletons to container for registry auto-wiring
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)
	container.SetRedis(rdb)
	if images != nil {
		container.SetImageStore(images)
	}
	container.SetJWT(helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL))

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RealIP())
	r.Use(middleware.RequestIDMiddleware())
	// CORS
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled {
		r.Use(helpers.AccessLog(logger))
	} else if cfg.Env == "development" {
		r.Use(gin.Logger())
	}
	if cfg.DebugMetricsEnabled {
		r.Use(middleware.Metrics())
	}

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r)
	deps := router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	deps.Notifier.Wait()
	logger.Info("server exited properly")
}

// buildImageStore picks the bucket backend named by IMAGE_STORAGE. It returns nil when no bucket is configured.
func buildImageStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (application.ImageStore, func()) {
	noop := func() {}
	switch cfg.ImageStorage {
	case "s3":
		if cfg.S3Bucket == "" {
			break
		}
		s3, err := storage.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey)
		if err != nil {
			logger.WithError(err).Warn("s3 image storage disabled")
			return nil, noop
		}
		return s3, noop
	case "gcs":
		if cfg.GCSBucket == "" {
			break
		}
		client, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			logger.WithError(err).Warn("gcs image storage disabled")
			return nil, noop
		}
		return storage.NewGCSStore(client, cfg.GCSBucket), func() { _ = client.Close() }
	case "", "none":
	default:
		logger.Warnf("unknown IMAGE_STORAGE %q", cfg.ImageStorage)
	}
	logger.Info("image storage not configured; inline images are rejected")
	return nil, noop
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	// Open sql DB via pgx stdlib
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
