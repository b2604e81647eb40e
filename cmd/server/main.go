package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/quillpress/internal/config"
	"github.com/quillpress/internal/db"
	"github.com/quillpress/internal/logger"
	"github.com/quillpress/internal/router"
	"github.com/quillpress/internal/storage"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// .env 不存在时直接使用环境变量
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New("quillpress", cfg.Env)
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	source := cfg.DatabasePath
	if cfg.DatabaseDriver == db.DriverPostgres {
		source = cfg.DatabaseDSN
	}
	logLevel := gormlogger.Error
	if cfg.Development() {
		logLevel = gormlogger.Warn
	}
	if err := db.Init(cfg.DatabaseDriver, source, logLevel); err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}

	if err := db.EnsureUser(db.DB, cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
		log.WithError(err).Fatal("failed to ensure super user")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	media, closeMedia, err := storage.New(ctx, storage.Config{
		Backend:         cfg.MediaBackend,
		Root:            cfg.MediaRoot,
		URLPath:         cfg.MediaURLPath,
		Bucket:          cfg.GCSBucket,
		CredentialsPath: cfg.GCSCredentialsPath,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to initialize media storage")
	}
	defer func() {
		if err := closeMedia(); err != nil {
			log.WithError(err).Warn("failed to close media storage")
		}
	}()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.SetupRouter(cfg, db.DB, media, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to run server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
