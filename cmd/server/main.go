package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"linkvault/internal/config"
	"linkvault/internal/domain"
	apphttp "linkvault/internal/http"
	"linkvault/internal/service"
	"linkvault/internal/snapshot"
	"linkvault/internal/store"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if cfg.Auth.BootstrapAdmin == "" {
		logger.Fatalf("bootstrap admin username is required")
	}
	if !domain.ValidPIN(cfg.Auth.BootstrapPin) {
		logger.Fatalf("bootstrap admin pin must be 4 digits")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snaps, cleanup, err := buildSnapshotStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup snapshot storage: %v", err)
	}
	defer cleanup()

	snap, err := snaps.Load(ctx)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotExist) {
			logger.Infof("no snapshot found, starting with bootstrap admin %q", cfg.Auth.BootstrapAdmin)
		} else {
			logger.Warnf("load snapshot: %v (starting from defaults)", err)
		}
		snap = domain.Bootstrap(cfg.Auth.BootstrapAdmin, cfg.Auth.BootstrapPin, time.Now())
	}

	st := store.New(store.Options{
		Snapshot:  snap,
		Persister: snaps,
		TokenTTL:  time.Duration(cfg.Auth.TokenTTLHours) * time.Hour,
		Logger:    logger,
	})

	authService := service.NewAuthService(st)
	bookmarkService := service.NewBookmarkService(st)
	userService := service.NewUserService(st)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(authService, bookmarkService, userService, logger, cfg.Web.StaticDir)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	st.Close()

	logger.Info("bye")
}

func buildSnapshotStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (snapshot.Store, func(), error) {
	noop := func() {}

	switch cfg.Storage.Backend {
	case "", "file":
		logger.Infof("using snapshot file %s", cfg.Storage.Path)
		return snapshot.NewFileStore(cfg.Storage.Path), noop, nil

	case "sqlite":
		db, err := snapshot.OpenSQLite(cfg.Storage.Path)
		if err != nil {
			return nil, noop, err
		}
		sqlStore := snapshot.NewSQLiteStore(db)
		if err := sqlStore.Init(ctx); err != nil {
			db.Close()
			return nil, noop, err
		}
		logger.Infof("using sqlite snapshot db %s", cfg.Storage.Path)
		return sqlStore, func() { db.Close() }, nil

	case "s3":
		if cfg.Storage.Bucket == "" {
			return nil, noop, fmt.Errorf("storage bucket is required")
		}

		loadOpts := []func(*awscfg.LoadOptions) error{
			awscfg.WithRegion(cfg.Storage.Region),
		}
		if cfg.AWS.Profile != "" {
			loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
		}

		awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, noop, fmt.Errorf("load aws config: %w", err)
		}

		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Storage.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
				o.UsePathStyle = true
			}
		})
		logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
		return snapshot.NewS3Store(client, cfg.Storage.Bucket, cfg.Storage.KeyPrefix), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
