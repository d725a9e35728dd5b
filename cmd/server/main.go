package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"parceldesk/internal/config"
	"parceldesk/internal/identity"
	"parceldesk/internal/repository/cache"
	"parceldesk/internal/repository/remote"
	"parceldesk/internal/repository/sheets"
	"parceldesk/internal/scheduler"
	"parceldesk/internal/server/handlers"
	"parceldesk/internal/server/router"
	"parceldesk/internal/service/reconciler"
	"parceldesk/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	var cacheStore cache.Store
	switch cfg.Cache.Backend {
	case config.CacheBackendMongo:
		mongoStore, err := cache.NewMongoStore(context.Background(), cfg.Cache.MongoURI, cfg.Cache.MongoDB)
		if err != nil {
			baseLogger.Fatal("failed to init mongo cache", zap.Error(err))
		}
		defer func() {
			if err := mongoStore.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		cacheStore = mongoStore
	default:
		fileStore, err := cache.NewFileStore(cfg.Cache.DataDir)
		if err != nil {
			baseLogger.Fatal("failed to init file cache", zap.Error(err))
		}
		cacheStore = fileStore
	}

	provisioner := identity.NewProvisioner(cfg.Cache.DataDir, baseLogger.Named("identity"))
	tenantID := provisioner.GetOrCreate()

	remoteClient := remote.NewClient(cfg.Remote, baseLogger.Named("repo.remote"))

	session := reconciler.NewSession(tenantID, remoteClient, remoteClient, cacheStore,
		reconciler.Options{
			AddPolicy: cfg.Sync.AddPolicy,
			NoticeTTL: cfg.Sync.NoticeTTL,
		},
		baseLogger.Named("svc.reconciler"))

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := session.Start(startCtx); err != nil {
		baseLogger.Fatal("failed to start session", zap.Error(err))
	}
	startCancel()

	// Optional spreadsheet export sink.
	var exporter sheets.Exporter
	if cfg.SheetsEnabled() {
		sheetExporter, err := sheets.NewGoogleSheetExporter(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets exporter", zap.Error(err))
		}
		exporter = sheetExporter
		baseLogger.Info("spreadsheet export enabled")
	} else {
		baseLogger.Info("spreadsheet export disabled, credentials missing")
	}

	packageHandler := handlers.NewPackageHandler(session, exporter, baseLogger.Named("handlers.packages"))
	engine := router.New(packageHandler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Sync.RefreshCron, session, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("tenant_id", tenantID))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
