package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"stockbook/internal/config"
	"stockbook/internal/repository/github"
	"stockbook/internal/scheduler"
	"stockbook/internal/server/handlers"
	"stockbook/internal/server/router"
	financesvc "stockbook/internal/service/finance"
	ledgersvc "stockbook/internal/service/ledger"
	syncsvc "stockbook/internal/service/sync"
	"stockbook/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ledgerSvc := ledgersvc.NewService(baseLogger.Named("svc.ledger"))

	clientFactory := func(cc github.ClientConfig) syncsvc.RemoteClient {
		cc.BaseURL = cfg.GitHub.BaseURL
		return github.NewClient(cc, baseLogger.Named("repo.github"))
	}
	orch := syncsvc.New(cfg.GitHub.DataFile, clientFactory, baseLogger.Named("svc.sync"))
	orch.OnDisconnect(ledgerSvc.Reset)

	rebuilder := financesvc.NewRebuilder(baseLogger.Named("svc.finance"))

	if cfg.HasConnection() {
		connectCtx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
		info, err := orch.Connect(connectCtx, cfg.GitHub.Owner, cfg.GitHub.Repo, cfg.GitHub.Token)
		if err != nil {
			baseLogger.Fatal("startup connect failed", zap.Error(err))
		}
		fetched, err := orch.FetchData(connectCtx)
		cancel()
		if err != nil {
			baseLogger.Fatal("startup fetch failed", zap.Error(err))
		}
		ledgerSvc.Load(fetched.Document)
		baseLogger.Info("connected at startup",
			zap.String("repo", info.FullName),
			zap.Bool("newFile", fetched.IsNewFile))
	} else {
		baseLogger.Info("no startup connection configured, waiting for /api/connect")
	}

	syncHandler := handlers.NewSyncHandler(orch, ledgerSvc, baseLogger.Named("handlers.sync"))
	ledgerHandler := handlers.NewLedgerHandler(ledgerSvc, baseLogger.Named("handlers.ledger"))
	financeHandler := handlers.NewFinanceHandler(ledgerSvc, rebuilder, baseLogger.Named("handlers.finance"))
	backupHandler := handlers.NewBackupHandler(ledgerSvc, baseLogger.Named("handlers.backup"))

	engine := router.New(cfg.CORS, syncHandler, ledgerHandler, financeHandler, backupHandler, baseLogger.Named("router"))

	sched := scheduler.New(cfg.Sync, ledgerSvc, orch, rebuilder, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
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
