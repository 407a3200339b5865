package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"splitledger/internal/backend"
	"splitledger/internal/cache"
	"splitledger/internal/cli"
	"splitledger/internal/config"
	"splitledger/internal/csvio"
	"splitledger/internal/currency"
	apphttp "splitledger/internal/http"
	"splitledger/internal/ledger"
	applog "splitledger/internal/log"
	"splitledger/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger("info"))
	logger := cli.SetupLogger(cfg.LogLevel)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", applog.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	table, err := currency.Parse(cfg.Currencies, cfg.BaseCurrency)
	if err != nil {
		return fmt.Errorf("currency table: %w", err)
	}

	var ledgerOpts []ledger.Option
	if cfg.SeedDemo {
		ledgerOpts = append(ledgerOpts, ledger.WithRecords(ledger.DemoRecords()))
	}
	l := ledger.New(ledgerOpts...)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	infra, err := backend.NewFactory(logger).Create(ctx, bcfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := infra.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err.Error())
		}
	}()

	views := cache.NewLRUCache[services.View](cfg.ViewCacheSize, cfg.ViewCacheTTL)
	caches := cache.NewManager()
	caches.Register(views)
	caches.StartCleanup(ctx, time.Minute)
	defer caches.Stop()

	opts := services.Options{
		Ledger:             l,
		Currencies:         table,
		Codec:              csvio.NewCodec(cfg.UserAName, cfg.UserBName),
		HighlightThreshold: cfg.HighlightThreshold,
		Logger:             logger,
		Sheets:             infra.Sheets,
		ViewCache:          views,
	}
	if infra.Journal != nil {
		opts.Journal = infra.Journal
	}
	if infra.Publisher != nil {
		opts.Publisher = infra.Publisher
	}
	svc := services.NewLedgerService(opts)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Service:            svc,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	srv.BaseContext = func(net.Listener) context.Context { return ctx }

	var scheduler *services.ExportScheduler
	if cfg.SheetsExportSchedule != "" {
		scheduler = services.NewExportScheduler(svc, cfg.SheetsExportSchedule, logger)
		if err := scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start sheets export scheduler: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting splitledger server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"records", l.Len(),
			"base_currency", table.Base())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on :%s: %w", cfg.Port, err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if scheduler != nil {
			if err := scheduler.Stop(shutdownCtx); err != nil {
				logger.Warn("Export scheduler did not stop in time", applog.FieldError, err.Error())
			}
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
