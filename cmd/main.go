package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/govalues/money"
	"github.com/joho/godotenv"
	"log/slog"

	"github.com/arkcrm/rentledger/internal/events"
	kafkapub "github.com/arkcrm/rentledger/internal/events/kafka"
	"github.com/arkcrm/rentledger/internal/httpapi"
	"github.com/arkcrm/rentledger/internal/reslock"
	"github.com/arkcrm/rentledger/internal/service/payment"
	"github.com/arkcrm/rentledger/internal/service/reconcile"
	"github.com/arkcrm/rentledger/internal/storage/memory"
	pgstore "github.com/arkcrm/rentledger/internal/storage/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	// Logger (slog to stdout). Level via LOG_LEVEL; format via LOG_FORMAT (json|text, default json)
	logger := buildLoggerFromEnv()
	slog.SetDefault(logger)

	currency := strings.ToUpper(envOr("CURRENCY", "USD"))
	feeMinor := envInt64("PROGRAM_FEE_MINOR", 85000)
	defaultFee, err := money.NewAmountFromMinorUnits(currency, feeMinor)
	if err != nil {
		logger.Error("invalid CURRENCY/PROGRAM_FEE_MINOR", "currency", currency, "fee_minor", feeMinor, "err", err)
		os.Exit(1)
	}

	var (
		payRepo   payment.Repo
		payWriter payment.Writer
		syncRepo  reconcile.Repo
		syncWrite reconcile.Writer
		ready     httpapi.ReadyChecker
		closeFn   func()
	)

	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		pg, err := pgstore.Open(ctx, dsn, currency)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		closeFn = func() { pg.Close() }
		if devSeedEnabled() {
			res, err := pg.SeedDev(ctx)
			if err != nil {
				logger.Error("dev seed failed", "err", err)
			} else {
				logger.Info("DEV seed (postgres)", "resident_id", res.ID.String())
			}
		}
		payRepo, payWriter, syncRepo, syncWrite, ready = pg, pg, pg, pg, pg
		logger.Info("storage backend: postgres")
	} else {
		store := memory.New()
		payRepo, payWriter, syncRepo, syncWrite = store, store, store, store
		logger.Info("storage backend: memory")
	}

	var pub events.Publisher
	if brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); brokers != "" {
		kp := kafkapub.NewPublisher(strings.Split(brokers, ","))
		defer func() { _ = kp.Close() }()
		pub = kp
		logger.Info("event publisher: kafka", "brokers", brokers)
	}

	locks := reslock.New()
	paySvc := payment.New(payRepo, payWriter, locks, pub, logger, defaultFee)
	engine := reconcile.New(syncRepo, syncWrite, locks, logger, defaultFee)

	// Reconcile cached resident fields with the ledger before serving traffic.
	syncCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	sum, err := engine.Run(syncCtx)
	cancel()
	if err != nil {
		logger.Error("startup ledger sync failed", "err", err)
	} else {
		logger.Info("startup ledger sync complete",
			"scanned", sum.ResidentsScanned,
			"created", sum.RecordsCreated,
			"skipped", sum.Skipped,
			"failures", sum.Failures,
		)
	}

	srv := &http.Server{
		Addr:              ":" + envOr("PORT", "8080"),
		Handler:           httpapi.New(paySvc, engine, ready, logger).Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("rent ledger service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func devSeedEnabled() bool {
	dev := strings.ToLower(strings.TrimSpace(os.Getenv("DEV_SEED")))
	return dev == "1" || dev == "true" || dev == "yes"
}

// parseLogLevel maps env values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch s {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "WARN", "WARNING", "warn", "warning":
		return slog.LevelWarn
	case "ERROR", "ERR", "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLoggerFromEnv() *slog.Logger {
	level := parseLogLevel(os.Getenv("LOG_LEVEL"))
	format := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
