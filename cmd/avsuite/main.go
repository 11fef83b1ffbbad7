package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/ambrevelours/av-suite/internal/app"
	"github.com/ambrevelours/av-suite/internal/auth"
	"github.com/ambrevelours/av-suite/internal/observability"
	"github.com/ambrevelours/av-suite/internal/store"
	"github.com/ambrevelours/av-suite/jobs"
)

func main() {
	hashToken := flag.String("hash-token", "", "print the bcrypt hash of an API token for API_TOKEN_HASH and exit")
	enqueue := flag.String("enqueue", "", "enqueue a job (replenish or ledger) and exit")
	flag.Parse()

	if *hashToken != "" {
		hash, err := auth.HashToken(*hashToken)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if *enqueue != "" {
		if err := enqueueJob(ctx, cfg, *enqueue); err != nil {
			logger.Error("enqueue job", slog.String("job", *enqueue), slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	res, err := app.OpenResources(ctx, cfg, logger)
	if err != nil {
		logger.Error("open resources", slog.Any("error", err))
		os.Exit(1)
	}
	defer res.Close()

	provider, err := app.NewProvider(ctx, cfg, res)
	if err != nil {
		logger.Error("init store provider", slog.String("driver", cfg.StoreDriver), slog.Any("error", err))
		os.Exit(1)
	}
	st, err := store.Open(ctx, provider, store.WithLogger(logger))
	if err != nil {
		logger.Error("open store", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	services := app.NewServices(st, cfg, logger, metrics, res.Redis)
	params := app.NewHandlers(services, cfg, logger, metrics)
	if cfg.APITokenHash == "" {
		logger.Warn("API_TOKEN_HASH is empty, write endpoints are unauthenticated")
	}

	var worker *jobs.Worker
	if res.Redis != nil {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("close asynq inspector", slog.Any("error", err))
			}
		}()
		params.JobHandler = jobs.NewHandler(inspector, logger)

		if cfg.WorkerEmbedded {
			cron, err := app.CronSchedule(cfg, time.Now())
			if err != nil {
				logger.Error("build cron schedule", slog.Any("error", err))
				os.Exit(1)
			}
			worker, err = jobs.NewWorker(jobs.WorkerConfig{
				RedisOpts:   redisOpts,
				Logger:      logger,
				Concurrency: cfg.WorkerConcurrency,
				Handlers:    app.TaskHandlers(services.Replenish, services.Inventory, cfg, logger, metrics),
				Cron:        cron,
			})
			if err != nil {
				logger.Error("init worker", slog.Any("error", err))
				os.Exit(1)
			}
		}
	}

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      app.NewRouter(params),
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("store", cfg.StoreDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if worker != nil {
		g.Go(func() error {
			logger.Info("starting embedded worker")
			if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("runtime", slog.Any("error", err))
		os.Exit(1)
	}
}

func enqueueJob(ctx context.Context, cfg *app.Config, name string) error {
	client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		return err
	}
	defer client.Close()

	kind := name
	switch name {
	case "replenish":
		kind = jobs.TaskReplenishScan
	case "ledger":
		kind = jobs.TaskLedgerVerify
	}
	info, err := client.Enqueue(ctx, kind)
	if err != nil {
		return err
	}
	fmt.Println(info.ID)
	return nil
}
