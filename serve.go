package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BatmanBruc/bat-bot-sheets/internal/catalog"
	"github.com/BatmanBruc/bat-bot-sheets/internal/collector"
	"github.com/BatmanBruc/bat-bot-sheets/internal/handlers"
	"github.com/BatmanBruc/bat-bot-sheets/internal/metrics"
	"github.com/BatmanBruc/bat-bot-sheets/internal/middleware"
	"github.com/BatmanBruc/bat-bot-sheets/internal/scheduler"
	"github.com/BatmanBruc/bat-bot-sheets/internal/sheets"
	"github.com/BatmanBruc/bat-bot-sheets/store"
	"github.com/BatmanBruc/bat-bot-sheets/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot (default)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	holder, err := catalog.NewHolder(cfg.CatalogPath, logger.Named("catalog"))
	if err != nil {
		return err
	}
	logger.Info("catalog loaded", zap.String("path", cfg.CatalogPath), zap.Int("tables", len(holder.Catalog().Tables())))

	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
	if err != nil {
		return err
	}
	defer rdb.Close()
	sessions := store.NewSessionStore(rdb, cfg.SessionTTL)

	m := metrics.New()
	health := metrics.NewServer(cfg.MetricsAddr, m, logger.Named("http"))
	health.AddCheck("redis", rdb)
	holder.OnReload(func(_ *catalog.Catalog, err error) { m.ObserveCatalogReload(err == nil) })

	var (
		users   types.UserStore
		journal types.JournalStore
	)
	if cfg.PostgresDSN != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer pg.Close()
		users, journal = pg, pg
		health.AddCheck("postgres", pg)
	} else {
		logger.Warn("POSTGRES_DSN not set, submission journal disabled")
	}

	sheetsClient, err := sheets.New(ctx, cfg.GoogleCredentialsFile)
	if err != nil {
		return err
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst)
	mw := middleware.New(sessions, users, limiter, m, logger.Named("middleware"))
	h := handlers.NewHandlers(handlers.Deps{
		Sessions:      sessions,
		Catalog:       holder,
		Engine:        collector.New(collector.WithLocation(cfg.Location)),
		Appender:      sheetsClient,
		Journal:       journal,
		Metrics:       m,
		IsAdmin:       cfg.IsAdmin,
		AppendTimeout: cfg.AppendTimeout,
		Logger:        logger.Named("handlers"),
	})

	b, err := bot.New(cfg.BotToken,
		bot.WithHTTPClient(50*time.Second, &http.Client{Timeout: time.Minute}),
		bot.WithMiddlewares(mw.Chain()...),
		bot.WithDefaultHandler(h.MainHandler),
	)
	if err != nil {
		return err
	}

	sched := scheduler.NewScheduler(logger.Named("scheduler"))
	jobs := []scheduler.Job{
		&scheduler.HeaderCheckJob{Catalog: holder, Reader: sheetsClient, Spec: cfg.HeaderCheckSpec, Logger: logger.Named("header-check")},
		&scheduler.LimiterSweepJob{Limiter: limiter, Logger: logger},
	}
	if journal != nil {
		jobs = append(jobs, &scheduler.RetentionJob{Journal: journal, Days: cfg.RetentionDays, Spec: cfg.RetentionJobSpec, Logger: logger})
	}
	for _, j := range jobs {
		if err := sched.Register(j); err != nil {
			return err
		}
	}
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return holder.Watch(gctx) })
	if cfg.MetricsAddr != "" {
		g.Go(func() error { return health.Start(gctx) })
	}
	g.Go(func() error {
		logger.Info("bot started")
		b.Start(gctx)
		return nil
	})

	err = g.Wait()
	logger.Info("bot stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
