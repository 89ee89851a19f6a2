package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"campusmart/internal/config"
	"campusmart/internal/http/handlers"
	"campusmart/internal/invoice"
	applog "campusmart/internal/log"
	"campusmart/internal/metrics"
	"campusmart/internal/notify"
	"campusmart/internal/repos"
)

func main() {
	if err := run(); err != nil {
		applog.Error(nil, "server.exit", err, nil)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			applog.Error(nil, "log.file.open", err, map[string]any{"path": cfg.LogFile})
		} else {
			defer f.Close()
			applog.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := repos.EnsureAdmin(ctx, db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return err
	}

	var dispatchers []notify.Dispatcher
	if cfg.SMTPHost != "" {
		mailer, err := notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
		if err != nil {
			return err
		}
		dispatchers = append(dispatchers, mailer)
	}
	if len(cfg.KafkaBrokers) > 0 {
		pub := notify.NewEventPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer pub.Close()
		dispatchers = append(dispatchers, pub)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	deps := handlers.NewDeps(db, cfg, notify.New(dispatchers...), invoice.NewGenerator(cfg.InvoiceDir), m)
	app := handlers.NewApp(deps)

	go sweepLimits(ctx, deps.Limiter, cfg.RateLimitWindow)

	errc := make(chan error, 1)
	go func() { errc <- app.Listen(":" + cfg.Port) }()
	applog.Info(nil, "server.start", map[string]any{"port": cfg.Port})

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	applog.Info(nil, "server.stop", nil)
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		applog.Error(nil, "server.shutdown", err, nil)
	}
	// drain side effects before the db closes
	deps.Orders.Wait()
	return nil
}

// sweepLimits drops expired rate-limit and csrf entries once per window.
func sweepLimits(ctx context.Context, store *repos.LimiterStore, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := store.Sweep(); err != nil {
				applog.Error(nil, "limiter.sweep", err, nil)
			}
		}
	}
}
