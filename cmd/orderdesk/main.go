package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"orderdesk/config"
	"orderdesk/internal/broker"
	"orderdesk/internal/composer"
	"orderdesk/internal/formstore"
	"orderdesk/internal/gateway"
	"orderdesk/internal/journal"
	"orderdesk/internal/logger"
	"orderdesk/internal/metrics"
	"orderdesk/internal/model"
	"orderdesk/internal/monitor"
	"orderdesk/internal/notification"
	"orderdesk/internal/portfolio"
)

var processStart = time.Now()

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	cfg := config.Load()
	slogger := logger.Init("orderdesk", logger.ParseLevel(cfg.LogLevel))
	slogger.Info("starting", slog.String("listen", cfg.ListenAddr))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	met := metrics.New()

	// ---- Broker client ----
	brk, err := broker.New(broker.Config{
		BaseURL:    cfg.BrokerBaseURL,
		Timeout:    cfg.BrokerTimeout,
		ClientCode: cfg.BrokerClientCode,
		Password:   cfg.BrokerPassword,
		TOTPSecret: cfg.BrokerTOTPSecret,
	})
	if err != nil {
		log.Fatalf("[main] broker client: %v", err)
	}
	brk.SetMetrics(met)
	if err := brk.Login(ctx); err != nil {
		log.Fatalf("[main] broker login failed: %v", err)
	}

	// ---- Action journal (off hot path) ----
	os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755)
	jnl, err := journal.New(journal.Config{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[main] journal init failed: %v", err)
	}
	defer jnl.Close()

	// ---- Form snapshot store ----
	store := formstore.NewRedis(formstore.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer store.Close()

	// ---- Composer ----
	comp := composer.New(ctx, store, brk, jnl)
	symbols := composer.NewSymbolSearcher(brk)

	// ---- Portfolio ----
	pf := portfolio.New(brk)

	// ---- Notifications ----
	var backends []notification.Notifier
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		backends = append(backends, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	if cfg.WebhookURL != "" {
		backends = append(backends, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	notify := notification.NewFanout(backends...)

	// ---- Monitor + WS hub ----
	hub := gateway.NewHub(met)
	mon := monitor.New(brk,
		monitor.WithInterval(cfg.PollInterval),
		monitor.WithJournal(jnl),
		monitor.WithMetrics(met),
	)
	mon.OnUpdate = hub.BroadcastOrders
	mon.OnRejected = func(orders []model.OrderRecord) {
		hub.BroadcastRejected(orders)
		alertCtx, alertCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer alertCancel()
		notify.Send(alertCtx, notification.RejectedOrdersAlert(orders))
	}
	hub.OnVisibility = mon.SetVisible

	go mon.Run(ctx)
	go hub.StartSessionBroadcast(ctx.Done())

	// ---- HTTP surface ----
	mux := http.NewServeMux()
	gateway.RegisterRoutes(mux, gateway.Deps{
		Composer:   comp,
		Symbols:    symbols,
		Monitor:    mon,
		Broker:     brk,
		Portfolio:  pf,
		Journal:    jnl,
		Hub:        hub,
		Start:      processStart,
		StoreState: func() string { return store.BreakerState().String() },
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slogger.Info("http listening", slog.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] http server: %v", err)
		}
	}()

	<-sigCh
	slogger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] http shutdown: %v", err)
	}
}
