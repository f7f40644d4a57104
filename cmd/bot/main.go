package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hypertd/hyperhook/internal/config"
	"github.com/hypertd/hyperhook/internal/domain"
	"github.com/hypertd/hyperhook/internal/infrastructure/exchange"
	"github.com/hypertd/hyperhook/internal/infrastructure/logger"
	"github.com/hypertd/hyperhook/internal/infrastructure/notify"
	"github.com/hypertd/hyperhook/internal/infrastructure/storage"
	"github.com/hypertd/hyperhook/internal/usecase"
	"github.com/hypertd/hyperhook/internal/web"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the config file")
	flag.Parse()

	// 1. Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Init Storage
	store, err := storage.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		log.Fatal("Failed to init audit store", zap.Error(err))
	}
	defer store.Close()

	// 4. Init Exchange Clients
	data := exchange.NewDataClient(cfg.Exchange.APIURL, cfg.Exchange.AccountAddress, log)
	execClient, err := exchange.NewClient(
		cfg.Exchange.APIURL,
		cfg.Exchange.PrivateKey,
		cfg.Exchange.VaultAddress,
		cfg.Exchange.Mainnet,
		cfg.Trading.PremiumBps,
		data,
		log,
	)
	if err != nil {
		log.Fatal("Failed to init exchange client", zap.Error(err))
	}

	// 5. Init Notifier
	var notifier domain.Notifier
	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, log)
		if err != nil {
			log.Error("Failed to init telegram notifier, continuing without", zap.Error(err))
		} else {
			notifier = tg
		}
	}

	// 6. Init Services
	orders := usecase.NewOrderService(data, execClient, cfg.Trading.PremiumBps, cfg.Trading.DefaultLeverage, log)
	retrier := usecase.NewRetrier(log)
	alerts := usecase.NewAlertService(orders, retrier, store, notifier, cfg.Exchange.Subaccount, log)

	// 7. Start Price Feed
	feed := exchange.NewPriceFeed(cfg.Exchange.WSURL, log)
	feed.Start()
	defer feed.Close()

	// 8. Init Web Server
	srv := web.NewServer(web.Config{
		Port:               cfg.Server.Port,
		MaxPayloadBytes:    cfg.Server.MaxPayloadBytes,
		WebhookSecret:      cfg.Server.WebhookSecret,
		APIToken:           cfg.Server.APIToken,
		IPWhitelistEnabled: cfg.Server.IPWhitelistEnabled,
		TrustForwardedFor:  cfg.Server.TrustForwardedFor,
		WebhookIPs:         cfg.Server.WebhookIPs,
	}, alerts, store, feed, log)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal("Web server failed", zap.Error(err))
		}
	}()

	// 9. Wait for Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
