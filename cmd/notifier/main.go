package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feriapp/marketplace-api/internal/config"
	kafkax "github.com/feriapp/marketplace-api/internal/kafka"
	"github.com/feriapp/marketplace-api/internal/notifications"
	"github.com/feriapp/marketplace-api/internal/orders"
	"github.com/feriapp/marketplace-api/internal/postgres"
	"github.com/feriapp/marketplace-api/internal/redisx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	log = log.With(zap.String("service", cfg.ServiceName+"-notifier"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr, cfg.RedisDB)
	defer rdb.Close()

	dispatcher := &notifications.Dispatcher{
		Store: &notifications.Repo{DB: db},
		Dedup: &notifications.RedisDeduper{R: rdb, Service: "notifier"},
		Log:   log,
	}

	approvedCons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, orders.TopicOrderApproved, cfg.NotifierWorkers, log)
	manualCons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, orders.TopicManualSale, cfg.NotifierWorkers, log)

	go func() {
		log.Info("consumer started", zap.String("topic", orders.TopicOrderApproved))
		if err := approvedCons.Start(ctx, dispatcher.HandleOrderApproved); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()
	go func() {
		log.Info("consumer started", zap.String("topic", orders.TopicManualSale))
		if err := manualCons.Start(ctx, dispatcher.HandleManualSale); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down consumers")
	cancel()
	time.Sleep(500 * time.Millisecond)
}
