package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feriapp/marketplace-api/internal/auth"
	"github.com/feriapp/marketplace-api/internal/config"
	"github.com/feriapp/marketplace-api/internal/httpx"
	kafkax "github.com/feriapp/marketplace-api/internal/kafka"
	"github.com/feriapp/marketplace-api/internal/metrics"
	"github.com/feriapp/marketplace-api/internal/notifications"
	"github.com/feriapp/marketplace-api/internal/orders"
	"github.com/feriapp/marketplace-api/internal/payments"
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
	log = log.With(zap.String("service", cfg.ServiceName))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr, cfg.RedisDB)
	defer rdb.Close()

	approvedProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderApproved, 1024, log)
	approvedProd.Start(ctx)
	manualProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicManualSale, 1024, log)
	manualProd.Start(ctx)

	orderRepo := &orders.Repo{DB: db}
	productRepo := &orders.ProductRepo{DB: db}
	methodRepo := &payments.PaymentMethodRepo{DB: db}
	notificationRepo := &notifications.Repo{DB: db}

	ledger := &orders.Ledger{
		Store:    orderRepo,
		Approved: approvedProd,
		Manual:   manualProd,
		Redis:    rdb,
		Log:      log,
		Service:  cfg.ServiceName,
	}
	m := metrics.New("marketplace")
	checkout := &payments.Service{
		Catalog:     productRepo,
		Credentials: methodRepo,
		Orders:      orderRepo,
		Gateway:     payments.MercadoPago{},
		FrontendURL: cfg.FrontendURL,
		Metrics:     m,
		Log:         log,
	}

	router := httpx.NewRouter(log, m)
	authed := auth.Middleware([]byte(cfg.AuthSecret))

	(&httpx.OrdersHandler{Ledger: ledger, Reader: orderRepo, Redis: rdb, Metrics: m, Log: log}).Register(router, authed)
	(&httpx.PaymentsHandler{Checkout: checkout, Methods: methodRepo, Log: log}).Register(router, authed)
	(&httpx.ProductsHandler{Products: productRepo, Ledger: ledger, Log: log}).Register(router, authed)
	(&httpx.NotificationsHandler{Store: notificationRepo, Log: log}).Register(router, authed)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)

	approvedProd.Close()
	manualProd.Close()
	cancel()
	approvedProd.WaitClosed()
	manualProd.WaitClosed()
}
