package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arnac-io/ordercheck/pkg/api"
	"github.com/arnac-io/ordercheck/pkg/app"
	"github.com/arnac-io/ordercheck/pkg/config"
)

const notActiveRetryDelay = 10 * time.Second

func main() {
	cfg := config.Load()
	log := app.Logger(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reconciler, err := app.NewReconciler(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to create reconciler", zap.Error(err))
	}
	if cfg.App.OrderCode.Cell() == nil {
		log.Warn("ORDER_CODE is not set, every request must carry order_code")
	}
	h := api.NewHandler(log, reconciler,
		api.WithOrderCode(cfg.App.OrderCode.Cell()),
		api.WithNotActiveRetries(cfg.API.NotActiveRetries, notActiveRetryDelay))
	server := api.NewServer(log, h, fmt.Sprintf(":%v", cfg.API.Port),
		api.WithHttpMiddleware(api.RateLimit(cfg.API.RateLimit)))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%v", cfg.App.MetricsPort),
		Handler: promhttp.Handler(),
	}
	go func() {
		if err := app.Serve(ctx, log, metricsServer); err != nil {
			log.Error("metrics server", zap.Error(err))
		}
	}()

	if err := server.Run(ctx); err != nil {
		log.Fatal("listen and serve", zap.Error(err))
	}
	log.Info("ordercheck api quit")
}
