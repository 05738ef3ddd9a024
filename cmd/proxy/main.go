// Proxy relay: forwards browser calls to the metadata, trade and bundle services.
// Usage: go run ./cmd/proxy
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlexZinkM/pump-desk/internal/api"
	"github.com/AlexZinkM/pump-desk/internal/common"
	"github.com/AlexZinkM/pump-desk/internal/config"
	"github.com/AlexZinkM/pump-desk/internal/proxy"

	"go.uber.org/zap"
)

func main() {
	if err := config.Init(); err != nil {
		logger, _ := zap.NewProduction()
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	cfg := config.Get()

	logger, loggerCleanup := common.InitializeLogger(cfg.LogLevel)
	defer loggerCleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	relay := proxy.NewRelay(proxy.Config{
		IPFSURL:      cfg.IPFSUpstreamURL,
		TradeURL:     cfg.TradeUpstreamURL,
		JitoURL:      cfg.JitoUpstreamURL,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Timeout:      cfg.HTTPTimeout,
	}, logger, proxy.NewMetrics())

	logger.Info("Starting proxy relay",
		zap.String("ipfs", cfg.IPFSUpstreamURL),
		zap.String("trade", cfg.TradeUpstreamURL),
		zap.String("jito", cfg.JitoUpstreamURL))

	if err := api.Serve(ctx, logger, ":"+config.GetProxyPort(), api.SetupProxyRouter(relay, cfg.AllowedOrigins)); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
