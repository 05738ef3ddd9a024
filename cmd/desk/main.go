// Desk API: wallet manager, trade and launch flows, settings and activity.
// Usage: WALLET_FILE_PATH=wallets.cwt go run ./cmd/desk
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlexZinkM/pump-desk/internal/activity"
	"github.com/AlexZinkM/pump-desk/internal/api"
	"github.com/AlexZinkM/pump-desk/internal/auth"
	"github.com/AlexZinkM/pump-desk/internal/client"
	"github.com/AlexZinkM/pump-desk/internal/common"
	"github.com/AlexZinkM/pump-desk/internal/config"
	"github.com/AlexZinkM/pump-desk/internal/crypto"
	"github.com/AlexZinkM/pump-desk/internal/handler"
	"github.com/AlexZinkM/pump-desk/internal/journal"
	"github.com/AlexZinkM/pump-desk/internal/model"
	"github.com/AlexZinkM/pump-desk/internal/settings"
	"github.com/AlexZinkM/pump-desk/internal/wallet"
	"github.com/AlexZinkM/pump-desk/solana"

	"go.uber.org/zap"
)

// @title        Pump Desk API
// @version      1.0
// @description  Wallet manager, token launch and trade desk for pump.fun tokens
// @host         localhost:8080
// @BasePath     /
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

	if err := config.PromptForPassword(); err != nil {
		logger.Fatal("Failed to read wallet password", zap.Error(err))
	}

	keystore, wallets, err := openKeystore(config.GetWalletFilePath(), logger)
	if err != nil {
		logger.Fatal("Failed to open keystore", zap.Error(err))
	}
	store := wallet.NewStore(keystore, wallets)
	logger.Info("Keystore unlocked", zap.String("file", keystore.Path()), zap.Int("wallets", store.Len()))

	history, err := journal.NewService(ctx, logger, cfg.JournalDBPath)
	if err != nil {
		logger.Fatal("Failed to open journal", zap.Error(err))
	}
	defer history.Close()

	manager, err := settings.NewManager(cfg.SettingsFilePath)
	if err != nil {
		logger.Fatal("Failed to load settings", zap.Error(err))
	}

	rpc := client.NewSolanaClient(config.GetSolanaRPCURL(), cfg.SolanaCommitment)
	tracker := wallet.NewTracker(store, rpc, client.NewCoinGeckoClient(""), cfg.BalanceRefresh, logger)
	go tracker.Run(ctx)

	feed := activity.NewFeed()
	flows := solana.NewService(
		client.NewProxyClient(cfg.ProxyURL, cfg.HTTPTimeout),
		rpc,
		store,
		solana.NewRecorder(feed, history, logger),
		logger,
		cfg.ConfirmTimeout,
	)

	var directory auth.Directory
	if cfg.AuthURL != "" {
		directory = auth.NewSupabaseDirectory(cfg.AuthURL, cfg.AuthAPIKey, cfg.HTTPTimeout)
	} else {
		logger.Warn("AUTH_URL not set, desk API is not protected")
	}
	sessions := auth.NewSessions(directory, auth.DefaultSessionTTL, logger)

	router := api.SetupRouter(api.Handlers{
		Wallets:  handler.NewWalletHandler(store, tracker, logger),
		Flows:    handler.NewFlowHandler(flows, manager, logger),
		Desk:     handler.NewDeskHandler(manager, feed, history, sessions, logger),
		Sessions: sessions,
	}, cfg.AllowedOrigins)

	if err := api.Serve(ctx, logger, ":"+config.GetPort(), router); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// openKeystore unlocks the keystore at path, creating an empty one when none exists
func openKeystore(path string, logger *zap.Logger) (*crypto.Keystore, []model.Wallet, error) {
	password, err := config.GetWalletPasswordBytes()
	if err != nil {
		return nil, nil, err
	}
	defer clear(password)

	if !crypto.Exists(path) {
		logger.Info("Creating new keystore", zap.String("file", path))
		ks, err := crypto.Create(path, password, crypto.DefaultKDFParams)
		return ks, nil, err
	}

	ks, data, err := crypto.Open(path, password)
	if err != nil {
		return nil, nil, err
	}
	return ks, data.Wallets, nil
}
