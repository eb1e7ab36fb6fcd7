// @title        flow-wallet API
// @version      1.0
// @description  Local wallet service: encrypted keys, Solana transfers and backend-coordinated order flows.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/AlexZinkM/flow-wallet/docs"
	"github.com/AlexZinkM/flow-wallet/flow"
	"github.com/AlexZinkM/flow-wallet/internal/api"
	"github.com/AlexZinkM/flow-wallet/internal/client"
	"github.com/AlexZinkM/flow-wallet/internal/config"
	"github.com/AlexZinkM/flow-wallet/internal/crypto"
	"github.com/AlexZinkM/flow-wallet/internal/handler"
	"github.com/AlexZinkM/flow-wallet/internal/logger"
	"github.com/AlexZinkM/flow-wallet/internal/vault"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := config.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg := config.Get()

	log := logger.NewLogger("flow-wallet", cfg.LogLevel)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	enc := crypto.NewEncryptionService([]byte(cfg.EncryptionSalt))
	v := vault.New(enc)

	pool := client.NewLedgerPool(client.LedgerOptions{
		Endpoint:        cfg.SolanaRPCURL,
		ConfirmTimeout:  cfg.ConfirmTimeout,
		PollInterval:    cfg.ConfirmPollInterval,
		FundingMode:     client.FundingMode(cfg.FundingMode),
		AirdropLamports: cfg.AirdropLamports,
	}, log.With("component", "ledger"))

	defaultLedger, err := pool.Get("")
	if err != nil {
		return fmt.Errorf("failed to create ledger client: %w", err)
	}
	ledgers := flow.LedgerProviderFunc(func(endpoint string) (flow.Ledger, error) {
		c, err := pool.Get(endpoint)
		if err != nil {
			return nil, err
		}
		return c, nil
	})

	backend, err := client.NewBackendClient(client.BackendConfig{
		BaseURL: cfg.BackendURL,
		Token:   cfg.BackendToken,
		Timeout: cfg.BackendTimeout,
	}, log.With("component", "backend"))
	if err != nil {
		return err
	}

	orchestrator := flow.New(backend, ledgers, v, flow.Options{
		FeeAmount:          cfg.FeeAmount,
		TokenDecimals:      cfg.TokenDecimals,
		MinBalanceLamports: cfg.MinBalanceLamports,
	}, log.With("component", "flow"))

	walletPath := config.GetWalletFilePath()
	walletHandler, err := handler.NewWalletHandler(v, backend, defaultLedger, walletPath, log.With("component", "wallet"))
	if err != nil {
		return err
	}
	flowHandler := handler.NewFlowHandler(orchestrator, log.With("component", "flows"))

	if address, err := vault.ReadWalletAddress(walletPath); err != nil {
		log.Warn().Err(err).Str("path", walletPath).Msg("no wallet yet, POST /wallet/generate to create one")
	} else {
		log.Info().Str("address", address).Msg("wallet loaded")
	}

	server := &http.Server{
		Addr:              ":" + config.GetPort(),
		Handler:           api.SetupRouter(flowHandler, walletHandler, log.With("component", "http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("rpc", config.GetSolanaRPCURL()).
			Str("funding_mode", cfg.FundingMode).
			Msg("launching HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	log.Info().Msg("server shut down gracefully")
	return nil
}
