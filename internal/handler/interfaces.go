package handler

//go:generate mockgen -source=interfaces.go -destination=../mock/handler_mock.go -package=mock

import (
	"context"

	"github.com/AlexZinkM/flow-wallet/flow"
	"github.com/AlexZinkM/flow-wallet/internal/client"
	"github.com/AlexZinkM/flow-wallet/internal/model"

	"github.com/gagliardetto/solana-go"
)

// Flows runs wallet flows. *flow.Orchestrator implements it.
type Flows interface {
	StartFlow(ctx context.Context, kind model.FlowKind, params flow.Params, secret []byte) (*flow.Handle, error)
	Retry(ctx context.Context, id string, secret []byte) (*flow.Handle, error)
	Resume(ctx context.Context, kind model.FlowKind, params flow.Params, stage model.Stage, sig solana.Signature, secret []byte) (*flow.Handle, error)
	Cancel(ctx context.Context, id string) (flow.State, error)
	Get(id string) (flow.State, error)
	Handle(id string) (*flow.Handle, error)
}

// WalletRegistrar stores new wallet records with the backend.
type WalletRegistrar interface {
	RegisterWallet(ctx context.Context, record model.WalletRecord) error
}

// WalletLedger is what the wallet endpoints need from the chain.
type WalletLedger interface {
	Balance(ctx context.Context, owner solana.PublicKey) (uint64, error)
	ResolveOrCreateTokenAccount(ctx context.Context, payer client.Signer, owner, mint solana.PublicKey) (solana.PublicKey, error)
}

var (
	_ Flows           = (*flow.Orchestrator)(nil)
	_ WalletRegistrar = (*client.BackendClient)(nil)
	_ WalletLedger    = (*client.LedgerClient)(nil)
)
