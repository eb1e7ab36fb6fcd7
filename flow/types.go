package flow

import (
	"context"
	"time"

	"github.com/AlexZinkM/flow-wallet/internal/client"
	"github.com/AlexZinkM/flow-wallet/internal/model"

	"github.com/gagliardetto/solana-go"
)

// Phase is the position of a flow in its state machine.
type Phase string

const (
	PhaseIdle                   Phase = "Idle"
	PhaseInitiated              Phase = "Initiated"
	PhaseReadyToSign            Phase = "ReadyToSign"
	PhaseOnLedgerSubmitted      Phase = "OnLedgerSubmitted"
	PhaseOnLedgerConfirmed      Phase = "OnLedgerConfirmed"
	PhaseBackendCommitted       Phase = "BackendCommitted"
	PhaseSucceeded              Phase = "Succeeded"
	PhaseFailedAtInit           Phase = "FailedAtInit"
	PhaseFailedAtUnlock         Phase = "FailedAtUnlock"
	PhaseFailedAtTransfer       Phase = "FailedAtTransfer"
	PhaseFailedAtCommit         Phase = "FailedAtCommit"
	PhaseCancelled              Phase = "Cancelled"
	PhaseReconciliationRequired Phase = "ReconciliationRequired"
)

// transitions lists the phases reachable from each phase. Failed phases
// return to Initiated on retry, or straight to OnLedgerConfirmed when the
// previous submission turns out to have landed.
var transitions = map[Phase][]Phase{
	PhaseIdle:              {PhaseInitiated},
	PhaseInitiated:         {PhaseReadyToSign, PhaseFailedAtInit, PhaseFailedAtTransfer, PhaseCancelled, PhaseOnLedgerConfirmed},
	PhaseReadyToSign:       {PhaseOnLedgerSubmitted, PhaseFailedAtUnlock, PhaseFailedAtTransfer, PhaseCancelled},
	PhaseOnLedgerSubmitted: {PhaseOnLedgerConfirmed, PhaseFailedAtTransfer},
	PhaseOnLedgerConfirmed: {PhaseBackendCommitted, PhaseFailedAtCommit},
	PhaseBackendCommitted:  {PhaseSucceeded, PhaseInitiated},
	PhaseFailedAtInit:      {PhaseInitiated, PhaseOnLedgerConfirmed},
	PhaseFailedAtUnlock:    {PhaseInitiated, PhaseOnLedgerConfirmed},
	PhaseFailedAtTransfer:  {PhaseInitiated, PhaseOnLedgerConfirmed},
	PhaseCancelled:         {PhaseInitiated, PhaseOnLedgerConfirmed},
	PhaseFailedAtCommit:    {PhaseBackendCommitted, PhaseFailedAtCommit, PhaseReconciliationRequired},
}

func canTransition(from, to Phase) bool {
	for _, p := range transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the flow stopped in this phase.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseSucceeded, PhaseFailedAtInit, PhaseFailedAtUnlock, PhaseFailedAtTransfer,
		PhaseFailedAtCommit, PhaseCancelled, PhaseReconciliationRequired:
		return true
	}
	return false
}

// Retryable reports whether Retry accepts a flow in this phase.
func (p Phase) Retryable() bool {
	switch p {
	case PhaseFailedAtInit, PhaseFailedAtUnlock, PhaseFailedAtTransfer, PhaseFailedAtCommit, PhaseCancelled:
		return true
	}
	return false
}

// Outcome is the user-facing result of a finished flow.
type Outcome string

const (
	OutcomeNone                   Outcome = ""
	OutcomeSucceeded              Outcome = "Succeeded"
	OutcomeTransferFailed         Outcome = "TransferFailed"
	OutcomeMintingFailed          Outcome = "MintingFailed"
	OutcomeCancelled              Outcome = "Cancelled"
	OutcomeReconciliationRequired Outcome = "ReconciliationRequired"
)

func outcomeFor(phase Phase, stage model.Stage) Outcome {
	switch phase {
	case PhaseSucceeded:
		return OutcomeSucceeded
	case PhaseCancelled:
		return OutcomeCancelled
	case PhaseReconciliationRequired:
		return OutcomeReconciliationRequired
	case PhaseFailedAtInit, PhaseFailedAtUnlock, PhaseFailedAtTransfer, PhaseFailedAtCommit:
		if stage == model.StageMint {
			return OutcomeMintingFailed
		}
		return OutcomeTransferFailed
	}
	return OutcomeNone
}

// State is a snapshot of a flow.
type State struct {
	ID                       string         `json:"id"`
	Kind                     model.FlowKind `json:"kind"`
	Stage                    model.Stage    `json:"stage"`
	Phase                    Phase          `json:"phase"`
	Outcome                  Outcome        `json:"outcome,omitempty"`
	OrderID                  string         `json:"orderId"`
	Attempt                  int            `json:"attempt"`
	LastTransactionSignature string         `json:"lastTransactionSignature,omitempty"`
	FeeSignature             string         `json:"feeSignature,omitempty"`
	Error                    string         `json:"-"` // internal cause, never shown to users
	Message                  string         `json:"message,omitempty"`
	UpdatedAt                time.Time      `json:"updatedAt"`
}

// Params are the caller's inputs to a flow.
type Params struct {
	OrderID string
	// Amount in token units for EscrowTransfer; "" or "1" for OwnershipTransfer.
	Amount    string
	Recipient solana.PublicKey // new owner for OwnershipTransfer
	AssetID   solana.PublicKey // asset hint; the backend's answer wins
	// ProofSignature is the confirmed fee transfer, only needed to resume a
	// FeeTransferAndMint flow at its mint stage.
	ProofSignature solana.Signature
}

// Ledger is what a flow needs from the chain. *client.LedgerClient implements it.
type Ledger interface {
	EnsureMinimumBalance(ctx context.Context, owner solana.PublicKey, threshold uint64) error
	BuildTransfer(ctx context.Context, plan model.TransferPlan) (*client.UnsignedTransaction, error)
	PrepareMintCompletion(ctx context.Context, encodedTx string, signer solana.PublicKey) (*client.UnsignedTransaction, error)
	SubmitAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	SignatureStatus(ctx context.Context, sig solana.Signature) (client.TxStatus, error)
	BlockHeight(ctx context.Context) (uint64, error)
}

var _ Ledger = (*client.LedgerClient)(nil)

// LedgerProvider returns the ledger for an RPC endpoint; empty means default.
type LedgerProvider interface {
	Ledger(endpoint string) (Ledger, error)
}

// LedgerProviderFunc adapts a function to LedgerProvider.
type LedgerProviderFunc func(endpoint string) (Ledger, error)

func (f LedgerProviderFunc) Ledger(endpoint string) (Ledger, error) {
	return f(endpoint)
}

// Options are the fixed business parameters of flows.
type Options struct {
	FeeAmount          string // fee in token units, "20"
	TokenDecimals      uint8  // used unless the backend names decimals
	MinBalanceLamports uint64 // SOL the payer must hold before signing
}
