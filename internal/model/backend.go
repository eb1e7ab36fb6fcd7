package model

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// FlowKind names a multi-phase flow.
type FlowKind string

const (
	FlowFeeTransferAndMint FlowKind = "FeeTransferAndMint"
	FlowEscrowTransfer     FlowKind = "EscrowTransfer"
	FlowOwnershipTransfer  FlowKind = "OwnershipTransfer"
)

// ParseFlowKind validates a flow kind coming from the API.
func ParseFlowKind(s string) (FlowKind, error) {
	switch k := FlowKind(s); k {
	case FlowFeeTransferAndMint, FlowEscrowTransfer, FlowOwnershipTransfer:
		return k, nil
	default:
		return "", fmt.Errorf("unknown flow kind %q", s)
	}
}

// Stage is the sub-flow a phase belongs to. Only FeeTransferAndMint has a
// mint stage.
type Stage string

const (
	StageTransfer Stage = "transfer"
	StageMint     Stage = "mint"
)

// ParseStage validates a stage name; empty means transfer.
func ParseStage(s string) (Stage, error) {
	switch st := Stage(s); st {
	case "", StageTransfer:
		return StageTransfer, nil
	case StageMint:
		return StageMint, nil
	default:
		return "", fmt.Errorf("unknown stage %q", s)
	}
}

// InitRequest is sent to the backend to open a phase.
type InitRequest struct {
	Kind           FlowKind `json:"-"`
	Stage          Stage    `json:"stage"`
	OrderID        string   `json:"orderId"`
	Amount         string   `json:"amount,omitempty"`
	Recipient      string   `json:"recipient,omitempty"`
	AssetID        string   `json:"assetId,omitempty"`
	ProofSignature string   `json:"proofSignature,omitempty"` // fee signature when opening the mint stage
}

// InitResult is what the backend hands back for a phase.
type InitResult struct {
	Destination     solana.PublicKey `json:"destination"`               // treasury, escrow or recipient owner
	RPCEndpoint     string           `json:"rpcEndpoint,omitempty"`     // empty means the configured default
	AssetID         solana.PublicKey `json:"assetId"`                   // token or NFT mint
	Decimals        *uint8           `json:"decimals,omitempty"`        // overrides the configured token decimals
	EphemeralSecret string           `json:"ephemeralSecret,omitempty"` // opaque, echoed back on commit
	Wallet          WalletRecord     `json:"wallet"`
	MintTransaction string           `json:"mintTransaction,omitempty"` // base64, partially signed, mint stage only
}

// CommitRequest tells the backend an on-ledger step is confirmed.
type CommitRequest struct {
	Kind            FlowKind `json:"-"`
	Stage           Stage    `json:"stage"`
	OrderID         string   `json:"orderId"`
	Signature       string   `json:"signature"`
	EphemeralSecret string   `json:"ephemeralSecret,omitempty"`
}
