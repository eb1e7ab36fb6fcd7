package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AlexZinkM/flow-wallet/internal/common"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrInvalidPlan       = errors.New("invalid transfer plan")
	ErrUniqueAssetAmount = errors.New("unique asset transfers move exactly 1 unit")
)

// TransferPlan describes one checked token transfer.
type TransferPlan struct {
	Amount      string // decimal units, e.g. "20" or "0.5"
	Decimals    uint8
	Source      solana.PublicKey // owner wallet, not the token account
	Destination solana.PublicKey // owner wallet, not the token account
	AssetID     solana.PublicKey // mint
	Unique      bool
}

// NewTokenPlan builds a plan for a fungible token transfer.
func NewTokenPlan(amount string, decimals uint8, source, destination, mint solana.PublicKey) (TransferPlan, error) {
	plan := TransferPlan{
		Amount:      strings.TrimSpace(amount),
		Decimals:    decimals,
		Source:      source,
		Destination: destination,
		AssetID:     mint,
	}
	return plan, plan.Validate()
}

// NewUniqueAssetPlan builds a plan for moving one unique asset (NFT).
// The requested amount may be empty or "1"; anything else is rejected.
func NewUniqueAssetPlan(requestedAmount string, source, destination, mint solana.PublicKey) (TransferPlan, error) {
	switch strings.TrimSpace(requestedAmount) {
	case "", "1":
	default:
		return TransferPlan{}, fmt.Errorf("%w: got %q", ErrUniqueAssetAmount, requestedAmount)
	}

	plan := TransferPlan{
		Amount:      "1",
		Decimals:    common.UniqueDecimals,
		Source:      source,
		Destination: destination,
		AssetID:     mint,
		Unique:      true,
	}
	return plan, plan.Validate()
}

// Validate checks plan invariants before anything touches the ledger.
func (p TransferPlan) Validate() error {
	if p.Source.IsZero() || p.Destination.IsZero() || p.AssetID.IsZero() {
		return fmt.Errorf("%w: source, destination and asset are required", ErrInvalidPlan)
	}
	if p.Source.Equals(p.Destination) {
		return fmt.Errorf("%w: source and destination are the same account", ErrInvalidPlan)
	}
	if p.Unique && (p.Amount != "1" || p.Decimals != 0) {
		return fmt.Errorf("%w: amount=%s decimals=%d", ErrUniqueAssetAmount, p.Amount, p.Decimals)
	}

	units, err := p.BaseUnits()
	if err != nil {
		return err
	}
	if units == 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidPlan)
	}
	return nil
}

// BaseUnits returns Amount * 10^Decimals as an integer.
func (p TransferPlan) BaseUnits() (uint64, error) {
	units, err := common.ParseWithDecimals(p.Amount, p.Decimals)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	return units, nil
}
