package client

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/AlexZinkM/flow-wallet/internal/common"
	"github.com/AlexZinkM/flow-wallet/internal/logger"
	"github.com/AlexZinkM/flow-wallet/internal/model"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"
)

// MaxProcessingAge is how many blocks a blockhash stays valid after the one
// it was taken at.
const MaxProcessingAge = 150

// RPC is the part of *rpc.Client the ledger client talks to.
type RPC interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64, commitment rpc.CommitmentType) (solana.Signature, error)
}

var _ RPC = (*rpc.Client)(nil)

// Signer places one signature on a transaction. *vault.Keypair implements it.
type Signer interface {
	PublicKey() solana.PublicKey
	SignTransaction(tx *solana.Transaction) (solana.Signature, error)
}

// FundingMode selects what EnsureMinimumBalance does for an underfunded payer.
type FundingMode string

const (
	FundingNone    FundingMode = "none"
	FundingAirdrop FundingMode = "airdrop"
)

// LedgerOptions configures a LedgerClient.
type LedgerOptions struct {
	Endpoint        string
	ConfirmTimeout  time.Duration
	PollInterval    time.Duration
	FundingMode     FundingMode
	AirdropLamports uint64
}

// TxState is the ledger's view of a signature.
type TxState string

const (
	TxNotFound  TxState = "not_found"
	TxProcessed TxState = "processed"
	TxConfirmed TxState = "confirmed"
	TxFailed    TxState = "failed"
)

// TxStatus is the result of a signature lookup.
type TxStatus struct {
	State  TxState
	Slot   uint64
	Reason string // ledger error for TxFailed
}

// UnsignedTransaction is a transaction ready for the user's signature.
type UnsignedTransaction struct {
	Tx                   *solana.Transaction
	LastValidBlockHeight uint64
	RawAmount            uint64
	Decimals             uint8
}

// LedgerClient is a client for working with Solana RPC on behalf of flows.
type LedgerClient struct {
	rpc   RPC
	opts  LedgerOptions
	log   *logger.Logger
	group singleflight.Group
}

// NewLedgerClient wraps an RPC connection. Zero timeouts fall back to 60s
// confirmation with 1s polling.
func NewLedgerClient(conn RPC, opts LedgerOptions, log *logger.Logger) *LedgerClient {
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = 60 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.FundingMode == "" {
		opts.FundingMode = FundingNone
	}
	if log == nil {
		log = logger.Nop()
	}
	return &LedgerClient{
		rpc:  conn,
		opts: opts,
		log:  log.With("endpoint", opts.Endpoint),
	}
}

// Endpoint returns the RPC URL this client talks to.
func (c *LedgerClient) Endpoint() string {
	return c.opts.Endpoint
}

// accountExists reports whether an account is present on the ledger.
func (c *LedgerClient) accountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	info, err := c.rpc.GetAccountInfo(ctx, account)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return false, nil
		}
		return false, &NetworkError{Op: "getAccountInfo", Err: err}
	}
	return info != nil && info.Value != nil, nil
}

// ResolveOrCreateTokenAccount returns owner's associated token account for
// mint, creating it (paid and signed by payer) when it does not exist yet.
// Concurrent calls for the same account share one creation.
func (c *LedgerClient) ResolveOrCreateTokenAccount(ctx context.Context, payer Signer, owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to find associated token account address: %w", err)
	}

	// the creation is shared, so one caller giving up must not fail the others
	sctx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(ata.String(), func() (any, error) {
		exists, err := c.accountExists(sctx, ata)
		if err != nil {
			return nil, err
		}
		if exists {
			return ata, nil
		}

		recent, err := c.rpc.GetLatestBlockhash(sctx, rpc.CommitmentFinalized)
		if err != nil {
			return nil, &NetworkError{Op: "getLatestBlockhash", Err: err}
		}

		createATAInstruction := associatedtokenaccount.NewCreateInstruction(
			payer.PublicKey(), // payer
			owner,             // owner
			mint,              // mint
		).Build()

		tx, err := solana.NewTransaction(
			[]solana.Instruction{createATAInstruction},
			recent.Value.Blockhash,
			solana.TransactionPayer(payer.PublicKey()),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create transaction: %w", err)
		}
		if _, err := payer.SignTransaction(tx); err != nil {
			return nil, fmt.Errorf("failed to sign transaction: %w", err)
		}

		sig, err := c.SubmitAndConfirm(sctx, tx)
		if err != nil {
			return nil, err
		}
		c.log.Info().
			Str("account", ata.String()).
			Str("mint", mint.String()).
			Str("signature", sig.String()).
			Msg("token account created")
		return ata, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return solana.PublicKey{}, res.Err
		}
		return res.Val.(solana.PublicKey), nil
	case <-ctx.Done():
		return solana.PublicKey{}, ctx.Err()
	}
}

// transferCheckedInstruction builds a TransferChecked so the token program
// verifies decimals against the mint.
func transferCheckedInstruction(amount uint64, decimals uint8, source, mint, destination, owner solana.PublicKey) *token.TransferChecked {
	return token.NewTransferCheckedInstruction(
		amount,
		decimals,
		source,
		mint,
		destination,
		owner,
		[]solana.PublicKey{},
	)
}

// BuildTransfer creates the unsigned transaction moving plan.Amount of
// plan.AssetID from plan.Source to plan.Destination. A missing destination
// token account is created in the same transaction, paid by the source.
func (c *LedgerClient) BuildTransfer(ctx context.Context, plan model.TransferPlan) (*UnsignedTransaction, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	amount, err := plan.BaseUnits()
	if err != nil {
		return nil, err
	}

	// Get source ATA address
	sourceTokenAccount, _, err := solana.FindAssociatedTokenAddress(plan.Source, plan.AssetID)
	if err != nil {
		return nil, fmt.Errorf("failed to find source token account address: %w", err)
	}
	exists, err := c.accountExists(ctx, sourceTokenAccount)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: owner %s, mint %s", ErrSourceAccountMissing, plan.Source, plan.AssetID)
	}

	// Get or create destination token account
	destTokenAccount, _, err := solana.FindAssociatedTokenAddress(plan.Destination, plan.AssetID)
	if err != nil {
		return nil, fmt.Errorf("failed to find destination token account: %w", err)
	}
	destExists, err := c.accountExists(ctx, destTokenAccount)
	if err != nil {
		return nil, err
	}

	instructions := make([]solana.Instruction, 0, 2)
	if !destExists {
		instructions = append(instructions, associatedtokenaccount.NewCreateInstruction(
			plan.Source,      // payer
			plan.Destination, // owner
			plan.AssetID,     // mint
		).Build())
	}
	instructions = append(instructions, transferCheckedInstruction(
		amount,
		plan.Decimals,
		sourceTokenAccount,
		plan.AssetID,
		destTokenAccount,
		plan.Source,
	).Build())

	// Get latest blockhash (GetRecentBlockhash is deprecated, use GetLatestBlockhash)
	recent, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, &NetworkError{Op: "getLatestBlockhash", Err: err}
	}

	tx, err := solana.NewTransaction(
		instructions,
		recent.Value.Blockhash,
		solana.TransactionPayer(plan.Source),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	return &UnsignedTransaction{
		Tx:                   tx,
		LastValidBlockHeight: recent.Value.LastValidBlockHeight,
		RawAmount:            amount,
		Decimals:             plan.Decimals,
	}, nil
}

// PrepareMintCompletion decodes the backend's base64, partially signed mint
// transaction and checks that signer still has to sign it.
func (c *LedgerClient) PrepareMintCompletion(ctx context.Context, encodedTx string, signer solana.PublicKey) (*UnsignedTransaction, error) {
	raw, err := base64.StdEncoding.DecodeString(encodedTx)
	if err != nil {
		return nil, fmt.Errorf("failed to decode mint transaction: %w", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse mint transaction: %w", err)
	}

	required := int(tx.Message.Header.NumRequiredSignatures)
	isSigner := false
	for i := 0; i < required && i < len(tx.Message.AccountKeys); i++ {
		if tx.Message.AccountKeys[i].Equals(signer) {
			isSigner = true
			break
		}
	}
	if !isSigner {
		return nil, fmt.Errorf("%w: %s", ErrNotSigner, signer)
	}

	// The blockhash was fetched by the backend, so only an estimate is possible
	height, err := c.BlockHeight(ctx)
	if err != nil {
		return nil, err
	}

	return &UnsignedTransaction{
		Tx:                   tx,
		LastValidBlockHeight: height + MaxProcessingAge,
		RawAmount:            1,
		Decimals:             common.UniqueDecimals,
	}, nil
}

// SubmitAndConfirm sends a fully signed transaction and waits until it is
// confirmed. The returned signature is valid even when err is not nil, unless
// the transaction carried no signature at all.
func (c *LedgerClient) SubmitAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if len(tx.Signatures) == 0 || tx.Signatures[0] == (solana.Signature{}) {
		return solana.Signature{}, ErrUnsignedTransaction
	}
	sig := tx.Signatures[0]

	// Send transaction
	_, err := c.rpc.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false, // Transaction validation before node
			PreflightCommitment: rpc.CommitmentConfirmed,
		},
	)
	if err != nil {
		return sig, classifySendError(sig, err)
	}
	c.log.Debug().Str("signature", sig.String()).Msg("transaction sent")

	if err := c.waitForConfirmation(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

// classifySendError separates node refusals (JSON-RPC errors, e.g. failed
// preflight) from transport failures.
func classifySendError(sig solana.Signature, err error) error {
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return &RejectedError{Signature: sig, Reason: rpcErr.Message}
	}
	return &NetworkError{Op: "sendTransaction", Signature: sig, Err: err}
}

var errNotConfirmed = errors.New("not confirmed yet")

// waitForConfirmation polls the signature status at a constant interval until
// confirmed, failed or the confirm timeout elapses.
func (c *LedgerClient) waitForConfirmation(ctx context.Context, sig solana.Signature) error {
	wctx, cancel := context.WithTimeout(ctx, c.opts.ConfirmTimeout)
	defer cancel()

	backoff := retry.WithMaxDuration(c.opts.ConfirmTimeout, retry.NewConstant(c.opts.PollInterval))
	err := retry.Do(wctx, backoff, func(ctx context.Context) error {
		status, err := c.SignatureStatus(ctx, sig)
		if err != nil {
			// transient, keep polling
			return retry.RetryableError(err)
		}
		switch status.State {
		case TxConfirmed:
			return nil
		case TxFailed:
			return &RejectedError{Signature: sig, Reason: status.Reason}
		default:
			return retry.RetryableError(errNotConfirmed)
		}
	})
	if err == nil {
		return nil
	}

	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected
	}
	c.log.Warn().Err(err).Str("signature", sig.String()).Msg("confirmation wait expired")
	return &TimeoutError{Signature: sig, Wait: c.opts.ConfirmTimeout}
}

// SignatureStatus looks a signature up, searching transaction history so
// that old signatures are found too.
func (c *LedgerClient) SignatureStatus(ctx context.Context, sig solana.Signature) (TxStatus, error) {
	out, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return TxStatus{}, &NetworkError{Op: "getSignatureStatuses", Signature: sig, Err: err}
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return TxStatus{State: TxNotFound}, nil
	}

	st := out.Value[0]
	if st.Err != nil {
		return TxStatus{State: TxFailed, Slot: st.Slot, Reason: fmt.Sprint(st.Err)}, nil
	}
	switch st.ConfirmationStatus {
	case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
		return TxStatus{State: TxConfirmed, Slot: st.Slot}, nil
	default:
		return TxStatus{State: TxProcessed, Slot: st.Slot}, nil
	}
}

// BlockHeight returns the current confirmed block height.
func (c *LedgerClient) BlockHeight(ctx context.Context) (uint64, error) {
	height, err := c.rpc.GetBlockHeight(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, &NetworkError{Op: "getBlockHeight", Err: err}
	}
	return height, nil
}

// Balance returns the SOL balance of owner in lamports.
func (c *LedgerClient) Balance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	balance, err := c.rpc.GetBalance(ctx, owner, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, &NetworkError{Op: "getBalance", Err: err}
	}
	return balance.Value, nil
}

// EnsureMinimumBalance makes sure owner holds at least threshold lamports for
// fees. Depending on the funding mode a shortfall is an error or is topped up
// from the cluster faucet.
func (c *LedgerClient) EnsureMinimumBalance(ctx context.Context, owner solana.PublicKey, threshold uint64) error {
	balance, err := c.Balance(ctx, owner)
	if err != nil {
		return err
	}
	if balance >= threshold {
		return nil
	}

	if c.opts.FundingMode != FundingAirdrop {
		return fmt.Errorf("%w: have %s SOL, need %s SOL",
			ErrInsufficientBalance, common.LamportsToSOL(balance), common.LamportsToSOL(threshold))
	}
	if common.IsMainnetEndpoint(c.opts.Endpoint) {
		return ErrFundingNotAllowed
	}

	lamports := max(c.opts.AirdropLamports, threshold-balance)
	sig, err := c.rpc.RequestAirdrop(ctx, owner, lamports, rpc.CommitmentConfirmed)
	if err != nil {
		return fmt.Errorf("failed to request airdrop: %w", classifySendError(solana.Signature{}, err))
	}
	c.log.Info().
		Str("owner", owner.String()).
		Str("amount_sol", common.LamportsToSOL(lamports)).
		Str("signature", sig.String()).
		Msg("airdrop requested")

	return c.waitForConfirmation(ctx, sig)
}
