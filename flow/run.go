package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlexZinkM/flow-wallet/internal/client"
	"github.com/AlexZinkM/flow-wallet/internal/logger"
	"github.com/AlexZinkM/flow-wallet/internal/model"
	"github.com/AlexZinkM/flow-wallet/internal/vault"

	"github.com/gagliardetto/solana-go"
)

// runner carries one run of a flow. Its ctx is cancelled only by Cancel;
// once a transaction is dispatched the remaining steps use a context that
// cannot be cancelled at all.
type runner struct {
	o      *Orchestrator
	s      *session
	ctx    context.Context
	secret []byte
	log    *logger.Logger
	ledger Ledger
}

// execute runs the current stage from Initiated, then the following stage
// if there is one.
func (r *runner) execute() {
	for {
		utx, ok := r.initiate()
		if !ok {
			return
		}
		sig, ok := r.signAndSubmit(utx)
		if !ok {
			return
		}
		if !r.finish(sig) {
			return
		}
	}
}

// completeFrom finishes a stage whose transaction is already confirmed.
func (r *runner) completeFrom(sig solana.Signature) {
	if r.finish(sig) {
		r.execute()
	}
}

// resume brings back a flow from the signature of its last transaction.
func (r *runner) resume() {
	sig, _, _ := r.s.pendingSignature()

	if !r.step(PhaseInitiated) {
		return
	}
	if _, ok := r.open(); !ok {
		return
	}

	status, err := r.ledger.SignatureStatus(r.ctx, sig)
	if err != nil {
		r.fail(PhaseFailedAtTransfer, err)
		return
	}
	// the blockhash was fetched before now, so it expires within one window from here
	if height, err := r.ledger.BlockHeight(r.ctx); err == nil {
		r.s.pinLastValid(height)
	}

	if status.State != client.TxConfirmed {
		r.fail(PhaseFailedAtTransfer, fmt.Errorf("%w: %s is %s", errNotLanded, sig, status.State))
		return
	}

	r.s.markDispatched()
	if err := r.s.confirmed(sig); err != nil {
		r.log.Error().Err(err).Msg("failed to record confirmation")
		return
	}
	r.completeFrom(sig)
}

// open calls the backend's init for the current stage and selects the ledger
// it names.
func (r *runner) open() (*model.InitResult, bool) {
	res, err := r.o.backend.Init(r.ctx, r.initRequest())
	if err != nil {
		r.fail(PhaseFailedAtInit, err)
		return nil, false
	}

	ledger, err := r.o.ledgers.Ledger(res.RPCEndpoint)
	if err != nil {
		r.fail(PhaseFailedAtInit, fmt.Errorf("failed to select ledger: %w", err))
		return nil, false
	}
	r.ledger = ledger
	r.s.remember(res)
	return res, true
}

// initiate opens the stage and prepares the transaction for signing.
func (r *runner) initiate() (*client.UnsignedTransaction, bool) {
	if !r.step(PhaseInitiated) {
		return nil, false
	}
	res, ok := r.open()
	if !ok {
		return nil, false
	}
	owner := res.Wallet.PublicKey
	stage := r.s.stage()

	var plan model.TransferPlan
	if stage == model.StageMint {
		if res.MintTransaction == "" {
			r.fail(PhaseFailedAtInit, errors.New("backend returned no mint transaction"))
			return nil, false
		}
	} else {
		var err error
		if plan, err = r.plan(res); err != nil {
			r.fail(PhaseFailedAtInit, err)
			return nil, false
		}
	}

	if err := r.ledger.EnsureMinimumBalance(r.ctx, owner, r.o.opts.MinBalanceLamports); err != nil {
		r.fail(PhaseFailedAtTransfer, err)
		return nil, false
	}

	var (
		utx *client.UnsignedTransaction
		err error
	)
	if stage == model.StageMint {
		utx, err = r.ledger.PrepareMintCompletion(r.ctx, res.MintTransaction, owner)
	} else {
		utx, err = r.ledger.BuildTransfer(r.ctx, plan)
	}
	if err != nil {
		r.fail(PhaseFailedAtTransfer, err)
		return nil, false
	}

	if !r.step(PhaseReadyToSign) {
		return nil, false
	}
	return utx, true
}

// plan turns the backend's answer into the transfer of the current kind.
func (r *runner) plan(res *model.InitResult) (model.TransferPlan, error) {
	decimals := r.o.opts.TokenDecimals
	if res.Decimals != nil {
		decimals = *res.Decimals
	}
	source := res.Wallet.PublicKey

	switch r.s.key.kind {
	case model.FlowFeeTransferAndMint:
		return model.NewTokenPlan(r.o.opts.FeeAmount, decimals, source, res.Destination, res.AssetID)
	case model.FlowEscrowTransfer:
		return model.NewTokenPlan(r.s.params.Amount, decimals, source, res.Destination, res.AssetID)
	case model.FlowOwnershipTransfer:
		asset := res.AssetID
		if asset.IsZero() {
			asset = r.s.params.AssetID
		}
		return model.NewUniqueAssetPlan(r.s.params.Amount, source, r.s.params.Recipient, asset)
	}
	return model.TransferPlan{}, fmt.Errorf("%w: unknown flow kind %s", ErrInvalidParams, r.s.key.kind)
}

func (r *runner) initRequest() model.InitRequest {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p := r.s.params
	req := model.InitRequest{
		Kind:    r.s.key.kind,
		Stage:   r.s.state.Stage,
		OrderID: p.OrderID,
	}
	if !p.AssetID.IsZero() {
		req.AssetID = p.AssetID.String()
	}

	switch r.s.key.kind {
	case model.FlowFeeTransferAndMint:
		if req.Stage == model.StageMint {
			req.ProofSignature = r.s.feeSig.String()
		} else {
			req.Amount = r.o.opts.FeeAmount
		}
	case model.FlowEscrowTransfer:
		req.Amount = p.Amount
	case model.FlowOwnershipTransfer:
		req.Amount = "1"
		req.Recipient = p.Recipient.String()
	}
	return req
}

// signAndSubmit unlocks the wallet just long enough to sign, then hands the
// transaction to the ledger.
func (r *runner) signAndSubmit(utx *client.UnsignedTransaction) (solana.Signature, bool) {
	if err := r.ctx.Err(); err != nil {
		r.fail(PhaseCancelled, err)
		return solana.Signature{}, false
	}

	r.s.mu.Lock()
	wallet := r.s.wallet
	r.s.mu.Unlock()

	err := r.o.vault.WithKeypair(wallet, r.secret, func(kp *vault.Keypair) error {
		_, err := kp.SignTransaction(utx.Tx)
		return err
	})
	if err != nil {
		if errors.Is(err, vault.ErrInvalidSecret) {
			r.fail(PhaseFailedAtUnlock, err)
		} else {
			r.fail(PhaseFailedAtTransfer, err)
		}
		return solana.Signature{}, false
	}

	// the first signature identifies the transaction on the ledger
	sig := utx.Tx.Signatures[0]
	if !r.s.beginDispatch(r.ctx, sig, utx.LastValidBlockHeight) {
		r.fail(PhaseCancelled, context.Canceled)
		return solana.Signature{}, false
	}
	r.log.Info().
		Str("stage", string(r.s.stage())).
		Str("signature", sig.String()).
		Uint64("last_valid_block_height", utx.LastValidBlockHeight).
		Msg("transaction dispatched")

	sctx := context.WithoutCancel(r.ctx)
	if _, err := r.ledger.SubmitAndConfirm(sctx, utx.Tx); err != nil && !r.landedAnyway(sctx, sig, err) {
		var rejected *client.RejectedError
		if errors.As(err, &rejected) {
			r.s.markRefused()
		}
		r.fail(PhaseFailedAtTransfer, err)
		return solana.Signature{}, false
	}

	if err := r.s.confirmed(sig); err != nil {
		r.log.Error().Err(err).Msg("failed to record confirmation")
		return solana.Signature{}, false
	}
	return sig, true
}

// landedAnyway checks a signature whose confirmation wait failed without a
// verdict from the ledger.
func (r *runner) landedAnyway(ctx context.Context, sig solana.Signature, cause error) bool {
	if !errors.Is(cause, client.ErrTimeout) && !errors.Is(cause, client.ErrNetwork) {
		return false
	}
	status, err := r.ledger.SignatureStatus(ctx, sig)
	if err != nil {
		r.log.Warn().Err(err).Str("signature", sig.String()).Msg("status lookup after failed confirmation")
		return false
	}
	if status.State == client.TxConfirmed {
		r.log.Info().Str("signature", sig.String()).Msg("transaction landed despite confirmation failure")
		return true
	}
	return false
}

// finish commits a confirmed stage and reports whether another stage follows.
func (r *runner) finish(sig solana.Signature) bool {
	r.s.mu.Lock()
	req := model.CommitRequest{
		Kind:            r.s.key.kind,
		Stage:           r.s.state.Stage,
		OrderID:         r.s.key.orderID,
		Signature:       sig.String(),
		EphemeralSecret: r.s.ephemeral,
	}
	r.s.mu.Unlock()

	if err := r.o.backend.Commit(context.WithoutCancel(r.ctx), req); err != nil {
		r.fail(PhaseFailedAtCommit, err)
		return false
	}
	if !r.step(PhaseBackendCommitted) {
		return false
	}

	r.s.mu.Lock()
	if r.s.key.kind == model.FlowFeeTransferAndMint && r.s.state.Stage == model.StageTransfer {
		r.s.state.Stage = model.StageMint
		r.s.dispatched = false
		r.s.mu.Unlock()
		r.log.Info().Str("signature", sig.String()).Msg("fee committed, minting")
		return true
	}
	err := r.s.transitionLocked(PhaseSucceeded)
	r.s.mu.Unlock()
	if err != nil {
		r.log.Error().Err(err).Msg("failed to finish flow")
		return false
	}

	r.log.Info().Str("signature", sig.String()).Msg("flow succeeded")
	return false
}

func (r *runner) step(to Phase) bool {
	if err := r.s.transition(to); err != nil {
		r.log.Error().Err(err).Msg("flow stopped")
		return false
	}
	r.log.Debug().Str("phase", string(to)).Str("stage", string(r.s.stage())).Msg("phase")
	return true
}

// fail parks the flow. Any failure before dispatch that follows a Cancel is
// reported as Cancelled.
func (r *runner) fail(phase Phase, cause error) {
	r.s.mu.Lock()
	dispatched := r.s.dispatched
	stage := r.s.state.Stage
	r.s.mu.Unlock()

	if !dispatched && r.ctx.Err() != nil && phase != PhaseFailedAtCommit && phase != PhaseReconciliationRequired {
		phase = PhaseCancelled
	}
	if err := r.s.fail(phase, cause); err != nil {
		r.log.Error().Err(err).AnErr("cause", cause).Msg("failed to park flow")
		return
	}

	ev := r.log.Warn().
		Err(cause).
		Str("phase", string(phase)).
		Str("stage", string(stage))
	if sig, ok := client.SignatureOf(cause); ok {
		ev = ev.Str("signature", sig.String())
	}
	ev.Msg("flow stopped")
}
