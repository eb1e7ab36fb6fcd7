// Package flow coordinates backend phases with signed ledger transactions.
//
// Every flow walks Idle -> Initiated -> ReadyToSign -> OnLedgerSubmitted ->
// OnLedgerConfirmed -> BackendCommitted -> Succeeded. Each failure parks the
// flow in a phase naming the step that failed, and Retry resumes from there:
// a failed commit repeats only the commit, a failed transfer first checks
// whether the previous transaction landed after all.
package flow

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/AlexZinkM/flow-wallet/internal/client"
	"github.com/AlexZinkM/flow-wallet/internal/common"
	"github.com/AlexZinkM/flow-wallet/internal/logger"
	"github.com/AlexZinkM/flow-wallet/internal/model"
	"github.com/AlexZinkM/flow-wallet/internal/vault"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

// Orchestrator runs flows. Flows live in memory only; after a restart a
// caller holding the last signature brings a flow back with Resume.
type Orchestrator struct {
	backend Backend
	ledgers LedgerProvider
	vault   *vault.Vault
	opts    Options
	log     *logger.Logger

	mu       sync.Mutex
	sessions map[string]*session
	active   map[flowKey]string // running flow per order
	latest   map[flowKey]string // newest flow per order
}

// New creates an Orchestrator.
func New(backend Backend, ledgers LedgerProvider, v *vault.Vault, opts Options, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	if opts.TokenDecimals == 0 {
		opts.TokenDecimals = common.TokenDecimals
	}
	return &Orchestrator{
		backend:  backend,
		ledgers:  ledgers,
		vault:    v,
		opts:     opts,
		log:      log,
		sessions: make(map[string]*session),
		active:   make(map[flowKey]string),
		latest:   make(map[flowKey]string),
	}
}

func validateParams(kind model.FlowKind, p Params) error {
	if _, err := model.ParseFlowKind(string(kind)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if p.OrderID == "" {
		return fmt.Errorf("%w: order id is required", ErrInvalidParams)
	}

	switch kind {
	case model.FlowEscrowTransfer:
		if p.Amount == "" {
			return fmt.Errorf("%w: amount is required", ErrInvalidParams)
		}
	case model.FlowOwnershipTransfer:
		if p.Amount != "" && p.Amount != "1" {
			return fmt.Errorf("%w: got %q", model.ErrUniqueAssetAmount, p.Amount)
		}
		if p.Recipient.IsZero() {
			return fmt.Errorf("%w: recipient is required", ErrInvalidParams)
		}
	}
	return nil
}

// StartFlow validates params and starts a flow in the background. secret is
// copied; the caller may clear its slice as soon as StartFlow returns.
func (o *Orchestrator) StartFlow(ctx context.Context, kind model.FlowKind, params Params, secret []byte) (*Handle, error) {
	if err := validateParams(kind, params); err != nil {
		return nil, err
	}

	s := newSession(uuid.NewString(), kind, params, model.StageTransfer)
	if err := o.claim(s); err != nil {
		return nil, err
	}

	o.log.Info().
		Str("flow_id", s.state.ID).
		Str("kind", string(kind)).
		Str("order_id", params.OrderID).
		Msg("flow started")

	return o.launch(ctx, s, secret, (*runner).execute), nil
}

// Retry continues a failed or cancelled flow from where it stopped. secret
// may be empty when only a commit is left.
func (o *Orchestrator) Retry(ctx context.Context, id string, secret []byte) (*Handle, error) {
	s, err := o.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := o.reserve(s); err != nil {
		return nil, err
	}

	var entry func(*runner)
	switch phase := s.snapshot().Phase; phase {
	case PhaseFailedAtCommit:
		entry, err = o.planCommitRetry(ctx, s)
	case PhaseFailedAtInit, PhaseFailedAtUnlock, PhaseFailedAtTransfer, PhaseCancelled:
		entry, err = o.planTransferRetry(ctx, s)
	default:
		err = fmt.Errorf("%w: flow is %s", ErrNotRetryable, phase)
	}
	if err != nil {
		o.release(s)
		return nil, err
	}

	return o.launch(ctx, s, secret, entry), nil
}

// planCommitRetry repeats only the commit, after checking that the recorded
// signature is still confirmed.
func (o *Orchestrator) planCommitRetry(ctx context.Context, s *session) (func(*runner), error) {
	sig, _, ok := s.pendingSignature()
	if !ok {
		return nil, fmt.Errorf("%w: no signature recorded", ErrNotRetryable)
	}

	status, err := o.signatureStatus(ctx, s, sig)
	if err != nil {
		return nil, err
	}
	if status.State != client.TxConfirmed {
		cause := fmt.Errorf("%w: %s is %s", ErrAlreadyConfirmedMismatch, sig, status.State)
		if ferr := s.fail(PhaseReconciliationRequired, cause); ferr != nil {
			o.log.Error().Err(ferr).Str("flow_id", s.snapshot().ID).Msg("failed to park flow")
		}
		o.log.Error().
			Str("flow_id", s.snapshot().ID).
			Str("signature", sig.String()).
			Str("status", string(status.State)).
			Msg("reconciliation required")
		return nil, cause
	}

	return func(r *runner) {
		r.s.markDispatched()
		r.completeFrom(sig)
	}, nil
}

// planTransferRetry reconciles the previous submission of the current stage
// before allowing a new one.
func (o *Orchestrator) planTransferRetry(ctx context.Context, s *session) (func(*runner), error) {
	sig, lastValid, ok := s.pendingSignature()
	if !ok {
		return (*runner).execute, nil
	}

	status, err := o.signatureStatus(ctx, s, sig)
	if err != nil {
		return nil, err
	}

	switch status.State {
	case client.TxConfirmed:
		// landed after all: commit without resubmitting
		return func(r *runner) {
			r.s.markDispatched()
			if err := r.s.confirmed(sig); err != nil {
				r.log.Error().Err(err).Msg("failed to record confirmation")
				return
			}
			r.completeFrom(sig)
		}, nil
	case client.TxProcessed:
		return nil, fmt.Errorf("%w: %s is processed but not confirmed", ErrPreviousSubmissionPending, sig)
	case client.TxNotFound:
		if s.refused() {
			break
		}
		ledger, err := o.ledgerFor(s)
		if err != nil {
			return nil, err
		}
		height, err := ledger.BlockHeight(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get block height: %w", err)
		}
		lastValid = s.pinLastValid(height)
		if height <= lastValid {
			return nil, fmt.Errorf("%w: %s can land until block %d, now %d", ErrPreviousSubmissionPending, sig, lastValid, height)
		}
	}

	return (*runner).execute, nil
}

// Resume rebuilds a flow lost with the process from the signature of its last
// transaction. A confirmed signature is committed; anything else leaves the
// flow in FailedAtTransfer with the signature recorded for a later Retry.
func (o *Orchestrator) Resume(ctx context.Context, kind model.FlowKind, params Params, stage model.Stage, sig solana.Signature, secret []byte) (*Handle, error) {
	if err := validateParams(kind, params); err != nil {
		return nil, err
	}
	if sig == (solana.Signature{}) {
		return nil, fmt.Errorf("%w: signature is required", ErrInvalidParams)
	}
	if stage == model.StageMint {
		if kind != model.FlowFeeTransferAndMint {
			return nil, fmt.Errorf("%w: %s has no mint stage", ErrInvalidParams, kind)
		}
		if params.ProofSignature == (solana.Signature{}) {
			return nil, fmt.Errorf("%w: fee signature is required to resume minting", ErrInvalidParams)
		}
	}

	s := newSession(uuid.NewString(), kind, params, stage)
	s.lastSig = sig
	s.lastSigStage = stage
	s.lastValid = math.MaxUint64 // unknown until the resume run reads the block height
	if stage == model.StageMint {
		s.feeSig = params.ProofSignature
	}
	if err := o.claim(s); err != nil {
		return nil, err
	}

	o.log.Info().
		Str("flow_id", s.state.ID).
		Str("kind", string(kind)).
		Str("order_id", params.OrderID).
		Str("signature", sig.String()).
		Msg("flow resumed")

	return o.launch(ctx, s, secret, (*runner).resume), nil
}

// Cancel stops a flow that has not dispatched its transaction yet and waits
// for it to settle in Cancelled.
func (o *Orchestrator) Cancel(ctx context.Context, id string) (State, error) {
	s, err := o.lookup(id)
	if err != nil {
		return State{}, err
	}

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return s.snapshot(), ErrFlowNotRunning
	}
	if s.dispatched || s.cancel == nil {
		s.mu.Unlock()
		return s.snapshot(), ErrCancelRefused
	}
	// under mu so beginDispatch cannot slip in between
	s.cancel()
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return s.snapshot(), ctx.Err()
	}
	return s.snapshot(), nil
}

// Get returns the current state of a flow.
func (o *Orchestrator) Get(id string) (State, error) {
	s, err := o.lookup(id)
	if err != nil {
		return State{}, err
	}
	return s.snapshot(), nil
}

// Handle returns a handle on the latest run of a flow.
func (o *Orchestrator) Handle(id string) (*Handle, error) {
	s, err := o.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Handle{s: s, done: s.done}, nil
}

func (o *Orchestrator) lookup(id string) (*session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFlowNotFound, id)
	}
	return s, nil
}

// claim makes a new session the latest flow of its order and reserves the
// order for its first run. It is refused while the previous flow of the order
// runs or has reached the ledger.
func (o *Orchestrator) claim(s *session) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if id, ok := o.latest[s.key]; ok {
		if err := o.sessions[id].restartBlocker(); err != nil {
			return err
		}
	}
	if err := o.reserveLocked(s); err != nil {
		return err
	}
	o.sessions[s.state.ID] = s
	o.latest[s.key] = s.state.ID
	return nil
}

// reserve claims the (kind, order) key for one run.
func (o *Orchestrator) reserve(s *session) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reserveLocked(s)
}

func (o *Orchestrator) reserveLocked(s *session) error {
	if id, busy := o.active[s.key]; busy {
		return fmt.Errorf("%w: flow %s", ErrAlreadyInProgress, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyInProgress
	}
	o.active[s.key] = s.state.ID
	s.running = true
	s.dispatched = false
	s.cancel = nil
	s.done = make(chan struct{})
	return nil
}

func (o *Orchestrator) release(s *session) {
	o.mu.Lock()
	if o.active[s.key] == s.snapshot().ID {
		delete(o.active, s.key)
	}
	o.mu.Unlock()

	s.mu.Lock()
	s.running = false
	s.dispatched = false
	s.cancel = nil
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	done := s.done
	s.mu.Unlock()

	close(done)
}

// launch runs entry on its own goroutine. The run outlives the caller's
// request and is stopped only through Cancel.
func (o *Orchestrator) launch(parent context.Context, s *session, secret []byte, entry func(*runner)) *Handle {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))

	s.mu.Lock()
	s.cancel = cancel
	s.state.Attempt++
	id := s.state.ID
	done := s.done
	s.mu.Unlock()

	r := &runner{
		o:      o,
		s:      s,
		ctx:    ctx,
		secret: bytes.Clone(secret),
		log: o.log.
			With("flow_id", id).
			With("kind", string(s.key.kind)).
			With("order_id", s.key.orderID),
	}

	go func() {
		defer o.release(s)
		defer cancel()
		defer clear(r.secret)

		entry(r)
	}()

	return &Handle{s: s, done: done}
}

func (o *Orchestrator) ledgerFor(s *session) (Ledger, error) {
	s.mu.Lock()
	endpoint := s.endpoint
	s.mu.Unlock()

	ledger, err := o.ledgers.Ledger(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to select ledger: %w", err)
	}
	return ledger, nil
}

func (o *Orchestrator) signatureStatus(ctx context.Context, s *session, sig solana.Signature) (client.TxStatus, error) {
	ledger, err := o.ledgerFor(s)
	if err != nil {
		return client.TxStatus{}, err
	}
	status, err := ledger.SignatureStatus(ctx, sig)
	if err != nil {
		return client.TxStatus{}, fmt.Errorf("failed to look up signature %s: %w", sig, err)
	}
	return status, nil
}
