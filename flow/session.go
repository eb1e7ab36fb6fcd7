package flow

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/AlexZinkM/flow-wallet/internal/client"
	"github.com/AlexZinkM/flow-wallet/internal/model"

	"github.com/gagliardetto/solana-go"
)

type flowKey struct {
	kind    model.FlowKind
	orderID string
}

// session is the mutable record behind one flow ID. Everything below mu is
// guarded by it.
type session struct {
	key    flowKey
	params Params

	mu    sync.Mutex
	state State

	lastSig      solana.Signature
	lastSigStage model.Stage
	lastValid    uint64 // block height after which lastSig can no longer land; MaxUint64 until known
	lastRefused  bool   // the node refused lastSig before broadcasting it
	feeSig       solana.Signature

	// from the latest successful init
	endpoint  string
	ephemeral string
	wallet    model.WalletRecord

	running    bool
	dispatched bool // on-ledger work of the current stage has started
	cancel     context.CancelFunc
	done       chan struct{}

	subs    map[int]chan State
	nextSub int
}

func newSession(id string, kind model.FlowKind, params Params, stage model.Stage) *session {
	done := make(chan struct{})
	close(done)
	return &session{
		key:    flowKey{kind: kind, orderID: params.OrderID},
		params: params,
		state: State{
			ID:        id,
			Kind:      kind,
			Stage:     stage,
			Phase:     PhaseIdle,
			OrderID:   params.OrderID,
			UpdatedAt: time.Now().UTC(),
		},
		done: done,
		subs: make(map[int]chan State),
	}
}

func (s *session) snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *session) snapshotLocked() State {
	st := s.state
	if s.lastSig != (solana.Signature{}) {
		st.LastTransactionSignature = s.lastSig.String()
	}
	if s.feeSig != (solana.Signature{}) {
		st.FeeSignature = s.feeSig.String()
	}
	return st
}

// transitionLocked moves the flow to phase and notifies subscribers.
func (s *session) transitionLocked(to Phase) error {
	from := s.state.Phase
	if !canTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", errInvalidTransition, from, to)
	}
	s.state.Phase = to
	s.state.Outcome = outcomeFor(to, s.state.Stage)
	s.state.UpdatedAt = time.Now().UTC()
	if !to.Terminal() {
		s.state.Error = ""
		s.state.Message = ""
	}
	s.publishLocked()
	return nil
}

func (s *session) transition(to Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(to)
}

// fail parks the flow in a failed phase with the cause.
func (s *session) fail(to Phase, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !canTransition(s.state.Phase, to) {
		return fmt.Errorf("%w: %s -> %s", errInvalidTransition, s.state.Phase, to)
	}
	s.state.Error = cause.Error()
	s.state.Message = userMessage(to, cause)
	return s.transitionLocked(to)
}

func (s *session) publishLocked() {
	st := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case ch <- st:
		default:
		}
	}
}

func (s *session) subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan State, 32)
	if !s.running {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// remember keeps what the latest init returned for later commits and retries.
func (s *session) remember(res *model.InitResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoint = res.RPCEndpoint
	s.ephemeral = res.EphemeralSecret
	s.wallet = res.Wallet
}

func (s *session) stage() model.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Stage
}

// beginDispatch is the last point where a cancel wins. It records the
// signature before the transaction leaves the process.
func (s *session) beginDispatch(ctx context.Context, sig solana.Signature, lastValid uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		return false
	}
	s.lastSig = sig
	s.lastSigStage = s.state.Stage
	s.lastValid = lastValid
	s.lastRefused = false
	s.dispatched = true
	return s.transitionLocked(PhaseOnLedgerSubmitted) == nil
}

func (s *session) markDispatched() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatched = true
}

func (s *session) confirmed(sig solana.Signature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Kind == model.FlowFeeTransferAndMint && s.state.Stage == model.StageTransfer {
		s.feeSig = sig
	}
	return s.transitionLocked(PhaseOnLedgerConfirmed)
}

func (s *session) markRefused() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRefused = true
}

// pendingSignature returns the last signature if it belongs to the current
// stage, with the height it stays valid until.
func (s *session) pendingSignature() (solana.Signature, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSig == (solana.Signature{}) || s.lastSigStage != s.state.Stage {
		return solana.Signature{}, 0, false
	}
	return s.lastSig, s.lastValid, true
}

func (s *session) refused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRefused
}

// pinLastValid fixes an unknown validity window of the last signature at one
// full window past height, the earliest point it is sure to have expired. It
// returns the window's end.
func (s *session) pinLastValid(height uint64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastValid == math.MaxUint64 {
		s.lastValid = height + client.MaxProcessingAge
	}
	return s.lastValid
}

// restartBlocker reports why no new flow may start for this session's order
// while it is the order's latest flow. Once a flow has signed or committed
// anything, only Retry may continue the order.
func (s *session) restartBlocker() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("%w: flow %s", ErrAlreadyInProgress, s.state.ID)
	}
	switch {
	case s.state.Phase == PhaseSucceeded,
		s.state.Phase == PhaseFailedAtCommit,
		s.state.Phase == PhaseReconciliationRequired,
		s.lastSig != (solana.Signature{}),
		s.feeSig != (solana.Signature{}):
		return &ExistingFlowError{FlowID: s.state.ID, Phase: s.state.Phase}
	}
	return nil
}
