package flow_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AlexZinkM/flow-wallet/flow"
	"github.com/AlexZinkM/flow-wallet/internal/client"
	"github.com/AlexZinkM/flow-wallet/internal/crypto"
	"github.com/AlexZinkM/flow-wallet/internal/logger"
	"github.com/AlexZinkM/flow-wallet/internal/mock"
	"github.com/AlexZinkM/flow-wallet/internal/model"
	"github.com/AlexZinkM/flow-wallet/internal/vault"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type testEnv struct {
	t        *testing.T
	backend  *mock.MockBackend
	ledger   *fakeLedger
	orch     *flow.Orchestrator
	record   model.WalletRecord
	secret   []byte
	treasury solana.PublicKey
	mint     solana.PublicKey
	logs     *logBuffer

	mu      sync.Mutex
	inits   []model.InitRequest
	commits []model.CommitRequest
}

// logBuffer collects log lines written from flow goroutines.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// entries returns the decoded log lines carrying the given message.
func (b *logBuffer) entries(t *testing.T, msg string) []map[string]any {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(b.buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry[zerolog.MessageFieldName] == msg {
			out = append(out, entry)
		}
	}
	return out
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	v := vault.New(crypto.NewEncryptionService(nil))
	secret := []byte("abc123xy")
	record, err := v.Create(secret)
	require.NoError(t, err)

	ledger := newFakeLedger()
	backend := mock.NewMockBackend(gomock.NewController(t))
	provider := flow.LedgerProviderFunc(func(string) (flow.Ledger, error) { return ledger, nil })
	logs := &logBuffer{}

	return &testEnv{
		t:        t,
		backend:  backend,
		ledger:   ledger,
		record:   record,
		secret:   secret,
		treasury: solana.NewWallet().PublicKey(),
		mint:     solana.NewWallet().PublicKey(),
		logs:     logs,
		orch: flow.New(backend, provider, v, flow.Options{
			FeeAmount:          "20",
			TokenDecimals:      6,
			MinBalanceLamports: 5000,
		}, &logger.Logger{Logger: zerolog.New(logs)}),
	}
}

func (e *testEnv) initResult(stage model.Stage) *model.InitResult {
	res := &model.InitResult{
		Destination:     e.treasury,
		AssetID:         e.mint,
		EphemeralSecret: "eph-" + string(stage),
		Wallet:          e.record,
	}
	if stage == model.StageMint {
		res.MintTransaction = "AQAB"
	}
	return res
}

// expectBackend answers every init and commit, failing the n-th call
// (1-based, per kind of call) when the matching hook returns an error.
func (e *testEnv) expectBackend(initErr func(n int, req model.InitRequest) error, commitErr func(n int, req model.CommitRequest) error) {
	e.backend.EXPECT().Init(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req model.InitRequest) (*model.InitResult, error) {
			e.mu.Lock()
			e.inits = append(e.inits, req)
			n := len(e.inits)
			e.mu.Unlock()
			if initErr != nil {
				if err := initErr(n, req); err != nil {
					return nil, err
				}
			}
			return e.initResult(req.Stage), nil
		}).AnyTimes()

	e.backend.EXPECT().Commit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req model.CommitRequest) error {
			e.mu.Lock()
			e.commits = append(e.commits, req)
			n := len(e.commits)
			e.mu.Unlock()
			if commitErr != nil {
				return commitErr(n, req)
			}
			return nil
		}).AnyTimes()
}

func (e *testEnv) initCalls() []model.InitRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.InitRequest(nil), e.inits...)
}

func (e *testEnv) commitCalls() []model.CommitRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.CommitRequest(nil), e.commits...)
}

func (e *testEnv) wait(h *flow.Handle) flow.State {
	e.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	st, err := h.Wait(ctx)
	require.NoError(e.t, err, "flow did not stop")
	return st
}

func (e *testEnv) startEscrow(orderID string, secret []byte) *flow.Handle {
	e.t.Helper()
	h, err := e.orch.StartFlow(context.Background(), model.FlowEscrowTransfer,
		flow.Params{OrderID: orderID, Amount: "12.5"}, secret)
	require.NoError(e.t, err)
	return h
}

func mustSignature(t *testing.T, s string) solana.Signature {
	t.Helper()
	sig, err := solana.SignatureFromBase58(s)
	require.NoError(t, err)
	return sig
}

func TestEscrowTransfer_Succeeds(t *testing.T) {
	e := newTestEnv(t)
	e.expectBackend(nil, nil)

	st := e.wait(e.startEscrow("order-1", e.secret))

	assert.Equal(t, flow.PhaseSucceeded, st.Phase)
	assert.Equal(t, flow.OutcomeSucceeded, st.Outcome)
	assert.Equal(t, 1, st.Attempt)
	assert.Empty(t, st.Message)

	inits := e.initCalls()
	require.Len(t, inits, 1)
	assert.Equal(t, model.FlowEscrowTransfer, inits[0].Kind)
	assert.Equal(t, model.StageTransfer, inits[0].Stage)
	assert.Equal(t, "12.5", inits[0].Amount)
	assert.Equal(t, "order-1", inits[0].OrderID)

	plans := e.ledger.transferPlans()
	require.Len(t, plans, 1)
	units, err := plans[0].BaseUnits()
	require.NoError(t, err)
	assert.Equal(t, uint64(12_500000), units)
	assert.Equal(t, e.treasury, plans[0].Destination)
	assert.Equal(t, e.record.PublicKey, plans[0].Source)

	commits := e.commitCalls()
	require.Len(t, commits, 1)
	assert.Equal(t, st.LastTransactionSignature, commits[0].Signature)
	assert.Equal(t, "eph-transfer", commits[0].EphemeralSecret)
	assert.Len(t, e.ledger.submissions(), 1)
}

func TestFeeTransferAndMint_Succeeds(t *testing.T) {
	e := newTestEnv(t)
	e.expectBackend(nil, nil)

	h, err := e.orch.StartFlow(context.Background(), model.FlowFeeTransferAndMint, flow.Params{OrderID: "order-2"}, e.secret)
	require.NoError(t, err)
	st := e.wait(h)

	require.Equal(t, flow.PhaseSucceeded, st.Phase)
	assert.Equal(t, model.StageMint, st.Stage)
	require.NotEmpty(t, st.FeeSignature)
	assert.NotEqual(t, st.FeeSignature, st.LastTransactionSignature)

	plans := e.ledger.transferPlans()
	require.Len(t, plans, 1)
	units, err := plans[0].BaseUnits()
	require.NoError(t, err)
	assert.Equal(t, uint64(20_000000), units, "20 tokens at 6 decimals")
	assert.Equal(t, uint8(6), plans[0].Decimals)
	assert.Equal(t, 1, e.ledger.mintCalls())

	inits := e.initCalls()
	require.Len(t, inits, 2)
	assert.Equal(t, model.StageTransfer, inits[0].Stage)
	assert.Equal(t, "20", inits[0].Amount)
	assert.Equal(t, model.StageMint, inits[1].Stage)
	assert.Equal(t, st.FeeSignature, inits[1].ProofSignature, "mint init carries the fee proof")

	commits := e.commitCalls()
	require.Len(t, commits, 2)
	assert.Equal(t, st.FeeSignature, commits[0].Signature)
	assert.Equal(t, model.StageMint, commits[1].Stage)
	assert.Equal(t, st.LastTransactionSignature, commits[1].Signature)
	assert.Equal(t, "eph-mint", commits[1].EphemeralSecret)
	assert.Len(t, e.ledger.submissions(), 2)
}

func TestOwnershipTransfer(t *testing.T) {
	t.Run("moves one unit to the recipient", func(t *testing.T) {
		e := newTestEnv(t)
		e.expectBackend(nil, nil)
		recipient := solana.NewWallet().PublicKey()

		h, err := e.orch.StartFlow(context.Background(), model.FlowOwnershipTransfer,
			flow.Params{OrderID: "nft-1", Recipient: recipient}, e.secret)
		require.NoError(t, err)
		st := e.wait(h)
		require.Equal(t, flow.PhaseSucceeded, st.Phase)

		plans := e.ledger.transferPlans()
		require.Len(t, plans, 1)
		assert.True(t, plans[0].Unique)
		assert.Equal(t, "1", plans[0].Amount)
		assert.Equal(t, uint8(0), plans[0].Decimals)
		assert.Equal(t, recipient, plans[0].Destination)

		inits := e.initCalls()
		require.Len(t, inits, 1)
		assert.Equal(t, "1", inits[0].Amount)
		assert.Equal(t, recipient.String(), inits[0].Recipient)
	})

	t.Run("rejects other amounts before any call", func(t *testing.T) {
		e := newTestEnv(t)

		_, err := e.orch.StartFlow(context.Background(), model.FlowOwnershipTransfer,
			flow.Params{OrderID: "nft-2", Amount: "2", Recipient: solana.NewWallet().PublicKey()}, e.secret)
		assert.ErrorIs(t, err, model.ErrUniqueAssetAmount)
	})
}

func TestTimeoutButLanded_Succeeds(t *testing.T) {
	e := newTestEnv(t)
	e.expectBackend(nil, nil)
	e.ledger.setSubmit(func(_ int, sig solana.Signature) error {
		e.ledger.land(sig)
		return &client.TimeoutError{Signature: sig, Wait: time.Minute}
	})

	st := e.wait(e.startEscrow("order-3", e.secret))

	assert.Equal(t, flow.PhaseSucceeded, st.Phase)
	assert.Len(t, e.ledger.submissions(), 1)
	assert.Len(t, e.commitCalls(), 1)
}

func TestFailedAtTransfer_RetryCommitsLandedSubmission(t *testing.T) {
	e := newTestEnv(t)
	e.expectBackend(nil, nil)
	e.ledger.setSubmit(func(_ int, sig solana.Signature) error {
		return &client.TimeoutError{Signature: sig, Wait: time.Minute}
	})

	st := e.wait(e.startEscrow("order-4", e.secret))
	require.Equal(t, flow.PhaseFailedAtTransfer, st.Phase)
	assert.Equal(t, flow.OutcomeTransferFailed, st.Outcome)
	assert.Equal(t, "the transaction was not confirmed in time", st.Message)
	require.NotEmpty(t, st.LastTransactionSignature)
	assert.Empty(t, e.commitCalls())

	stopped := e.logs.entries(t, "flow stopped")
	require.Len(t, stopped, 1)
	assert.Equal(t, st.LastTransactionSignature, stopped[0]["signature"])
	assert.Equal(t, string(flow.PhaseFailedAtTransfer), stopped[0]["phase"])

	// lands after the wait gave up
	e.ledger.land(mustSignature(t, st.LastTransactionSignature))

	h, err := e.orch.Retry(context.Background(), st.ID, e.secret)
	require.NoError(t, err)
	final := e.wait(h)

	assert.Equal(t, flow.PhaseSucceeded, final.Phase)
	assert.Equal(t, 2, final.Attempt)
	assert.Equal(t, st.LastTransactionSignature, final.LastTransactionSignature)
	assert.Len(t, e.ledger.submissions(), 1, "no second transfer")
	assert.Len(t, e.initCalls(), 1, "no second init")
	require.Len(t, e.commitCalls(), 1)
	assert.Equal(t, st.LastTransactionSignature, e.commitCalls()[0].Signature)
}

func TestFailedAtTransfer_RetryWaitsForBlockhashExpiry(t *testing.T) {
	e := newTestEnv(t)
	e.expectBackend(nil, nil)
	e.ledger.setSubmit(func(n int, sig solana.Signature) error {
		if n == 1 {
			return &client.TimeoutError{Signature: sig, Wait: time.Minute}
		}
		return nil
	})

	st := e.wait(e.startEscrow("order-5", e.secret))
	require.Equal(t, flow.PhaseFailedAtTransfer, st.Phase)

	_, err := e.orch.Retry(context.Background(), st.ID, e.secret)
	require.ErrorIs(t, err, flow.ErrPreviousSubmissionPending)

	again, err := e.orch.Get(st.ID)
	require.NoError(t, err)
	assert.Equal(t, flow.PhaseFailedAtTransfer, again.Phase, "refused retry leaves the flow alone")

	e.ledger.setHeight(1000 + client.MaxProcessingAge + 1)

	h, err := e.orch.Retry(context.Background(), st.ID, e.secret)
	require.NoError(t, err)
	final := e.wait(h)

	assert.Equal(t, flow.PhaseSucceeded, final.Phase)
	subs := e.ledger.submissions()
	require.Len(t, subs, 2)
	assert.NotEqual(t, subs[0], subs[1])
	assert.Equal(t, subs[1].String(), final.LastTransactionSignature)
	assert.Len(t, e.initCalls(), 2)
}

func TestFailedAtTransfer_ProcessedIsPending(t *testing.T) {
	e := newTestEnv(t)
	e.expectBackend(nil, nil)
	e.ledger.setSubmit(func(_ int, sig solana.Signature) error {
		return &client.NetworkError{Op: "confirm", Signature: sig, Err: errors.New("connection reset")}
	})

	st := e.wait(e.startEscrow("order-6", e.secret))
	require.Equal(t, flow.PhaseFailedAtTransfer, st.Phase)
	assert.Equal(t, "the network is unreachable, try again later", st.Message)

	e.ledger.setStatus(mustSignature(t, st.LastTransactionSignature), client.TxProcessed)
	e.ledger.setHeight(5000)

	_, err := e.orch.Retry(context.Background(), st.ID, e.secret)
	assert.ErrorIs(t, err, flow.ErrPreviousSubmissionPending)
}

func TestFailedAtCommit_RetryOnlyCommits(t *testing.T) {
	e := newTestEnv(t)
	e.expectBackend(nil, func(n int, _ model.CommitRequest) error {
		if n == 1 {
			return fmt.Errorf("%w: status 500", client.ErrBackendFailure)
		}
		return nil
	})

	st := e.wait(e.startEscrow("order-7", e.secret))
	require.Equal(t, flow.PhaseFailedAtCommit, st.Phase)
	assert.Equal(t, flow.OutcomeTransferFailed, st.Outcome)
	assert.NotEmpty(t, st.Message)

	h, err := e.orch.Retry(context.Background(), st.ID, nil)
	require.NoError(t, err)
	final := e.wait(h)

	assert.Equal(t, flow.PhaseSucceeded, final.Phase)
	assert.Len(t, e.ledger.submissions(), 1)
	assert.Len(t, e.initCalls(), 1)
	commits := e.commitCalls()
	require.Len(t, commits, 2)
	assert.Equal(t, commits[0], commits[1], "the same commit is repeated")
}

func TestFailedAtCommit_SignatureNoLongerConfirmed(t *testing.T) {
	e := newTestEnv(t)
	e.expectBackend(nil, func(int, model.CommitRequest) error {
		return client.ErrBackendUnavailable
	})

	st := e.wait(e.startEscrow("order-8", e.secret))
	require.Equal(t, flow.PhaseFailedAtCommit, st.Phase)

	e.ledger.setStatus(mustSignature(t, st.LastTransactionSignature), client.TxNotFound)

	_, err := e.orch.Retry(context.Background(), st.ID, nil)
	require.ErrorIs(t, err, flow.ErrAlreadyConfirmedMismatch)

	parked, err := e.orch.Get(st.ID)
	require.NoError(t, err)
	assert.Equal(t, flow.PhaseReconciliationRequired, parked.Phase)
	assert.Equal(t, flow.OutcomeReconciliationRequired, parked.Outcome)

	_, err = e.orch.Retry(context.Background(), st.ID, nil)
	assert.ErrorIs(t, err, flow.ErrNotRetryable)
}

func TestStartFlow_AlreadyInProgress(t *testing.T) {
	e := newTestEnv(t)
	release := make(chan struct{})
	e.backend.EXPECT().Init(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req model.InitRequest) (*model.InitResult, error) {
			<-release
			return e.initResult(req.Stage), nil
		}).Times(1)
	e.backend.EXPECT().Commit(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	h := e.startEscrow("order-9", e.secret)

	_, err := e.orch.StartFlow(context.Background(), model.FlowEscrowTransfer,
		flow.Params{OrderID: "order-9", Amount: "1"}, e.secret)
	assert.ErrorIs(t, err, flow.ErrAlreadyInProgress)

	_, err = e.orch.Retry(context.Background(), h.ID(), e.secret)
	assert.ErrorIs(t, err, flow.ErrAlreadyInProgress)

	close(release)
	assert.Equal(t, flow.PhaseSucceeded, e.wait(h).Phase)
}

func TestStartFlow_RefusedOnceOnLedger(t *testing.T) {
	t.Run("after a failed commit", func(t *testing.T) {
		e := newTestEnv(t)
		e.expectBackend(nil, func(n int, _ model.CommitRequest) error {
			if n == 1 {
				return client.ErrBackendUnavailable
			}
			return nil
		})

		st := e.wait(e.startEscrow("order-21", e.secret))
		require.Equal(t, flow.PhaseFailedAtCommit, st.Phase)

		_, err := e.orch.StartFlow(context.Background(), model.FlowEscrowTransfer,
			flow.Params{OrderID: "order-21", Amount: "12.5"}, e.secret)
		require.ErrorIs(t, err, flow.ErrFlowExists)
		var existing *flow.ExistingFlowError
		require.ErrorAs(t, err, &existing)
		assert.Equal(t, st.ID, existing.FlowID)
		assert.Equal(t, flow.PhaseFailedAtCommit, existing.Phase)
		assert.Len(t, e.ledger.submissions(), 1)

		h, err := e.orch.Retry(context.Background(), existing.FlowID, nil)
		require.NoError(t, err)
		assert.Equal(t, flow.PhaseSucceeded, e.wait(h).Phase)
		assert.Len(t, e.ledger.submissions(), 1, "no second transfer")
	})

	t.Run("after a timeout that may still land", func(t *testing.T) {
		e := newTestEnv(t)
		e.expectBackend(nil, nil)
		e.ledger.setSubmit(func(_ int, sig solana.Signature) error {
			return &client.TimeoutError{Signature: sig, Wait: time.Minute}
		})

		st := e.wait(e.startEscrow("order-22", e.secret))
		require.Equal(t, flow.PhaseFailedAtTransfer, st.Phase)

		_, err := e.orch.StartFlow(context.Background(), model.FlowEscrowTransfer,
			flow.Params{OrderID: "order-22", Amount: "12.5"}, e.secret)
		var existing *flow.ExistingFlowError
		require.ErrorAs(t, err, &existing)
		assert.Equal(t, st.ID, existing.FlowID)

		_, err = e.orch.Resume(context.Background(), model.FlowEscrowTransfer,
			flow.Params{OrderID: "order-22", Amount: "12.5"}, model.StageTransfer, solana.Signature{3}, e.secret)
		assert.ErrorIs(t, err, flow.ErrFlowExists)

		assert.Len(t, e.ledger.submissions(), 1)
		assert.Len(t, e.initCalls(), 1)
	})

	t.Run("allowed when nothing was signed", func(t *testing.T) {
		e := newTestEnv(t)
		e.expectBackend(nil, nil)

		st := e.wait(e.startEscrow("order-23", []byte("wrong-secret")))
		require.Equal(t, flow.PhaseFailedAtUnlock, st.Phase)

		h := e.startEscrow("order-23", e.secret)
		assert.NotEqual(t, st.ID, h.ID())
		assert.Equal(t, flow.PhaseSucceeded, e.wait(h).Phase)
		assert.Len(t, e.ledger.submissions(), 1)
	})

	t.Run("other flow kinds of the same order are separate", func(t *testing.T) {
		e := newTestEnv(t)
		e.expectBackend(nil, nil)

		require.Equal(t, flow.PhaseSucceeded, e.wait(e.startEscrow("order-24", e.secret)).Phase)

		h, err := e.orch.StartFlow(context.Background(), model.FlowFeeTransferAndMint, flow.Params{OrderID: "order-24"}, e.secret)
		require.NoError(t, err)
		assert.Equal(t, flow.PhaseSucceeded, e.wait(h).Phase)
	})
}

func TestCancel_BeforeSubmission(t *testing.T) {
	e := newTestEnv(t)
	entered := make(chan struct{})
	e.backend.EXPECT().Init(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ model.InitRequest) (*model.InitResult, error) {
			close(entered)
			<-ctx.Done()
			return nil, ctx.Err()
		}).Times(1)

	h := e.startEscrow("order-10", e.secret)
	<-entered

	st, err := e.orch.Cancel(context.Background(), h.ID())
	require.NoError(t, err)
	assert.Equal(t, flow.PhaseCancelled, st.Phase)
	assert.Equal(t, flow.OutcomeCancelled, st.Outcome)
	assert.Equal(t, "cancelled", st.Message)
	assert.Empty(t, e.ledger.submissions())

	_, err = e.orch.Cancel(context.Background(), h.ID())
	assert.ErrorIs(t, err, flow.ErrFlowNotRunning)
}

func TestCancel_RefusedAfterDispatch(t *testing.T) {
	e := newTestEnv(t)
	e.expectBackend(nil, nil)
	e.ledger.gate = make(chan struct{})
	e.ledger.started = make(chan struct{}, 1)

	h := e.startEscrow("order-11", e.secret)
	<-e.ledger.started

	st, err := e.orch.Cancel(context.Background(), h.ID())
	require.ErrorIs(t, err, flow.ErrCancelRefused)
	assert.Equal(t, flow.PhaseOnLedgerSubmitted, st.Phase)

	close(e.ledger.gate)
	assert.Equal(t, flow.PhaseSucceeded, e.wait(h).Phase)
}

func TestMintFailure_RetryKeepsFee(t *testing.T) {
	e := newTestEnv(t)
	e.expectBackend(nil, nil)
	e.ledger.setSubmit(func(n int, sig solana.Signature) error {
		if n == 2 {
			return &client.RejectedError{Signature: sig, Reason: "custom program error: 0x1"}
		}
		return nil
	})

	h, err := e.orch.StartFlow(context.Background(), model.FlowFeeTransferAndMint, flow.Params{OrderID: "order-12"}, e.secret)
	require.NoError(t, err)
	st := e.wait(h)

	require.Equal(t, flow.PhaseFailedAtTransfer, st.Phase)
	assert.Equal(t, model.StageMint, st.Stage)
	assert.Equal(t, flow.OutcomeMintingFailed, st.Outcome)
	assert.Equal(t, "the transaction was rejected by the network", st.Message)
	feeSig := st.FeeSignature
	require.NotEmpty(t, feeSig)

	h, err = e.orch.Retry(context.Background(), st.ID, e.secret)
	require.NoError(t, err)
	final := e.wait(h)

	assert.Equal(t, flow.PhaseSucceeded, final.Phase)
	assert.Equal(t, feeSig, final.FeeSignature)
	assert.Len(t, e.ledger.transferPlans(), 1, "fee is not rebuilt")
	assert.Equal(t, 2, e.ledger.mintCalls())
	assert.Len(t, e.ledger.submissions(), 3)

	var feeInits int
	for _, req := range e.initCalls() {
		if req.Stage == model.StageTransfer {
			feeInits++
		} else {
			assert.Equal(t, feeSig, req.ProofSignature)
		}
	}
	assert.Equal(t, 1, feeInits)
}

func TestWrongSecret_FailedAtUnlock(t *testing.T) {
	e := newTestEnv(t)
	e.expectBackend(nil, nil)

	st := e.wait(e.startEscrow("order-13", []byte("wrong-secret")))
	require.Equal(t, flow.PhaseFailedAtUnlock, st.Phase)
	assert.Equal(t, "invalid secret", st.Message)
	assert.Empty(t, e.ledger.submissions())

	h, err := e.orch.Retry(context.Background(), st.ID, e.secret)
	require.NoError(t, err)
	assert.Equal(t, flow.PhaseSucceeded, e.wait(h).Phase)
	assert.Len(t, e.initCalls(), 2)
}

func TestInitFailure_Retry(t *testing.T) {
	e := newTestEnv(t)
	e.expectBackend(func(n int, _ model.InitRequest) error {
		if n == 1 {
			return client.ErrBackendUnavailable
		}
		return nil
	}, nil)

	st := e.wait(e.startEscrow("order-14", e.secret))
	require.Equal(t, flow.PhaseFailedAtInit, st.Phase)
	assert.Equal(t, flow.OutcomeTransferFailed, st.Outcome)
	assert.Equal(t, "the order service is unreachable, try again later", st.Message)

	h, err := e.orch.Retry(context.Background(), st.ID, e.secret)
	require.NoError(t, err)
	assert.Equal(t, flow.PhaseSucceeded, e.wait(h).Phase)
}

func TestInsufficientBalance(t *testing.T) {
	e := newTestEnv(t)
	e.expectBackend(nil, nil)
	e.ledger.balanceErr = fmt.Errorf("%w: have 0, need 5000", client.ErrInsufficientBalance)

	st := e.wait(e.startEscrow("order-15", e.secret))

	assert.Equal(t, flow.PhaseFailedAtTransfer, st.Phase)
	assert.Equal(t, "not enough SOL to pay network fees", st.Message)
	assert.Empty(t, e.ledger.submissions())
}

func TestResume(t *testing.T) {
	t.Run("confirmed signature is committed", func(t *testing.T) {
		e := newTestEnv(t)
		e.expectBackend(nil, nil)
		sig := solana.Signature{7}
		e.ledger.land(sig)

		h, err := e.orch.Resume(context.Background(), model.FlowEscrowTransfer,
			flow.Params{OrderID: "order-16", Amount: "3"}, model.StageTransfer, sig, e.secret)
		require.NoError(t, err)
		st := e.wait(h)

		assert.Equal(t, flow.PhaseSucceeded, st.Phase)
		assert.Empty(t, e.ledger.submissions())
		commits := e.commitCalls()
		require.Len(t, commits, 1)
		assert.Equal(t, sig.String(), commits[0].Signature)
	})

	t.Run("unknown signature waits for expiry", func(t *testing.T) {
		e := newTestEnv(t)
		e.expectBackend(nil, nil)
		sig := solana.Signature{8}

		h, err := e.orch.Resume(context.Background(), model.FlowEscrowTransfer,
			flow.Params{OrderID: "order-17", Amount: "3"}, model.StageTransfer, sig, e.secret)
		require.NoError(t, err)
		st := e.wait(h)

		require.Equal(t, flow.PhaseFailedAtTransfer, st.Phase)
		assert.Equal(t, sig.String(), st.LastTransactionSignature)
		assert.Empty(t, e.commitCalls())

		_, err = e.orch.Retry(context.Background(), st.ID, e.secret)
		assert.ErrorIs(t, err, flow.ErrPreviousSubmissionPending)
	})

	t.Run("failed init still bounds the wait", func(t *testing.T) {
		e := newTestEnv(t)
		e.expectBackend(func(n int, _ model.InitRequest) error {
			if n == 1 {
				return client.ErrBackendUnavailable
			}
			return nil
		}, nil)
		sig := solana.Signature{10}

		h, err := e.orch.Resume(context.Background(), model.FlowEscrowTransfer,
			flow.Params{OrderID: "order-25", Amount: "3"}, model.StageTransfer, sig, e.secret)
		require.NoError(t, err)
		st := e.wait(h)
		require.Equal(t, flow.PhaseFailedAtInit, st.Phase)

		_, err = e.orch.Retry(context.Background(), st.ID, e.secret)
		require.ErrorIs(t, err, flow.ErrPreviousSubmissionPending)

		e.ledger.setHeight(1000 + client.MaxProcessingAge + 1)

		h, err = e.orch.Retry(context.Background(), st.ID, e.secret)
		require.NoError(t, err)
		final := e.wait(h)
		assert.Equal(t, flow.PhaseSucceeded, final.Phase)
		require.Len(t, e.ledger.submissions(), 1)
		assert.NotEqual(t, sig, e.ledger.submissions()[0])
	})

	t.Run("mint stage needs the fee signature", func(t *testing.T) {
		e := newTestEnv(t)

		_, err := e.orch.Resume(context.Background(), model.FlowFeeTransferAndMint,
			flow.Params{OrderID: "order-18"}, model.StageMint, solana.Signature{9}, e.secret)
		assert.ErrorIs(t, err, flow.ErrInvalidParams)
	})
}

func TestLookupErrors(t *testing.T) {
	e := newTestEnv(t)
	e.expectBackend(nil, nil)

	_, err := e.orch.Retry(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, flow.ErrFlowNotFound)
	_, err = e.orch.Get("missing")
	assert.ErrorIs(t, err, flow.ErrFlowNotFound)
	_, err = e.orch.Cancel(context.Background(), "missing")
	assert.ErrorIs(t, err, flow.ErrFlowNotFound)

	st := e.wait(e.startEscrow("order-19", e.secret))
	require.Equal(t, flow.PhaseSucceeded, st.Phase)

	_, err = e.orch.Retry(context.Background(), st.ID, e.secret)
	assert.ErrorIs(t, err, flow.ErrNotRetryable)

	_, err = e.orch.StartFlow(context.Background(), model.FlowEscrowTransfer,
		flow.Params{OrderID: "order-19", Amount: "12.5"}, e.secret)
	var existing *flow.ExistingFlowError
	require.ErrorAs(t, err, &existing)
	assert.Equal(t, st.ID, existing.FlowID)
	assert.Equal(t, flow.PhaseSucceeded, existing.Phase)
}

func TestSubscribe(t *testing.T) {
	e := newTestEnv(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	e.backend.EXPECT().Init(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req model.InitRequest) (*model.InitResult, error) {
			close(entered)
			<-release
			return e.initResult(req.Stage), nil
		}).Times(1)
	e.backend.EXPECT().Commit(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	h := e.startEscrow("order-20", e.secret)
	<-entered
	updates, _ := h.Subscribe()
	close(release)

	var phases []flow.Phase
	for st := range updates {
		phases = append(phases, st.Phase)
	}
	assert.Equal(t, []flow.Phase{
		flow.PhaseReadyToSign,
		flow.PhaseOnLedgerSubmitted,
		flow.PhaseOnLedgerConfirmed,
		flow.PhaseBackendCommitted,
		flow.PhaseSucceeded,
	}, phases)

	// a finished flow yields a closed channel
	closed, _ := h.Subscribe()
	_, open := <-closed
	assert.False(t, open)
}
