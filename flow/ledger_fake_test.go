package flow_test

import (
	"context"
	"errors"
	"sync"

	"github.com/AlexZinkM/flow-wallet/internal/client"
	"github.com/AlexZinkM/flow-wallet/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

// fakeLedger builds real transactions and keeps signature statuses in memory.
type fakeLedger struct {
	mu       sync.Mutex
	height   uint64
	statuses map[solana.Signature]client.TxState

	balanceErr error
	// submit decides the result of the n-th submission (1-based). nil confirms.
	submit  func(n int, sig solana.Signature) error
	gate    chan struct{} // when set, submissions wait for it to close
	started chan struct{} // when set, receives one value per submission

	plans     []model.TransferPlan
	mints     []string
	submitted []solana.Signature
	builds    int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		height:   1000,
		statuses: make(map[solana.Signature]client.TxState),
	}
}

func (f *fakeLedger) EnsureMinimumBalance(_ context.Context, _ solana.PublicKey, _ uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balanceErr
}

func (f *fakeLedger) BuildTransfer(_ context.Context, plan model.TransferPlan) (*client.UnsignedTransaction, error) {
	units, err := plan.BaseUnits()
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.plans = append(f.plans, plan)
	tx, err := f.newTx(plan.Source, plan.Destination, units)
	if err != nil {
		return nil, err
	}
	return &client.UnsignedTransaction{
		Tx:                   tx,
		LastValidBlockHeight: f.height + client.MaxProcessingAge,
		RawAmount:            units,
		Decimals:             plan.Decimals,
	}, nil
}

func (f *fakeLedger) PrepareMintCompletion(_ context.Context, encodedTx string, signer solana.PublicKey) (*client.UnsignedTransaction, error) {
	if encodedTx == "" {
		return nil, errors.New("empty mint transaction")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.mints = append(f.mints, encodedTx)
	tx, err := f.newTx(signer, solana.NewWallet().PublicKey(), 1)
	if err != nil {
		return nil, err
	}
	return &client.UnsignedTransaction{
		Tx:                   tx,
		LastValidBlockHeight: f.height + client.MaxProcessingAge,
		RawAmount:            1,
	}, nil
}

// newTx uses a fresh blockhash per build so every attempt gets its own signature.
func (f *fakeLedger) newTx(from, to solana.PublicKey, lamports uint64) (*solana.Transaction, error) {
	f.builds++
	return solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(lamports, from, to).Build()},
		solana.Hash{byte(f.builds)},
		solana.TransactionPayer(from),
	)
}

func (f *fakeLedger) SubmitAndConfirm(_ context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if len(tx.Signatures) == 0 {
		return solana.Signature{}, client.ErrUnsignedTransaction
	}
	sig := tx.Signatures[0]

	f.mu.Lock()
	f.submitted = append(f.submitted, sig)
	n := len(f.submitted)
	submit, gate, started := f.submit, f.gate, f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	var err error
	if submit != nil {
		err = submit(n, sig)
	}
	if err == nil {
		f.land(sig)
	}
	return sig, err
}

func (f *fakeLedger) SignatureStatus(_ context.Context, sig solana.Signature) (client.TxStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.statuses[sig]
	if !ok {
		return client.TxStatus{State: client.TxNotFound}, nil
	}
	return client.TxStatus{State: state, Slot: 42}, nil
}

func (f *fakeLedger) BlockHeight(_ context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.height, nil
}

func (f *fakeLedger) land(sig solana.Signature) {
	f.setStatus(sig, client.TxConfirmed)
}

func (f *fakeLedger) setStatus(sig solana.Signature, state client.TxState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if state == client.TxNotFound {
		delete(f.statuses, sig)
		return
	}
	f.statuses[sig] = state
}

func (f *fakeLedger) setHeight(h uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.height = h
}

func (f *fakeLedger) setSubmit(fn func(n int, sig solana.Signature) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submit = fn
}

func (f *fakeLedger) submissions() []solana.Signature {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]solana.Signature(nil), f.submitted...)
}

func (f *fakeLedger) transferPlans() []model.TransferPlan {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.TransferPlan(nil), f.plans...)
}

func (f *fakeLedger) mintCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.mints)
}
