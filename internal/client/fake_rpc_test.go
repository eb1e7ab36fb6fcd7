package client

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// fakeRPC is an in-memory ledger good enough for the client's call patterns.
type fakeRPC struct {
	mu sync.Mutex

	accounts  map[solana.PublicKey]bool
	statuses  map[solana.Signature]*rpc.SignatureStatusesResult
	balance   uint64
	height    uint64
	blockhash solana.Hash

	// land marks every sent transaction confirmed (or failed with failWith).
	land     bool
	failWith any
	sendErr  error
	onSend   func(tx *solana.Transaction)

	sent     []*solana.Transaction
	airdrops []uint64
}

func newFakeRPC() *fakeRPC {
	return &fakeRPC{
		accounts:  make(map[solana.PublicKey]bool),
		statuses:  make(map[solana.Signature]*rpc.SignatureStatusesResult),
		height:    1000,
		blockhash: solana.Hash{1, 2, 3},
		land:      true,
	}
}

func (f *fakeRPC) addAccount(pk solana.PublicKey) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[pk] = true
}

func (f *fakeRPC) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeRPC) GetAccountInfo(_ context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.accounts[account] {
		return nil, rpc.ErrNotFound
	}
	return &rpc.GetAccountInfoResult{Value: &rpc.Account{Owner: solana.TokenProgramID}}, nil
}

func (f *fakeRPC) GetBalance(_ context.Context, _ solana.PublicKey, _ rpc.CommitmentType) (*rpc.GetBalanceResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &rpc.GetBalanceResult{Value: f.balance}, nil
}

func (f *fakeRPC) GetLatestBlockhash(_ context.Context, _ rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &rpc.GetLatestBlockhashResult{Value: &rpc.LatestBlockhashResult{
		Blockhash:            f.blockhash,
		LastValidBlockHeight: f.height + MaxProcessingAge,
	}}, nil
}

func (f *fakeRPC) GetBlockHeight(_ context.Context, _ rpc.CommitmentType) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.height, nil
}

func (f *fakeRPC) SendTransactionWithOpts(_ context.Context, tx *solana.Transaction, _ rpc.TransactionOpts) (solana.Signature, error) {
	// widen the window for concurrent callers
	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	if f.sendErr != nil {
		err := f.sendErr
		f.mu.Unlock()
		return solana.Signature{}, err
	}
	f.sent = append(f.sent, tx)
	sig := tx.Signatures[0]
	if f.land {
		st := &rpc.SignatureStatusesResult{Slot: 42, ConfirmationStatus: rpc.ConfirmationStatusConfirmed}
		if f.failWith != nil {
			st.Err = f.failWith
		}
		f.statuses[sig] = st
	}
	hook := f.onSend
	f.mu.Unlock()

	if hook != nil {
		hook(tx)
	}
	return sig, nil
}

func (f *fakeRPC) GetSignatureStatuses(_ context.Context, _ bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &rpc.GetSignatureStatusesResult{}
	for _, sig := range sigs {
		out.Value = append(out.Value, f.statuses[sig])
	}
	return out, nil
}

func (f *fakeRPC) RequestAirdrop(_ context.Context, _ solana.PublicKey, lamports uint64, _ rpc.CommitmentType) (solana.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.airdrops = append(f.airdrops, lamports)
	sig := solana.Signature{byte(len(f.airdrops)), 9, 9}
	f.statuses[sig] = &rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusFinalized}
	f.balance += lamports
	return sig, nil
}

// keySigner signs with a plain private key.
type keySigner struct {
	key solana.PrivateKey
}

func (s keySigner) PublicKey() solana.PublicKey { return s.key.PublicKey() }

func (s keySigner) SignTransaction(tx *solana.Transaction) (solana.Signature, error) {
	sigs, err := tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(s.key.PublicKey()) {
			return &s.key
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, err
	}
	return sigs[0], nil
}
