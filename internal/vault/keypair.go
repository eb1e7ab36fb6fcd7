package vault

import (
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// Keypair is a transient signing handle. It is valid until Close.
type Keypair struct {
	mu  sync.Mutex
	key solana.PrivateKey
	pub solana.PublicKey
}

// PublicKey returns the account identity. It stays valid after Close.
func (k *Keypair) PublicKey() solana.PublicKey {
	return k.pub
}

// SignTransaction adds this key's signature at its signer slot. It works on
// freshly built transactions and on transactions already partially signed by
// other parties, whose signatures are left untouched.
func (k *Keypair) SignTransaction(tx *solana.Transaction) (solana.Signature, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.key == nil {
		return solana.Signature{}, ErrKeypairClosed
	}

	required := int(tx.Message.Header.NumRequiredSignatures)
	idx := -1
	for i := 0; i < required && i < len(tx.Message.AccountKeys); i++ {
		if tx.Message.AccountKeys[i].Equals(k.pub) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return solana.Signature{}, fmt.Errorf("%s is not a required signer of the transaction", k.pub)
	}

	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to serialize message: %w", err)
	}

	sig, err := k.key.Sign(msg)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if len(tx.Signatures) < required {
		sigs := make([]solana.Signature, required)
		copy(sigs, tx.Signatures)
		tx.Signatures = sigs
	}
	tx.Signatures[idx] = sig

	return sig, nil
}

// Close zeroes the private key. Safe to call more than once.
func (k *Keypair) Close() {
	k.mu.Lock()
	defer k.mu.Unlock()

	clear(k.key)
	k.key = nil
}
