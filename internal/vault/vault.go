package vault

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"sync"

	"github.com/AlexZinkM/flow-wallet/internal/crypto"
	"github.com/AlexZinkM/flow-wallet/internal/model"

	"github.com/gagliardetto/solana-go"
)

// Vault maps a ledger account to its encrypted private key. Plaintext key
// material only exists inside a Keypair, which callers get through
// WithKeypair and which is zeroed when the callback returns.
type Vault struct {
	enc *crypto.EncryptionService
}

// New creates a Vault on top of an EncryptionService.
func New(enc *crypto.EncryptionService) *Vault {
	return &Vault{enc: enc}
}

// Create generates a new Solana keypair and seals its private key under secret.
// No network I/O: registering the record is the caller's job.
// secret must be []byte for security (caller should zero it after use).
func (v *Vault) Create(secret []byte) (model.WalletRecord, error) {
	// Generate new Solana keypair
	wallet := solana.NewWallet()
	defer clear(wallet.PrivateKey)

	encrypted, err := v.enc.Encrypt(wallet.PrivateKey, secret)
	if err != nil {
		return model.WalletRecord{}, fmt.Errorf("failed to encrypt private key: %w", err)
	}

	return model.WalletRecord{
		PublicKey:       wallet.PublicKey(),
		EncryptedSecret: encrypted,
	}, nil
}

// Seal wraps an existing 64-byte private key in a record under secret. It is
// used to migrate wallets from older file formats. The caller still owns
// privateKey and must zero it.
func (v *Vault) Seal(privateKey []byte, secret []byte) (model.WalletRecord, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return model.WalletRecord{}, fmt.Errorf("private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(privateKey))
	}

	encrypted, err := v.enc.Encrypt(privateKey, secret)
	if err != nil {
		return model.WalletRecord{}, fmt.Errorf("failed to encrypt private key: %w", err)
	}

	return model.WalletRecord{
		PublicKey:       solana.PrivateKey(privateKey).PublicKey(),
		EncryptedSecret: encrypted,
	}, nil
}

// Unlock decrypts the record and returns a signing handle. The caller must
// Close it as soon as the signature is produced; prefer WithKeypair.
func (v *Vault) Unlock(record model.WalletRecord, secret []byte) (*Keypair, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}

	plaintext, err := v.enc.Decrypt(record.EncryptedSecret, secret)
	if err != nil {
		if errors.Is(err, crypto.ErrKeyDerivation) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSecret, err)
		}
		return nil, ErrInvalidSecret
	}

	// Verify private key length (we store full 64-byte key)
	if len(plaintext) != ed25519.PrivateKeySize {
		clear(plaintext)
		return nil, ErrInvalidSecret
	}

	// The stored key must reproduce the record's public key from its seed
	derived := ed25519.NewKeyFromSeed(plaintext[:ed25519.SeedSize])
	defer clear(derived)
	if !solana.PublicKeyFromBytes(derived.Public().(ed25519.PublicKey)).Equals(record.PublicKey) ||
		!solana.PrivateKey(plaintext).PublicKey().Equals(record.PublicKey) {
		clear(plaintext)
		return nil, ErrInvalidSecret
	}

	return &Keypair{key: solana.PrivateKey(plaintext), pub: record.PublicKey}, nil
}

// WithKeypair unlocks the record, runs fn with the signing handle and zeroes
// the key before returning, whatever fn does.
func (v *Vault) WithKeypair(record model.WalletRecord, secret []byte, fn func(kp *Keypair) error) error {
	kp, err := v.Unlock(record, secret)
	if err != nil {
		return err
	}
	defer kp.Close()

	return fn(kp)
}

// RecordSigner signs for a wallet record by unlocking it for each signature.
// It holds a copy of the secret, never the decrypted key, so a caller that
// signs and then waits on the network keeps no key material alive during the
// wait.
type RecordSigner struct {
	v      *Vault
	record model.WalletRecord

	mu     sync.Mutex
	secret []byte
	closed bool
}

// Signer returns a RecordSigner for record. secret is copied; Close zeroes
// the copy.
func (v *Vault) Signer(record model.WalletRecord, secret []byte) *RecordSigner {
	return &RecordSigner{v: v, record: record, secret: bytes.Clone(secret)}
}

func (s *RecordSigner) PublicKey() solana.PublicKey {
	return s.record.PublicKey
}

// SignTransaction unlocks the record, signs tx and zeroes the key again.
func (s *RecordSigner) SignTransaction(tx *solana.Transaction) (solana.Signature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return solana.Signature{}, ErrKeypairClosed
	}

	var sig solana.Signature
	err := s.v.WithKeypair(s.record, s.secret, func(kp *Keypair) error {
		var err error
		sig, err = kp.SignTransaction(tx)
		return err
	})
	return sig, err
}

// Close zeroes the secret. Later signatures fail with ErrKeypairClosed.
func (s *RecordSigner) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.secret)
	s.closed = true
}
