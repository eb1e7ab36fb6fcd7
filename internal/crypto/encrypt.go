package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// PBKDF2 parameters for wallet records.
	//
	// The salt is fixed and public, so all entropy comes from the secret and
	// the same secret always yields the same key. Losing the secret loses
	// the wallet.
	kdfIterations = 100_000
	kdfKeyLen     = 32 // AES-256
	nonceLen      = 12
	tagLen        = 16

	// DefaultSalt is used when no ENCRYPTION_SALT is configured.
	DefaultSalt = "flow-wallet/record/v1"
)

// EncryptionService derives a key from a user secret and seals raw key
// material with AES-GCM. It holds no key state: every call re-derives.
type EncryptionService struct {
	salt []byte
}

// NewEncryptionService creates a service bound to the process-wide salt.
func NewEncryptionService(salt []byte) *EncryptionService {
	if len(salt) == 0 {
		salt = []byte(DefaultSalt)
	}
	s := make([]byte, len(salt))
	copy(s, salt)
	return &EncryptionService{salt: s}
}

// DeriveKey runs PBKDF2-HMAC-SHA256 over secret and the fixed salt.
// secret must be []byte for security (caller should zero it after use).
// Caller must also zero the returned key.
func (s *EncryptionService) DeriveKey(secret []byte) ([]byte, error) {
	if len(secret) == 0 {
		return nil, ErrKeyDerivation
	}
	return pbkdf2.Key(secret, s.salt, kdfIterations, kdfKeyLen, sha256.New), nil
}

// Encrypt seals plaintext under a key derived from secret.
// Output layout: nonce (12 bytes) || ciphertext || tag.
func (s *EncryptionService) Encrypt(plaintext, secret []byte) ([]byte, error) {
	// Derive key from secret
	key, err := s.DeriveKey(secret)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	// Fresh nonce on every call
	nonce := make([]byte, nonceLen, nonceLen+len(plaintext)+tagLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return aesGCM.Seal(nonce, nonce, plaintext, nil), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	// Create AES cipher
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	// Create GCM
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}
