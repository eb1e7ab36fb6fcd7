package crypto

import "errors"

var (
	// ErrKeyDerivation is returned only when the secret is empty.
	ErrKeyDerivation = errors.New("key derivation failed: empty secret")

	// ErrDecryption covers every decrypt failure: wrong secret, corrupted
	// blob, truncated blob. Callers cannot tell them apart.
	ErrDecryption = errors.New("decryption failed")
)
