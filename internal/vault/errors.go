package vault

import "errors"

var (
	// ErrInvalidSecret collapses every unlock failure. It is recoverable only
	// by asking the user for the secret again; it is never retried automatically.
	ErrInvalidSecret = errors.New("invalid secret")

	ErrKeypairClosed  = errors.New("keypair already discarded")
	ErrFileExists     = errors.New("wallet file is not empty")
	ErrWalletNotFound = errors.New("wallet file does not exist")
)
