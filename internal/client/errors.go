package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrNetwork  = errors.New("ledger unreachable")
	ErrRejected = errors.New("transaction rejected by ledger")
	ErrTimeout  = errors.New("transaction not confirmed in time")

	ErrInsufficientBalance  = errors.New("insufficient SOL balance for network fees")
	ErrFundingNotAllowed    = errors.New("faucet funding is not allowed on this network")
	ErrSourceAccountMissing = errors.New("source token account not found")
	ErrNotSigner            = errors.New("key is not a required signer of the transaction")
	ErrUnsignedTransaction  = errors.New("transaction carries no fee payer signature")

	ErrBackendUnauthorized = errors.New("backend rejected credentials")
	ErrBackendConflict     = errors.New("backend reported a conflicting state")
	ErrBackendFailure      = errors.New("backend request failed")
	ErrBackendUnavailable  = errors.New("backend unreachable")
)

// NetworkError is a transport failure talking to the RPC node. Signature is
// set when the failure happened after the transaction was signed, in which
// case the transaction may or may not have landed.
type NetworkError struct {
	Op        string
	Signature solana.Signature
	Err       error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrNetwork, e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// RejectedError means the node refused the transaction (preflight failure)
// or the transaction landed with an error.
type RejectedError struct {
	Signature solana.Signature
	Reason    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrRejected, e.Reason)
}

func (e *RejectedError) Is(target error) bool { return target == ErrRejected }

// TimeoutError means the transaction was sent but no confirmation was seen
// within Wait. It may still land until its blockhash expires.
type TimeoutError struct {
	Signature solana.Signature
	Wait      time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: %s after %s", ErrTimeout, e.Signature, e.Wait)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// SignatureOf extracts the transaction signature carried by a ledger error.
func SignatureOf(err error) (solana.Signature, bool) {
	var (
		netErr     *NetworkError
		rejectErr  *RejectedError
		timeoutErr *TimeoutError
	)
	switch {
	case errors.As(err, &timeoutErr):
		return timeoutErr.Signature, timeoutErr.Signature != solana.Signature{}
	case errors.As(err, &rejectErr):
		return rejectErr.Signature, rejectErr.Signature != solana.Signature{}
	case errors.As(err, &netErr):
		return netErr.Signature, netErr.Signature != solana.Signature{}
	}
	return solana.Signature{}, false
}
