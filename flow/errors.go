package flow

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyInProgress         = errors.New("a flow for this order is already running")
	ErrFlowExists                = errors.New("order already has a flow that reached the ledger, retry it instead")
	ErrAlreadyConfirmedMismatch  = errors.New("signature recorded as confirmed is no longer confirmed on the ledger")
	ErrCancelRefused             = errors.New("transaction already dispatched, cancel refused")
	ErrFlowNotFound              = errors.New("flow not found")
	ErrNotRetryable              = errors.New("flow is not in a retryable phase")
	ErrPreviousSubmissionPending = errors.New("previous submission may still land, retry after its blockhash expires")
	ErrFlowNotRunning            = errors.New("flow is not running")
	ErrInvalidParams             = errors.New("invalid flow parameters")

	errInvalidTransition = errors.New("invalid phase transition")
	errNotLanded         = errors.New("transaction did not land")
)

// ExistingFlowError refuses a new flow for an order whose latest flow has
// already signed or committed something. FlowID is the flow to Retry.
type ExistingFlowError struct {
	FlowID string
	Phase  Phase
}

func (e *ExistingFlowError) Error() string {
	return fmt.Sprintf("%s: flow %s is %s", ErrFlowExists, e.FlowID, e.Phase)
}

func (e *ExistingFlowError) Is(target error) bool { return target == ErrFlowExists }
