package flow

import (
	"errors"

	"github.com/AlexZinkM/flow-wallet/internal/client"
	"github.com/AlexZinkM/flow-wallet/internal/model"
	"github.com/AlexZinkM/flow-wallet/internal/vault"
)

// userMessage turns a failure into text safe to show in the UI. Internal
// causes stay in State.Error.
func userMessage(phase Phase, cause error) string {
	switch phase {
	case PhaseCancelled:
		return "cancelled"
	case PhaseReconciliationRequired:
		return "the transaction state could not be verified, please contact support"
	case PhaseFailedAtCommit:
		return "the transaction is confirmed but the order service has not recorded it yet, retry to finish"
	case PhaseFailedAtUnlock:
		if errors.Is(cause, vault.ErrInvalidSecret) {
			return "invalid secret"
		}
		return "the wallet could not be unlocked"
	case PhaseFailedAtInit:
		switch {
		case errors.Is(cause, model.ErrInvalidPlan), errors.Is(cause, model.ErrUniqueAssetAmount):
			return "the order cannot be paid with these parameters"
		case errors.Is(cause, client.ErrBackendUnavailable):
			return "the order service is unreachable, try again later"
		}
		return "the order service could not start this step"
	case PhaseFailedAtTransfer:
		switch {
		case errors.Is(cause, client.ErrInsufficientBalance):
			return "not enough SOL to pay network fees"
		case errors.Is(cause, client.ErrSourceAccountMissing):
			return "the wallet holds no balance of this token"
		case errors.Is(cause, client.ErrTimeout):
			return "the transaction was not confirmed in time"
		case errors.Is(cause, client.ErrRejected):
			return "the transaction was rejected by the network"
		case errors.Is(cause, client.ErrNetwork):
			return "the network is unreachable, try again later"
		}
		return "the transaction could not be completed"
	}
	return ""
}
