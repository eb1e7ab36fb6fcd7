package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AlexZinkM/flow-wallet/flow"
	"github.com/AlexZinkM/flow-wallet/internal/client"
	"github.com/AlexZinkM/flow-wallet/internal/logger"
	"github.com/AlexZinkM/flow-wallet/internal/model"
	"github.com/AlexZinkM/flow-wallet/internal/vault"
)

const (
	codeBadRequest             = "bad_request"
	codeInvalidSecret          = "invalid_secret"
	codeNotFound               = "not_found"
	codeAlreadyInProgress      = "already_in_progress"
	codeFlowExists             = "flow_exists"
	codeCancelRefused          = "cancel_refused"
	codeNotRunning             = "not_running"
	codeNotRetryable           = "not_retryable"
	codeSubmissionPending      = "submission_pending"
	codeReconciliationRequired = "reconciliation_required"
	codeWalletExists           = "wallet_exists"
	codeWalletNotFound         = "wallet_not_found"
	codeLedgerUnavailable      = "ledger_unavailable"
	codeLedgerRejected         = "ledger_rejected"
	codeInsufficientBalance    = "insufficient_balance"
	codeInternal               = "internal"
)

type apiError struct {
	status int
	code   string
}

// errorStatuses is checked in order: the first sentinel the error matches
// decides the status. An invalid secret wins over anything it is wrapped
// with.
var errorStatuses = []struct {
	target error
	apiError
}{
	{vault.ErrInvalidSecret, apiError{http.StatusUnauthorized, codeInvalidSecret}},

	{flow.ErrInvalidParams, apiError{http.StatusBadRequest, codeBadRequest}},
	{model.ErrUniqueAssetAmount, apiError{http.StatusBadRequest, codeBadRequest}},
	{model.ErrInvalidPlan, apiError{http.StatusBadRequest, codeBadRequest}},
	{flow.ErrFlowNotFound, apiError{http.StatusNotFound, codeNotFound}},
	{flow.ErrFlowExists, apiError{http.StatusConflict, codeFlowExists}},
	{flow.ErrAlreadyInProgress, apiError{http.StatusConflict, codeAlreadyInProgress}},
	{flow.ErrCancelRefused, apiError{http.StatusConflict, codeCancelRefused}},
	{flow.ErrFlowNotRunning, apiError{http.StatusConflict, codeNotRunning}},
	{flow.ErrNotRetryable, apiError{http.StatusConflict, codeNotRetryable}},
	{flow.ErrPreviousSubmissionPending, apiError{http.StatusConflict, codeSubmissionPending}},
	{flow.ErrAlreadyConfirmedMismatch, apiError{http.StatusConflict, codeReconciliationRequired}},

	{vault.ErrFileExists, apiError{http.StatusConflict, codeWalletExists}},
	{vault.ErrWalletNotFound, apiError{http.StatusNotFound, codeWalletNotFound}},

	{client.ErrInsufficientBalance, apiError{http.StatusUnprocessableEntity, codeInsufficientBalance}},
	{client.ErrRejected, apiError{http.StatusBadGateway, codeLedgerRejected}},
	{client.ErrTimeout, apiError{http.StatusGatewayTimeout, codeLedgerUnavailable}},
	{client.ErrNetwork, apiError{http.StatusBadGateway, codeLedgerUnavailable}},
}

func errorFor(err error) apiError {
	for _, e := range errorStatuses {
		if errors.Is(err, e.target) {
			return e.apiError
		}
	}
	return apiError{http.StatusInternalServerError, codeInternal}
}

// writeFailure answers with the mapped status. Internal errors are logged and
// replaced with a generic message; the invalid secret never says more.
func writeFailure(w http.ResponseWriter, log *logger.Logger, err error) {
	e := errorFor(err)

	message := err.Error()
	switch {
	case e.code == codeInvalidSecret:
		message = "invalid secret"
	case e.status >= http.StatusInternalServerError:
		log.Error().Err(err).Int("status", e.status).Msg("request failed")
		if e.code == codeInternal {
			message = "internal error"
		}
	}
	resp := model.ErrorResponse{Error: message, Code: e.code}
	var existing *flow.ExistingFlowError
	if errors.As(err, &existing) {
		resp.FlowID = existing.FlowID
	}
	writeJSON(w, e.status, resp)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, model.ErrorResponse{Error: message, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
