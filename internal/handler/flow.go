package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/AlexZinkM/flow-wallet/flow"
	"github.com/AlexZinkM/flow-wallet/internal/logger"
	"github.com/AlexZinkM/flow-wallet/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
)

// FlowHandler exposes the flow orchestrator over HTTP.
type FlowHandler struct {
	flows Flows
	log   *logger.Logger
}

// NewFlowHandler creates a new FlowHandler
func NewFlowHandler(flows Flows, log *logger.Logger) *FlowHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &FlowHandler{flows: flows, log: log}
}

func toFlowResponse(st flow.State) model.FlowResponse {
	return model.FlowResponse{
		ID:                       st.ID,
		Kind:                     string(st.Kind),
		OrderID:                  st.OrderID,
		Stage:                    string(st.Stage),
		Phase:                    string(st.Phase),
		Outcome:                  string(st.Outcome),
		Attempt:                  st.Attempt,
		Terminal:                 st.Phase.Terminal(),
		Retryable:                st.Phase.Retryable(),
		LastTransactionSignature: st.LastTransactionSignature,
		FeeSignature:             st.FeeSignature,
		Message:                  st.Message,
		UpdatedAt:                st.UpdatedAt,
	}
}

func parsePublicKey(field, value string) (solana.PublicKey, error) {
	if value == "" {
		return solana.PublicKey{}, nil
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: invalid %s", flow.ErrInvalidParams, field)
	}
	return key, nil
}

func parseParams(orderID, amount, recipient, assetID string) (flow.Params, error) {
	params := flow.Params{OrderID: orderID, Amount: amount}

	var err error
	if params.Recipient, err = parsePublicKey("recipient", recipient); err != nil {
		return flow.Params{}, err
	}
	if params.AssetID, err = parsePublicKey("assetId", assetID); err != nil {
		return flow.Params{}, err
	}
	return params, nil
}

// Start handles POST /flows
// @Summary      Start a flow
// @Description  Starts FeeTransferAndMint, EscrowTransfer or OwnershipTransfer for an order. The flow runs in the background; poll GET /flows/{id} or subscribe to /flows/{id}/events. An order whose last flow already reached the ledger is refused with code flow_exists and the flowId to retry.
// @Tags         flows
// @Accept       json
// @Produce      json
// @Param        request  body      model.StartFlowRequest  true  "Flow parameters"
// @Success      202      {object}  model.FlowResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /flows [post]
func (h *FlowHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req model.StartFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	secret := []byte(req.Secret)
	defer clear(secret)
	if len(secret) == 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "secret is required")
		return
	}

	kind, err := model.ParseFlowKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	params, err := parseParams(req.OrderID, req.Amount, req.Recipient, req.AssetID)
	if err != nil {
		writeFailure(w, h.log, err)
		return
	}

	handle, err := h.flows.StartFlow(r.Context(), kind, params, secret)
	if err != nil {
		writeFailure(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusAccepted, toFlowResponse(handle.State()))
}

// Get handles GET /flows/{id}
// @Summary      Get flow state
// @Tags         flows
// @Produce      json
// @Param        id   path      string  true  "Flow ID"
// @Success      200  {object}  model.FlowResponse
// @Failure      404  {object}  model.ErrorResponse
// @Router       /flows/{id} [get]
func (h *FlowHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.flows.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toFlowResponse(st))
}

// Retry handles POST /flows/{id}/retry
// @Summary      Retry a failed flow
// @Description  Continues a failed or cancelled flow from where it stopped. The secret may be omitted when only the commit is left.
// @Tags         flows
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true   "Flow ID"
// @Param        request  body      model.RetryFlowRequest  false  "Secret"
// @Success      202      {object}  model.FlowResponse
// @Failure      404      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /flows/{id}/retry [post]
func (h *FlowHandler) Retry(w http.ResponseWriter, r *http.Request) {
	var req model.RetryFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	secret := []byte(req.Secret)
	defer clear(secret)

	handle, err := h.flows.Retry(r.Context(), chi.URLParam(r, "id"), secret)
	if err != nil {
		writeFailure(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toFlowResponse(handle.State()))
}

// Cancel handles POST /flows/{id}/cancel
// @Summary      Cancel a flow
// @Description  Cancels a running flow that has not dispatched its transaction yet.
// @Tags         flows
// @Produce      json
// @Param        id   path      string  true  "Flow ID"
// @Success      200  {object}  model.FlowResponse
// @Failure      404  {object}  model.ErrorResponse
// @Failure      409  {object}  model.ErrorResponse
// @Router       /flows/{id}/cancel [post]
func (h *FlowHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	st, err := h.flows.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toFlowResponse(st))
}

// Resume handles POST /flows/resume
// @Summary      Resume a flow from its last signature
// @Description  Rebuilds a flow lost with a restart. A confirmed signature is committed; otherwise the flow stops in FailedAtTransfer and can be retried.
// @Tags         flows
// @Accept       json
// @Produce      json
// @Param        request  body      model.ResumeFlowRequest  true  "Flow and signature"
// @Success      202      {object}  model.FlowResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /flows/resume [post]
func (h *FlowHandler) Resume(w http.ResponseWriter, r *http.Request) {
	var req model.ResumeFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	secret := []byte(req.Secret)
	defer clear(secret)

	kind, err := model.ParseFlowKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	stage, err := model.ParseStage(req.Stage)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	sig, err := solana.SignatureFromBase58(req.Signature)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid signature")
		return
	}
	params, err := parseParams(req.OrderID, req.Amount, req.Recipient, req.AssetID)
	if err != nil {
		writeFailure(w, h.log, err)
		return
	}
	if req.FeeSignature != "" {
		if params.ProofSignature, err = solana.SignatureFromBase58(req.FeeSignature); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "invalid feeSignature")
			return
		}
	}

	handle, err := h.flows.Resume(r.Context(), kind, params, stage, sig, secret)
	if err != nil {
		writeFailure(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toFlowResponse(handle.State()))
}
