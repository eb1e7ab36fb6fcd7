package model

import "time"

// StartFlowRequest represents request for POST /flows
type StartFlowRequest struct {
	Kind      string `json:"kind" binding:"required"` // FeeTransferAndMint, EscrowTransfer, OwnershipTransfer
	OrderID   string `json:"orderId" binding:"required"`
	Amount    string `json:"amount,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	AssetID   string `json:"assetId,omitempty"`
	Secret    string `json:"secret" binding:"required"`
}

// RetryFlowRequest represents request for POST /flows/{id}/retry
type RetryFlowRequest struct {
	Secret string `json:"secret,omitempty"` // not needed when only the commit is retried
}

// ResumeFlowRequest represents request for POST /flows/resume
type ResumeFlowRequest struct {
	Kind      string `json:"kind" binding:"required"`
	OrderID   string `json:"orderId" binding:"required"`
	Stage     string `json:"stage,omitempty"` // "transfer" (default) or "mint"
	Signature string `json:"signature" binding:"required"`
	// FeeSignature is the confirmed fee transfer, needed to resume a mint stage
	FeeSignature string `json:"feeSignature,omitempty"`
	Amount       string `json:"amount,omitempty"`
	Recipient    string `json:"recipient,omitempty"`
	AssetID      string `json:"assetId,omitempty"`
	Secret       string `json:"secret,omitempty"`
}

// FlowResponse is the UI-facing view of a flow
type FlowResponse struct {
	ID                       string    `json:"id"`
	Kind                     string    `json:"kind"`
	OrderID                  string    `json:"orderId"`
	Stage                    string    `json:"stage"`
	Phase                    string    `json:"phase"`
	Outcome                  string    `json:"outcome,omitempty"`
	Attempt                  int       `json:"attempt"`
	Terminal                 bool      `json:"terminal"`
	Retryable                bool      `json:"retryable"`
	LastTransactionSignature string    `json:"lastTransactionSignature,omitempty"`
	FeeSignature             string    `json:"feeSignature,omitempty"`
	Message                  string    `json:"message,omitempty"`
	UpdatedAt                time.Time `json:"updatedAt"`
}
