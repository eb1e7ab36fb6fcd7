package model

// ErrorResponse is the consistent JSON structure for all API error responses.
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	FlowID string `json:"flowId,omitempty"` // the flow to retry when a new one is refused
}
