package model

// GenerateRequest represents request for POST /wallet/generate
type GenerateRequest struct {
	Secret string `json:"secret" binding:"required"`
}

// GenerateResponse represents response for POST /wallet/generate
type GenerateResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Address    string `json:"address,omitempty"`
	QR         string `json:"QR,omitempty"`
	Registered bool   `json:"registered"`
}

// WalletResponse represents response for GET /wallet
type WalletResponse struct {
	Address string `json:"address"`
	QR      string `json:"QR"`
	SOL     string `json:"sol,omitempty"`
}

// TokenAccountRequest represents request for POST /wallet/token-accounts
type TokenAccountRequest struct {
	Secret string `json:"secret" binding:"required"`
	Mint   string `json:"mint" binding:"required"`
}

// TokenAccountResponse represents response for POST /wallet/token-accounts
type TokenAccountResponse struct {
	Owner        string `json:"owner"`
	Mint         string `json:"mint"`
	TokenAccount string `json:"tokenAccount"`
}
