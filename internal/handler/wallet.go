package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/AlexZinkM/flow-wallet/internal/common"
	"github.com/AlexZinkM/flow-wallet/internal/logger"
	"github.com/AlexZinkM/flow-wallet/internal/model"
	"github.com/AlexZinkM/flow-wallet/internal/vault"

	"github.com/gagliardetto/solana-go"
)

const networkSolana = "solana"

// WalletHandler manages the local wallet record file
type WalletHandler struct {
	vault     *vault.Vault
	registrar WalletRegistrar
	ledger    WalletLedger
	filePath  string
	log       *logger.Logger
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(v *vault.Vault, registrar WalletRegistrar, ledger WalletLedger, filePath string, log *logger.Logger) (*WalletHandler, error) {
	if filePath == "" {
		return nil, errors.New("WALLET_FILE_PATH not set")
	}
	if log == nil {
		log = logger.Nop()
	}

	return &WalletHandler{
		vault:     v,
		registrar: registrar,
		ledger:    ledger,
		filePath:  filePath,
		log:       log,
	}, nil
}

// Generate handles POST /wallet/generate
// @Summary      Generate new wallet
// @Description  Generates a new Solana wallet sealed under the secret, saves it to the .fwr record file and registers it with the order service
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.GenerateRequest  true  "Secret"
// @Success      200      {object}  model.GenerateResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /wallet/generate [post]
func (h *WalletHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req model.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	secret := []byte(req.Secret)
	defer clear(secret) // Always clear secret from memory
	if len(secret) == 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "secret is required")
		return
	}

	// a second generate must not leave an unsaved key behind
	if _, err := vault.ReadRecordFile(h.filePath); err == nil {
		writeFailure(w, h.log, vault.ErrFileExists)
		return
	}

	record, err := h.vault.Create(secret)
	if err != nil {
		writeFailure(w, h.log, err)
		return
	}
	address := record.PublicKey.String()

	qr, err := vault.DepositQR(address)
	if err != nil {
		writeFailure(w, h.log, err)
		return
	}

	file := &model.WalletFile{
		Network:   networkSolana,
		QR:        qr,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Record:    record,
	}
	if err := vault.SaveRecordFile(h.filePath, file); err != nil {
		writeFailure(w, h.log, err)
		return
	}
	h.log.Info().Str("address", address).Msg("wallet generated")

	resp := model.GenerateResponse{
		Success:    true,
		Message:    "Wallet generated successfully",
		Address:    address,
		QR:         qr,
		Registered: true,
	}
	if err := h.registrar.RegisterWallet(r.Context(), record); err != nil {
		h.log.Warn().Err(err).Str("address", address).Msg("wallet registration failed")
		resp.Registered = false
		resp.Message = "Wallet generated, registration with the order service failed"
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /wallet
// @Summary      Get wallet
// @Description  Returns the wallet address, its deposit QR code and SOL balance. Nothing is decrypted.
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.WalletResponse
// @Failure      404  {object}  model.ErrorResponse
// @Router       /wallet [get]
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	file, err := vault.ReadRecordFile(h.filePath)
	if err != nil {
		writeFailure(w, h.log, err)
		return
	}

	resp := model.WalletResponse{
		Address: file.Record.PublicKey.String(),
		QR:      file.QR,
	}
	// the balance is informational, the address is what the UI needs
	if lamports, err := h.ledger.Balance(r.Context(), file.Record.PublicKey); err != nil {
		h.log.Warn().Err(err).Msg("failed to get SOL balance")
	} else {
		resp.SOL = common.LamportsToSOL(lamports)
	}

	writeJSON(w, http.StatusOK, resp)
}

// TokenAccount handles POST /wallet/token-accounts
// @Summary      Resolve token account
// @Description  Returns the wallet's associated token account for a mint, creating it on the ledger if missing. Creation is paid by the wallet.
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.TokenAccountRequest  true  "Secret and mint"
// @Success      200      {object}  model.TokenAccountResponse
// @Failure      401      {object}  model.ErrorResponse
// @Failure      404      {object}  model.ErrorResponse
// @Router       /wallet/token-accounts [post]
func (h *WalletHandler) TokenAccount(w http.ResponseWriter, r *http.Request) {
	var req model.TokenAccountRequest
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
	mint, err := solana.PublicKeyFromBase58(req.Mint)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid mint")
		return
	}

	file, err := vault.ReadRecordFile(h.filePath)
	if err != nil {
		writeFailure(w, h.log, err)
		return
	}

	// a wrong secret is refused even when the account already exists
	if err := h.vault.WithKeypair(file.Record, secret, func(*vault.Keypair) error { return nil }); err != nil {
		writeFailure(w, h.log, err)
		return
	}

	// the key is unlocked per signature, not across the confirmation wait
	payer := h.vault.Signer(file.Record, secret)
	defer payer.Close()
	account, err := h.ledger.ResolveOrCreateTokenAccount(r.Context(), payer, file.Record.PublicKey, mint)
	if err != nil {
		writeFailure(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, model.TokenAccountResponse{
		Owner:        file.Record.PublicKey.String(),
		Mint:         mint.String(),
		TokenAccount: account.String(),
	})
}
