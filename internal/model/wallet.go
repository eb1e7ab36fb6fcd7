package model

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// WalletRecord is the persisted form of a ledger account: the public key in
// the clear and the private key sealed by EncryptionService.
type WalletRecord struct {
	PublicKey       solana.PublicKey `json:"publicKey"`
	EncryptedSecret []byte           `json:"encryptedSecret"` // nonce || ciphertext || tag (base64 in JSON)
}

// Validate checks that the record is complete.
func (r WalletRecord) Validate() error {
	if r.PublicKey.IsZero() {
		return errors.New("wallet record has no public key")
	}
	if len(r.EncryptedSecret) == 0 {
		return errors.New("wallet record has no encrypted secret")
	}
	return nil
}

// String never prints the encrypted secret.
func (r WalletRecord) String() string {
	return fmt.Sprintf("WalletRecord{%s}", r.PublicKey)
}

// WalletFile is the on-disk wallet record (.fwr file)
type WalletFile struct {
	Network   string       `json:"network"`
	QR        string       `json:"QR"`
	CreatedAt string       `json:"createdAt"`
	Record    WalletRecord `json:"record"`
}

// CWTFile represents legacy .cwt file structure
type CWTFile struct {
	Network    string `json:"network"`
	Address    string `json:"address"`
	QR         string `json:"QR"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
}

// WalletData represents decrypted legacy wallet data
type WalletData struct {
	PrivateKey []byte `json:"privateKey"` // 64 bytes key or 32 bytes seed (stored as base64 in JSON)
	CreatedAt  string `json:"createdAt"`
}
