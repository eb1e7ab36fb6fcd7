package crypto

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AlexZinkM/flow-wallet/internal/model"

	"golang.org/x/crypto/scrypt"
)

const (
	// scrypt parameters of the legacy .cwt format
	legacyScryptN      = 1 << 18
	legacyScryptR      = 8
	legacyScryptP      = 1
	legacyScryptKeyLen = 32
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseLegacyCWT decodes the JSON envelope of a legacy .cwt wallet file.
func ParseLegacyCWT(fileData []byte) (*model.CWTFile, error) {
	// Skip UTF-8 BOM if present
	fileData = bytes.TrimPrefix(fileData, utf8BOM)

	var cwtFile model.CWTFile
	if err := json.Unmarshal(fileData, &cwtFile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cwt file: %w", err)
	}
	if cwtFile.Address == "" || cwtFile.CipherText == "" {
		return nil, errors.New("cwt file is missing address or cipherText")
	}
	return &cwtFile, nil
}

// DecryptLegacyCWT opens a legacy .cwt wallet (per-file salt, scrypt, AES-GCM)
// and returns the full 64-byte ed25519 private key.
// password must be []byte for security (caller should zero it after use).
// Caller must zero the returned key.
func DecryptLegacyCWT(cwtFile *model.CWTFile, password []byte) ([]byte, error) {
	// Decode salt, nonce and ciphertext
	salt, err := base64.StdEncoding.DecodeString(cwtFile.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(cwtFile.Nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to decode nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(cwtFile.CipherText)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	// Derive key from password
	key, err := scrypt.Key(password, salt, legacyScryptN, legacyScryptR, legacyScryptP, legacyScryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aesGCM.NonceSize() {
		return nil, ErrDecryption
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryption
	}
	defer clear(plaintext) // wipe decrypted bytes from memory

	var walletData model.WalletData
	if err := json.Unmarshal(plaintext, &walletData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet data: %w", err)
	}
	defer clear(walletData.PrivateKey)

	switch len(walletData.PrivateKey) {
	case ed25519.PrivateKeySize:
		out := make([]byte, ed25519.PrivateKeySize)
		copy(out, walletData.PrivateKey)
		return out, nil
	case ed25519.SeedSize:
		// Older files store only the seed
		return ed25519.NewKeyFromSeed(walletData.PrivateKey), nil
	default:
		return nil, fmt.Errorf("invalid private key length %d", len(walletData.PrivateKey))
	}
}
