package vault

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// DepositQR renders the wallet address as a base64 PNG QR code so users can
// fund it from another wallet.
func DepositQR(address string) (string, error) {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	// Get PNG image
	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}
