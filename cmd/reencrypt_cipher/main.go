// One-off: decrypt a legacy .cwt wallet (scrypt, per-file salt) and seal the
// same key into a .fwr record under a new secret.
// Usage: go run ./cmd/reencrypt_cipher [-out wallet.fwr] old-wallet.cwt
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/AlexZinkM/flow-wallet/internal/config"
	"github.com/AlexZinkM/flow-wallet/internal/crypto"
	"github.com/AlexZinkM/flow-wallet/internal/model"
	"github.com/AlexZinkM/flow-wallet/internal/vault"

	"github.com/fatih/color"
)

func main() {
	out := flag.String("out", "", "record file to write (default WALLET_FILE_PATH)")
	flag.Parse()

	if flag.NArg() != 1 {
		color.Red("usage: reencrypt_cipher [-out wallet.fwr] old-wallet.cwt")
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *out); err != nil {
		color.Red("✗ %v", err)
		os.Exit(1)
	}
}

func run(cwtPath, outPath string) error {
	cfg, err := config.LoadMigrate()
	if err != nil {
		return err
	}
	if outPath == "" {
		outPath = cfg.WalletFilePath
	}

	fileData, err := os.ReadFile(cwtPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cwtPath, err)
	}
	cwtFile, err := crypto.ParseLegacyCWT(fileData)
	if err != nil {
		return err
	}
	color.Cyan("Legacy wallet %s", cwtFile.Address)

	password, err := config.PromptForSecret("Old password: ")
	if err != nil {
		return err
	}
	defer clear(password)

	privateKey, err := crypto.DecryptLegacyCWT(cwtFile, password)
	if err != nil {
		if errors.Is(err, crypto.ErrDecryption) {
			return errors.New("wrong password or corrupted file")
		}
		return err
	}
	defer clear(privateKey)

	secret, err := promptNewSecret()
	if err != nil {
		return err
	}
	defer clear(secret)

	v := vault.New(crypto.NewEncryptionService([]byte(cfg.EncryptionSalt)))
	record, err := v.Seal(privateKey, secret)
	if err != nil {
		return err
	}
	if record.PublicKey.String() != cwtFile.Address {
		return fmt.Errorf("decrypted key belongs to %s, file says %s", record.PublicKey, cwtFile.Address)
	}

	// the new secret must open what was just written
	if err := v.WithKeypair(record, secret, func(*vault.Keypair) error { return nil }); err != nil {
		return fmt.Errorf("failed to verify new record: %w", err)
	}

	qr := cwtFile.QR
	if qr == "" {
		if qr, err = vault.DepositQR(cwtFile.Address); err != nil {
			return err
		}
	}
	if err := vault.SaveRecordFile(outPath, &model.WalletFile{
		Network:   cwtFile.Network,
		QR:        qr,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Record:    record,
	}); err != nil {
		return fmt.Errorf("failed to save %s: %w", outPath, err)
	}

	color.Green("✓ wallet %s migrated to %s", record.PublicKey, outPath)
	color.Yellow("  register it with the order service before starting flows")
	return nil
}

func promptNewSecret() ([]byte, error) {
	secret, err := config.PromptForSecret("New secret: ")
	if err != nil {
		return nil, err
	}
	confirm, err := config.PromptForSecret("Repeat new secret: ")
	if err != nil {
		clear(secret)
		return nil, err
	}
	defer clear(confirm)

	if !bytes.Equal(secret, confirm) {
		clear(secret)
		return nil, errors.New("secrets do not match")
	}
	return secret, nil
}
