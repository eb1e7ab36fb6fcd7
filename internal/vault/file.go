package vault

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlexZinkM/flow-wallet/internal/model"
)

const WalletFileExt = ".fwr"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SaveRecordFile writes a wallet record file. It refuses to overwrite a
// non-empty file so a wallet is never lost to a second generate call.
func SaveRecordFile(filePath string, file *model.WalletFile) error {
	// Check file extension (.fwr)
	if filepath.Ext(filePath) != WalletFileExt {
		return fmt.Errorf("file must have %s extension", WalletFileExt)
	}
	if err := file.Record.Validate(); err != nil {
		return err
	}

	// Check file existence
	if fileInfo, err := os.Stat(filePath); err == nil && fileInfo.Size() > 0 {
		return ErrFileExists
	}

	// Serialize to JSON
	fileData, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal wallet file: %w", err)
	}

	// Add UTF-8 BOM for proper display in Windows
	fileDataWithBOM := append(bytes.Clone(utf8BOM), fileData...)

	if err := os.WriteFile(filePath, fileDataWithBOM, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// ReadRecordFile reads a wallet record file. Nothing is decrypted.
func ReadRecordFile(filePath string) (*model.WalletFile, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if fileInfo.Size() == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrWalletNotFound)
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Skip UTF-8 BOM if present
	fileData = bytes.TrimPrefix(fileData, utf8BOM)

	var file model.WalletFile
	if err := json.Unmarshal(fileData, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet file: %w", err)
	}
	if err := file.Record.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

// ReadWalletAddress reads only the address from the wallet file (without decryption)
func ReadWalletAddress(filePath string) (string, error) {
	file, err := ReadRecordFile(filePath)
	if err != nil {
		return "", err
	}
	return file.Record.PublicKey.String(), nil
}
