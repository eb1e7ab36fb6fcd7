package crypto

// Decrypt opens a blob produced by Encrypt.
// Every failure after key derivation is reported as ErrDecryption so a
// caller cannot distinguish a wrong secret from corrupted data.
// Caller must zero the returned plaintext after use.
func (s *EncryptionService) Decrypt(blob, secret []byte) ([]byte, error) {
	key, err := s.DeriveKey(secret)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	if len(blob) < nonceLen+tagLen {
		return nil, ErrDecryption
	}

	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, ErrDecryption
	}

	nonce, ciphertext := blob[:nonceLen], blob[nonceLen:]
	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryption
	}
	return plaintext, nil
}
