package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext with AES-GCM and returns base64(nonce || ciphertext).
func Encrypt(plaintext, key []byte) (string, error) {
	aesGCM, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		slog.Info(err.Error())
		return "", err
	}

	sealed := aesGCM.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func Decrypt(encryptedData string, key []byte) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encryptedData)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	aesGCM, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonceSize := aesGCM.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return string(plaintext), nil
}

// EncryptTokens encrypts every value of a platform -> token map.
func EncryptTokens(tokens map[string]string, key []byte) (map[string]string, error) {
	out := make(map[string]string, len(tokens))
	for platform, token := range tokens {
		enc, err := Encrypt([]byte(token), key)
		if err != nil {
			return nil, fmt.Errorf("encrypt %s token: %w", platform, err)
		}
		out[platform] = enc
	}
	return out, nil
}

func DecryptTokens(tokens map[string]string, key []byte) (map[string]string, error) {
	out := make(map[string]string, len(tokens))
	for platform, token := range tokens {
		dec, err := Decrypt(token, key)
		if err != nil {
			return nil, fmt.Errorf("decrypt %s token: %w", platform, err)
		}
		out[platform] = dec
	}
	return out, nil
}
