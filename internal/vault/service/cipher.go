package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"
	"strings"

	vaultdomain "github.com/smallbiznis/timebill/internal/vault/domain"
)

// Cipher seals credential payloads with AES-256-GCM. The key is derived once
// from the configured secret and lives only in this value; the nonce is fresh
// per record and stored alongside the ciphertext as the iv column.
type Cipher struct {
	key []byte
}

func NewCipher(secret string) (*Cipher, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, vaultdomain.ErrSecretMissing
	}
	sum := sha256.Sum256([]byte(secret))
	return &Cipher{key: sum[:]}, nil
}

func (c *Cipher) Encrypt(plaintext []byte) (ciphertext, iv []byte, err error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}

	iv = make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, nil, err
	}

	return gcm.Seal(nil, iv, plaintext, nil), iv, nil
}

func (c *Cipher) Decrypt(ciphertext, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(iv) != gcm.NonceSize() || len(ciphertext) < gcm.Overhead() {
		return nil, vaultdomain.ErrPayloadMalformed
	}

	plaintext, err := gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, vaultdomain.ErrPayloadIntegrity
	}
	return plaintext, nil
}
