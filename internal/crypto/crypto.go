// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package crypto // import "lettre.app/internal/crypto"

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrMsgTooShort = errors.New("crypto: encrypted message too short")
	ErrDecrypt     = errors.New("crypto: decrypt")
)

// NewBox derives a 32 byte key from secret and returns a Box sealing and
// opening messages with XChaCha20-Poly1305. The same secret always derives
// the same key, so sealed messages survive restarts.
func NewBox(secret []byte) *Box {
	key := sha256.Sum256(secret)
	return &Box{key: key[:]}
}

// Box encrypts and decrypts small blobs, like OAuth tokens at rest.
type Box struct {
	key []byte
}

func (self *Box) Seal(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(self.key)
	if err != nil {
		return nil, fmt.Errorf("crypto: new cipher for encrypt: %w", err)
	}

	nonceSize := aead.NonceSize()
	nonce := make([]byte, nonceSize, nonceSize+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("crypto: random nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (self *Box) Open(message []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(self.key)
	if err != nil {
		return nil, fmt.Errorf("crypto: new cipher for decrypt: %w", err)
	}

	nonceSize := aead.NonceSize()
	wantSize := nonceSize + aead.Overhead()
	if len(message) < wantSize {
		return nil, fmt.Errorf("%w (got %v, want %v or more)", ErrMsgTooShort,
			len(message), wantSize)
	}

	nonce, ciphertext := message[:nonceSize], message[nonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	return plaintext, nil
}
