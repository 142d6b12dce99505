// Package crypto provides the at-rest cipher for claim text.
package crypto

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeyLen is the required key length in bytes.
const KeyLen = chacha20poly1305.KeySize

// Rand returns n cryptographically random bytes.
func Rand(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// Cipher seals and opens claim text with XChaCha20-Poly1305 under a
// process-wide key. The key is loaded once at startup and never stored in
// the database; it is read-only after initialization.
type Cipher struct {
	key []byte
}

// New constructs a Cipher. The key must be exactly KeyLen bytes.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeyLen {
		return nil, errors.New("encryption key must be 32 bytes")
	}
	k := make([]byte, KeyLen)
	copy(k, key)
	return &Cipher{key: k}, nil
}

// Seal encrypts plaintext with a random nonce. Output layout is
// nonce||ciphertext.
func (c *Cipher) Seal(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, err
	}
	nonce, err := Rand(chacha20poly1305.NonceSizeX)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, plaintext, nil)...)
	return out, nil
}

// Open decrypts a blob produced by Seal.
func (c *Cipher) Open(blob []byte) ([]byte, error) {
	if len(blob) < chacha20poly1305.NonceSizeX {
		return nil, errors.New("blob too short")
	}
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, err
	}
	nonce := blob[:chacha20poly1305.NonceSizeX]
	ct := blob[chacha20poly1305.NonceSizeX:]
	return aead.Open(nil, nonce, ct, nil)
}
