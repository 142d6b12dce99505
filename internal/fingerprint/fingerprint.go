// Package fingerprint derives the content-addressed digest that anchors a claim.
package fingerprint

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

// HexLen is the length of a rendered digest.
const HexLen = sha256.Size * 2

// Compute returns the lowercase hex SHA-256 over the trimmed claim text
// followed by, when a file is attached, the standard-base64 rendering of its
// bytes. A verifier holding the same plaintext and file can recompute the
// digest independently and compare it against the public ledger.
func Compute(text string, file []byte) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("empty text")
	}
	h := sha256.New()
	h.Write([]byte(text))
	if len(file) > 0 {
		h.Write([]byte(base64.StdEncoding.EncodeToString(file)))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
