package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

const maxViewerTokenLength = 128

// Hasher derives one-way keyed digests from session and viewer tokens. Only
// the hex digest is ever stored, so the ledger cannot be used to recover a
// live session token.
type Hasher struct {
	secret []byte
}

// NewHasher creates a hasher keyed with the given secret.
func NewHasher(secret string) *Hasher {
	return &Hasher{secret: []byte(secret)}
}

// Digest returns the hex-encoded HMAC-SHA256 of the token.
func (h *Hasher) Digest(token string) string {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// IsValidProductID reports whether id parses as a UUID. Ledger rows carrying
// anything else are skipped rather than treated as errors, since product ids
// arrive from untrusted client input.
func IsValidProductID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// NormalizeViewerToken validates a client-supplied viewer token. It returns
// the trimmed token and true, or "" and false when the token is empty, too
// long, or contains characters outside [A-Za-z0-9_-]. Callers treat a failed
// normalization as a no-op, not an error.
func NormalizeViewerToken(token string) (string, bool) {
	token = strings.TrimSpace(token)
	if token == "" || len(token) > maxViewerTokenLength {
		return "", false
	}
	for _, r := range token {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return "", false
		}
	}
	return token, true
}
