package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"pulse-service/internal/models"
)

// Fingerprint derives a stable digest of a stock-state payload for cheap
// change detection by polling clients. Struct fields marshal in declaration
// order, so the digest never depends on map iteration order; any field change
// changes the digest.
func Fingerprint(state *models.StockState) string {
	encoded, err := json.Marshal(state)
	if err != nil {
		// StockState contains only scalars; Marshal cannot fail on it.
		return ""
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}
