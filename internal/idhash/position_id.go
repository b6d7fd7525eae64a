package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"pairs-trading-lab/internal/domain"
)

// ComputePositionID computes a deterministic position_id using SHA256.
// Formula: SHA256(pair_id|ticker|side|entry_index|entry_time_ms)
// Returns hex-encoded hash (64 characters).
func ComputePositionID(
	pairID string,
	ticker string,
	side domain.Side,
	entryIndex int,
	entryTimeMs int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%d",
		pairID,
		ticker,
		string(side),
		entryIndex,
		entryTimeMs,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
