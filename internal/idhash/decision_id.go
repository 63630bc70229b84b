// Package idhash derives deterministic identifiers for persisted records.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"solana-token-feed/internal/domain"
)

// ComputeDecisionID computes a deterministic decision_id using SHA256.
// Formula: SHA256(mint|scan_key|stage|decided_at)
// Returns hex-encoded hash (64 characters).
func ComputeDecisionID(mint, scanKey string, stage domain.ModerationStage, decidedAt int64) string {
	data := fmt.Sprintf("%s|%s|%s|%d", mint, scanKey, string(stage), decidedAt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeScanKeyHash returns a short stable digest of a normalized scan key,
// used as the remote cache key so long descriptions do not bloat Redis keys.
func ComputeScanKeyHash(scanKey string) string {
	hash := sha256.Sum256([]byte(scanKey))
	return hex.EncodeToString(hash[:16])
}
