package feedid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// A feed id is a 64-character lowercase hex string. Composed ids are what
// the chain contracts emit, derived from the canonical id once and cached
// on the feed row.
const idHexLen = 64

const (
	evmZeroAddress = "0000000000000000000000000000000000000000"
	tvmZeroAddress = "0000000000000000000000000000000000000000000000000000000000000000"
)

// ComposeEvmFeedID derives the composed id used by EVM mailer contracts
// for a generic (non-personal) feed.
func ComposeEvmFeedID(feedID string) (string, error) {
	return compose(evmZeroAddress, "0", feedID)
}

// ComposeTvmFeedID derives the composed id used by TVM mailer contracts.
// The version selects the deployed mailer generation.
func ComposeTvmFeedID(feedID string, version byte) (string, error) {
	return compose(tvmZeroAddress, fmt.Sprintf("%x", version), feedID)
}

func compose(address string, marker string, feedID string) (string, error) {
	feedID = strings.ToLower(strings.TrimSpace(feedID))
	if len(feedID) != idHexLen {
		return "", fmt.Errorf("feed id must be %d hex chars, got %d", idHexLen, len(feedID))
	}
	padding := strings.Repeat("0", idHexLen-len(marker))
	raw, err := hex.DecodeString(address + padding + marker + feedID)
	if err != nil {
		return "", fmt.Errorf("feed id is not valid hex: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
