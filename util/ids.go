package util

import (
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewAssetID returns a new media asset identifier: millisecond timestamp plus
// a short random suffix. IDs sort roughly by creation time and are never reused.
func NewAssetID() string {
	suffix, err := gonanoid.Generate(idAlphabet, 9)
	if err != nil {
		// gonanoid only fails when the system entropy source does
		suffix = RandStr(9)
	}

	return fmt.Sprintf("%d%s", time.Now().UnixMilli(), suffix)
}

// NewSegmentID derives a segment-scoped identifier from the id of the asset
// the segment was sliced from.
func NewSegmentID(baseID string) string {
	suffix, err := gonanoid.Generate(idAlphabet, 5)
	if err != nil {
		suffix = RandStr(5)
	}

	return fmt.Sprintf("%s_segment_%d_%s", baseID, time.Now().UnixMilli(), suffix)
}
