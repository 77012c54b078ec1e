package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "0.000", formatSeconds(0))
	assert.Equal(t, "7.500", formatSeconds(7.5))
	assert.Equal(t, "30.000", formatSeconds(30))
}

func TestDetectContentTypeFallsBack(t *testing.T) {
	// A plain text temp file is neither video nor audio
	path := writeTemp(t, "not a video")
	assert.Equal(t, "video/mp4", detectContentType(path))

	assert.Equal(t, "video/mp4", detectContentType("/does/not/exist"))
}
