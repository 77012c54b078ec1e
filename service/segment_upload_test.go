package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSegmentUploader(store *fakeStore) *SegmentUploader {
	u := NewSegmentUploader(store)
	u.BaseDelay = time.Millisecond
	return u
}

func TestSegmentUploadSuccess(t *testing.T) {
	store := &fakeStore{}
	u := newTestSegmentUploader(store)

	path := writeTemp(t, "segment bytes")

	asset, err := u.Upload(context.Background(), path, "clip_segment_1.webm", "base42")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(asset.ID, "base42_segment_"))
	assert.Equal(t, "clip_segment_1.webm", asset.Filename)
	assert.True(t, strings.HasPrefix(asset.URL, "https://cdn.test/videos/segments/"))
	assert.Equal(t, int64(len("segment bytes")), asset.Size)
	assert.Equal(t, 1, store.simpleCalls)
}

func TestSegmentUploadRetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	store := &fakeStore{}
	store.simpleFn = func(string) error {
		calls++
		if calls <= 2 {
			return errors.New("429 too many requests")
		}
		return nil
	}
	u := newTestSegmentUploader(store)

	path := writeTemp(t, "segment bytes")

	asset, err := u.Upload(context.Background(), path, "clip_segment_1.webm", "base42")
	require.NoError(t, err)
	assert.NotNil(t, asset)
	assert.Equal(t, 3, store.simpleCalls)
}

func TestSegmentUploadExhaustsRetries(t *testing.T) {
	store := &fakeStore{
		simpleFn: func(string) error {
			return errors.New("rate limit exceeded")
		},
	}
	u := newTestSegmentUploader(store)

	path := writeTemp(t, "segment bytes")

	_, err := u.Upload(context.Background(), path, "clip_segment_1.webm", "base42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 6 attempts")
	assert.Equal(t, 6, store.simpleCalls)
}

func TestSegmentUploadNonTransientFailsFast(t *testing.T) {
	store := &fakeStore{
		simpleFn: func(string) error {
			return errors.New("access denied")
		},
	}
	u := newTestSegmentUploader(store)

	path := writeTemp(t, "segment bytes")

	_, err := u.Upload(context.Background(), path, "clip_segment_1.webm", "base42")
	require.Error(t, err)
	assert.Equal(t, 1, store.simpleCalls)
}

func TestSegmentUploadContentTypeFollowsContainer(t *testing.T) {
	store := &fakeStore{}
	u := newTestSegmentUploader(store)

	webm, err := os.CreateTemp("", "seg_*.webm")
	require.NoError(t, err)
	mp4, err := os.CreateTemp("", "seg_*.mp4")
	require.NoError(t, err)

	for _, f := range []*os.File{webm, mp4} {
		_, err = f.WriteString("segment bytes")
		require.NoError(t, err)
		require.NoError(t, f.Close())
		t.Cleanup(func() { os.Remove(f.Name()) })
	}

	_, err = u.Upload(context.Background(), webm.Name(), "clip_segment_1.webm", "base42")
	require.NoError(t, err)
	_, err = u.Upload(context.Background(), mp4.Name(), "clip_segment_2.mp4", "base42")
	require.NoError(t, err)

	assert.Equal(t, []string{"video/webm", "video/mp4"}, store.contentTypes)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(errors.New("got 429 from upstream")))
	assert.True(t, isTransient(errors.New("Rate Limit hit")))
	assert.True(t, isTransient(errors.New("storage quota exceeded")))
	assert.False(t, isTransient(errors.New("access denied")))
	assert.False(t, isTransient(errors.New("no such bucket")))
}
