package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(store *fakeStore, media *fakeMedia) *Orchestrator {
	o := NewOrchestrator(media, newTestSegmentUploader(store))
	o.WaveDelay = 0
	return o
}

func TestOrchestratorOrdersSegmentsByWindow(t *testing.T) {
	// Completion order is scrambled on purpose; the combined asset must
	// still list segments in source order.
	delays := []time.Duration{30 * time.Millisecond, time.Millisecond, 15 * time.Millisecond}

	media := &fakeMedia{
		available: true,
		duration:  90,
		compressFn: func(index int) (string, error) {
			time.Sleep(delays[index])
			return tempBlob("segment data")
		},
	}
	store := &fakeStore{}
	o := newTestOrchestrator(store, media)

	path := writeTemp(t, "source video")

	art := o.CompressAndUpload(context.Background(), path, "diary.mp4", 200*mb, "base42")

	require.Equal(t, ArtifactSegmented, art.Kind)
	require.NotNil(t, art.Asset)
	require.Len(t, art.Asset.Segments, 3)

	names := make([]string, 0, len(art.Asset.Segments))
	for _, seg := range art.Asset.Segments {
		names = append(names, seg.Filename)
	}
	assert.Equal(t, []string{"diary_segment_1.webm", "diary_segment_2.webm", "diary_segment_3.webm"}, names)

	assert.True(t, strings.HasPrefix(art.Asset.ID, "combined_"))
	assert.Equal(t, art.Asset.Segments[0].URL, art.Asset.URL)
	assert.Equal(t, int64(3*len("segment data")), art.Size)
}

func TestOrchestratorSkipsFailedSegments(t *testing.T) {
	media := &fakeMedia{
		available: true,
		duration:  90,
		compressFn: func(index int) (string, error) {
			if index == 1 {
				return "", errors.New("encoder crashed")
			}
			return tempBlob("segment data")
		},
	}
	store := &fakeStore{}
	o := newTestOrchestrator(store, media)

	path := writeTemp(t, "source video")

	art := o.CompressAndUpload(context.Background(), path, "diary.mp4", 200*mb, "base42")

	require.Equal(t, ArtifactSegmented, art.Kind)
	require.Len(t, art.Asset.Segments, 2)
	assert.Equal(t, "diary_segment_1.webm", art.Asset.Segments[0].Filename)
	assert.Equal(t, "diary_segment_3.webm", art.Asset.Segments[1].Filename)
}

func TestOrchestratorFallsBackWhenNothingUploads(t *testing.T) {
	media := &fakeMedia{
		available: true,
		duration:  90,
		compressFn: func(int) (string, error) {
			return "", errors.New("encoder crashed")
		},
	}
	store := &fakeStore{}
	o := newTestOrchestrator(store, media)

	path := writeTemp(t, "source video")

	art := o.CompressAndUpload(context.Background(), path, "diary.mp4", 200*mb, "base42")

	assert.Equal(t, ArtifactWholeFile, art.Kind)
	assert.Equal(t, path, art.Path)
	assert.Equal(t, int64(200*mb), art.Size)
	assert.Nil(t, art.Asset)
}

func TestOrchestratorFallsBackWithoutDuration(t *testing.T) {
	media := &fakeMedia{
		available:   true,
		durationErr: ErrUnavailable,
	}
	store := &fakeStore{}
	o := newTestOrchestrator(store, media)

	path := writeTemp(t, "source video")

	art := o.CompressAndUpload(context.Background(), path, "diary.mp4", 200*mb, "base42")

	assert.Equal(t, ArtifactWholeFile, art.Kind)
	assert.Equal(t, 0, store.simpleCalls)
}

func TestTierSegmentDuration(t *testing.T) {
	assert.Equal(t, 30.0, tierSegmentDuration(90))
	assert.Equal(t, 30.0, tierSegmentDuration(600))
	assert.Equal(t, 60.0, tierSegmentDuration(900))
	assert.Equal(t, 20.0, tierSegmentDuration(2400))
}
