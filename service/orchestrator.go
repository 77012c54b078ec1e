package service

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"boomerang/diary-api/model"
	"boomerang/diary-api/util"

	"go.uber.org/zap"
)

// ArtifactKind tags the result of the compression stage
type ArtifactKind int

const (
	// ArtifactWholeFile means the original file should be uploaded as-is
	ArtifactWholeFile ArtifactKind = iota
	// ArtifactSegmented means the content was already uploaded as ordered
	// segments and no further upload is needed
	ArtifactSegmented
)

// Artifact is the compression stage result: either the untouched source file
// or a descriptor referencing already-uploaded segments.
type Artifact struct {
	Kind  ArtifactKind
	Path  string
	Size  int64
	Asset *model.Video
}

const (
	// Upper bound on segments computed from the duration tiers
	maxSegments = 60
	// Lower working cap on segments actually produced in one pass, to
	// bound concurrent encoder and connection usage
	segmentWorkingCap = 12
	// Segments processed concurrently per wave
	maxConcurrentSegments = 6
)

// Orchestrator partitions a source video into time-windowed segments and
// drives compression and upload of them concurrently, in waves.
type Orchestrator struct {
	Media    MediaProcessor
	Segments *SegmentUploader

	// Pause between wave submissions so the encoder pipeline isn't
	// saturated. Tests set this to zero.
	WaveDelay time.Duration
}

func NewOrchestrator(media MediaProcessor, segments *SegmentUploader) *Orchestrator {
	return &Orchestrator{
		Media:     media,
		Segments:  segments,
		WaveDelay: time.Second,
	}
}

type segmentRecord struct {
	index int
	asset *model.Video
	size  int64
}

// CompressAndUpload slices the source into segments, compresses and uploads
// each, and folds the results into a single segmented artifact. It never
// fails: on total failure the original file comes back as a whole-file
// artifact and the caller proceeds with a normal upload.
func (o *Orchestrator) CompressAndUpload(ctx context.Context, path, filename string, size int64, baseID string) Artifact {
	original := Artifact{Kind: ArtifactWholeFile, Path: path, Size: size}

	duration, err := o.Media.Duration(ctx, path)
	if err != nil || duration <= 0 {
		zap.L().Warn("Could not determine source duration, using original file", zap.Error(err))
		return original
	}

	numSegments := int(math.Min(maxSegments, math.Ceil(duration/tierSegmentDuration(duration))))
	if numSegments < 1 {
		numSegments = 1
	}

	// Even distribution across the final segment count
	actual := duration / float64(numSegments)
	target := min(segmentWorkingCap, numSegments)

	zap.L().Info("Splitting video into segments",
		zap.String("file", filename),
		zap.Float64("duration", duration),
		zap.Int("segments", numSegments),
		zap.Int("processed", target),
		zap.Float64("segment_duration", actual))

	var (
		mu      sync.Mutex
		records []segmentRecord
		wg      sync.WaitGroup
	)

	process := func(index int) {
		defer wg.Done()

		start := float64(index) * actual
		segDuration := math.Min(actual, duration-start)

		segPath, err := o.Media.CompressSegment(ctx, path, start, segDuration, index)
		if err != nil {
			zap.L().Debug("Segment compression failed, skipping",
				zap.Int("segment", index+1),
				zap.Error(err))
			return
		}
		defer os.Remove(segPath)

		segName := fmt.Sprintf("%s_segment_%d%s", baseName(filename), index+1, filepath.Ext(segPath))

		asset, err := o.Segments.Upload(ctx, segPath, segName, baseID)
		if err != nil {
			zap.L().Warn("Segment upload failed, skipping",
				zap.Int("segment", index+1),
				zap.Error(err))
			return
		}

		mu.Lock()
		records = append(records, segmentRecord{index: index, asset: asset, size: asset.Size})
		mu.Unlock()
	}

	// Submit in waves; uploads pipeline behind compression and are not
	// gated on later waves
	for i := 0; i < target; i += maxConcurrentSegments {
		for j := i; j < min(i+maxConcurrentSegments, target); j++ {
			wg.Add(1)
			go process(j)
		}

		if i+maxConcurrentSegments < target && o.WaveDelay > 0 {
			time.Sleep(o.WaveDelay)
		}
	}

	wg.Wait()

	if len(records) == 0 {
		zap.L().Warn("No segments uploaded, falling back to original file", zap.String("file", filename))
		return original
	}

	// Wire order is unordered; consumers must never see that
	sort.Slice(records, func(a, b int) bool { return records[a].index < records[b].index })

	var total int64
	segments := make(model.VideoList, 0, len(records))
	for _, r := range records {
		segments = append(segments, *r.asset)
		total += r.size
	}

	combined := &model.Video{
		ID:       "combined_" + util.NewAssetID(),
		Filename: baseName(filename) + "_compressed" + filepath.Ext(segments[0].Filename),
		URL:      segments[0].URL,
		Segments: segments,
		Size:     total,
	}

	zap.L().Info("Segmented compression complete",
		zap.String("file", filename),
		zap.Int("uploaded", len(records)),
		zap.Int64("original_size", size),
		zap.Int64("compressed_size", total))

	return Artifact{Kind: ArtifactSegmented, Size: total, Asset: combined}
}

// tierSegmentDuration picks the nominal segment length for a source
// duration. The segment cap above bounds the count for very long sources.
func tierSegmentDuration(duration float64) float64 {
	switch {
	case duration > 1200:
		return 20
	case duration > 600:
		return 60
	default:
		return 30
	}
}

func baseName(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
