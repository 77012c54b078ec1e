package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"boomerang/diary-api/model"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Coordinator is the top-level entry point for one uploaded file. It
// sequences the compression decision, upload, parallel audio extraction,
// persistence hand-off and progress bookkeeping. It never returns an error:
// every failure resolves into state cleanup, so one bad file can't take a
// batch down with it.
type Coordinator struct {
	DB           *gorm.DB
	Store        BlobStore
	Media        MediaProcessor
	Orchestrator *Orchestrator
	Selector     *Selector
	Tracker      *Tracker

	// Files above this size go through the segmented compression path
	CompressThreshold int64

	// How long the finished task entry lingers so a 100% state can render
	DoneDelay time.Duration
}

func NewCoordinator(db *gorm.DB, store BlobStore, media MediaProcessor, tracker *Tracker) *Coordinator {
	return &Coordinator{
		DB:                db,
		Store:             store,
		Media:             media,
		Orchestrator:      NewOrchestrator(media, NewSegmentUploader(store)),
		Selector:          NewSelector(store, tracker),
		Tracker:           tracker,
		CompressThreshold: viper.GetInt64("upload.compress_threshold"),
		DoneDelay:         200 * time.Millisecond,
	}
}

// HandleUpload runs the full pipeline for one file. The caller must have
// registered videoID with the tracker; the temp file at path is consumed.
func (c *Coordinator) HandleUpload(ctx context.Context, videoID, path, filename string) {
	defer os.Remove(path)

	stat, err := os.Stat(path)
	if err != nil {
		zap.L().Error("Failed to stat uploaded file", zap.String("video_id", videoID), zap.Error(err))
		c.Tracker.Clear(videoID)
		return
	}
	size := stat.Size()

	artifact := c.compress(ctx, videoID, path, filename, size)

	// Segmented artifacts already carry uploaded content; skip the upload
	// state entirely
	if artifact.Kind == ArtifactSegmented {
		c.persist(artifact.Asset)
		c.Tracker.Clear(videoID)
		return
	}

	c.Tracker.Update(videoID, 0)

	// Audio extraction runs alongside the upload; a miss just means no
	// audio rendition
	audioCh := make(chan string, 1)
	go func() {
		audioCh <- c.extractAudio(ctx, artifact.Path, videoID)
	}()

	contentType := detectContentType(artifact.Path)

	asset, err := c.Selector.Upload(ctx, artifact.Path, filename, videoID, artifact.Size, contentType)
	audioPath := <-audioCh

	if err != nil {
		zap.L().Error("All upload methods failed", zap.String("video_id", videoID), zap.Error(err))

		if audioPath != "" {
			os.Remove(audioPath)
		}
		c.Tracker.Clear(videoID)
		return
	}

	if audioPath != "" {
		asset.AudioURL = c.uploadAudio(ctx, audioPath, asset.ID)
		os.Remove(audioPath)
	}

	c.Tracker.Done(videoID)
	c.persist(asset)

	time.AfterFunc(c.DoneDelay, func() {
		c.Tracker.Clear(videoID)
	})
}

// compress decides the compression path for a file. Whole-file compression
// stays an intentional passthrough (it used to corrupt output); the
// segmented parallel path is the active strategy for large files.
func (c *Coordinator) compress(ctx context.Context, videoID, path, filename string, size int64) Artifact {
	if size <= c.CompressThreshold {
		return Artifact{Kind: ArtifactWholeFile, Path: path, Size: size}
	}

	c.Tracker.Compressing(videoID)

	started := time.Now()
	artifact := c.Orchestrator.CompressAndUpload(ctx, path, filename, size, videoID)

	zap.L().Info("Compression stage finished",
		zap.String("video_id", videoID),
		zap.Bool("segmented", artifact.Kind == ArtifactSegmented),
		zap.Duration("took", time.Since(started)))

	return artifact
}

// extractAudio returns the path of an audio-only sample, or "" when the
// source has no audio or extraction isn't available. Both are expected
// degradations.
func (c *Coordinator) extractAudio(ctx context.Context, path, videoID string) string {
	audioPath, err := c.Media.ExtractAudio(ctx, path)
	if err != nil {
		if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrNoAudio) || errors.Is(err, ErrNoData) {
			zap.L().Debug("Skipping audio extraction", zap.String("video_id", videoID), zap.Error(err))
		} else {
			zap.L().Warn("Audio extraction failed", zap.String("video_id", videoID), zap.Error(err))
		}
		return ""
	}

	return audioPath
}

// uploadAudio pushes the extracted audio rendition and returns its URL, or
// "" on failure. An audio miss never fails the task.
func (c *Coordinator) uploadAudio(ctx context.Context, audioPath, assetID string) string {
	f, err := os.Open(audioPath)
	if err != nil {
		zap.L().Warn("Failed to open extracted audio", zap.Error(err))
		return ""
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		zap.L().Warn("Failed to stat extracted audio", zap.Error(err))
		return ""
	}

	key := fmt.Sprintf("audio/%s_%s", assetID, filepath.Base(audioPath))

	if err := c.Store.PutSimple(ctx, key, f, stat.Size(), "audio/webm"); err != nil {
		zap.L().Warn("Audio upload failed", zap.String("asset_id", assetID), zap.Error(err))
		return ""
	}

	return c.Store.DownloadURL(key)
}

// persist hands the final asset to the datastore. Failure is logged but the
// asset is still surfaced; durability is traded for availability here.
func (c *Coordinator) persist(asset *model.Video) {
	if err := c.DB.Create(asset).Error; err != nil {
		zap.L().Error("Failed to save video to database",
			zap.String("asset_id", asset.ID),
			zap.Error(err))
	}
}

func detectContentType(path string) string {
	mt, err := mimetype.DetectFile(path)
	if err != nil || mt == nil {
		return "video/mp4"
	}

	if !strings.HasPrefix(mt.String(), "video/") && !strings.HasPrefix(mt.String(), "audio/") {
		return "video/mp4"
	}

	return mt.String()
}
