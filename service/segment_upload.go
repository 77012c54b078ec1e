package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"boomerang/diary-api/model"
	"boomerang/diary-api/util"

	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// SegmentUploader pushes compressed segment blobs to durable storage,
// retrying transient failures with exponential backoff and jitter.
// Segments land under their own key namespace so a failed parent upload
// never orphans them ambiguously.
type SegmentUploader struct {
	Store BlobStore

	// Backoff policy. Exposed so tests can shrink the delays.
	BaseDelay  time.Duration
	MaxRetries int
}

func NewSegmentUploader(store BlobStore) *SegmentUploader {
	return &SegmentUploader{
		Store:      store,
		BaseDelay:  time.Second,
		MaxRetries: 5,
	}
}

// Upload sends one segment blob and returns its asset stub. Transient
// failures are retried up to MaxRetries times; non-transient errors and
// exhausted retries propagate as fatal for this segment only.
func (u *SegmentUploader) Upload(ctx context.Context, path, filename, baseID string) (*model.Video, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open segment file, %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat segment file, %w", err)
	}

	segmentID := util.NewSegmentID(baseID)
	key := fmt.Sprintf("videos/segments/%s_%s", segmentID, filename)

	var lastErr error

	for attempt := 0; attempt <= u.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := u.BaseDelay*(1<<(attempt-1)) + time.Duration(rand.Int64N(int64(u.BaseDelay)))

			zap.L().Warn("Retrying segment upload",
				zap.String("segment", filename),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay))

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if _, err := f.Seek(0, 0); err != nil {
			return nil, fmt.Errorf("failed to rewind segment file, %w", err)
		}

		err = u.Store.PutSimple(ctx, key, f, stat.Size(), segmentContentType(path))
		if err == nil {
			return &model.Video{
				ID:       segmentID,
				Filename: filename,
				URL:      u.Store.DownloadURL(key),
				Size:     stat.Size(),
			}, nil
		}

		lastErr = err

		if !isTransient(err) {
			return nil, fmt.Errorf("segment upload failed, %w", err)
		}
	}

	return nil, fmt.Errorf("segment upload failed after %d attempts, %w", u.MaxRetries+1, lastErr)
}

// segmentContentType maps the encoded container to its MIME type. Segments
// come out as WebM unless the encoder fell back to H.264/MP4.
func segmentContentType(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".mp4") {
		return "video/mp4"
	}

	return "video/webm"
}

// isTransient reports whether an upload failure looks like a rate-limit or
// quota signal worth backing off and retrying
func isTransient(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "SlowDown", "ServiceUnavailable", "RequestTimeout", "Throttling", "ThrottlingException", "TooManyRequestsException":
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "quota")
}
