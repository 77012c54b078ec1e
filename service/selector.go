package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"boomerang/diary-api/aws"
	"boomerang/diary-api/model"

	"go.uber.org/zap"
)

const mb = 1 << 20

// uploadStrategy is one competing upload configuration
type uploadStrategy struct {
	Name   string
	Simple bool
	Opts   aws.ResumableOptions
}

// strategiesFor selects the upload configurations to race for a file size.
// Small files pay the cheap single-request path; mid-size files race two
// chunk configurations and take whichever wins, trading duplicate bandwidth
// for lower tail latency; huge files get one maximal-chunk strategy because
// racing duplicates of transfers that large wastes bandwidth
// disproportionately.
func strategiesFor(size int64) []uploadStrategy {
	switch {
	case size < 10*mb:
		return []uploadStrategy{
			{Name: "simple", Simple: true},
		}
	case size < 100*mb:
		return []uploadStrategy{
			{Name: "1", Opts: aws.ResumableOptions{PartSize: 64 * mb, Timeout: 300 * time.Second, MaxRetries: 1}},
			{Name: "2", Opts: aws.ResumableOptions{PartSize: 32 * mb, Timeout: 180 * time.Second, MaxRetries: 1}},
		}
	case size < 1000*mb:
		return []uploadStrategy{
			{Name: "1", Opts: aws.ResumableOptions{PartSize: 256 * mb, Timeout: 900 * time.Second, MaxRetries: 0}},
			{Name: "2", Opts: aws.ResumableOptions{PartSize: 128 * mb, Timeout: 600 * time.Second, MaxRetries: 0}},
		}
	default:
		return []uploadStrategy{
			{Name: "1", Opts: aws.ResumableOptions{PartSize: 512 * mb, Timeout: 1800 * time.Second, MaxRetries: 0}},
		}
	}
}

// Selector uploads whole files by racing one or more strategies picked from
// the file's size tier. The first attempt to complete wins; losing attempts
// are left to run out and their results are discarded, but their progress
// callbacks still feed the tracker, which enforces the monotonic rule.
type Selector struct {
	Store   BlobStore
	Tracker *Tracker
}

func NewSelector(store BlobStore, tracker *Tracker) *Selector {
	return &Selector{Store: store, Tracker: tracker}
}

type attemptResult struct {
	key string
	err error
}

// Upload races the tier's strategies and returns the winning asset
func (s *Selector) Upload(ctx context.Context, path, filename, videoID string, size int64, contentType string) (*model.Video, error) {
	strategies := strategiesFor(size)

	zap.L().Info("Starting upload",
		zap.String("file", filename),
		zap.String("video_id", videoID),
		zap.Int64("size", size),
		zap.Int("attempts", len(strategies)))

	results := make(chan attemptResult, len(strategies))

	for _, st := range strategies {
		go func(st uploadStrategy) {
			key, err := s.attempt(ctx, st, path, filename, videoID, size, contentType)
			results <- attemptResult{key: key, err: err}
		}(st)
	}

	var errs []error

	for range strategies {
		res := <-results
		if res.err == nil {
			s.Tracker.Update(videoID, 100)

			return &model.Video{
				ID:       videoID,
				Filename: filename,
				URL:      s.Store.DownloadURL(res.key),
				Size:     size,
			}, nil
		}

		errs = append(errs, res.err)
	}

	return nil, fmt.Errorf("all upload attempts failed, %w", errors.Join(errs...))
}

// attempt runs one strategy to completion. Each attempt opens its own file
// handle so racing readers never interfere.
func (s *Selector) attempt(ctx context.Context, st uploadStrategy, path, filename, videoID string, size int64, contentType string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for upload, %w", err)
	}
	defer f.Close()

	key := fmt.Sprintf("videos/%s_%s_%s", videoID, st.Name, filename)

	body := newProgressReader(f, size, func(done, total int64) {
		s.Tracker.Update(videoID, float64(done)/float64(total)*100)
	})

	if st.Simple {
		err = s.Store.PutSimple(ctx, key, body, size, contentType)
	} else {
		err = s.Store.PutResumable(ctx, key, body, size, contentType, st.Opts)
	}
	if err != nil {
		zap.L().Warn("Upload attempt failed",
			zap.String("video_id", videoID),
			zap.String("strategy", st.Name),
			zap.Error(err))
		return "", err
	}

	return key, nil
}
