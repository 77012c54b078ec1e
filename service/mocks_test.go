package service

import (
	"context"
	"io"
	"os"
	"sync"
	"testing"

	"boomerang/diary-api/aws"
	"boomerang/diary-api/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeStore struct {
	mu             sync.Mutex
	keys           []string
	contentTypes   []string
	simpleCalls    int
	resumableCalls int

	// Optional per-call hooks. A nil hook means success.
	simpleFn    func(key string) error
	resumableFn func(key string, opts aws.ResumableOptions) error
}

func (f *fakeStore) PutSimple(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}

	f.mu.Lock()
	f.simpleCalls++
	f.keys = append(f.keys, key)
	f.contentTypes = append(f.contentTypes, contentType)
	fn := f.simpleFn
	f.mu.Unlock()

	if fn != nil {
		return fn(key)
	}
	return nil
}

func (f *fakeStore) PutResumable(_ context.Context, key string, r io.Reader, _ int64, contentType string, opts aws.ResumableOptions) error {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}

	f.mu.Lock()
	f.resumableCalls++
	f.keys = append(f.keys, key)
	f.contentTypes = append(f.contentTypes, contentType)
	fn := f.resumableFn
	f.mu.Unlock()

	if fn != nil {
		return fn(key, opts)
	}
	return nil
}

func (f *fakeStore) DownloadURL(key string) string {
	return "https://cdn.test/" + key
}

func (f *fakeStore) storedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.keys...)
}

type fakeMedia struct {
	available   bool
	duration    float64
	durationErr error

	compressFn func(index int) (string, error)
	audioFn    func() (string, error)
}

func (f *fakeMedia) Available() bool { return f.available }

func (f *fakeMedia) Duration(context.Context, string) (float64, error) {
	if f.durationErr != nil {
		return 0, f.durationErr
	}
	return f.duration, nil
}

func (f *fakeMedia) CompressSegment(_ context.Context, _ string, _, _ float64, index int) (string, error) {
	if f.compressFn != nil {
		return f.compressFn(index)
	}
	return tempBlob("segment")
}

func (f *fakeMedia) ExtractAudio(context.Context, string) (string, error) {
	if f.audioFn != nil {
		return f.audioFn()
	}
	return "", ErrUnavailable
}

type fakeTranscriber struct {
	mu      sync.Mutex
	results map[string]string
	errs    map[string]error
	calls   []string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, mediaURL, mediaID string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, mediaURL)
	f.mu.Unlock()

	if err, ok := f.errs[mediaID]; ok {
		return "", err
	}
	return f.results[mediaID], nil
}

type fakeGenerator struct {
	post GeneratedPost
	err  error

	gotTranscriptions string
	gotAuthor         string
}

func (f *fakeGenerator) Generate(_ context.Context, transcriptions, author string) (GeneratedPost, error) {
	f.gotTranscriptions = transcriptions
	f.gotAuthor = author

	if f.err != nil {
		return GeneratedPost{}, f.err
	}
	return f.post, nil
}

func tempBlob(content string) (string, error) {
	f, err := os.CreateTemp("", "blob_*.webm")
	if err != nil {
		return "", err
	}

	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}

	return f.Name(), f.Close()
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()

	path, err := tempBlob(content)
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(path) })

	return path
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(model.Video{}, model.Blog{}))

	return db
}
