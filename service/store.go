package service

import (
	"context"
	"io"
	"sync/atomic"

	"boomerang/diary-api/aws"
)

// BlobStore is the durable storage collaborator. Implemented by aws.S3Client;
// tests substitute fakes.
type BlobStore interface {
	PutSimple(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PutResumable(ctx context.Context, key string, r io.Reader, size int64, contentType string, opts aws.ResumableOptions) error
	DownloadURL(key string) string
}

// progressReader reports cumulative bytes read from the wrapped reader.
// Both upload paths consume the body through here, so byte-level progress
// works the same for simple and resumable transfers.
type progressReader struct {
	r     io.Reader
	total int64
	read  atomic.Int64
	fn    func(done, total int64)
}

func newProgressReader(r io.Reader, total int64, fn func(done, total int64)) *progressReader {
	return &progressReader{r: r, total: total, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.fn != nil {
		p.fn(p.read.Add(int64(n)), p.total)
	}

	return n, err
}
