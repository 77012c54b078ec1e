package aws

import (
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// ResumableOptions configure one chunked upload attempt. The chunk size,
// per-chunk timeout and retry count together form one competing upload
// strategy, so they are intentionally settable per call rather than fixed
// on the client.
type ResumableOptions struct {
	PartSize   int64
	Timeout    time.Duration
	MaxRetries int
}

// PutSimple uploads a blob in a single request. Meant for small objects
// where the resumable handshake overhead isn't worth it.
func (s *S3Client) PutSimple(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.C.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        s.Bucket,
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})

	return err
}

// PutResumable uploads a blob with the multipart protocol so transfers can
// continue after transient interruption. Parts are sent sequentially which
// lets callers derive byte-level progress from reads on r.
func (s *S3Client) PutResumable(ctx context.Context, key string, r io.Reader, size int64, contentType string, opts ResumableOptions) error {
	uploader := manager.NewUploader(s.C, func(u *manager.Uploader) {
		u.PartSize = opts.PartSize
		u.Concurrency = 1
	})

	zap.L().Debug("Starting resumable upload",
		zap.String("key", key),
		zap.Int64("part_size", opts.PartSize),
		zap.Duration("timeout", opts.Timeout),
		zap.Int("max_retries", opts.MaxRetries))

	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        s.Bucket,
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	}, func(u *manager.Uploader) {
		u.ClientOptions = append(u.ClientOptions, func(o *s3.Options) {
			// Timeout and retry budget apply per chunk, not per upload
			o.HTTPClient = awshttp.NewBuildableClient().WithTimeout(opts.Timeout)
			o.Retryer = retry.AddWithMaxAttempts(retry.NewStandard(), opts.MaxRetries+1)
		})
	})

	return err
}
