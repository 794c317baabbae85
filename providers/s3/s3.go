// Package s3bucket archives XML documents in an S3 bucket.
package s3bucket

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/hengadev/xmlcodec/docstore"
	"github.com/hengadev/xmlcodec/internal/reliability"
	"github.com/rs/zerolog"
)

const contentType = "application/xml"

// Client is the part of the S3 API the archiver uses. *s3.Client
// implements it.
type Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Archiver uploads documents under <prefix>/<tag>/<id>.xml.
type Archiver struct {
	client Client
	bucket string
	prefix string
	logger zerolog.Logger
	retry  reliability.RetryConfig
}

type Option func(a *Archiver)

// WithRetry sets how many times Archive and Restore try a request and
// the delay before the first retry. Later retries back off exponentially.
func WithRetry(attempts int, initialDelay time.Duration) Option {
	return func(a *Archiver) {
		a.retry.MaxAttempts = attempts
		a.retry.InitialDelay = initialDelay
	}
}

func NewArchiver(client Client, bucket, prefix string, logger zerolog.Logger, opts ...Option) (*Archiver, error) {
	if client == nil {
		return nil, errors.New("s3 client is nil")
	}
	if bucket == "" {
		return nil, errors.New("s3 bucket is empty")
	}
	a := &Archiver{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
		retry:  reliability.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Archiver) executor(key string) *reliability.RetryExecutor {
	return reliability.NewRetryExecutor(reliability.NewExponentialBackoffPolicy(a.retry),
		func(attempt int, delay time.Duration, err error) {
			a.logger.Warn().Err(err).Str("key", key).Int("attempt", attempt).Dur("delay", delay).Msg("retrying s3 request")
		})
}

// NewArchiverFromConfig builds an S3 client from the default AWS
// configuration chain. A non-empty region overrides the configured one.
func NewArchiverFromConfig(ctx context.Context, region, bucket, prefix string, logger zerolog.Logger, opts ...Option) (*Archiver, error) {
	var loadOpts []func(*config.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewArchiver(s3.NewFromConfig(cfg), bucket, prefix, logger, opts...)
}

// Key returns the object key of the document with the given tag and ID.
func (a *Archiver) Key(tag string, id uuid.UUID) string {
	return path.Join(a.prefix, tag, id.String()+".xml")
}

// Archive uploads doc and returns its object key.
func (a *Archiver) Archive(ctx context.Context, doc docstore.Document) (string, error) {
	key := a.Key(doc.Tag, doc.ID)
	err := a.executor(key).Execute(ctx, func(ctx context.Context) error {
		_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(a.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(doc.Body),
			ContentType:   aws.String(contentType),
			ContentLength: aws.Int64(int64(len(doc.Body))),
			Metadata: map[string]string{
				"checksum": doc.Checksum,
				"version":  fmt.Sprint(doc.Version),
			},
		})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload s3://%s/%s: %w", a.bucket, key, err)
	}
	a.logger.Info().Str("bucket", a.bucket).Str("key", key).Msg("archived document")
	return key, nil
}

// Restore downloads the archived body of a document.
func (a *Archiver) Restore(ctx context.Context, tag string, id uuid.UUID) ([]byte, error) {
	key := a.Key(tag, id)
	var body []byte
	err := a.executor(key).Execute(ctx, func(ctx context.Context) error {
		out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(a.bucket),
			Key:    aws.String(key),
		})
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return fmt.Errorf("%w: %s", docstore.ErrNotFound, key)
		}
		if err != nil {
			return err
		}
		defer out.Body.Close()
		body, err = io.ReadAll(out.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", a.bucket, key, err)
	}
	return body, nil
}

type s3Writer struct {
	writer *io.PipeWriter
	done   chan error
	cancel context.CancelFunc
}

func (w *s3Writer) Write(p []byte) (n int, err error) {
	return w.writer.Write(p)
}

// Close signals EOF to the upload and waits for it to finish.
func (w *s3Writer) Close() error {
	defer w.cancel()
	if err := w.writer.Close(); err != nil {
		return err
	}
	return <-w.done
}

// NewWriter streams a document to S3 as it is written, for example with
// Engine.WriteDocument. The upload completes when Close returns nil.
func (a *Archiver) NewWriter(ctx context.Context, tag string, id uuid.UUID) io.WriteCloser {
	reader, writer := io.Pipe()
	uploadCtx, cancel := context.WithCancel(ctx)
	key := a.Key(tag, id)

	w := &s3Writer{writer: writer, done: make(chan error, 1), cancel: cancel}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("panic during upload: %v", r)
				reader.CloseWithError(err)
				w.done <- err
			}
		}()
		_, err := a.client.PutObject(uploadCtx, &s3.PutObjectInput{
			Bucket:      aws.String(a.bucket),
			Key:         aws.String(key),
			Body:        reader,
			ContentType: aws.String(contentType),
		})
		if err != nil {
			// unblock the writer
			reader.CloseWithError(err)
			w.done <- fmt.Errorf("failed to upload s3://%s/%s: %w", a.bucket, key, err)
			return
		}
		a.logger.Info().Str("bucket", a.bucket).Str("key", key).Msg("streamed document")
		w.done <- nil
	}()
	return w
}
