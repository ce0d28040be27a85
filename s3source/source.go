// Package s3source adapts an S3 object into the io.ReaderAt source that zipcore.OpenFromReaderAt expects,
// so a ZIP archive can be read directly out of S3 without downloading it first.
//
// A HeadObject call determines the object's size once, and every ReadAt issues a ranged GetObject call for
// exactly the bytes requested.
package s3source

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Client abstracts the S3 API surface Source needs.
type Client interface {
	GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Options customises New, following the functional-options convention used throughout this module.
type Options struct {
	// ModifyGetObjectInput can modify the GetObject input before every ranged read, e.g. to set
	// ExpectedBucketOwner or VersionId.
	ModifyGetObjectInput func(*s3.GetObjectInput) *s3.GetObjectInput

	// ModifyHeadObjectInput can modify the HeadObject input used once by New to determine the object's size.
	ModifyHeadObjectInput func(*s3.HeadObjectInput) *s3.HeadObjectInput
}

// Source is an io.ReaderAt backed by ranged reads of a single S3 object. Its Size is fixed at construction
// time: a change to the underlying object after New returns is not reflected and may produce an
// inconsistent read.
type Source struct {
	client               Client
	bucket, key          string
	size                 int64
	modifyGetObjectInput func(*s3.GetObjectInput) *s3.GetObjectInput
}

var _ io.ReaderAt = (*Source)(nil)

// New issues one HeadObject call to determine the object's size, then returns a Source ready for
// zipcore.OpenFromReaderAt(ctx, src, src.Size(), ...).
func New(ctx context.Context, client Client, bucket, key string, optFns ...func(*Options)) (*Source, error) {
	opts := &Options{
		ModifyGetObjectInput: func(input *s3.GetObjectInput) *s3.GetObjectInput {
			return input
		},
		ModifyHeadObjectInput: func(input *s3.HeadObjectInput) *s3.HeadObjectInput {
			return input
		},
	}
	for _, fn := range optFns {
		fn(opts)
	}

	out, err := client.HeadObject(ctx, opts.ModifyHeadObjectInput(&s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}))
	if err != nil {
		return nil, fmt.Errorf("s3source: head s3://%s/%s: %w", bucket, key, err)
	}

	return &Source{
		client:               client,
		bucket:               bucket,
		key:                  key,
		size:                 aws.ToInt64(out.ContentLength),
		modifyGetObjectInput: opts.ModifyGetObjectInput,
	}, nil
}

// NewFromDefaultConfig loads the ambient AWS configuration (environment, shared config file, EC2/ECS
// instance role, in that order) via config.LoadDefaultConfig and uses it to construct an s3.Client before
// delegating to New. This is a convenience for callers that have not already built an AWS config for other
// reasons.
func NewFromDefaultConfig(ctx context.Context, bucket, key string, optFns ...func(*Options)) (*Source, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3source: load default AWS config: %w", err)
	}
	return New(ctx, s3.NewFromConfig(cfg), bucket, key, optFns...)
}

// Size returns the object's content length as observed by the HeadObject call made in New.
func (s *Source) Size() int64 {
	return s.size
}

// ReadAt issues a single ranged GetObject call covering exactly [off, off+len(p)) and fills p from its
// body. Concurrent calls are safe: each issues its own request.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 || off >= s.size {
		return 0, io.EOF
	}

	end := off + int64(len(p)) - 1
	if end >= s.size {
		end = s.size - 1
	}

	out, err := s.client.GetObject(context.Background(), s.modifyGetObjectInput(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	}))
	if err != nil {
		return 0, fmt.Errorf("s3source: get s3://%s/%s [%d-%d]: %w", s.bucket, s.key, off, end, err)
	}
	defer out.Body.Close()

	n, err := io.ReadFull(out.Body, p[:end-off+1])
	if err != nil && err != io.ErrUnexpectedEOF {
		return n, fmt.Errorf("s3source: read s3://%s/%s [%d-%d]: %w", s.bucket, s.key, off, end, err)
	}

	if int64(n) < int64(len(p)) && end == s.size-1 {
		return n, io.EOF
	}
	return n, nil
}
