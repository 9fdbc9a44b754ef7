package secretstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// maxSecretObjectSize bounds how much of the object is read. A valid secret
// file is a few hundred bytes.
const maxSecretObjectSize = 64 << 10

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Options locates the secret object in an S3-compatible bucket.
type S3Options struct {
	AccessKey    string
	SecretKey    string
	Region       string
	BaseEndpoint string
	Bucket       string
	ObjectKey    string
}

// S3Backend keeps the secret file as a single object. PutObject replaces
// an object atomically, which gives the same guarantee as rename.
type S3Backend struct {
	client s3API
	bucket string
	key    string
}

// newS3Client is a seam for tests.
var newS3Client = func(ctx context.Context, o S3Options) (s3API, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(o.Region)}
	// without static keys the default AWS credential chain applies
	if o.AccessKey != "" {
		loadOpts = append(loadOpts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.BaseEndpoint != "" {
			so.BaseEndpoint = aws.String(o.BaseEndpoint)
			so.UsePathStyle = true
		}
	}), nil
}

func NewS3Backend(ctx context.Context, o S3Options) (*S3Backend, error) {
	if o.Bucket == "" || o.ObjectKey == "" {
		return nil, errors.New("s3 backend: bucket and object key are required")
	}
	client, err := newS3Client(ctx, o)
	if err != nil {
		return nil, err
	}
	return &S3Backend{client: client, bucket: o.Bucket, key: o.ObjectKey}, nil
}

// Read fetches the object. A missing object is reported as os.ErrNotExist
// so callers treat it like a missing local file.
func (b *S3Backend) Read(ctx context.Context) ([]byte, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%s: %w", b.Describe(), os.ErrNotExist)
		}
		return nil, fmt.Errorf("get %s: %w", b.Describe(), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxSecretObjectSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.Describe(), err)
	}
	return data, nil
}

func (b *S3Backend) Write(ctx context.Context, data []byte) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(b.key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("text/plain"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", b.Describe(), err)
	}
	return nil
}

func (b *S3Backend) Describe() string {
	return "s3://" + b.bucket + "/" + b.key
}
