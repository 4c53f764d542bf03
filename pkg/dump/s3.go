package dump

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultS3Region = "us-east-1"

// S3Config locates dump objects in S3-compatible storage.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// Enabled reports whether an S3 source is configured.
func (c S3Config) Enabled() bool {
	return strings.TrimSpace(c.Bucket) != ""
}

// S3Source streams one dump object.
type S3Source struct {
	client *minio.Client
	bucket string
	key    string
}

// Name implements Source.
func (s *S3Source) Name() string {
	return "s3://" + s.bucket + "/" + s.key
}

// Open implements Source.
func (s *S3Source) Open(ctx context.Context) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", s.key, err)
	}

	return decode(s.key, obj), nil
}

// NewS3Client builds a minio client from cfg. Empty credentials give
// anonymous access.
func NewS3Client(cfg S3Config) (*minio.Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint is required", ErrInvalidS3Config)
	}

	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("%w: bucket is required", ErrInvalidS3Config)
	}

	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultS3Region
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return client, nil
}

// ListS3 lists the dump objects under cfg.Prefix, sorted by key. Objects
// larger than maxSize fail the listing; zero disables the check.
func ListS3(ctx context.Context, cfg S3Config, maxSize uint64) ([]Source, error) {
	client, err := NewS3Client(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var keys []string

	// The iterator pages synchronously, so leaving the loop early stops the
	// listing without a producer left behind.
	for obj := range client.ListObjectsIter(ctx, cfg.Bucket, minio.ListObjectsOptions{
		Prefix:    cfg.Prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", cfg.Bucket, cfg.Prefix, obj.Err)
		}

		if !IsDumpName(obj.Key) {
			continue
		}

		sizeErr := checkSize("s3://"+cfg.Bucket+"/"+obj.Key, obj.Size, maxSize)
		if sizeErr != nil {
			return nil, sizeErr
		}

		keys = append(keys, obj.Key)
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: s3://%s/%s", ErrNoDumps, cfg.Bucket, cfg.Prefix)
	}

	slices.Sort(keys)

	sources := make([]Source, 0, len(keys))
	for _, key := range keys {
		sources = append(sources, &S3Source{client: client, bucket: cfg.Bucket, key: key})
	}

	return sources, nil
}
