package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"jan-server/services/whatsapp-api/internal/config"
	"jan-server/services/whatsapp-api/internal/domain/session"
	"jan-server/services/whatsapp-api/internal/infrastructure/metrics"
)

const (
	listDelimiter     = "/"
	deleteConcurrency = 16
)

// S3Storage persists session credentials to S3-compatible storage.
type S3Storage struct {
	bucket  string
	client  *s3.Client
	log     zerolog.Logger
	missing []string
}

// NewS3Storage builds the S3 backend. Missing bucket or credentials leave the
// store disabled rather than failing startup.
func NewS3Storage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*S3Storage, error) {
	logger := log.With().Str("component", "s3-storage").Logger()
	storage := &S3Storage{
		bucket: strings.TrimSpace(cfg.S3Bucket),
		log:    logger,
	}

	accessKey := strings.TrimSpace(cfg.S3AccessKeyID)
	secretKey := strings.TrimSpace(cfg.S3SecretKey)
	if storage.bucket == "" {
		storage.missing = append(storage.missing, "AWS_S3_BUCKET_NAME")
	}
	if accessKey == "" {
		storage.missing = append(storage.missing, "AWS_ACCESS_KEY_ID")
	}
	if secretKey == "" {
		storage.missing = append(storage.missing, "AWS_SECRET_ACCESS_KEY")
	}
	if strings.TrimSpace(cfg.S3Region) == "" {
		storage.missing = append(storage.missing, "AWS_REGION")
	}
	if len(storage.missing) > 0 {
		logger.Warn().
			Strs("missing", storage.missing).
			Msg("S3 bucket or credentials are not set; session persistence disabled until configured")
		return storage, nil
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.S3Endpoint != "" {
			return aws.Endpoint{
				URL:           cfg.S3Endpoint,
				PartitionID:   "aws",
				SigningRegion: cfg.S3Region,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	storage.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3UsePathStyle
	})

	logger.Info().
		Str("bucket", storage.bucket).
		Str("endpoint", cfg.S3Endpoint).
		Msg("s3 storage initialized")

	return storage, nil
}

// Enabled reports whether bucket and credentials are configured.
func (s *S3Storage) Enabled() error {
	if len(s.missing) > 0 {
		return &session.ConfigurationError{Missing: append([]string(nil), s.missing...)}
	}
	return nil
}

// Put uploads data under key.
func (s *S3Storage) Put(ctx context.Context, key string, data []byte) (err error) {
	if err := s.Enabled(); err != nil {
		return err
	}
	defer observe("put", time.Now(), &err)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Get downloads the object under key.
func (s *S3Storage) Get(ctx context.Context, key string) (data []byte, err error) {
	if err := s.Enabled(); err != nil {
		return nil, err
	}
	defer observe("get", time.Now(), &err)

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, session.ErrObjectNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err = io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Head reports whether key exists.
func (s *S3Storage) Head(ctx context.Context, key string) (exists bool, err error) {
	if err := s.Enabled(); err != nil {
		return false, err
	}
	defer observe("head", time.Now(), &err)

	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("head %s: %w", key, err)
	}
	return true, nil
}

// ListByPrefix lists keys and common prefixes directly under prefix,
// following continuation tokens.
func (s *S3Storage) ListByPrefix(ctx context.Context, prefix string) (listing *session.Listing, err error) {
	if err := s.Enabled(); err != nil {
		return nil, err
	}
	defer observe("list", time.Now(), &err)

	listing = &session.Listing{}
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String(listDelimiter),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			listing.Keys = append(listing.Keys, aws.ToString(obj.Key))
		}
		for _, cp := range page.CommonPrefixes {
			listing.CommonPrefixes = append(listing.CommonPrefixes, aws.ToString(cp.Prefix))
		}
	}
	return listing, nil
}

// Delete removes key. Missing keys are not an error.
func (s *S3Storage) Delete(ctx context.Context, key string) (err error) {
	if err := s.Enabled(); err != nil {
		return err
	}
	defer observe("delete", time.Now(), &err)

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// DeleteByPrefix removes every object under prefix. Deletes run concurrently.
func (s *S3Storage) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	if err := s.Enabled(); err != nil {
		return 0, err
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deleteConcurrency)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			return s.Delete(gctx, key)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	s.log.Debug().Str("prefix", prefix).Int("deleted", len(keys)).Msg("deleted objects by prefix")
	return len(keys), nil
}

// Health performs a HeadBucket request.
func (s *S3Storage) Health(ctx context.Context) error {
	if s.Enabled() != nil {
		return nil
	}
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func observe(op string, started time.Time, err *error) {
	status := "success"
	if err != nil && *err != nil {
		status = "error"
	}
	metrics.RecordS3Operation(op, status, time.Since(started).Seconds())
}
