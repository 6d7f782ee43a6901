package s3

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"declbot/internal/config"
	"declbot/internal/port"
)

const (
	defaultLinkTTL = 15 * time.Minute
	// S3 rejects SigV4 presigned URLs valid for more than a week.
	maxLinkTTL = 7 * 24 * time.Hour
)

// ErrNoBucket is returned when declaration uploads are enabled without a bucket.
var ErrNoBucket = errors.New("s3: no bucket configured for declarations")

// declarationStore keeps rendered declarations so brokers can download them by link.
// It implements port.ObjectStorage.
type declarationStore struct {
	client    *s3.Client
	presigner *s3.PresignClient
	uploader  *manager.Uploader
}

// NewDeclarationStore creates the S3-backed store. A custom endpoint switches to
// path-style addressing for S3-compatible servers such as MinIO.
func NewDeclarationStore(ctx context.Context, cfg *config.S3Config) (port.ObjectStorage, error) {
	if cfg.Bucket == "" {
		return nil, ErrNoBucket
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3.NewDeclarationStore: loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &declarationStore{
		client:    client,
		presigner: s3.NewPresignClient(client),
		uploader:  manager.NewUploader(client),
	}, nil
}

func (d *declarationStore) Upload(ctx context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	name := input.FileName
	if name == "" {
		name = path.Base(input.Key)
	}
	put := &s3.PutObjectInput{
		Bucket:             aws.String(input.Bucket),
		Key:                aws.String(input.Key),
		Body:               input.Body,
		ContentType:        aws.String(input.ContentType),
		ContentDisposition: aws.String(attachment(name)),
		Metadata:           input.Metadata,
	}
	if input.Size > 0 {
		put.ContentLength = aws.Int64(input.Size)
	}

	result, err := d.uploader.Upload(ctx, put)
	if err != nil {
		return nil, fmt.Errorf("s3 upload of declaration %s: %w", input.Key, err)
	}
	return &port.UploadOutput{
		Location: result.Location,
		ETag:     aws.ToString(result.ETag),
	}, nil
}

func (d *declarationStore) Delete(ctx context.Context, bucket, key string) error {
	_, err := d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete of declaration %s: %w", key, err)
	}
	return nil
}

// GetPresignedURL links to the declaration so that browsers save it under its own file name.
func (d *declarationStore) GetPresignedURL(ctx context.Context, bucket, key string, expirySeconds int64) (string, error) {
	result, err := d.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(attachment(path.Base(key))),
	}, s3.WithPresignExpires(linkTTL(expirySeconds)))
	if err != nil {
		return "", fmt.Errorf("s3 presign of declaration %s: %w", key, err)
	}
	return result.URL, nil
}

// attachment builds a Content-Disposition value. The ASCII fallback keeps old clients working
// while filename* carries the exact UTF-8 name.
func attachment(name string) string {
	fallback := make([]rune, 0, len(name))
	for _, r := range name {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			r = '_'
		}
		fallback = append(fallback, r)
	}
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`,
		string(fallback), url.PathEscape(name))
}

func linkTTL(seconds int64) time.Duration {
	ttl := time.Duration(seconds) * time.Second
	switch {
	case ttl <= 0:
		return defaultLinkTTL
	case ttl > maxLinkTTL:
		return maxLinkTTL
	}
	return ttl
}
