package attachments

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config describes an S3 compatible bucket (AWS, R2, MinIO).
type S3Config struct {
	Bucket          string
	Endpoint        string // empty for AWS
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string // base URL objects are readable from
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader puts proofs into a bucket.
type S3Uploader struct {
	client     objectPutter
	bucket     string
	publicBase string
}

func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	if cfg.Bucket == "" || cfg.PublicURL == "" {
		return nil, errors.New("s3 bucket and public url are required")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Uploader(client, cfg.Bucket, cfg.PublicURL), nil
}

func newS3Uploader(client objectPutter, bucket, publicURL string) *S3Uploader {
	return &S3Uploader{client: client, bucket: bucket, publicBase: strings.TrimRight(publicURL, "/")}
}

func (u *S3Uploader) Upload(ctx context.Context, owner string, f File) (Attachment, error) {
	if err := f.Check(); err != nil {
		return Attachment{}, err
	}
	key := objectKey(owner, f.Name)
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(f.Content),
		ContentType: aws.String(f.ContentType),
	})
	if err != nil {
		return Attachment{}, fmt.Errorf("upload to s3: %w", err)
	}
	return Attachment{URL: u.publicBase + "/" + escapeKey(key), Name: f.Name}, nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
