package sync

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/prodkit/composer/pkg/errors"
)

// S3Options configure access to an S3-compatible bucket. Empty fields
// fall back to the default AWS credential and region chain.
type S3Options struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string

	// Endpoint points at an S3-compatible service such as MinIO.
	// Path-style addressing is used when it is set.
	Endpoint string
}

// S3Client implements BucketClient on top of aws-sdk-go-v2.
type S3Client struct {
	api    *s3.Client
	bucket string
}

// NewS3Client builds a client for the configured bucket.
func NewS3Client(ctx context.Context, opts S3Options) (*S3Client, error) {
	if opts.Bucket == "" {
		return nil, errors.New(errors.ErrCodeSync, "bucket name is required")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSync, err, "loading AWS configuration")
	}

	api := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Client{api: api, bucket: opts.Bucket}, nil
}

// List returns every object in the bucket.
func (c *S3Client) List(ctx context.Context) ([]Object, error) {
	var out []Object
	paginator := s3.NewListObjectsV2Paginator(c.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			out = append(out, Object{Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)})
		}
	}
	return out, nil
}

// Upload stores r under key.
func (c *S3Client) Upload(ctx context.Context, key string, r io.Reader) error {
	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	return err
}
