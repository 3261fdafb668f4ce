package storage

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/pkg/errors"
	"gocloud.dev/blob/s3blob"
)

type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string // for S3 compatible services (R2, MinIO, Scaleway)
	ID       string
	Secret   string
}

func (c S3Config) aws() *aws.Config {
	config := &aws.Config{Region: aws.String(c.Region)}

	if c.Endpoint != "" {
		config.Endpoint = aws.String(c.Endpoint)
		config.S3ForcePathStyle = aws.Bool(true)
	}

	if c.ID != "" {
		config.Credentials = credentials.NewStaticCredentials(c.ID, c.Secret, "")
	}

	return config
}

func NewS3(ctx context.Context, config S3Config) (Bucket, error) {
	sess, err := session.NewSession(config.aws())

	if err != nil {
		return nil, errors.Wrap(err, "aws session")
	}

	bucket, err := s3blob.OpenBucket(ctx, sess, config.Bucket, nil)

	if err != nil {
		return nil, errors.Wrapf(err, "open s3 bucket '%s'", config.Bucket)
	}

	return &gocloud{bucket: bucket}, nil
}
