package storage

import (
	"context"

	"github.com/pkg/errors"
	"gocloud.dev/blob/gcsblob"
	"gocloud.dev/gcp"
	"golang.org/x/oauth2/google"
)

const gcsScope = "https://www.googleapis.com/auth/devstorage.read_write"

// NewGCS opens a Google Cloud Storage bucket with the application default
// credentials.
func NewGCS(ctx context.Context, bucketName string) (Bucket, error) {
	creds, err := google.FindDefaultCredentials(ctx, gcsScope)

	if err != nil {
		return nil, errors.Wrap(err, "gcp credentials")
	}

	client, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))

	if err != nil {
		return nil, errors.Wrap(err, "gcp http client")
	}

	bucket, err := gcsblob.OpenBucket(ctx, client, bucketName, nil)

	if err != nil {
		return nil, errors.Wrapf(err, "open gcs bucket '%s'", bucketName)
	}

	return &gocloud{bucket: bucket}, nil
}
