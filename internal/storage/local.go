package storage

import (
	"os"

	"github.com/pkg/errors"
	"gocloud.dev/blob/fileblob"
)

// NewLocal stores objects as files under path, creating it if needed.
func NewLocal(path string) (Bucket, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create storage directory '%s'", path)
	}

	bucket, err := fileblob.OpenBucket(path, nil)

	if err != nil {
		return nil, errors.Wrapf(err, "open local bucket '%s'", path)
	}

	return &gocloud{bucket: bucket}, nil
}
