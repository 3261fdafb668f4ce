package util

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"streampack/internal/storage"
)

type UploadOptions struct {
	Attempts uint
	Delay    time.Duration
}

var DefaultUploadOptions = UploadOptions{Attempts: 3, Delay: time.Second}

type UploadResult struct {
	Files int
	Bytes int64
}

// UploadDir copies every file under dir to bucket, keyed by prefix plus the
// slash separated path relative to dir. Each file is retried on its own.
func UploadDir(ctx context.Context, bucket storage.Bucket, dir, prefix string, opts UploadOptions) (*UploadResult, error) {
	res := &UploadResult{}

	err := filepath.Walk(dir, func(file string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		if err = ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, file)

		if err != nil {
			return err
		}

		key := path.Join(prefix, filepath.ToSlash(rel))

		if err = Upload(ctx, bucket, key, file, opts); err != nil {
			return err
		}

		res.Files++
		res.Bytes += info.Size()

		return nil
	})

	if err != nil {
		return res, errors.Wrapf(err, "upload '%s'", dir)
	}

	return res, nil
}

func Upload(ctx context.Context, bucket storage.Bucket, key, file string, opts UploadOptions) error {
	logger := log.WithFields(log.Fields{"file": file, "key": key})
	logger.Debug("upload")

	f, err := os.Open(file)

	if err != nil {
		return errors.Wrapf(err, "open '%s'", file)
	}

	defer f.Close()

	return retry.Do(
		func() error {
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				return err
			}

			return bucket.Write(ctx, key, f)
		},
		retry.Attempts(opts.Attempts),
		retry.Delay(opts.Delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil
		}),
		retry.OnRetry(func(n uint, err error) {
			logger.WithError(err).Warnf("upload failed, retry #%d", n+1)
		}),
	)
}
