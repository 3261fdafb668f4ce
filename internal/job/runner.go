// Package job runs one transcode request end to end: it takes the output
// lock, drives the orchestrator and publishes the finished package.
package job

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"streampack/internal/storage"
	"streampack/internal/transcode"
	"streampack/internal/util"
)

var ErrLocked = errors.New("output directory is locked by another job")

type Request struct {
	Config transcode.ProcessConfig

	// Prefix is the bucket key prefix of the published package. Publishing
	// is skipped when empty or when the runner has no bucket.
	Prefix string
}

type Outcome struct {
	Result    *transcode.Result
	Size      int64
	Published string
	Uploaded  *util.UploadResult
	Elapsed   time.Duration
}

type Runner struct {
	orchestrator *transcode.Orchestrator
	bucket       storage.Bucket
	upload       util.UploadOptions
	logger       *log.Entry
}

// NewRunner accepts a nil bucket; publishing is then disabled.
func NewRunner(orchestrator *transcode.Orchestrator, bucket storage.Bucket) *Runner {
	return &Runner{
		orchestrator: orchestrator,
		bucket:       bucket,
		upload:       util.DefaultUploadOptions,
		logger:       log.WithField("component", "job"),
	}
}

func (r *Runner) WithUploadOptions(opts util.UploadOptions) *Runner {
	c := *r
	c.upload = opts
	return &c
}

// NewID returns a fresh job id.
func NewID() string {
	return uuid.New().String()
}

// LockPath is the advisory lock guarding outputDir.
func LockPath(outputDir string) string {
	return filepath.Clean(outputDir) + ".lock"
}

func (r *Runner) Run(ctx context.Context, req Request) (*Outcome, error) {
	start := time.Now()
	cfg := req.Config

	if cfg.ID == "" {
		cfg.ID = NewID()
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid job")
	}

	logger := r.logger.WithFields(log.Fields{"id": cfg.ID, "output": cfg.OutputDir})

	if err := os.MkdirAll(filepath.Dir(filepath.Clean(cfg.OutputDir)), 0o755); err != nil {
		return nil, errors.Wrap(err, "create output parent directory")
	}

	lock := flock.New(LockPath(cfg.OutputDir))
	locked, err := lock.TryLock()

	if err != nil {
		return nil, errors.Wrap(err, "acquire output lock")
	}

	if !locked {
		return nil, ErrLocked
	}

	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.WithError(err).Warn("unable to release output lock")
		}
	}()

	res, err := r.orchestrator.Process(ctx, cfg)

	if err != nil {
		return nil, errors.Wrapf(err, "job '%s'", cfg.ID)
	}

	outcome := &Outcome{Result: res}

	if outcome.Size, err = dirSize(cfg.OutputDir); err != nil {
		logger.WithError(err).Warn("unable to measure package size")
	}

	logger.WithFields(log.Fields{
		"renditions": len(res.Renditions),
		"size":       humanize.Bytes(uint64(outcome.Size)),
		"elapsed":    res.Elapsed.String(),
	}).Info("package ready")

	if req.Prefix != "" && r.bucket != nil {
		uploaded, err := util.UploadDir(ctx, r.bucket, cfg.OutputDir, req.Prefix, r.upload)

		if err != nil {
			return nil, errors.Wrapf(err, "publish job '%s'", cfg.ID)
		}

		outcome.Published = req.Prefix
		outcome.Uploaded = uploaded

		logger.WithFields(log.Fields{
			"prefix": req.Prefix,
			"files":  uploaded.Files,
			"size":   humanize.Bytes(uint64(uploaded.Bytes)),
		}).Info("package published")
	}

	outcome.Elapsed = time.Since(start)

	return outcome, nil
}

func dirSize(dir string) (int64, error) {
	var size int64

	err := filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			size += info.Size()
		}

		return nil
	})

	return size, err
}
