package job

import (
	"context"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streampack/internal/executor"
	"streampack/internal/failure"
	"streampack/internal/playlist"
	"streampack/internal/storage"
	"streampack/internal/transcode"
	"streampack/internal/util"
)

// stubFFmpeg fakes ffmpeg: it writes a playlist and one segment for every
// encode, and exits with code when the output path contains failOn.
func stubFFmpeg(t *testing.T, failOn string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell stubs are not supported on windows")
	}

	if failOn == "" {
		failOn = "never-matches"
	}

	bin := filepath.Join(t.TempDir(), "ffmpeg")
	script := fmt.Sprintf(`#!/bin/sh
for last; do :; done
if [ "$last" = "-hide_banner" ]; then
  echo "  Duration: 00:00:10.00, start: 0.000000, bitrate: 5000 kb/s" >&2
  exit 1
fi
case "$last" in
  */%s/*) echo "encoder error" >&2; exit 1 ;;
esac
dir=$(dirname "$last")
printf '#EXTM3U\n' > "$last"
printf '0123456789' > "$dir/000.ts"
`, failOn)

	require.NoError(t, ioutil.WriteFile(bin, []byte(script), 0o755))

	return bin
}

func newRunner(t *testing.T, bin string, bucket storage.Bucket) *Runner {
	orch := transcode.NewOrchestrator(bin, executor.NewExecutor(nil))
	return NewRunner(orch, bucket).WithUploadOptions(util.UploadOptions{Attempts: 1, Delay: time.Millisecond})
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "hls", "movie")

	bucket, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	outcome, err := newRunner(t, stubFFmpeg(t, ""), bucket).Run(ctx, Request{
		Config: transcode.ProcessConfig{InputPath: "movie.mp4", OutputDir: out, Qualities: []string{"720p", "360p"}},
		Prefix: "movies/1",
	})

	require.NoError(t, err)

	_, err = uuid.Parse(outcome.Result.JobID)
	assert.NoError(t, err, "a missing id is generated")

	assert.True(t, playlist.Exists(out))
	assert.Greater(t, outcome.Size, int64(20))
	assert.Equal(t, "movies/1", outcome.Published)
	assert.Equal(t, 5, outcome.Uploaded.Files)

	data, err := bucket.Get(ctx, "movies/1/"+playlist.MasterFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "720p/playlist.m3u8")

	_, err = bucket.Get(ctx, "movies/1/360p/000.ts")
	assert.NoError(t, err)
}

func TestRunWithoutBucketSkipsPublish(t *testing.T) {
	outcome, err := newRunner(t, stubFFmpeg(t, ""), nil).Run(context.Background(), Request{
		Config: transcode.ProcessConfig{ID: "job-1", InputPath: "movie.mp4", OutputDir: filepath.Join(t.TempDir(), "out")},
		Prefix: "movies/1",
	})

	require.NoError(t, err)
	assert.Equal(t, "job-1", outcome.Result.JobID)
	assert.Empty(t, outcome.Published)
	assert.Nil(t, outcome.Uploaded)
}

func TestRunLocked(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")

	held := flock.New(LockPath(out))
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer held.Unlock()

	_, err = newRunner(t, stubFFmpeg(t, ""), nil).Run(context.Background(), Request{
		Config: transcode.ProcessConfig{InputPath: "movie.mp4", OutputDir: out},
	})

	assert.Equal(t, ErrLocked, err)
	assert.False(t, playlist.Exists(out))
}

func TestRunFailure(t *testing.T) {
	bucket, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = newRunner(t, stubFFmpeg(t, "360p"), bucket).Run(context.Background(), Request{
		Config: transcode.ProcessConfig{ID: "job-2", InputPath: "movie.mp4", OutputDir: filepath.Join(t.TempDir(), "out"), Qualities: []string{"720p", "360p"}},
		Prefix: "movies/2",
	})

	assert.True(t, failure.Is(err, failure.EncodeFailure))
	assert.Contains(t, err.Error(), "job-2")

	keys, err := bucket.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, keys, "nothing is published for a failed job")
}

func TestRunInvalid(t *testing.T) {
	_, err := newRunner(t, "ffmpeg", nil).Run(context.Background(), Request{})
	assert.Error(t, err)
}
