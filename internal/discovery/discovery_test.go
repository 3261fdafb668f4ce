package discovery

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streampack/internal/diag"
	"streampack/internal/executor"
	"streampack/internal/failure"
)

const listing = `Encoders:
 V..... = Video
 A..... = Audio
 ------
 V....D a64multi             Multicolor charset for Commodore 64 (codec a64_multi)
 V..... libx264              libx264 H.264 / AVC / MPEG-4 AVC / MPEG-4 part 10 (codec h264)
 V..... h264_nvenc           NVIDIA NVENC H.264 encoder (codec h264)
 V..... h264_qsv             H.264 / AVC / MPEG-4 AVC / MPEG-4 part 10 (Intel Quick Sync Video acceleration) (codec h264)
 V..... h264_vaapi           H.264/AVC (VAAPI) (codec h264)
 V..... h264_videotoolbox    VideoToolbox H.264 Encoder (codec h264)
 V..... hevc_amf             AMD AMF HEVC encoder (codec hevc)
 V..... mpeg4                MPEG-4 part 2
 A..... aac                  AAC (Advanced Audio Coding)
`

func stubFFmpeg(t *testing.T, body string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell stubs are not supported on windows")
	}

	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))

	return path
}

func TestParse(t *testing.T) {
	assert.Equal(t, []Encoder{
		{ID: "libx264", Name: "CPU (x264)"},
		{ID: "h264_nvenc", Name: "NVIDIA GPU (h264_nvenc)"},
		{ID: "h264_qsv", Name: "Intel QuickSync (h264_qsv)"},
		{ID: "h264_vaapi", Name: "VAAPI (h264_vaapi)"},
		{ID: "h264_videotoolbox", Name: "Apple Silicon (h264_videotoolbox)"},
		{ID: "hevc_amf", Name: "AMD AMF (hevc_amf)"},
	}, Parse(diag.FFmpeg, listing))
}

func TestParseEmpty(t *testing.T) {
	assert.Equal(t, []Encoder{Software}, Parse(diag.FFmpeg, ""))
}

func TestDiscover(t *testing.T) {
	bin := stubFFmpeg(t, "cat <<'OUT'\n"+listing+"OUT\necho 'some warning' >&2\nexit 1\n")

	encoders, err := NewDiscoverer(bin, executor.NewExecutor(nil)).Discover(context.Background())

	require.NoError(t, err, "a non-zero exit still yields the parsed list")
	require.Len(t, encoders, 6)
	assert.Equal(t, Software, encoders[0])
	assert.Equal(t, "h264_videotoolbox", encoders[4].ID)
}

func TestDiscoverIgnoresStderr(t *testing.T) {
	bin := stubFFmpeg(t, "cat >&2 <<'OUT'\n"+listing+"OUT\n")

	encoders, err := NewDiscoverer(bin, executor.NewExecutor(nil)).Discover(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []Encoder{Software}, encoders)
}

func TestDiscoverMissingTool(t *testing.T) {
	_, err := NewDiscoverer(filepath.Join(t.TempDir(), "nope"), executor.NewExecutor(nil)).Discover(context.Background())

	assert.True(t, failure.Is(err, failure.ToolNotFound))
}
