package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const probeStderr = `Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'sample.mp4':
  Metadata:
    major_brand     : isom
  Duration: 00:01:30.50, start: 0.000000, bitrate: 2134 kb/s
  Stream #0:0(und): Video: h264 (High) (avc1 / 0x31637661), yuv420p(progressive), 1920x1080 [SAR 1:1 DAR 16:9], 2000 kb/s, 25 fps, 25 tbr, 12800 tbn (default)
  Stream #0:1(und): Audio: aac (LC) (mp4a / 0x6134706D), 48000 Hz, stereo, fltp, 128 kb/s (default)
At least one output file must be specified
`

func TestDuration(t *testing.T) {
	d, ok := FFmpeg.ParseDuration(probeStderr)
	require.True(t, ok)
	assert.InDelta(t, 90.5, d, 1e-9)

	d, ok = FFmpeg.ParseDuration("  Duration: 01:02:03.04, start: 0.0")
	require.True(t, ok)
	assert.InDelta(t, 3723.04, d, 1e-9)
}

func TestDurationMissing(t *testing.T) {
	d, ok := FFmpeg.ParseDuration("  Duration: N/A, bitrate: N/A")
	assert.False(t, ok)
	assert.Zero(t, d)
}

func TestGeometry(t *testing.T) {
	w, h, ok := FFmpeg.ParseGeometry(probeStderr)
	require.True(t, ok)
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)

	w, h, ok = FFmpeg.ParseGeometry("Stream #0:0: Video: hevc, yuv420p10le, 10240x4320, 60 fps")
	require.True(t, ok)
	assert.Equal(t, 10240, w)
	assert.Equal(t, 4320, h)
}

func TestGeometryMissing(t *testing.T) {
	for _, text := range []string{
		"",
		"Stream #0:0: Audio: aac, 48000 Hz, stereo",
		"Stream #0:0: Video: h264, yuv420p, 64x48, 25 fps",
	} {
		w, h, ok := FFmpeg.ParseGeometry(text)
		assert.False(t, ok, text)
		assert.Zero(t, w)
		assert.Zero(t, h)
	}
}

func TestProgress(t *testing.T) {
	line := "frame=  625 fps=124 q=28.0 size=    1024kB time=00:00:25.00 bitrate= 335.5kbits/s speed=4.97x"

	elapsed, ok := FFmpeg.ParseProgress(line)
	require.True(t, ok)
	assert.InDelta(t, 25.0, elapsed, 1e-9)

	_, ok = FFmpeg.ParseProgress("frame=    0 fps=0.0 q=0.0 size=       0kB time=N/A bitrate=N/A speed=N/A")
	assert.False(t, ok)
}

func TestEncoder(t *testing.T) {
	id, desc, ok := FFmpeg.ParseEncoder(" V....D h264_nvenc           NVIDIA NVENC H.264 encoder (codec h264)")
	assert.False(t, ok, "capability flags other than dots do not match")
	assert.Empty(t, id)
	assert.Empty(t, desc)

	id, desc, ok = FFmpeg.ParseEncoder(" V..... h264_videotoolbox    VideoToolbox H.264 Encoder (codec h264)")
	require.True(t, ok)
	assert.Equal(t, "h264_videotoolbox", id)
	assert.Equal(t, "VideoToolbox H.264 Encoder (codec h264)", desc)

	_, _, ok = FFmpeg.ParseEncoder(" A..... aac                  AAC (Advanced Audio Coding)")
	assert.False(t, ok)
}

func TestSeconds(t *testing.T) {
	assert.InDelta(t, 90.5, Seconds("00", "01", "30", "50"), 1e-9)
	assert.InDelta(t, 0, Seconds("xx", "", "00", "00"), 1e-9)
}
