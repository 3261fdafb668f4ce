package transcode

import (
	"path/filepath"
	"strconv"

	"streampack/internal/executor"
	"streampack/internal/playlist"
	"streampack/internal/rendition"
)

// RenditionDir is where a rendition's playlist and segments are written.
func RenditionDir(cfg ProcessConfig, profile rendition.Profile) string {
	return filepath.Join(cfg.OutputDir, profile.Label)
}

// Arguments builds the ffmpeg argument vector for one rendition.
func Arguments(cfg ProcessConfig, profile rendition.Profile, enc rendition.EncoderProfile) []string {
	cmd := &executor.Cmd{}
	dir := RenditionDir(cfg, profile)
	gop := strconv.Itoa(cfg.GOP())

	cmd.Add("-i", cfg.InputPath)
	cmd.Add("-y")

	// Audio
	cmd.Add("-c:a", "aac")
	cmd.Add("-ar", "48000")
	cmd.Add("-b:a", "128k")

	// Video codec, profile (unless suppressed) and quality
	cmd.Add(enc.VideoArgs()...)

	// Segmenting
	cmd.Add("-sc_threshold", "0") // no scene cut detection, keyframes only on the GOP boundary
	cmd.Add("-g", gop)
	cmd.Add("-keyint_min", gop)
	cmd.Add("-hls_time", strconv.Itoa(cfg.Segment()))
	cmd.Add("-hls_playlist_type", "vod")

	cmd.Add("-vf", profile.Scale)
	cmd.Add("-b:v", profile.Bitrate)
	cmd.Add("-maxrate", profile.Bitrate)
	cmd.Add("-bufsize", profile.BufSize)

	cmd.Add("-hls_segment_filename", filepath.Join(dir, playlist.SegmentLayout))
	cmd.Add(filepath.Join(dir, playlist.VariantFile))

	return cmd.Command()
}
