// Package probe reads duration and frame geometry from ffmpeg's inspection
// output.
package probe

import (
	"context"
	"strconv"

	log "github.com/sirupsen/logrus"

	"streampack/internal/diag"
	"streampack/internal/executor"
	"streampack/internal/failure"
)

// UnknownFormat is reported for every input; ffmpeg's banner does not give a
// reliable container name.
const UnknownFormat = "unknown"

// Result describes one probed input. Zero values mean "unknown".
type Result struct {
	Duration   float64 `yaml:"duration"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	FormatName string  `yaml:"format"`
}

type Prober struct {
	binary   string
	exec     *executor.Executor
	patterns diag.Patterns
	logger   *log.Entry
}

func NewProber(binary string, exec *executor.Executor) *Prober {
	return &Prober{
		binary:   binary,
		exec:     exec,
		patterns: diag.FFmpeg,
		logger:   log.WithField("component", "probe"),
	}
}

// Probe runs `ffmpeg -i <path> -hide_banner`. ffmpeg exits non-zero because no
// output is given; that is expected and ignored. Only a missing binary or a
// failed spawn is an error.
func (p *Prober) Probe(ctx context.Context, path string) (*Result, error) {
	cmd := &executor.Cmd{Binary: p.binary}
	cmd.Add("-i", path, "-hide_banner")

	res, err := p.exec.Run(ctx, cmd, nil)

	if err != nil {
		if fe, ok := failure.As(err); ok {
			fe.Op = "probe"
		}
		return nil, err
	}

	result := Parse(p.patterns, res.Stderr)

	p.logger.WithFields(log.Fields{
		"input":    path,
		"duration": result.Duration,
		"width":    result.Width,
		"height":   result.Height,
	}).Debug("probed input")

	return result, nil
}

// Parse extracts a Result from the full diagnostic text. Missing fields are
// left at zero.
func Parse(patterns diag.Patterns, stderr string) *Result {
	result := &Result{FormatName: UnknownFormat}

	if d, ok := patterns.ParseDuration(stderr); ok {
		result.Duration = d
	}

	if w, h, ok := patterns.ParseGeometry(stderr); ok {
		result.Width, result.Height = w, h
	}

	return result
}

func (r *Result) HasDuration() bool {
	return r != nil && r.Duration > 0
}

func (r *Result) Resolution() string {
	if r == nil || r.Width <= 0 || r.Height <= 0 {
		return UnknownFormat
	}
	return strconv.Itoa(r.Width) + "x" + strconv.Itoa(r.Height)
}
