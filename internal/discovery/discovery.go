// Package discovery lists the video encoders the installed ffmpeg can use.
package discovery

import (
	"bufio"
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"streampack/internal/diag"
	"streampack/internal/executor"
	"streampack/internal/failure"
	"streampack/internal/rendition"
)

// Encoder is one selectable encoder.
type Encoder struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Software is always offered, whether or not ffmpeg lists it.
var Software = Encoder{ID: rendition.DefaultEncoder, Name: "CPU (x264)"}

type Discoverer struct {
	binary   string
	exec     *executor.Executor
	patterns diag.Patterns
	logger   *log.Entry
}

func NewDiscoverer(binary string, exec *executor.Executor) *Discoverer {
	return &Discoverer{
		binary:   binary,
		exec:     exec,
		patterns: diag.FFmpeg,
		logger:   log.WithField("component", "discovery"),
	}
}

// Discover runs `ffmpeg -encoders -hide_banner`. The exit code is ignored.
func (d *Discoverer) Discover(ctx context.Context) ([]Encoder, error) {
	cmd := &executor.Cmd{Binary: d.binary}
	cmd.Add("-encoders", "-hide_banner")

	res, err := d.exec.Run(ctx, cmd, nil)

	if err != nil {
		if fe, ok := failure.As(err); ok {
			fe.Op = "discover encoders"
		}
		return nil, err
	}

	if res.ExitCode != 0 {
		d.logger.WithField("exit", res.ExitCode).Warn("encoder listing exited with an error")
	}

	encoders := Parse(d.patterns, res.Stdout)

	d.logger.WithField("count", len(encoders)).Debug("discovered encoders")

	return encoders, nil
}

// Parse classifies each video encoder line of output. Encoders that belong to
// no hardware family are dropped.
func Parse(patterns diag.Patterns, output string) []Encoder {
	encoders := []Encoder{Software}

	scanner := bufio.NewScanner(strings.NewReader(output))

	for scanner.Scan() {
		id, _, ok := patterns.ParseEncoder(scanner.Text())

		if !ok {
			continue
		}

		family := rendition.Match(id)

		if family == nil {
			continue
		}

		encoders = append(encoders, Encoder{ID: id, Name: family.Label(id)})
	}

	return encoders
}
