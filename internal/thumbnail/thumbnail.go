// Package thumbnail extracts a poster frame from an input.
package thumbnail

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"streampack/internal/executor"
	"streampack/internal/failure"
	"streampack/internal/probe"
)

const (
	// Position is the fraction of the duration the frame is taken from.
	Position = 0.25
	Width    = 640
)

type Generator struct {
	binary string
	exec   *executor.Executor
	prober *probe.Prober
	logger *log.Entry
}

func NewGenerator(binary string, exec *executor.Executor) *Generator {
	return &Generator{
		binary: binary,
		exec:   exec,
		prober: probe.NewProber(binary, exec),
		logger: log.WithField("component", "thumbnail"),
	}
}

// Generate writes a single JPEG frame of input to output, creating the
// parent directory as needed. An input of unknown duration uses the first
// frame.
func (g *Generator) Generate(ctx context.Context, input, output string) (string, error) {
	info, err := g.prober.Probe(ctx, input)

	if err != nil {
		return "", err
	}

	seek := Timestamp(info.Duration * Position)

	if err = os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return "", failure.New(failure.IOFailure, "create thumbnail directory", errors.Wrapf(err, "unable to create '%s'", filepath.Dir(output)))
	}

	cmd := &executor.Cmd{Binary: g.binary}
	cmd.Add("-ss", seek)
	cmd.Add("-i", input)
	cmd.Add("-vframes", "1")
	cmd.Add("-vf", fmt.Sprintf("scale=%d:-1", Width))
	cmd.Add("-q:v", "2")
	cmd.Add("-y", output)

	res, err := g.exec.Run(ctx, cmd, nil)

	if err != nil {
		if fe, ok := failure.As(err); ok {
			fe.Op = "thumbnail"
		}
		return "", err
	}

	if res.ExitCode != 0 {
		return "", failure.Encode("thumbnail", "thumbnail", res.ExitCode, res.Stderr)
	}

	g.logger.WithFields(log.Fields{"input": input, "output": output, "seek": seek}).Info("thumbnail written")

	return output, nil
}

// Timestamp formats seconds as HH:MM:SS.ss.
func Timestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}

	// split after rounding so 59.999 carries into the minute
	hundredths := int64(math.Round(seconds * 100))

	hours := hundredths / 360000
	minutes := hundredths / 6000 % 60
	rest := hundredths % 6000

	return fmt.Sprintf("%02d:%02d:%02d.%02d", hours, minutes, rest/100, rest%100)
}
