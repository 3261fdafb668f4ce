package transcode

import (
	"github.com/pkg/errors"

	"streampack/internal/rendition"
)

const (
	DefaultSegmentDuration = 4

	// AssumedFrameRate is used to derive the keyframe interval from the
	// segment duration. It is not measured from the source, so segments of
	// sources at other frame rates are not guaranteed to start on a keyframe.
	AssumedFrameRate = 12
)

// ProcessConfig is the complete input of a job. It doubles as the queue
// payload and the job file format.
type ProcessConfig struct {
	ID              string   `yaml:"id"`
	InputPath       string   `yaml:"input"`
	OutputDir       string   `yaml:"output"`
	Qualities       []string `yaml:"qualities,omitempty"`
	SegmentDuration int      `yaml:"segmentDuration,omitempty"`
	Encoder         string   `yaml:"encoder,omitempty"`
}

func (c ProcessConfig) Validate() error {
	if c.InputPath == "" {
		return errors.New("input path is required")
	}

	if c.OutputDir == "" {
		return errors.New("output directory is required")
	}

	if c.SegmentDuration < 0 {
		return errors.Errorf("invalid segment duration %d", c.SegmentDuration)
	}

	return nil
}

func (c ProcessConfig) Segment() int {
	if c.SegmentDuration <= 0 {
		return DefaultSegmentDuration
	}
	return c.SegmentDuration
}

// GOP is the keyframe interval in frames.
func (c ProcessConfig) GOP() int {
	return c.Segment() * AssumedFrameRate
}

func (c ProcessConfig) EncoderID() string {
	if c.Encoder == "" {
		return rendition.DefaultEncoder
	}
	return c.Encoder
}
