package rendition

import (
	"fmt"
	"strings"
)

// DefaultEncoder is used when a job does not name one.
const DefaultEncoder = "libx264"

// EncoderProfile holds the video codec arguments for one job. When
// SuppressProfile is set the profile arguments must not be passed to ffmpeg.
type EncoderProfile struct {
	Encoder         string
	Family          *Family
	CodecArgs       []string
	ProfileArgs     []string
	QualityArgs     []string
	SuppressProfile bool
}

// VideoArgs returns codec, profile and quality arguments in command order.
func (p EncoderProfile) VideoArgs() []string {
	args := make([]string, 0, len(p.CodecArgs)+len(p.ProfileArgs)+len(p.QualityArgs))
	args = append(args, p.CodecArgs...)

	if !p.SuppressProfile {
		args = append(args, p.ProfileArgs...)
	}

	return append(args, p.QualityArgs...)
}

// Family is one class of encoder implementation. Hardware families take
// quality flags that the software encoder does not understand, and the
// reverse, so each family builds its own arguments.
type Family struct {
	Name   string
	Marker string // substring of the ffmpeg encoder id, empty for software
	Vendor string // human readable name shown by discovery
	Args   func(encoder string) EncoderProfile
}

// Label is the name shown to users for an encoder of this family.
func (f *Family) Label(encoder string) string {
	return fmt.Sprintf("%s (%s)", f.Vendor, encoder)
}

func (f *Family) Hardware() bool {
	return f.Marker != ""
}

var (
	Software = &Family{Name: "software", Vendor: "CPU", Args: softwareArgs}

	NVENC        = &Family{Name: "nvenc", Marker: "nvenc", Vendor: "NVIDIA GPU", Args: nvencArgs}
	QSV          = &Family{Name: "qsv", Marker: "qsv", Vendor: "Intel QuickSync", Args: softwareArgs}
	VAAPI        = &Family{Name: "vaapi", Marker: "vaapi", Vendor: "VAAPI", Args: softwareArgs}
	VideoToolbox = &Family{Name: "videotoolbox", Marker: "videotoolbox", Vendor: "Apple Silicon", Args: videoToolboxArgs}
	AMF          = &Family{Name: "amf", Marker: "amf", Vendor: "AMD AMF", Args: softwareArgs}
)

// Hardware lists hardware families in match order.
var Hardware = []*Family{NVENC, QSV, VAAPI, VideoToolbox, AMF}

// Match returns the hardware family whose marker appears in encoder, or
// nil when none does.
func Match(encoder string) *Family {
	for _, f := range Hardware {
		if strings.Contains(encoder, f.Marker) {
			return f
		}
	}
	return nil
}

// Resolve returns the family for encoder, falling back to Software.
func Resolve(encoder string) *Family {
	if f := Match(encoder); f != nil {
		return f
	}
	return Software
}

// Encoder builds the EncoderProfile for encoder; an empty id selects
// DefaultEncoder.
func Encoder(encoder string) EncoderProfile {
	if encoder == "" {
		encoder = DefaultEncoder
	}

	f := Resolve(encoder)
	p := f.Args(encoder)
	p.Family = f

	return p
}

func base(encoder string) EncoderProfile {
	return EncoderProfile{
		Encoder:     encoder,
		CodecArgs:   []string{"-c:v", encoder},
		ProfileArgs: []string{"-profile:v", "main"},
	}
}

func softwareArgs(encoder string) EncoderProfile {
	p := base(encoder)
	p.QualityArgs = []string{"-crf", "20"}
	return p
}

func nvencArgs(encoder string) EncoderProfile {
	p := base(encoder)
	p.QualityArgs = []string{"-cq", "20", "-preset", "p4"}
	return p
}

// videotoolbox rejects -profile:v/-crf combinations and uses a 1-100 scale.
func videoToolboxArgs(encoder string) EncoderProfile {
	p := base(encoder)
	p.QualityArgs = []string{"-q:v", "60"}
	p.SuppressProfile = true
	return p
}
