package rendition

import (
	"strconv"
	"strings"
)

// DefaultLabel is used when a job requests no qualities, and its table row
// is used for any label that is not in the table.
const DefaultLabel = "720p"

// Profile is the encode and advertise parameters of one rendition.
type Profile struct {
	Label      string
	Scale      string // ffmpeg -vf expression
	Bitrate    string // e.g. "2500k"
	BufSize    string // twice Bitrate
	Bandwidth  int    // bits/sec advertised in the master playlist
	Resolution string // advertised WxH
}

type row struct {
	scale      string
	bitrate    string
	bandwidth  int
	resolution string
}

var ladder = map[string]row{
	"1080p": {"scale=-2:1080", "4500k", 5000000, "1920x1080"},
	"720p":  {"scale=-2:720", "2500k", 2800000, "1280x720"},
	"480p":  {"scale=-2:480", "1250k", 1400000, "854x480"},
	"360p":  {"scale=-2:360", "800k", 900000, "640x360"},
}

// Known reports whether label has its own row in the ladder.
func Known(label string) bool {
	_, ok := ladder[label]
	return ok
}

// Lookup returns the profile for label. Unknown labels get the default row
// but keep their own label, which names the output directory.
func Lookup(label string) Profile {
	r, ok := ladder[label]
	if !ok {
		r = ladder[DefaultLabel]
	}

	return Profile{
		Label:      label,
		Scale:      r.scale,
		Bitrate:    r.bitrate,
		BufSize:    bufSize(r.bitrate),
		Bandwidth:  r.bandwidth,
		Resolution: r.resolution,
	}
}

// Normalize returns the labels to plan for; an empty request becomes the
// default rendition.
func Normalize(labels []string) []string {
	if len(labels) == 0 {
		return []string{DefaultLabel}
	}

	out := make([]string, len(labels))
	copy(out, labels)

	return out
}

func bufSize(bitrate string) string {
	n, err := strconv.Atoi(strings.TrimSuffix(bitrate, "k"))
	if err != nil {
		n = 2500
	}
	return strconv.Itoa(n*2) + "k"
}
