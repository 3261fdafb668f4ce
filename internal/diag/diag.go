// Package diag holds every textual pattern used to read ffmpeg output.
//
// ffmpeg does not guarantee the format of its diagnostic stream, so the
// patterns are grouped into a versioned Patterns value. When a new ffmpeg
// release changes its output, add a new Patterns value here instead of
// touching the prober, orchestrator or discovery code.
package diag

import (
	"regexp"
	"strconv"
)

type Patterns struct {
	Version  string
	Duration *regexp.Regexp // Duration: HH:MM:SS.ff
	Geometry *regexp.Regexp // Video: ..., WxH
	Progress *regexp.Regexp // time=HH:MM:SS.ff
	Encoder  *regexp.Regexp // " V..... id   description"
}

// FFmpeg matches the stderr/stdout layout of ffmpeg 4.x through 7.x.
var FFmpeg = Patterns{
	Version:  "ffmpeg-4",
	Duration: regexp.MustCompile(`Duration: (\d{2}):(\d{2}):(\d{2})\.(\d{2})`),
	Geometry: regexp.MustCompile(`Video: .*, (\d{3,5})x(\d{3,5})`),
	Progress: regexp.MustCompile(`time=(\d{2}):(\d{2}):(\d{2})\.(\d{2})`),
	Encoder:  regexp.MustCompile(`\sV\.\.\.\.\.\s(\w+)\s+(.*)`),
}

// ParseDuration returns the input duration in seconds, or false when the text
// carries no duration line.
func (p Patterns) ParseDuration(text string) (float64, bool) {
	return clock(p.Duration, text)
}

// ParseProgress returns the elapsed encode time in seconds reported by a stats line.
func (p Patterns) ParseProgress(line string) (float64, bool) {
	return clock(p.Progress, line)
}

// ParseGeometry returns (0, 0, false) when no video stream line is found.
func (p Patterns) ParseGeometry(text string) (width, height int, ok bool) {
	m := p.Geometry.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}

	width, _ = strconv.Atoi(m[1])
	height, _ = strconv.Atoi(m[2])

	return width, height, true
}

// ParseEncoder extracts the identifier and description of a video encoder entry
// from one line of `ffmpeg -encoders`.
func (p Patterns) ParseEncoder(line string) (id, description string, ok bool) {
	m := p.Encoder.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

func clock(re *regexp.Regexp, text string) (float64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return Seconds(m[1], m[2], m[3], m[4]), true
}

// Seconds converts HH, MM, SS and hundredths into seconds. Unparseable
// components count as zero.
func Seconds(hours, minutes, seconds, hundredths string) float64 {
	h, _ := strconv.ParseFloat(hours, 64)
	m, _ := strconv.ParseFloat(minutes, 64)
	s, _ := strconv.ParseFloat(seconds, 64)
	f, _ := strconv.ParseFloat(hundredths, 64)

	return h*3600 + m*60 + s + f/100
}
