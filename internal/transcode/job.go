package transcode

import (
	log "github.com/sirupsen/logrus"

	"streampack/internal/diag"
	"streampack/internal/rendition"
)

// job tracks a single rendition encode while ffmpeg runs.
type job struct {
	id       string
	profile  rendition.Profile
	duration float64
	patterns diag.Patterns
	notifier Notifier
	logger   *log.Entry

	progress float64
	events   int
}

// onLine turns a `time=` stats line into a ProgressEvent. Nothing is reported
// when the input duration is unknown.
func (j *job) onLine(line string) {
	if j.duration <= 0 {
		return
	}

	elapsed, ok := j.patterns.ParseProgress(line)

	if !ok {
		return
	}

	j.progress = elapsed / j.duration * 100
	j.events++

	j.notifier.Notify(ProgressEvent{
		JobID:     j.id,
		Rendition: j.profile.Label,
		Progress:  j.progress,
	})

	j.logger.WithField("progress", j.progress).Trace("encode progress")
}
