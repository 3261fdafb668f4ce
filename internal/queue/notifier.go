package queue

import (
	log "github.com/sirupsen/logrus"

	"streampack/internal/transcode"
)

// ProgressNotifier publishes progress events to ProgressQueue. Publish
// errors are logged and otherwise ignored; progress is best effort.
type ProgressNotifier struct {
	channel Channel
	logger  *log.Entry
}

func NewProgressNotifier(channel Channel) *ProgressNotifier {
	return &ProgressNotifier{channel: channel, logger: log.WithField("component", "queue")}
}

func (p *ProgressNotifier) Notify(e transcode.ProgressEvent) {
	err := p.channel.Publish(ProgressQueue, TranscodeProgress{
		ID:        e.JobID,
		Rendition: e.Rendition,
		Progress:  e.Progress,
	})

	if err != nil {
		p.logger.WithError(err).WithField("id", e.JobID).Warn("unable to publish progress")
	}
}
