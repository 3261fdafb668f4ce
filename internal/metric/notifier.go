package metric

import (
	"streampack/internal/transcode"
)

// ProgressNotifier mirrors the progress of the running rendition in a gauge.
type ProgressNotifier struct {
	Gauge *GaugeMetric
}

func (p *ProgressNotifier) Notify(e transcode.ProgressEvent) {
	p.Gauge.Set(e.Progress)
}
