package transcode

// ProgressEvent is emitted while a rendition encodes. Progress is a
// percentage of the probed duration and is not clamped: it can exceed 100
// near the end of an encode.
type ProgressEvent struct {
	JobID     string  `yaml:"id"`
	Rendition string  `yaml:"rendition"`
	Progress  float64 `yaml:"progress"`
}

type Notifier interface {
	Notify(event ProgressEvent)
}

type NotifierFunc func(event ProgressEvent)

func (f NotifierFunc) Notify(event ProgressEvent) {
	f(event)
}

// Notifiers fans an event out to every notifier in order.
type Notifiers []Notifier

func (n Notifiers) Notify(event ProgressEvent) {
	for _, notifier := range n {
		if notifier != nil {
			notifier.Notify(event)
		}
	}
}

type discard struct{}

func (discard) Notify(ProgressEvent) {}
