package database

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"streampack/internal/transcode"
)

const (
	keyPrefix = "streampack:job:"

	// DefaultStatusTTL keeps finished job status around for a day.
	DefaultStatusTTL = 24 * time.Hour
)

// JobStatus is the last known state of a job.
type JobStatus struct {
	ID        string    `yaml:"id"`
	State     string    `yaml:"state"`
	Rendition string    `yaml:"rendition,omitempty"`
	Progress  float64   `yaml:"progress"`
	Error     string    `yaml:"error,omitempty"`
	Updated   time.Time `yaml:"updated"`
}

// StatusStore records job progress and state transitions. It is both a
// transcode.Notifier and a transcode.Observer.
type StatusStore struct {
	mu     sync.Mutex
	db     Database
	ttl    time.Duration
	now    func() time.Time
	logger *log.Entry
}

func NewStatusStore(db Database, ttl time.Duration) *StatusStore {
	return &StatusStore{
		db:     db,
		ttl:    ttl,
		now:    time.Now,
		logger: log.WithField("component", "status"),
	}
}

func key(id string) string {
	return keyPrefix + id
}

func (s *StatusStore) Get(id string) (*JobStatus, error) {
	data, err := s.db.Get(key(id))

	if err != nil {
		return nil, err
	}

	var status JobStatus

	if err = yaml.Unmarshal([]byte(data), &status); err != nil {
		return nil, errors.Wrapf(err, "decode status of '%s'", id)
	}

	return &status, nil
}

func (s *StatusStore) Notify(e transcode.ProgressEvent) {
	s.update(e.JobID, func(status *JobStatus) {
		status.Rendition = e.Rendition
		status.Progress = e.Progress
	})
}

func (s *StatusStore) Observe(id string, _, to transcode.State) {
	s.update(id, func(status *JobStatus) {
		status.State = to.Phase.String()

		if to.Phase == transcode.Encoding {
			status.Rendition = to.Rendition
			status.Progress = 0
		}

		if to.Err != nil {
			status.Error = to.Err.Error()
		}
	})
}

func (s *StatusStore) update(id string, fn func(status *JobStatus)) {
	if id == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.logger.WithField("id", id)
	status := &JobStatus{ID: id}

	data, err := s.db.Get(key(id))

	switch {
	case errors.Cause(err) == ErrNotFound:
	case err != nil:
		// keep the stored status rather than overwrite it blindly
		logger.WithError(err).Warn("unable to read job status")
		return
	default:
		if err = yaml.Unmarshal([]byte(data), status); err != nil {
			logger.WithError(err).Warn("replacing undecodable job status")
			status = &JobStatus{ID: id}
		}
	}

	fn(status)
	status.Updated = s.now()

	encoded, err := yaml.Marshal(status)

	if err != nil {
		logger.WithError(err).Warn("unable to encode job status")
		return
	}

	if err = s.db.Set(key(id), string(encoded), s.ttl); err != nil {
		logger.WithError(err).Warn("unable to store job status")
	}
}
