package queue

import (
	"time"

	"streampack/internal/failure"
	"streampack/internal/transcode"
)

// TranscodeRequest is consumed from RequestQueue.
type TranscodeRequest struct {
	transcode.ProcessConfig `yaml:",inline"`

	// Publish uploads the finished package under Prefix when storage is
	// configured.
	Publish bool   `yaml:"publish,omitempty"`
	Prefix  string `yaml:"prefix,omitempty"`
}

// TranscodeProgress is published to ProgressQueue.
type TranscodeProgress struct {
	ID        string  `yaml:"id"`
	Rendition string  `yaml:"rendition"`
	Progress  float64 `yaml:"progress"`
}

const (
	StatusDone   = "done"
	StatusFailed = "failed"
)

// TranscodeResponse is published to ResponseQueue once per request.
type TranscodeResponse struct {
	ID         string        `yaml:"id"`
	Status     string        `yaml:"status"`
	Manifest   string        `yaml:"manifest,omitempty"`
	Renditions []string      `yaml:"renditions,omitempty"`
	Published  string        `yaml:"published,omitempty"`
	Elapsed    time.Duration `yaml:"elapsed"`
	Error      string        `yaml:"error,omitempty"`
	Kind       string        `yaml:"kind,omitempty"`
	ExitCode   int           `yaml:"exitCode,omitempty"`
}

// Failed builds the response of a request that ended with err.
func Failed(id string, err error, elapsed time.Duration) TranscodeResponse {
	res := TranscodeResponse{
		ID:      id,
		Status:  StatusFailed,
		Elapsed: elapsed,
		Error:   err.Error(),
		Kind:    failure.KindOf(err).String(),
	}

	if fe, ok := failure.As(err); ok {
		res.ExitCode = fe.ExitCode
	}

	return res
}
