// Package rendition turns requested quality labels and an encoder id into
// concrete encode parameters.
package rendition

import (
	"github.com/pkg/errors"
)

var ErrNoRenditions = errors.New("no renditions requested")

// Plan is the full set of encode parameters for a job.
type Plan struct {
	Renditions []Profile
	Encoder    EncoderProfile
}

// NewPlan expects labels to be normalized already; an empty list is an error.
func NewPlan(labels []string, encoder string) (*Plan, error) {
	if len(labels) == 0 {
		return nil, ErrNoRenditions
	}

	plan := &Plan{
		Renditions: make([]Profile, 0, len(labels)),
		Encoder:    Encoder(encoder),
	}

	for _, label := range labels {
		plan.Renditions = append(plan.Renditions, Lookup(label))
	}

	return plan, nil
}
