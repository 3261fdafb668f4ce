// Package transcode drives a job from probe to master playlist: renditions are
// encoded one after the other and the first failure ends the job.
package transcode

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"streampack/internal/diag"
	"streampack/internal/executor"
	"streampack/internal/failure"
	"streampack/internal/playlist"
	"streampack/internal/probe"
	"streampack/internal/rendition"
)

type Orchestrator struct {
	binary   string
	exec     *executor.Executor
	prober   *probe.Prober
	patterns diag.Patterns
	notifier Notifier
	observer Observer
	logger   *log.Entry
}

type Option func(o *Orchestrator)

func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) {
		if n != nil {
			o.notifier = n
		}
	}
}

func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) {
		o.observer = fn
	}
}

func NewOrchestrator(binary string, exec *executor.Executor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		binary:   binary,
		exec:     exec,
		prober:   probe.NewProber(binary, exec),
		patterns: diag.FFmpeg,
		notifier: discard{},
		logger:   log.WithField("component", "transcode"),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

type RenditionResult struct {
	Label    string
	Playlist string
	Elapsed  time.Duration
	Events   int
}

type Result struct {
	JobID      string
	Probe      *probe.Result
	Plan       *rendition.Plan
	Manifest   string
	Renditions []RenditionResult
	Elapsed    time.Duration
}

// Process probes the input, plans the renditions and encodes them.
func (o *Orchestrator) Process(ctx context.Context, cfg ProcessConfig) (*Result, error) {
	start := time.Now()
	state := State{Phase: Probing}

	if err := cfg.Validate(); err != nil {
		return nil, o.fail(cfg.ID, state, err)
	}

	info, err := o.prober.Probe(ctx, cfg.InputPath)

	if err != nil {
		return nil, o.fail(cfg.ID, state, err)
	}

	if !info.HasDuration() {
		o.logger.WithField("input", cfg.InputPath).Warn("input duration unknown, progress will not be reported")
	}

	state = o.transition(cfg.ID, state, State{Phase: Planning})

	plan, err := rendition.NewPlan(rendition.Normalize(cfg.Qualities), cfg.EncoderID())

	if err != nil {
		return nil, o.fail(cfg.ID, state, err)
	}

	res, err := o.encode(ctx, cfg, info, plan, state)

	if res != nil {
		res.Elapsed = time.Since(start)
	}

	return res, err
}

// Encode runs an already probed and planned job.
func (o *Orchestrator) Encode(ctx context.Context, cfg ProcessConfig, info *probe.Result, plan *rendition.Plan) (*Result, error) {
	start := time.Now()

	res, err := o.encode(ctx, cfg, info, plan, State{Phase: Planning})

	if res != nil {
		res.Elapsed = time.Since(start)
	}

	return res, err
}

func (o *Orchestrator) encode(ctx context.Context, cfg ProcessConfig, info *probe.Result, plan *rendition.Plan, state State) (*Result, error) {
	if plan == nil || len(plan.Renditions) == 0 {
		return nil, o.fail(cfg.ID, state, rendition.ErrNoRenditions)
	}

	// Plans built by hand may carry no family
	enc := plan.Encoder
	if enc.Family == nil {
		enc.Family = rendition.Resolve(enc.Encoder)
	}

	logger := o.logger.WithFields(log.Fields{
		"id":      cfg.ID,
		"input":   cfg.InputPath,
		"output":  cfg.OutputDir,
		"encoder": enc.Encoder,
		"family":  enc.Family.Name,
	})

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, o.fail(cfg.ID, state, failure.New(failure.IOFailure, "create output directory", errors.Wrapf(err, "unable to create '%s'", cfg.OutputDir)))
	}

	labels := make([]string, len(plan.Renditions))
	for i, p := range plan.Renditions {
		labels[i] = p.Label
	}

	result := &Result{JobID: cfg.ID, Probe: info, Plan: plan}
	assembler := playlist.NewAssembler()

	var duration float64
	if info != nil {
		duration = info.Duration
	}

	state = o.transition(cfg.ID, state, State{Phase: Encoding, Index: 0, Rendition: labels[0]})

	for i, profile := range plan.Renditions {
		dir := RenditionDir(cfg, profile)

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, o.fail(cfg.ID, state, failure.New(failure.IOFailure, "create rendition directory", errors.Wrapf(err, "unable to create '%s'", dir)))
		}

		j := &job{
			id:       cfg.ID,
			profile:  profile,
			duration: duration,
			patterns: o.patterns,
			notifier: o.notifier,
			logger:   logger.WithField("rendition", profile.Label),
		}

		cmd := &executor.Cmd{Binary: o.binary}
		cmd.Add(Arguments(cfg, profile, enc)...)

		j.logger.Info("encoding rendition")

		res, err := o.exec.Run(ctx, cmd, j.onLine)

		if err != nil {
			if fe, ok := failure.As(err); ok {
				fe.Op = "encode"
				fe.Rendition = profile.Label
			}
			return nil, o.fail(cfg.ID, state, err)
		}

		if res.ExitCode != 0 {
			j.logger.WithField("exit", res.ExitCode).Error("rendition failed")
			return nil, o.fail(cfg.ID, state, failure.Encode("encode", profile.Label, res.ExitCode, res.Stderr))
		}

		assembler.Record(playlist.Entry{
			Bandwidth:  profile.Bandwidth,
			Resolution: profile.Resolution,
			URI:        playlist.VariantURI(profile.Label),
		})

		result.Renditions = append(result.Renditions, RenditionResult{
			Label:    profile.Label,
			Playlist: playlist.VariantURI(profile.Label),
			Elapsed:  res.Elapsed,
			Events:   j.events,
		})

		j.logger.WithField("elapsed", res.Elapsed.String()).Info("rendition done")

		state = o.transition(cfg.ID, state, next(i, len(labels), labels))
	}

	manifest, err := assembler.Finalize(cfg.OutputDir)

	if err != nil {
		return nil, o.fail(cfg.ID, state, err)
	}

	result.Manifest = manifest
	o.transition(cfg.ID, state, State{Phase: Done})

	logger.WithField("manifest", manifest).Info("job done")

	return result, nil
}

func (o *Orchestrator) transition(id string, from, to State) State {
	if o.observer != nil {
		o.observer(id, from, to)
	}
	return to
}

func (o *Orchestrator) fail(id string, from State, err error) error {
	o.transition(id, from, State{Phase: Failed, Err: err})
	return err
}
