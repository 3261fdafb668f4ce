package process

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"streampack/internal/command/root"
	"streampack/internal/database"
	"streampack/internal/job"
	"streampack/internal/metric"
	"streampack/internal/signal"
	"streampack/internal/transcode"
)

var (
	logger = log.WithFields(log.Fields{
		"app": "process",
	})
)

type options struct {
	job       string
	id        string
	input     string
	output    string
	qualities []string
	segment   int
	encoder   string
	publish   string
}

var opts options

func init() {
	root.Cmd.AddCommand(cmd)
	bindFlags(cmd, &opts)
}

func bindFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVar(&opts.job, "job", "", "YAML job file (flags below override its fields)")
	cmd.Flags().StringVar(&opts.id, "id", "", "Job id (generated when empty)")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Input video")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output directory")
	cmd.Flags().StringSliceVarP(&opts.qualities, "quality", "q", nil, "Rendition labels in playlist order (1080p, 720p, 480p, 360p)")
	cmd.Flags().IntVar(&opts.segment, "segment", 0, "Segment duration in seconds")
	cmd.Flags().StringVarP(&opts.encoder, "encoder", "e", "", "Video encoder id (see 'encoders')")
	cmd.Flags().StringVar(&opts.publish, "publish", "", "Upload the package to storage under this prefix")
}

var cmd = &cobra.Command{
	Use:   "process",
	Short: "Encode a video into an HLS rendition ladder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := request(cmd, opts)

		if err != nil {
			return err
		}

		ctx := signal.WatchInterrupt(context.Background(), 30*time.Second)

		cmpt := root.GetComponent(ctx, root.Load{DB: true, Storage: req.Prefix != "", Metric: true})
		defer cmpt.Metric.Close()

		notifiers := transcode.Notifiers{transcode.NotifierFunc(logProgress)}
		var orchOpts []transcode.Option

		if cmpt.DB != nil {
			status := database.NewStatusStore(cmpt.DB, database.DefaultStatusTTL)
			notifiers = append(notifiers, status)
			orchOpts = append(orchOpts, transcode.WithObserver(status.Observe))
		}

		orchOpts = append(orchOpts, transcode.WithNotifier(notifiers))

		orch := transcode.NewOrchestrator(root.FFmpeg(), root.Executor("transcode"), orchOpts...)

		outcome, err := job.NewRunner(orch, cmpt.Bucket).Run(ctx, req)

		if err != nil {
			return err
		}

		duration := &metric.DurationMetric{
			RowMetric: metric.RowMetric{Name: "streampack_job_duration", Tags: metric.Tags{"encoder": req.Config.EncoderID()}},
			Duration:  outcome.Elapsed,
		}
		cmpt.Metric.Send(duration.Metric())

		return summary(cmd, outcome)
	},
}

// request builds the job from the optional job file, then the flags.
func request(cmd *cobra.Command, o options) (job.Request, error) {
	var req job.Request

	if o.job != "" {
		data, err := ioutil.ReadFile(o.job)

		if err != nil {
			return req, errors.Wrap(err, "read job file")
		}

		var file jobFile

		if err = yaml.UnmarshalStrict(data, &file); err != nil {
			return req, errors.Wrapf(err, "parse job file '%s'", o.job)
		}

		req.Config = file.ProcessConfig
		req.Prefix = file.Publish
	}

	flags := cmd.Flags()

	if flags.Changed("id") {
		req.Config.ID = o.id
	}
	if flags.Changed("input") {
		req.Config.InputPath = o.input
	}
	if flags.Changed("output") {
		req.Config.OutputDir = o.output
	}
	if flags.Changed("quality") {
		req.Config.Qualities = o.qualities
	}
	if flags.Changed("segment") {
		req.Config.SegmentDuration = o.segment
	}
	if flags.Changed("encoder") {
		req.Config.Encoder = o.encoder
	}
	if flags.Changed("publish") {
		req.Prefix = o.publish
	}

	if req.Config.ID == "" {
		req.Config.ID = job.NewID()
	}

	if err := req.Config.Validate(); err != nil {
		return req, err
	}

	if _, err := os.Stat(req.Config.InputPath); err != nil {
		return req, errors.Wrap(err, "input")
	}

	return req, nil
}

type jobFile struct {
	transcode.ProcessConfig `yaml:",inline"`
	Publish                 string `yaml:"publish,omitempty"`
}

func logProgress(e transcode.ProgressEvent) {
	logger.WithFields(log.Fields{
		"id":        e.JobID,
		"rendition": e.Rendition,
		"progress":  fmt.Sprintf("%05.2f%%", e.Progress),
	}).Debug("progress")
}

func summary(cmd *cobra.Command, outcome *job.Outcome) error {
	w := cmd.OutOrStdout()
	res := outcome.Result

	fmt.Fprintf(w, "job:       %s\n", res.JobID)
	fmt.Fprintf(w, "input:     %s, %.2fs\n", res.Probe.Resolution(), res.Probe.Duration)

	for _, r := range res.Renditions {
		fmt.Fprintf(w, "rendition: %-6s %s in %s\n", r.Label, r.Playlist, r.Elapsed.Round(time.Millisecond))
	}

	fmt.Fprintf(w, "manifest:  %s\n", res.Manifest)
	fmt.Fprintf(w, "size:      %s\n", humanize.Bytes(uint64(outcome.Size)))

	if outcome.Published != "" {
		fmt.Fprintf(w, "published: %s (%d files)\n", outcome.Published, outcome.Uploaded.Files)
	}

	_, err := fmt.Fprintf(w, "elapsed:   %s\n", outcome.Elapsed.Round(time.Millisecond))
	return err
}
