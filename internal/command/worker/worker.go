package worker

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"streampack/internal/command/root"
	"streampack/internal/database"
	"streampack/internal/job"
	"streampack/internal/metric"
	"streampack/internal/queue"
	"streampack/internal/signal"
	"streampack/internal/transcode"
)

var (
	logger = log.WithFields(log.Fields{
		"app": "worker",
	})
)

func init() {
	root.Cmd.AddCommand(cmd)

	cmd.PersistentFlags().Int("idle-exit", 0, "Exit after this many empty polls (0 = never)")
	cmd.PersistentFlags().Duration("poll-interval", 5*time.Second, "Delay between polls of an empty queue")

	if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		logger.WithError(err).Fatal("flag binding failed")
	}
}

var cmd = &cobra.Command{
	Use:   "worker",
	Short: "Process transcode requests from the queue",
	Long:  `streampack worker: consume transcode.request, publish progress to transcode.progress and results to transcode.response`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		logger.Info("starting worker")

		ctx := signal.WatchInterrupt(context.Background(), 25*time.Second)
		cmpt := root.GetComponent(ctx, root.Load{DB: true, Queue: true, Storage: true, Metric: true})

		hostname, _ := os.Hostname()

		w := newWorker(cmpt.Channel, cmpt.Metric, hostname)
		w.idleExit = viper.GetInt("idle-exit")
		w.pollInterval = viper.GetDuration("poll-interval")

		notifiers := transcode.Notifiers{queue.NewProgressNotifier(cmpt.Channel), &metric.ProgressNotifier{Gauge: w.progress}}
		orchOpts := []transcode.Option{}

		if cmpt.DB != nil {
			status := database.NewStatusStore(cmpt.DB, database.DefaultStatusTTL)
			notifiers = append(notifiers, status)
			orchOpts = append(orchOpts, transcode.WithObserver(status.Observe))
		}

		orch := transcode.NewOrchestrator(root.FFmpeg(), root.Executor("transcode"), append(orchOpts, transcode.WithNotifier(notifiers))...)
		w.runner = job.NewRunner(orch, cmpt.Bucket)

		w.Run(ctx)
	},
}

type runner interface {
	Run(ctx context.Context, req job.Request) (*job.Outcome, error)
}

type worker struct {
	channel      queue.Channel
	runner       runner
	metric       metric.Client
	hostname     string
	idleExit     int
	pollInterval time.Duration

	total    *metric.CounterMetric
	errors   *metric.CounterMetric
	running  *metric.GaugeMetric
	progress *metric.GaugeMetric
}

func newWorker(channel queue.Channel, client metric.Client, hostname string) *worker {
	tags := metric.Tags{"hostname": hostname}

	return &worker{
		channel:      channel,
		metric:       client,
		hostname:     hostname,
		pollInterval: 5 * time.Second,
		total:        metric.NewCounter("streampack_worker_jobs_total", tags),
		errors:       metric.NewCounter("streampack_worker_jobs_errors", tags),
		running:      metric.NewGauge("streampack_worker_jobs_running", tags),
		progress:     metric.NewGauge("streampack_worker_job_progress", tags),
	}
}

func (w *worker) Run(ctx context.Context) {
	for _, name := range queue.Queues {
		if err := w.channel.CreateQueue(name); err != nil {
			logger.WithError(err).Errorf("unable to create queue '%s'", name)
		}
	}

	w.metric.Add(w.total)
	w.metric.Add(w.errors)
	w.metric.Add(w.running)
	w.metric.Add(w.progress)

	metricCtx, stopMetric := context.WithCancel(context.Background())
	metricDone := make(chan struct{})

	go func() {
		defer close(metricDone)
		w.metric.Ticker(metricCtx, time.Second)
	}()

	logger.Info("worker started")

	started := time.Now()
	idle := 0

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		default:
		}

		if w.idleExit > 0 && idle >= w.idleExit {
			logger.Infof("no messages after %d polls, shutdown", idle)
			break loop
		}

		var req queue.TranscodeRequest
		ok, delivery, err := w.channel.Consume(queue.RequestQueue, &req)

		if err != nil {
			logger.WithError(err).Errorf("unable to consume %s", queue.RequestQueue)
			w.wait(ctx)
			continue
		}

		if !ok {
			idle++
			w.wait(ctx)
			continue
		}

		idle = 0

		if requeued := w.handle(ctx, req, delivery); requeued {
			break loop
		}
	}

	stopMetric()
	<-metricDone

	duration := &metric.DurationMetric{
		RowMetric: metric.RowMetric{Name: "streampack_worker_duration", Tags: metric.Tags{"hostname": w.hostname}},
		Duration:  time.Since(started),
	}
	w.metric.Send(duration.Metric())
	w.metric.Close()

	logger.Info("worker stopped")
}

// handle runs one request and settles its delivery. It reports true when the
// request was requeued because the worker is shutting down.
func (w *worker) handle(ctx context.Context, req queue.TranscodeRequest, delivery queue.Delivery) bool {
	if req.ID == "" {
		req.ID = job.NewID()
	}

	reqLogger := logger.WithFields(log.Fields{"id": req.ID, "input": req.InputPath})
	reqLogger.Info("receive transcode request")

	taskStarted := time.Now()

	w.total.Inc()
	w.running.Set(1)
	w.progress.Set(0)
	defer w.running.Set(0)

	prefix := ""
	if req.Publish {
		prefix = req.Prefix
		if prefix == "" {
			prefix = req.ID
		}
	}

	outcome, err := w.runner.Run(ctx, job.Request{Config: req.ProcessConfig, Prefix: prefix})

	if err != nil && ctx.Err() != nil {
		// Interrupted by shutdown, give the job to another worker
		if nackErr := delivery.Nack(true); nackErr != nil {
			reqLogger.WithError(nackErr).Error("unable to requeue request")
		} else {
			reqLogger.Info("request requeued")
		}
		return true
	}

	var res queue.TranscodeResponse

	if err != nil {
		w.errors.Inc()
		reqLogger.WithError(err).Error("transcode failed")
		res = queue.Failed(req.ID, err, time.Since(taskStarted))
	} else {
		res = response(req.ID, outcome)
		reqLogger.WithField("manifest", res.Manifest).Info("transcode done")
	}

	if err = w.channel.Publish(queue.ResponseQueue, res); err != nil {
		reqLogger.WithError(errors.Wrapf(err, "publish in %s", queue.ResponseQueue)).Error("unable to publish response")
	}

	if res.Status == queue.StatusDone {
		err = delivery.Ack()
	} else {
		// A failed encode fails again; do not requeue
		err = delivery.Nack(false)
	}

	if err != nil {
		reqLogger.WithError(err).Error("unable to settle request")
	}

	duration := &metric.DurationMetric{
		RowMetric: metric.RowMetric{Name: "streampack_worker_job_duration", Tags: metric.Tags{"hostname": w.hostname, "status": res.Status}},
		Duration:  res.Elapsed,
	}
	w.metric.Send(duration.Metric())

	return false
}

func response(id string, outcome *job.Outcome) queue.TranscodeResponse {
	res := queue.TranscodeResponse{
		ID:        id,
		Status:    queue.StatusDone,
		Manifest:  outcome.Result.Manifest,
		Published: outcome.Published,
		Elapsed:   outcome.Elapsed,
	}

	for _, r := range outcome.Result.Renditions {
		res.Renditions = append(res.Renditions, r.Label)
	}

	return res
}

func (w *worker) wait(ctx context.Context) {
	timer := time.NewTimer(w.pollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
