package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streampack/internal/failure"
	"streampack/internal/job"
	"streampack/internal/metric"
	"streampack/internal/queue"
	"streampack/internal/transcode"
)

type delivery struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (d *delivery) Ack() error { d.acked = true; return nil }

func (d *delivery) Nack(requeue bool) error {
	d.nacked = true
	d.requeue = requeue
	return nil
}

type channel struct {
	mu         sync.Mutex
	requests   []queue.TranscodeRequest
	deliveries []*delivery
	responses  []queue.TranscodeResponse
	created    []string
}

func (c *channel) Consume(name string, data interface{}) (bool, queue.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if name != queue.RequestQueue || len(c.requests) == 0 {
		return false, nil, nil
	}

	*data.(*queue.TranscodeRequest) = c.requests[0]
	c.requests = c.requests[1:]

	d := &delivery{}
	c.deliveries = append(c.deliveries, d)

	return true, d, nil
}

func (c *channel) Publish(name string, data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if res, ok := data.(queue.TranscodeResponse); ok && name == queue.ResponseQueue {
		c.responses = append(c.responses, res)
	}
	return nil
}

func (c *channel) CreateQueue(name string) error {
	c.created = append(c.created, name)
	return nil
}

func (c *channel) Close() error { return nil }

type runnerFunc func(ctx context.Context, req job.Request) (*job.Outcome, error)

func (f runnerFunc) Run(ctx context.Context, req job.Request) (*job.Outcome, error) {
	return f(ctx, req)
}

func newTestWorker(ch *channel, r runner) *worker {
	w := newWorker(ch, &metric.Null{}, "test")
	w.runner = r
	w.idleExit = 1
	w.pollInterval = time.Millisecond
	return w
}

func TestWorkerProcessesRequests(t *testing.T) {
	ch := &channel{requests: []queue.TranscodeRequest{
		{ProcessConfig: transcode.ProcessConfig{ID: "ok", InputPath: "a.mp4", OutputDir: "out/a"}, Publish: true},
		{ProcessConfig: transcode.ProcessConfig{ID: "bad", InputPath: "b.mp4", OutputDir: "out/b"}},
	}}

	var prefixes []string

	w := newTestWorker(ch, runnerFunc(func(ctx context.Context, req job.Request) (*job.Outcome, error) {
		prefixes = append(prefixes, req.Prefix)

		if req.Config.ID == "bad" {
			return nil, failure.Encode("encode", "720p", 1, "boom")
		}

		return &job.Outcome{
			Result: &transcode.Result{
				JobID:      req.Config.ID,
				Manifest:   "out/a/master.m3u8",
				Renditions: []transcode.RenditionResult{{Label: "720p"}},
			},
			Published: req.Prefix,
		}, nil
	}))

	w.Run(context.Background())

	assert.Equal(t, queue.Queues, ch.created)
	assert.Equal(t, []string{"ok", ""}, prefixes, "publish without prefix uses the job id")

	require.Len(t, ch.responses, 2)
	assert.Equal(t, queue.StatusDone, ch.responses[0].Status)
	assert.Equal(t, []string{"720p"}, ch.responses[0].Renditions)
	assert.Equal(t, "ok", ch.responses[0].Published)
	assert.Equal(t, queue.StatusFailed, ch.responses[1].Status)
	assert.Equal(t, 1, ch.responses[1].ExitCode)

	require.Len(t, ch.deliveries, 2)
	assert.True(t, ch.deliveries[0].acked)
	assert.True(t, ch.deliveries[1].nacked)
	assert.False(t, ch.deliveries[1].requeue)

	assert.Equal(t, int64(2), w.total.Value())
	assert.Equal(t, int64(1), w.errors.Value())
	assert.Zero(t, w.running.Value())
}

func TestWorkerRequeuesOnShutdown(t *testing.T) {
	ch := &channel{requests: []queue.TranscodeRequest{
		{ProcessConfig: transcode.ProcessConfig{ID: "first", InputPath: "a.mp4", OutputDir: "out/a"}},
		{ProcessConfig: transcode.ProcessConfig{ID: "second", InputPath: "b.mp4", OutputDir: "out/b"}},
	}}

	ctx, cancel := context.WithCancel(context.Background())

	w := newTestWorker(ch, runnerFunc(func(ctx context.Context, req job.Request) (*job.Outcome, error) {
		cancel()
		<-ctx.Done()
		return nil, failure.Encode("encode", "720p", -1, "")
	}))

	w.Run(ctx)

	require.Len(t, ch.deliveries, 1)
	assert.True(t, ch.deliveries[0].nacked)
	assert.True(t, ch.deliveries[0].requeue)
	assert.Empty(t, ch.responses)
	assert.Len(t, ch.requests, 1, "no new request is taken after shutdown")
}

func TestWorkerIdleExit(t *testing.T) {
	ch := &channel{}
	w := newTestWorker(ch, runnerFunc(func(context.Context, job.Request) (*job.Outcome, error) {
		t.Fatal("no request expected")
		return nil, nil
	}))
	w.idleExit = 3

	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not exit when idle")
	}
}
