package metric

import (
	"context"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	lp "github.com/influxdata/line-protocol"
	log "github.com/sirupsen/logrus"
)

type influx struct {
	mu      sync.Mutex
	client  influxdb2.InfluxDBClient
	bucket  string
	org     string
	metrics []Metric
}

type InfluxdbConfig struct {
	Addr   string
	Token  string
	Bucket string
	Org    string
}

func NewInfluxdb(config InfluxdbConfig) (Client, error) {
	client := influxdb2.NewClient(config.Addr, config.Token)

	return &influx{client: client, bucket: config.Bucket, org: config.Org}, nil
}

func (i *influx) Add(metric Metric) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.metrics = append(i.metrics, metric)
}

// Send writes points synchronously. Failures are logged, never returned:
// metrics must not fail a job.
func (i *influx) Send(points ...*influxdb2.Point) {
	if len(points) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := i.client.WriteApiBlocking(i.org, i.bucket).WritePoint(ctx, points...); err != nil {
		log.WithError(err).Debug("unable to send metrics")

		for _, point := range points {
			log.WithFields(log.Fields{
				"name":   point.Name(),
				"tags":   tagsMap(point.TagList()),
				"fields": fieldsMap(point.FieldList()),
			}).Debug("metric not sent")
		}
	}
}

func (i *influx) sample() []*influxdb2.Point {
	i.mu.Lock()
	defer i.mu.Unlock()

	points := make([]*influxdb2.Point, len(i.metrics))

	for n, metric := range i.metrics {
		points[n] = metric.Metric()
	}

	return points
}

func (i *influx) Ticker(ctx context.Context, duration time.Duration) {
	ticker := time.NewTicker(duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Last sample so final counters are not lost
			i.Send(i.sample()...)
			return
		case <-ticker.C:
			i.Send(i.sample()...)
		}
	}
}

func (i *influx) Close() {
	i.client.Close()
}

func tagsMap(tags []*lp.Tag) (t Tags) {
	t = make(Tags)
	for _, tag := range tags {
		t[tag.Key] = tag.Value
	}
	return t
}

func fieldsMap(fields []*lp.Field) (f Fields) {
	f = make(Fields)
	for _, field := range fields {
		f[field.Key] = field.Value
	}
	return f
}
