package metric

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
)

type Fields map[string]interface{}

type Tags map[string]string

// Metric is a value sampled on every tick of a Client.
type Metric interface {
	Metric() *influxdb2.Point
}

type Client interface {
	Add(metric Metric)
	Send(points ...*influxdb2.Point)
	Ticker(ctx context.Context, duration time.Duration)
	Close()
}

type RowMetric struct {
	Name string
	Tags Tags
}

func (r RowMetric) point(fields Fields) *influxdb2.Point {
	return influxdb2.NewPoint(r.Name, r.Tags, fields, time.Now())
}

type CounterMetric struct {
	RowMetric
	counter int64
}

func NewCounter(name string, tags Tags) *CounterMetric {
	return &CounterMetric{RowMetric: RowMetric{Name: name, Tags: tags}}
}

func (c *CounterMetric) Inc() {
	atomic.AddInt64(&c.counter, 1)
}

func (c *CounterMetric) Value() int64 {
	return atomic.LoadInt64(&c.counter)
}

func (c *CounterMetric) Metric() *influxdb2.Point {
	return c.point(Fields{"counter": c.Value()})
}

type GaugeMetric struct {
	RowMetric
	bits uint64
}

func NewGauge(name string, tags Tags) *GaugeMetric {
	return &GaugeMetric{RowMetric: RowMetric{Name: name, Tags: tags}}
}

func (g *GaugeMetric) Set(value float64) {
	atomic.StoreUint64(&g.bits, math.Float64bits(value))
}

func (g *GaugeMetric) Value() float64 {
	return math.Float64frombits(atomic.LoadUint64(&g.bits))
}

func (g *GaugeMetric) Metric() *influxdb2.Point {
	return g.point(Fields{"gauge": g.Value()})
}

// DurationMetric is sent once, not sampled.
type DurationMetric struct {
	RowMetric
	Duration time.Duration
}

func (d *DurationMetric) Metric() *influxdb2.Point {
	return d.point(Fields{"duration": d.Duration.Seconds()})
}
