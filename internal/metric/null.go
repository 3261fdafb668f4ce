package metric

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
)

// Null discards everything. Used when no InfluxDB is configured.
type Null struct {
}

func (n *Null) Add(metric Metric) {

}

func (n *Null) Send(points ...*influxdb2.Point) {

}

func (n *Null) Ticker(ctx context.Context, duration time.Duration) {
	<-ctx.Done()
}

func (n *Null) Close() {

}
