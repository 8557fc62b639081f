package telemetry

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement is the name of the points written to InfluxDB.
const Measurement = "lcd"

// InfluxReporter writes snapshots to an InfluxDB bucket.
type InfluxReporter struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

func NewInfluxReporter(url, token, org, bucket string) *InfluxReporter {
	client := influxdb2.NewClient(url, token)
	return &InfluxReporter{client: client, writeAPI: client.WriteAPIBlocking(org, bucket)}
}

// Report writes one point for the snapshot.
func (r *InfluxReporter) Report(ctx context.Context, s Snapshot) error {
	return r.writeAPI.WritePoint(ctx, Point(s, time.Now()))
}

func (r *InfluxReporter) Close() {
	r.client.Close()
}

// Point converts a snapshot into a point with the totals and a calls/errors
// field pair for every operation.
func Point(s Snapshot, ts time.Time) *write.Point {
	tags := map[string]string{
		"display": s.Name,
	}
	t := s.Totals()
	fields := map[string]interface{}{
		"calls":         t.Calls,
		"errors":        t.Errors,
		"not_supported": t.NotSupported,
		"reconnects":    s.Reconnects,
	}
	for _, n := range s.OpNames() {
		c := s.Ops[n]
		fields[n+"_calls"] = c.Calls
		fields[n+"_errors"] = c.Errors
	}
	return write.NewPoint(Measurement, tags, fields, ts)
}
