package influx

import (
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/vidcoord/vidcoord/internal/calibration"
	"github.com/vidcoord/vidcoord/pkg/core"
)

// Sink receives finished points.
type Sink interface {
	WritePoint(point *influxdb2_write.Point) error
}

// Observer turns session events into measurement points. It implements
// session.Observer.
type Observer struct {
	sink      Sink
	sessionID string
	logger    zerolog.Logger
	now       func() time.Time
}

// NewObserver creates an Observer tagging every point with sessionID.
func NewObserver(sink Sink, sessionID string, logger zerolog.Logger) *Observer {
	return &Observer{sink: sink, sessionID: sessionID, logger: logger, now: time.Now}
}

func (o *Observer) point(measurement string) *influxdb2_write.Point {
	return influxdb2_write.NewPointWithMeasurement(measurement).
		AddTag("session", o.sessionID).
		SetTime(o.now())
}

func (o *Observer) write(p *influxdb2_write.Point) {
	if err := o.sink.WritePoint(p); err != nil {
		o.logger.Error().Err(err).Str("measurement", p.Name()).Msg("Failed to write telemetry point")
	}
}

// DistanceRecorded writes the pixel length and, when calibrated, the real length.
func (o *Observer) DistanceRecorded(r core.DistanceRecord, cal *core.Calibration) {
	p := o.point("distance").
		AddTag("record", r.ID.String()).
		AddField("pixels", r.Value).
		AddField("captureTime", r.CaptureTime)
	if rv, unit, ok := calibration.Apply(cal, r.Value); ok {
		p.AddTag("unit", string(unit)).AddField("real", rv)
	}
	o.write(p)
}

// AngleRecorded writes the angle in degrees.
func (o *Observer) AngleRecorded(r core.AngleRecord) {
	o.write(o.point("angle").
		AddTag("record", r.ID.String()).
		AddField("degrees", r.Value).
		AddField("captureTime", r.CaptureTime))
}

// CalibrationChanged writes the new scale, or a cleared marker.
func (o *Observer) CalibrationChanged(cal *core.Calibration) {
	p := o.point("calibration")
	if cal == nil {
		p.AddField("cleared", true)
	} else {
		p.AddTag("unit", string(cal.Unit)).AddField("perPixel", cal.MetersPerPixel)
	}
	o.write(p)
}

// FrameRateChanged writes the frame rate and whether it was estimated.
func (o *Observer) FrameRateChanged(fps float64, estimated bool) {
	o.write(o.point("frame_rate").
		AddField("fps", fps).
		AddField("estimated", estimated))
}

// Status writes a periodic session summary tagged with the interaction mode.
func (o *Observer) Status(mode string, fields map[string]any) {
	p := o.point("status").AddTag("mode", mode)
	for k, v := range fields {
		p.AddField(k, v)
	}
	o.write(p)
}
