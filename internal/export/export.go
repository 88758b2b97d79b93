// Package export renders a session snapshot as CSV or JSON byte buffers.
// Calibrated values are computed here from the raw pixel records; the records
// themselves are never changed.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/vidcoord/vidcoord/internal/calibration"
	"github.com/vidcoord/vidcoord/internal/geo"
	"github.com/vidcoord/vidcoord/pkg/core"
)

// Measurement units written next to raw values.
const (
	UnitPixels  = "px"
	UnitDegrees = "deg"
)

// Format is an export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// CSVHeader is the first row of every CSV export.
var CSVHeader = []string{"MeasurementType", "Value", "Unit", "RealValue", "RealUnit", "CaptureTime"}

// Options configures an Exporter.
type Options struct {
	// Compress gzips every buffer.
	Compress bool
	// Now stamps the export date. Defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Exporter produces one-shot export buffers.
type Exporter struct {
	compress bool
	now      func() time.Time
	logger   *slog.Logger
}

// New creates an Exporter.
func New(opts Options) *Exporter {
	e := &Exporter{compress: opts.Compress, now: opts.Now, logger: opts.Logger}
	if e.now == nil {
		e.now = time.Now
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Result is a finished export.
type Result struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Encoding    string `json:"encoding,omitempty"`
	Data        []byte `json:"data"`
}

// Export renders snap in the given format.
func (e *Exporter) Export(snap core.Snapshot, format Format) (Result, error) {
	now := e.now()
	var (
		buf bytes.Buffer
		res Result
		err error
	)
	switch format {
	case FormatCSV:
		err = WriteCSV(&buf, snap)
		res.ContentType = "text/csv"
	case FormatJSON:
		err = WriteJSON(&buf, snap, now)
		res.ContentType = "application/json"
	default:
		return Result{}, fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return Result{}, err
	}
	res.FileName = FileName(format, now)
	res.Data = buf.Bytes()

	if e.compress {
		if res.Data, err = Gzip(res.Data); err != nil {
			return Result{}, err
		}
		res.FileName += ".gz"
		res.Encoding = "gzip"
	}
	e.logger.Info("Export created",
		"format", format,
		"file", res.FileName,
		"bytes", len(res.Data),
		"distances", len(snap.Distances),
		"angles", len(snap.Angles))
	return res, nil
}

// FileName names an export after its creation time.
func FileName(format Format, now time.Time) string {
	return fmt.Sprintf("measurements_%s.%s", now.UTC().Format("20060102T150405Z"), format)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatTime(t float64) string {
	return strconv.FormatFloat(t, 'f', 3, 64)
}

// WriteCSV writes one row per distance, then one per angle, in log order.
// Angle rows and uncalibrated distances leave the real-unit columns empty.
func WriteCSV(w io.Writer, snap core.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, d := range snap.Distances {
		row := []string{"Distance", formatValue(d.Value), UnitPixels, "", "", formatTime(d.CaptureTime)}
		if rv, unit, ok := calibration.Apply(snap.Calibration, d.Value); ok {
			row[3] = formatValue(rv)
			row[4] = string(unit)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write distance row: %w", err)
		}
	}
	for _, a := range snap.Angles {
		row := []string{"Angle", formatValue(a.Value), UnitDegrees, "", "", formatTime(a.CaptureTime)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write angle row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Document is the JSON export layout.
type Document struct {
	Metadata     Metadata     `json:"metadata"`
	Measurements Measurements `json:"measurements"`
}

type Metadata struct {
	SessionID       string               `json:"sessionId"`
	VideoDimensions core.VideoDimensions `json:"videoDimensions"`
	CurrentTime     float64              `json:"currentTime"`
	FrameRate       float64              `json:"frameRate"`
	Calibration     *core.Calibration    `json:"calibration"`
	ExportDate      string               `json:"exportDate"`
}

type Measurements struct {
	Distances []DistanceEntry `json:"distances"`
	Angles    []AngleEntry    `json:"angles"`
}

// DistanceEntry is one exported distance. ID is its one-based log position.
type DistanceEntry struct {
	ID          int      `json:"id"`
	RecordID    string   `json:"recordId"`
	Value       float64  `json:"value"`
	Unit        string   `json:"unit"`
	RealValue   *float64 `json:"realValue"`
	RealUnit    string   `json:"realUnit,omitempty"`
	CaptureTime float64  `json:"captureTime"`
	Geometry    string   `json:"geometry"`
}

// AngleEntry is one exported angle. ID is its one-based log position.
type AngleEntry struct {
	ID          int     `json:"id"`
	RecordID    string  `json:"recordId"`
	Value       float64 `json:"value"`
	Unit        string  `json:"unit"`
	CaptureTime float64 `json:"captureTime"`
	Geometry    string  `json:"geometry"`
}

// BuildDocument lays snap out for JSON export.
func BuildDocument(snap core.Snapshot, now time.Time) (Document, error) {
	doc := Document{
		Metadata: Metadata{
			SessionID:       snap.SessionID.String(),
			VideoDimensions: snap.VideoDimensions,
			CurrentTime:     snap.CurrentTime,
			FrameRate:       snap.FrameRate,
			Calibration:     snap.Calibration,
			ExportDate:      now.UTC().Format(time.RFC3339),
		},
		Measurements: Measurements{
			Distances: make([]DistanceEntry, 0, len(snap.Distances)),
			Angles:    make([]AngleEntry, 0, len(snap.Angles)),
		},
	}
	for i, d := range snap.Distances {
		wkt, err := geo.WKT(d.Points[:])
		if err != nil {
			return Document{}, fmt.Errorf("distance %d geometry: %w", i+1, err)
		}
		entry := DistanceEntry{
			ID:          i + 1,
			RecordID:    d.ID.String(),
			Value:       geo.Round2(d.Value),
			Unit:        UnitPixels,
			CaptureTime: d.CaptureTime,
			Geometry:    wkt,
		}
		if rv, unit, ok := calibration.Apply(snap.Calibration, d.Value); ok {
			rv = geo.Round2(rv)
			entry.RealValue = &rv
			entry.RealUnit = string(unit)
		}
		doc.Measurements.Distances = append(doc.Measurements.Distances, entry)
	}
	for i, a := range snap.Angles {
		wkt, err := geo.WKT(a.Points[:])
		if err != nil {
			return Document{}, fmt.Errorf("angle %d geometry: %w", i+1, err)
		}
		doc.Measurements.Angles = append(doc.Measurements.Angles, AngleEntry{
			ID:          i + 1,
			RecordID:    a.ID.String(),
			Value:       a.Value,
			Unit:        UnitDegrees,
			CaptureTime: a.CaptureTime,
			Geometry:    wkt,
		})
	}
	return doc, nil
}

// WriteJSON writes the indented JSON document for snap.
func WriteJSON(w io.Writer, snap core.Snapshot, now time.Time) error {
	doc, err := BuildDocument(snap, now)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// Gzip compresses data at the default level.
func Gzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("gzip export: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip export: %w", err)
	}
	return buf.Bytes(), nil
}
