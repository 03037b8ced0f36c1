package influxdb

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/vingarzan/homebridge-nibe/internal/entity"
)

// MetricWriter is the slice of the client the recorder needs.
// Satisfied by *Client; tests substitute a fake.
type MetricWriter interface {
	WriteParameterMetricAt(entityID string, parameter string, value float64, timestamp time.Time)
}

// Logger defines the logging interface used by the recorder.
type Logger interface {
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}

// Recorder feeds entity state changes into InfluxDB as parameter history.
//
// Only numeric readings are recorded; display values carrying a unit
// suffix ("2.1°C", "43%") have the suffix stripped. Non-numeric values
// such as operating mode labels are skipped. The recorder never fails a
// reconciliation pass: writes are fire-and-forget and batched by the
// underlying client.
type Recorder struct {
	writer MetricWriter
	logger Logger
}

// NewRecorder creates a parameter history recorder over the given writer.
func NewRecorder(writer MetricWriter) *Recorder {
	return &Recorder{
		writer: writer,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the recorder.
func (r *Recorder) SetLogger(logger Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// RecordState writes every numeric reading in the entity's state.
//
// The point timestamp is the entity's state update time when known,
// otherwise the current time.
func (r *Recorder) RecordState(ctx context.Context, e entity.Entity) error {
	timestamp := time.Now()
	if e.StateUpdatedAt != nil {
		timestamp = *e.StateUpdatedAt
	}

	recorded := 0
	for parameter, raw := range e.State {
		value, ok := numericValue(raw)
		if !ok {
			continue
		}
		r.writer.WriteParameterMetricAt(e.ID, parameter, value, timestamp)
		recorded++
	}

	r.logger.Debug("parameter history recorded",
		"entity_id", e.ID,
		"points", recorded,
		"skipped", len(e.State)-recorded)
	return nil
}

// numericValue extracts a float from a state value.
//
// Values arrive either as JSON numbers or as display strings with a
// trailing unit ("2.1°C", "43%", "1,5bar"). The numeric prefix is
// parsed; decimal commas are accepted. Anything without a leading
// number is not a metric.
func numericValue(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		return parseDisplayValue(v)
	default:
		return 0, false
	}
}

func parseDisplayValue(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// Take the leading numeric run, accepting a decimal comma.
	end := 0
	seenDigit := false
scan:
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			seenDigit = true
		case (r == '-' || r == '+') && i == 0:
		case r == '.' || r == ',':
		default:
			break scan
		}
		end = i + 1
	}
	if !seenDigit || end == 0 {
		return 0, false
	}

	number := strings.ReplaceAll(s[:end], ",", ".")
	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
