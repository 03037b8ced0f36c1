package influxdb

import (
	"context"
	"testing"
	"time"

	"github.com/vingarzan/homebridge-nibe/internal/entity"
	"github.com/vingarzan/homebridge-nibe/internal/infrastructure/config"
)

func configDisabled() config.InfluxDBConfig {
	return config.InfluxDBConfig{Enabled: false}
}

// fakeWriter records parameter writes in memory.
type fakeWriter struct {
	points []writtenPoint
}

type writtenPoint struct {
	entityID  string
	parameter string
	value     float64
	timestamp time.Time
}

func (f *fakeWriter) WriteParameterMetricAt(entityID, parameter string, value float64, ts time.Time) {
	f.points = append(f.points, writtenPoint{entityID, parameter, value, ts})
}

func (f *fakeWriter) find(parameter string) (writtenPoint, bool) {
	for _, p := range f.points {
		if p.parameter == parameter {
			return p, true
		}
	}
	return writtenPoint{}, false
}

func TestRecorder_RecordState(t *testing.T) {
	writer := &fakeWriter{}
	recorder := NewRecorder(writer)

	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	e := entity.Entity{
		ID:           "entity-1",
		CategoryType: "status",
		State: entity.State{
			"40004": "2.1°C",
			"43005": "-64.0",
			"40014": 43.5,
			"mode":  "heating", // not numeric, skipped
		},
		StateUpdatedAt: &now,
	}

	if err := recorder.RecordState(context.Background(), e); err != nil {
		t.Fatalf("RecordState() error = %v", err)
	}

	if len(writer.points) != 3 {
		t.Fatalf("got %d points, want 3: %+v", len(writer.points), writer.points)
	}

	tests := []struct {
		parameter string
		value     float64
	}{
		{"40004", 2.1},
		{"43005", -64.0},
		{"40014", 43.5},
	}
	for _, tt := range tests {
		p, ok := writer.find(tt.parameter)
		if !ok {
			t.Errorf("parameter %s not recorded", tt.parameter)
			continue
		}
		if p.value != tt.value {
			t.Errorf("parameter %s value = %v, want %v", tt.parameter, p.value, tt.value)
		}
		if p.entityID != "entity-1" {
			t.Errorf("parameter %s entity = %q", tt.parameter, p.entityID)
		}
		if !p.timestamp.Equal(now) {
			t.Errorf("parameter %s timestamp = %v, want %v", tt.parameter, p.timestamp, now)
		}
	}

	if _, ok := writer.find("mode"); ok {
		t.Error("non-numeric value should be skipped")
	}
}

func TestRecorder_RecordStateWithoutTimestamp(t *testing.T) {
	writer := &fakeWriter{}
	recorder := NewRecorder(writer)

	before := time.Now()
	e := entity.Entity{
		ID:    "entity-2",
		State: entity.State{"40004": "1.0"},
	}
	if err := recorder.RecordState(context.Background(), e); err != nil {
		t.Fatal(err)
	}

	if len(writer.points) != 1 {
		t.Fatalf("got %d points, want 1", len(writer.points))
	}
	if writer.points[0].timestamp.Before(before) {
		t.Error("missing state time should default to now")
	}
}

func TestNumericValue(t *testing.T) {
	tests := []struct {
		name  string
		raw   any
		value float64
		ok    bool
	}{
		{"plain float", 21.5, 21.5, true},
		{"int", 7, 7, true},
		{"bare number string", "43", 43, true},
		{"celsius suffix", "2.1°C", 2.1, true},
		{"percent suffix", "43%", 43, true},
		{"negative", "-64.0°C", -64.0, true},
		{"decimal comma", "1,5bar", 1.5, true},
		{"leading space", " 12.0", 12.0, true},
		{"mode label", "heating", 0, false},
		{"empty", "", 0, false},
		{"sign only", "-", 0, false},
		{"bool", true, 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, ok := numericValue(tt.raw)
			if ok != tt.ok {
				t.Fatalf("numericValue(%v) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
			if ok && value != tt.value {
				t.Errorf("numericValue(%v) = %v, want %v", tt.raw, value, tt.value)
			}
		})
	}
}

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(configDisabled())
	if err == nil {
		t.Fatal("Connect() with disabled config should fail")
	}
	if err != ErrDisabled {
		t.Errorf("error = %v, want ErrDisabled", err)
	}
}

func TestClient_ZeroValueSafe(t *testing.T) {
	c := &Client{}

	if c.IsConnected() {
		t.Error("zero-value client should not report connected")
	}
	if err := c.HealthCheck(context.Background()); err != ErrNotConnected {
		t.Errorf("HealthCheck() = %v, want ErrNotConnected", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on zero-value client = %v", err)
	}
	c.Flush() // must not panic
	c.WriteParameterMetric("id", "40004", 1.0)
}
