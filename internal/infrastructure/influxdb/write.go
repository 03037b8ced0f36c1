package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteParameterMetric writes a single heat pump parameter reading.
//
// This is the primary method for recording parameter history.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - entityID: Stable entity identifier the reading belongs to
//   - parameter: The parameter key (e.g., "40004", "43005")
//   - value: The numeric value to record
//
// Example:
//
//	client.WriteParameterMetric("0a1b...", "40004", 2.1)
func (c *Client) WriteParameterMetric(entityID string, parameter string, value float64) {
	c.WriteParameterMetricAt(entityID, parameter, value, time.Now())
}

// WriteParameterMetricAt writes a parameter reading with a specific timestamp.
//
// Use this when the reading carries its own observation time, such as
// the snapshot time recorded during reconciliation.
func (c *Client) WriteParameterMetricAt(entityID string, parameter string, value float64, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"parameters",
		map[string]string{
			"entity_id": entityID,
			"parameter": parameter,
		},
		map[string]interface{}{
			"value": value,
		},
		timestamp,
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
