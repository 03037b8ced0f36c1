// Package influxdb provides time-series persistence for parameter history.
//
// The Client wraps the InfluxDB v2 client with connection management,
// batched non-blocking writes, and health checks. The Recorder adapts the
// client to the reconciliation engine's state recording contract: every
// numeric reading from an entity's state becomes a point in the
// "parameters" measurement, tagged by entity and parameter key.
//
// The package is optional at runtime; when InfluxDB is disabled in the
// configuration, Connect returns ErrDisabled and the bridge runs without
// history.
package influxdb
