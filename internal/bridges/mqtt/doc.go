// Package mqtt publishes the bridge's entity set on an MQTT broker.
//
// The Owner type adapts the broker client to the reconciliation engine's
// owner and recorder contracts: entities appear as retained config topics,
// their readings as retained state topics, and retirement clears both.
package mqtt
