// Package mqtt provides MQTT client connectivity for the Nibe bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The bridge publishes its accessory surface over MQTT: one retained config
// topic and one retained state topic per entity, plus a retained system
// status topic carrying the LWT. Consumers (HomeKit shims, dashboards)
// subscribe and never talk to the Nibe Uplink API themselves.
//
//	Nibe Uplink API → bridge → MQTT Broker → consumers
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Publish a retained entity state
//	topic := mqtt.Topics{}.EntityState(entityID)
//	client.PublishRetained(topic, []byte(`{"40004":"2.1°C"}`))
//
//	// React to refresh requests
//	client.Subscribe(mqtt.Topics{}.SystemRefresh(), 1,
//	    func(topic string, payload []byte) error {
//	        triggerPoll()
//	        return nil
//	    })
package mqtt
