package mqtt

import "fmt"

// Topic prefixes for the bridge's MQTT surface.
//
// Entity topics use the scheme: nibe/entity/{entity_id}/{config|state}
// with retained messages, so subscribers joining late immediately see the
// current accessory set and readings.
const (
	// TopicPrefix is the base for all bridge topics.
	TopicPrefix = "nibe"

	// TopicPrefixEntity is the base for per-entity topics.
	TopicPrefixEntity = "nibe/entity"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "nibe/system"
)

// Topics provides builders for the bridge's MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.EntityState("8d4c9f06-...")
//	// Returns: "nibe/entity/8d4c9f06-.../state"
type Topics struct{}

// EntityConfig returns the retained accessory description topic for an
// entity. Publishing an empty retained payload here withdraws the entity.
//
// Example: nibe/entity/8d4c9f06-.../config
func (Topics) EntityConfig(entityID string) string {
	return fmt.Sprintf("%s/%s/config", TopicPrefixEntity, entityID)
}

// EntityState returns the retained state topic for an entity.
//
// Example: nibe/entity/8d4c9f06-.../state
func (Topics) EntityState(entityID string) string {
	return fmt.Sprintf("%s/%s/state", TopicPrefixEntity, entityID)
}

// SystemStatus returns the bridge status topic, also used for the LWT.
//
// Example: nibe/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// SystemRefresh returns the topic a subscriber publishes to for an
// immediate out-of-schedule poll.
//
// Example: nibe/system/refresh
func (Topics) SystemRefresh() string {
	return fmt.Sprintf("%s/refresh", TopicPrefixSystem)
}

// AllEntityConfigs returns a pattern matching every entity config topic.
//
// Pattern: nibe/entity/+/config
func (Topics) AllEntityConfigs() string {
	return fmt.Sprintf("%s/+/config", TopicPrefixEntity)
}

// AllEntityStates returns a pattern matching every entity state topic.
//
// Pattern: nibe/entity/+/state
func (Topics) AllEntityStates() string {
	return fmt.Sprintf("%s/+/state", TopicPrefixEntity)
}

// AllTopics returns a pattern matching all bridge topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: nibe/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}
