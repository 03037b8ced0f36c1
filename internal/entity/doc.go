// Package entity provides the identity-stable registry backing the bridge.
//
// Every (unit, category-type) pair observed in a snapshot maps to at most
// one Entity, whose ID is a deterministic UUIDv5 of the pair (see Identity).
// The Registry wraps a Repository with an in-memory cache, so reconciliation
// reads never hit the database and restarts recover the full entity set via
// RefreshCache.
//
// Entities returned by the registry are deep copies. Mutating a returned
// entity has no effect until it is written back through Update or SetState.
package entity
