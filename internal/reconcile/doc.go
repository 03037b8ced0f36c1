// Package reconcile converges the entity registry on each polled snapshot.
//
// The Engine implements the diff: pairs seen for the first time create
// entities, known pairs update them, and pairs missing from the snapshot
// retire theirs. Identity is deterministic, so the same pair maps to the
// same entity on every pass and across restarts, and running an identical
// snapshot twice is a no-op.
//
// The Coordinator serialises passes behind a latest-wins buffer of one:
// polling can outrun reconciliation without queueing stale work.
//
// Side effects fan out through small interfaces. Owners publish and
// withdraw entities on external surfaces; Recorders receive the state of
// every created or changed entity.
package reconcile
