// Package uplink reads heat-pump data from the Nibe Uplink cloud API.
//
// The package covers three concerns:
//
//   - Authentication: OAuth2 authorization-code flow with the refresh token
//     persisted to disk (SessionStore), so the one-time auth code is only
//     needed on first start.
//   - Snapshot assembly: Client.FetchSnapshot composes the system's units
//     and their service-info categories into one Snapshot per cycle.
//   - Polling: Fetcher runs FetchSnapshot on a fixed interval and delivers
//     each snapshot through a callback.
//
// Snapshots are complete replacements, never deltas. Downstream
// reconciliation diffs each snapshot against its own registry; this package
// has no state beyond the OAuth2 session.
package uplink
