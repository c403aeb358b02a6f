// Package rate tracks login cooldown state: the last failed attempt per
// username and per client origin, used to throttle brute-force password
// guessing.
//
// The default backend is in-process memory, matching the single-instance
// deployment model. The Redis backend externalizes the same state for
// multi-instance deployments.
//
// # What this package must NOT do
//
//   - Inspect credentials. It only sees opaque identifier strings.
//   - Import the root package or any sibling.
package rate
