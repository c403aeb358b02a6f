// Package metrics provides lock-free counters for authvault observability.
//
// Counters are fixed slots incremented atomically; Snapshot returns a
// point-in-time copy. The write path is allocation-free.
//
// # What this package must NOT do
//
//   - Perform I/O or network calls.
//   - Import the root package or any sibling package.
//   - Expose global metric registries.
package metrics
