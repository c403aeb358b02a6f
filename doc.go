// Package authvault provides a file-backed credential store and
// authentication-ticket engine: one versioned auth file holding users, roles,
// password fingerprints, and role-scoped access grants, plus the login
// protocol (interactive password, persistent "remember me" credential,
// brute-force cooldown) and the privilege checks around every mutation.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authvault is the public surface. It exposes [Engine], [Builder], [Config],
// [Session], and value types (Ticket, UserInfo, Grant, PersistentCredential).
// The credential tree and its store live in the authfile sub-package; the
// persistent-credential codec lives in the token sub-package. Cooldown
// tracking, audit dispatch, metrics, and home-directory provisioning live
// under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Persist a plaintext password anywhere. Passwords are stored only as
//     SHA-256 fingerprints salted with the write-once server salt.
//   - Echo a password back through an error or an audit event.
//   - Hold the store lock across filesystem work other than the auth-file
//     write itself (home directories are provisioned after the lock drops).
//
// # Concurrency contract
//
// The credential tree is guarded by a multiple-reader/single-writer lock.
// Read operations share the lock; every mutation runs a full
// load-mutate-persist cycle under the exclusive lock against a private clone,
// so readers never observe a half-written mutation and a failed mutation
// leaves both cache and disk untouched.
package authvault
