// Package authfile owns the persisted credential record tree and its store.
//
// The tree is one small document per running system: the write-once server
// salt and GnuPG keypair reference, the ordered set of user records, and the
// ordered list of access grants. [Store] keeps the parsed tree cached in
// memory behind a multiple-reader/single-writer lock and persists the whole
// tree on every successful mutation; there are no incremental writes.
//
// # What this package must NOT do
//
//   - Interpret passwords. It stores whatever fingerprint the engine hands it.
//   - Enforce privileges. Privilege checks belong to the engine.
//   - Import the root package or any sibling (no import cycles).
package authfile
