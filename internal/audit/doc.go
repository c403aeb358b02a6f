// Package audit provides structured security-event dispatch for authvault.
//
// Events flow through an asynchronous Dispatcher into a caller-supplied Sink.
// The dispatcher never blocks engine operations: when configured with
// DropIfFull it counts dropped events instead of waiting.
//
// # What this package must NOT do
//
//   - Carry secrets. Event metadata never contains a password or fingerprint.
//   - Import the root package or any sibling.
package audit
