// Package token encodes and decodes the long-lived "remember me" credential.
//
// The credential is a compact HS256-signed token carrying the username and
// the stored password fingerprint. The signing key is derived from the server
// salt by the engine, so rotating the salt invalidates every standing
// credential in one move. The token is deliberately distinct from the stored
// fingerprint alone: parsing yields the embedded fingerprint, and the engine
// still compares it against the store before trusting the caller.
package token
