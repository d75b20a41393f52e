// Package main (cmd/access-client) implements the purchaser's client for the
// access registry.
//
// Commands:
//
//	purchase-code - Buy a time-bounded access code; prints the plaintext
//	                secret exactly once
//	purchase-key  - Buy a direct access key
//	verify        - Check a secret against a user's stored commitment
//	key-valid     - Check whether a key value is currently valid
//	info          - Print the public registry state
//
// Purchases are signed with the caller's private key and carry the payment
// amount in a request header. The server settles the payment against its
// ledger before granting access.
package main
