// Package main (cmd/access-admin) implements the owner's administration
// client for the access registry.
//
// Commands:
//
//	revoke    - Revoke a user's access record or key grant
//	price     - Set a new purchase price for one registry variant
//	withdraw  - Drain the accumulated funds pool to the owner
//	info      - Print the public registry state
//
// All mutating commands are signed with the owner's private key; the server
// recovers the caller from the signature and rejects anyone but the owner.
package main
