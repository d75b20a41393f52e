/*
Package api defines the wire types and request authentication scheme for the
access registry HTTP API.

Requests that mutate registry state are signed: the caller signs the Keccak-256
digest of the HTTP method, URL path, signing timestamp and request body, and
sends the signature in the X-Stac-Signature header with the timestamp in
X-Stac-Timestamp. The server recovers the caller's address from the signature,
so purchases and administrative calls need no separate session or credential.
Timestamps older than SignatureLifetime are rejected, which bounds how long a
captured request can be replayed; the timestamp cannot be refreshed without
re-signing because it is part of the digest.

Payments ride in the X-Stac-Payment header as a decimal string in the ledger's
smallest unit. The registry requires the payment to equal the current price
exactly.

The clients subpackage wraps this scheme in purchaser and owner client types.
*/
package api
