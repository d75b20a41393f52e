/*
Package clients provides client libraries for the access registry API.

Two client types cover the two roles:

1. AccessClient - purchaser operations: buy codes and keys, verify secrets,
check key validity, read public registry state

2. AdminClient - owner operations: revoke access, update prices, withdraw the
funds pool

Both sign mutating requests with the caller's private key so the server can
recover the caller identity from the signature.
*/
package clients
