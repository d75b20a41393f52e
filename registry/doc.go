// Package registry implements the access-record lifecycle shared by both
// registry variants: payment-gated issuance, boolean verification, owner-only
// revocation and repricing, and withdrawal of collected funds.
//
// Two registries are provided:
//
//   - CodeRegistry stores, per user, a commitment (hash) of an issued secret
//     plus an expiry timestamp. Verification re-hashes a presented candidate
//     and compares it against the stored commitment and expiry.
//   - KeyRegistry stores the issued opaque key directly and maintains a
//     reverse validity set keyed by the key value, so verification is a
//     membership check rather than a hash comparison.
//
// Every operation runs under a single mutex held for the whole
// check-and-commit sequence: two concurrent purchases by the same user can
// never both pass the duplicate-purchase check, and a withdrawal's fund
// transfer and pool reset are observed atomically.
//
// Payments are settled through the interfaces.PaymentLedger collaborator. A
// failed operation moves no funds and mutates no state.
package registry
