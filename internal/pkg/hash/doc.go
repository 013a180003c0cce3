// Package hash verifies user passwords and keys one-time code digests.
//
// Stored password hashes may come from bcrypt or Argon2id; both satisfy Hash so
// callers pick one by looking at the encoded prefix. HMACSHA256 is used for
// short lived secrets such as emailed codes, where a keyed digest is enough and
// a slow KDF would only add latency.
package hash
