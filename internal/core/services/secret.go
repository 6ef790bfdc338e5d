package services

import (
	"crypto/subtle"

	"golang.org/x/crypto/blake2b"
)

// SecretVerifier checks caller-supplied secrets against the configured one.
// Both sides are hashed first so the comparison runs over equal-length
// digests and leaks neither content nor length through timing.
type SecretVerifier struct {
	digest [blake2b.Size256]byte
	empty  bool
}

// NewSecretVerifier creates a verifier for secret. An empty secret rejects everything.
func NewSecretVerifier(secret string) *SecretVerifier {
	return &SecretVerifier{
		digest: blake2b.Sum256([]byte(secret)),
		empty:  secret == "",
	}
}

// Verify reports whether presented matches the configured secret.
// A missing secret always fails.
func (v *SecretVerifier) Verify(presented string) bool {
	if v == nil || v.empty {
		return false
	}
	got := blake2b.Sum256([]byte(presented))
	match := subtle.ConstantTimeCompare(got[:], v.digest[:]) == 1
	return match && presented != ""
}
