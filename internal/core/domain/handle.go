package domain

import "time"

const (
	// HandleLength is the number of symbols in a handle.
	HandleLength = 20

	// HandleAlphabet is the symbol set handles are drawn from.
	HandleAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Handle is a single-use capability that claims one pending token bundle.
type Handle string

// Valid reports whether h has the shape of an issued handle.
func (h Handle) Valid() bool {
	if len(h) != HandleLength {
		return false
	}
	for i := 0; i < len(h); i++ {
		if !isAlphanumeric(h[i]) {
			return false
		}
	}
	return true
}

// Redacted returns a log-safe prefix of the handle.
func (h Handle) Redacted() string {
	if len(h) <= 4 {
		return "****"
	}
	return string(h[:4]) + "…"
}

func isAlphanumeric(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// PendingGrant is a token bundle held in memory under a handle until linked.
type PendingGrant struct {
	Handle    Handle
	Bundle    *TokenBundle
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the grant is past its expiry at now.
// A zero ExpiresAt never expires.
func (g *PendingGrant) IsExpired(now time.Time) bool {
	if g.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(g.ExpiresAt)
}

// ExternalIdentity identifies a user on the messaging platform.
// It is used verbatim as the durable store key.
type ExternalIdentity string

// MaxIdentityLength bounds identities accepted as store keys.
const MaxIdentityLength = 256

// Valid reports whether the identity is usable as a store key: non-empty,
// at most MaxIdentityLength bytes, with no space or ASCII control byte.
func (id ExternalIdentity) Valid() bool {
	if id == "" || len(id) > MaxIdentityLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] == 0x7f {
			return false
		}
	}
	return true
}
