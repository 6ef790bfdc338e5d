package services

import (
	"crypto/rand"

	"github.com/custodia-labs/tokenbridge/internal/core/domain"
)

// HandleGenerator produces new handles. Tests swap in deterministic ones.
type HandleGenerator func() domain.Handle

// acceptLimit is the largest multiple of the alphabet size that fits in a
// byte. Bytes at or above it are rejected so every symbol is equally likely.
const acceptLimit = 256 - 256%len(domain.HandleAlphabet)

// GenerateHandle returns a uniformly random 20-symbol alphanumeric handle.
// 62^20 possibilities (~119 bits) make collisions negligible.
func GenerateHandle() domain.Handle {
	out := make([]byte, 0, domain.HandleLength)
	buf := make([]byte, domain.HandleLength+8)
	for len(out) < domain.HandleLength {
		// crypto/rand.Read never fails on supported platforms
		_, _ = rand.Read(buf)
		for _, b := range buf {
			if int(b) >= acceptLimit {
				continue
			}
			out = append(out, domain.HandleAlphabet[int(b)%len(domain.HandleAlphabet)])
			if len(out) == domain.HandleLength {
				break
			}
		}
	}
	return domain.Handle(out)
}
