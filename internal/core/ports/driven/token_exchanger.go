package driven

import (
	"context"

	"github.com/custodia-labs/tokenbridge/internal/core/domain"
)

// TokenExchanger turns an authorization code into a token bundle by calling
// the identity provider's token endpoint.
type TokenExchanger interface {
	// Exchange performs a single code-for-token exchange. It never retries:
	// the code is single-use. Every failure wraps domain.ErrUpstream.
	Exchange(ctx context.Context, code string) (*domain.TokenBundle, error)

	// AuthorizeURL returns the provider URL a user is sent to in order to
	// grant access and come back to the redirect URI with a code.
	AuthorizeURL() string
}
