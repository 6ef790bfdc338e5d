package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/tokenbridge/internal/core/domain"
)

// BridgeService runs the three-step handshake: code exchange, handle
// linking, and the secret-gated lookup of a linked token bundle.
type BridgeService interface {
	// Exchange trades an authorization code for a token bundle and parks it
	// under a freshly generated handle.
	Exchange(ctx context.Context, code string) (*ExchangeResult, error)

	// Link moves the bundle parked under handle into the durable store under
	// identity and invalidates the handle.
	Link(ctx context.Context, req LinkRequest) error

	// Lookup returns the serialized bundle stored for identity after checking
	// the caller's shared secret.
	Lookup(ctx context.Context, req LookupRequest) (string, error)

	// AuthorizeURL returns where to send a user to start the OAuth flow.
	AuthorizeURL() string
}

// ExchangeResult is what the caller receives after a successful exchange.
// @Description Handle issued for a pending token bundle
type ExchangeResult struct {
	// Handle is the single-use capability to hand to the messaging platform.
	Handle domain.Handle `json:"handle" example:"h0000000000000000001"`

	// ExpiresAt is when the handle stops being accepted.
	ExpiresAt time.Time `json:"expires_at"`

	// AccessTokenExpiresAt and RefreshTokenExpiresAt are when the linked
	// credentials lapse, counted from the exchange.
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
}

// LinkRequest binds a handle to an external identity.
// @Description Handle-to-identity link request
type LinkRequest struct {
	Handle   domain.Handle           `json:"handle" example:"h0000000000000000001"`
	Identity domain.ExternalIdentity `json:"identity" example:"tg_42"`
}

// LookupRequest asks for the bundle stored under an identity.
type LookupRequest struct {
	Identity domain.ExternalIdentity
	Secret   string
}
