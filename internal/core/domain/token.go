package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Token response field names, shared by the form and JSON encodings.
const (
	FieldAccessToken           = "access_token"
	FieldExpiresIn             = "expires_in"
	FieldRefreshToken          = "refresh_token"
	FieldRefreshTokenExpiresIn = "refresh_token_expires_in"
	FieldScope                 = "scope"
	FieldTokenType             = "token_type"
)

// RequiredTokenFields lists every field a token response must carry.
var RequiredTokenFields = []string{
	FieldAccessToken,
	FieldExpiresIn,
	FieldRefreshToken,
	FieldRefreshTokenExpiresIn,
	FieldScope,
	FieldTokenType,
}

// TokenBundle is a completed OAuth2 grant as returned by the identity provider.
// Its JSON encoding is the durable record stored per external identity.
type TokenBundle struct {
	AccessToken           string `json:"access_token"`
	ExpiresIn             int64  `json:"expires_in"`
	RefreshToken          string `json:"refresh_token"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"`
	Scope                 string `json:"scope"`
	TokenType             string `json:"token_type"`
}

// Validate checks that every string field is present and both expiries are sane.
func (b *TokenBundle) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil token bundle", ErrInvalidInput)
	}
	missing := map[string]bool{
		FieldAccessToken:  b.AccessToken == "",
		FieldRefreshToken: b.RefreshToken == "",
		FieldScope:        b.Scope == "",
		FieldTokenType:    b.TokenType == "",
	}
	for _, field := range RequiredTokenFields {
		if missing[field] {
			return fmt.Errorf("%w: missing %s", ErrInvalidInput, field)
		}
	}
	if b.ExpiresIn < 0 {
		return fmt.Errorf("%w: negative %s", ErrInvalidInput, FieldExpiresIn)
	}
	if b.RefreshTokenExpiresIn < 0 {
		return fmt.Errorf("%w: negative %s", ErrInvalidInput, FieldRefreshTokenExpiresIn)
	}
	return nil
}

// Serialize encodes the bundle as its durable JSON record.
func (b *TokenBundle) Serialize() (string, error) {
	if b == nil {
		return "", fmt.Errorf("%w: nil token bundle", ErrSerialization)
	}
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return string(data), nil
}

// AccessTokenExpiry returns when the access token expires, counted from issuedAt.
func (b *TokenBundle) AccessTokenExpiry(issuedAt time.Time) time.Time {
	return issuedAt.Add(time.Duration(b.ExpiresIn) * time.Second)
}

// RefreshTokenExpiry returns when the refresh token expires, counted from issuedAt.
func (b *TokenBundle) RefreshTokenExpiry(issuedAt time.Time) time.Time {
	return issuedAt.Add(time.Duration(b.RefreshTokenExpiresIn) * time.Second)
}
