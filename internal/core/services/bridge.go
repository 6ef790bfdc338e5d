package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/custodia-labs/tokenbridge/internal/core/domain"
	"github.com/custodia-labs/tokenbridge/internal/core/ports/driven"
	"github.com/custodia-labs/tokenbridge/internal/core/ports/driving"
)

// Ensure bridgeService implements BridgeService
var _ driving.BridgeService = (*bridgeService)(nil)

// DefaultHandleTTL is how long an unclaimed handle stays valid.
const DefaultHandleTTL = 10 * time.Minute

// BridgeServiceConfig holds configuration for the bridge service.
type BridgeServiceConfig struct {
	// Exchanger talks to the identity provider's token endpoint.
	Exchanger driven.TokenExchanger

	// Handles holds pending grants until they are linked.
	Handles driven.HandleStore

	// Records is the durable store for linked bundles.
	Records driven.RecordStore

	// Secret gates Lookup.
	Secret *SecretVerifier

	// HandleTTL bounds how long a pending grant is claimable (default: 10m).
	// A negative value disables expiry.
	HandleTTL time.Duration

	// NewHandle generates handles (default: GenerateHandle).
	NewHandle HandleGenerator

	// Now returns the current time (default: time.Now).
	Now func() time.Time

	Logger logrus.FieldLogger
}

// bridgeService implements the BridgeService interface.
type bridgeService struct {
	exchanger driven.TokenExchanger
	handles   driven.HandleStore
	records   driven.RecordStore
	secret    *SecretVerifier
	handleTTL time.Duration
	newHandle HandleGenerator
	now       func() time.Time
	logger    logrus.FieldLogger

	// linking serializes link attempts per handle so a handle is consumed at most once.
	linking *keyedMutex
}

// NewBridgeService creates a new bridge service.
func NewBridgeService(cfg BridgeServiceConfig) driving.BridgeService {
	ttl := cfg.HandleTTL
	if ttl == 0 {
		ttl = DefaultHandleTTL
	}
	newHandle := cfg.NewHandle
	if newHandle == nil {
		newHandle = GenerateHandle
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &bridgeService{
		exchanger: cfg.Exchanger,
		handles:   cfg.Handles,
		records:   cfg.Records,
		secret:    cfg.Secret,
		handleTTL: ttl,
		newHandle: newHandle,
		now:       now,
		logger:    logger.WithField("component", "bridge"),
		linking:   newKeyedMutex(),
	}
}

// Exchange trades the code for a token bundle and parks it under a new handle.
// Nothing is parked unless the bundle carries every required field.
func (s *bridgeService) Exchange(ctx context.Context, code string) (*driving.ExchangeResult, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: missing code", domain.ErrInvalidInput)
	}

	bundle, err := s.exchanger.Exchange(ctx, code)
	if err != nil {
		s.logger.WithError(err).Warn("code exchange failed")
		if !errors.Is(err, domain.ErrUpstream) {
			err = fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		}
		return nil, err
	}
	if err := bundle.Validate(); err != nil {
		s.logger.WithError(err).Warn("provider returned an incomplete token bundle")
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	now := s.now()
	grant := &domain.PendingGrant{
		Handle:    s.newHandle(),
		Bundle:    bundle,
		CreatedAt: now,
	}
	if s.handleTTL > 0 {
		grant.ExpiresAt = now.Add(s.handleTTL)
	}

	if err := s.handles.Insert(ctx, grant); err != nil {
		return nil, fmt.Errorf("park token bundle: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"handle":     grant.Handle.Redacted(),
		"expires_at": grant.ExpiresAt,
	}).Info("issued handle")

	return &driving.ExchangeResult{
		Handle:                grant.Handle,
		ExpiresAt:             grant.ExpiresAt,
		AccessTokenExpiresAt:  bundle.AccessTokenExpiry(now),
		RefreshTokenExpiresAt: bundle.RefreshTokenExpiry(now),
	}, nil
}

// Link runs lookup, serialize, durable write, evict, in that order.
// The handle is only evicted once the durable write is confirmed, so a failed
// write leaves it claimable for a retry.
func (s *bridgeService) Link(ctx context.Context, req driving.LinkRequest) error {
	if req.Handle == "" {
		return fmt.Errorf("%w: missing handle", domain.ErrInvalidInput)
	}
	if !req.Identity.Valid() {
		return fmt.Errorf("%w: invalid identity", domain.ErrInvalidInput)
	}
	if !req.Handle.Valid() {
		return domain.ErrNotFound
	}

	log := s.logger.WithFields(logrus.Fields{
		"handle":   req.Handle.Redacted(),
		"identity": string(req.Identity),
	})

	unlock := s.linking.Lock(string(req.Handle))
	defer unlock()

	grant, err := s.handles.Get(ctx, req.Handle)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Info("link attempted with unknown or consumed handle")
		}
		return err
	}

	record, err := grant.Bundle.Serialize()
	if err != nil {
		log.WithError(err).Error("failed to serialize token bundle")
		return err
	}

	if err := s.records.Set(ctx, string(req.Identity), record); err != nil {
		log.WithError(err).Error("durable write failed, handle kept for retry")
		return err
	}

	if err := s.handles.Remove(ctx, req.Handle); err != nil {
		// The record is durable; a stale handle only lingers until it expires.
		log.WithError(err).Warn("failed to evict linked handle")
	}

	log.Info("linked handle")
	return nil
}

// Lookup checks the secret before touching the store, so a bad secret is
// rejected the same way whether or not the identity exists.
func (s *bridgeService) Lookup(ctx context.Context, req driving.LookupRequest) (string, error) {
	if !s.secret.Verify(req.Secret) {
		s.logger.WithField("identity", string(req.Identity)).Warn("lookup rejected")
		return "", domain.ErrUnauthorized
	}
	if !req.Identity.Valid() {
		return "", fmt.Errorf("%w: invalid identity", domain.ErrInvalidInput)
	}

	record, err := s.records.Get(ctx, string(req.Identity))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WithError(err).WithField("identity", string(req.Identity)).Error("lookup failed")
		}
		return "", err
	}
	return record, nil
}

// AuthorizeURL returns the provider's authorization URL.
func (s *bridgeService) AuthorizeURL() string {
	return s.exchanger.AuthorizeURL()
}
