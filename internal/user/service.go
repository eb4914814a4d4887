// File: internal/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gratias_backend/internal/claims"
	"gratias_backend/internal/common"
	"gratias_backend/internal/config"
	"gratias_backend/internal/shared"
	"gratias_backend/internal/site"

	"go.uber.org/zap"
)

// Service defines the interface for user business logic.
type Service interface {
	shared.UserProvider

	InitProfile(ctx context.Context, uid string) (*InitProfileResponse, error)
	SetEmailNotifications(ctx context.Context, uid string, enabled bool) (*UpdateEmailNotificationsResponse, error)
	RegisterPushToken(ctx context.Context, uid, token string) (*RegisterPushTokenResponse, error)
	SendTestNotification(ctx context.Context, uid, title, body string) error
	DeleteAccount(ctx context.Context, uid string) error
}

type service struct {
	repo      Repository
	sites     site.Repository
	syncer    claims.Syncer
	messenger shared.TopicMessenger
	accounts  shared.AccountDeleter
	cfg       *config.Config
	logger    *zap.Logger
}

// NewService creates a new user service.
func NewService(
	repo Repository,
	sites site.Repository,
	syncer claims.Syncer,
	messenger shared.TopicMessenger,
	accounts shared.AccountDeleter,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	return &service{
		repo:      repo,
		sites:     sites,
		syncer:    syncer,
		messenger: messenger,
		accounts:  accounts,
		cfg:       cfg,
		logger:    logger.Named("UserService"),
	}
}

// GetOrCreateByUID resolves the stored profile for an identity, creating it
// with plan defaults on first contact. Losing the creation race to a
// concurrent request is the no-op success path.
func (s *service) GetOrCreateByUID(ctx context.Context, uid string) (*shared.User, error) {
	existing, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing.ToShared(), nil
	}

	fresh := &User{
		FirebaseUID:               uid,
		Plan:                      s.cfg.DefaultPlan,
		MaxSites:                  s.cfg.DefaultMaxSites,
		EmailNotificationsEnabled: false,
	}
	if err := s.repo.Create(ctx, fresh); err != nil {
		if errors.Is(err, ErrDuplicateUser) {
			winner, findErr := s.repo.FindByUID(ctx, uid)
			if findErr != nil {
				return nil, findErr
			}
			if winner == nil {
				return nil, fmt.Errorf("user %s vanished after duplicate-key create", uid)
			}
			return winner.ToShared(), nil
		}
		return nil, err
	}

	s.logger.Info("User profile created", zap.String("uid", uid), zap.String("plan", fresh.Plan))

	// Seed the provider claims for the new account. Best-effort: the next
	// profile or site operation re-attempts via EnsureInitialClaims.
	if _, err := s.syncer.EnsureInitialClaims(ctx, uid, s.initialPatch(fresh)); err != nil {
		s.logger.Warn("Initial claims provisioning failed", zap.String("uid", uid), zap.Error(err))
	}

	return fresh.ToShared(), nil
}

// InitProfile ensures the profile row and provider claims exist for the
// caller. Safe to call repeatedly; claims are only written when missing.
func (s *service) InitProfile(ctx context.Context, uid string) (*InitProfileResponse, error) {
	stored, err := s.getOrCreateRow(ctx, uid)
	if err != nil {
		return nil, err
	}
	if _, err := s.syncer.EnsureInitialClaims(ctx, uid, s.initialPatch(stored)); err != nil {
		return nil, fmt.Errorf("provisioning claims for %s: %w", uid, err)
	}
	return &InitProfileResponse{Token: "reload"}, nil
}

// SetEmailNotifications stores the preference and mirrors it into claims with
// a toggle message. Only the latest toggle message is kept in the history.
func (s *service) SetEmailNotifications(ctx context.Context, uid string, enabled bool) (*UpdateEmailNotificationsResponse, error) {
	stored, err := s.getOrCreateRow(ctx, uid)
	if err != nil {
		return nil, err
	}

	stored.EmailNotificationsEnabled = enabled
	if err := s.repo.Update(ctx, stored); err != nil {
		return nil, err
	}

	event := claims.Event{
		Message:  claims.EmailNotificationsMessage(enabled, time.Now()),
		Category: claims.EmailNotificationsCategory,
	}
	patch := claims.Patch{EmailNotificationsEnabled: &enabled}
	if err := s.syncer.SyncAfterEvent(ctx, uid, event, patch); err != nil {
		s.logger.Error("Claims sync failed after email-notification toggle",
			zap.String("uid", uid), zap.Error(err))
	}

	s.logger.Info("Email notification preference updated",
		zap.String("uid", uid), zap.Bool("enabled", enabled))

	return &UpdateEmailNotificationsResponse{
		EmailNotificationsEnabled: enabled,
		Token:                     "reload",
	}, nil
}

// RegisterPushToken stores the device token, then subscribes it to the user's
// notification topic. The stored token is the durable outcome; topic
// (un)subscription is best-effort and never fails the operation.
func (s *service) RegisterPushToken(ctx context.Context, uid, token string) (*RegisterPushTokenResponse, error) {
	if token == "" {
		return nil, common.ErrInvalidInput.WithDetails("Le token de notification est requis")
	}

	stored, err := s.getOrCreateRow(ctx, uid)
	if err != nil {
		return nil, err
	}

	previous := stored.PushToken
	stored.PushToken = &token
	if err := s.repo.Update(ctx, stored); err != nil {
		return nil, err
	}

	topic := shared.UserTopic(uid)
	if previous != nil && *previous != token {
		if err := s.messenger.UnsubscribeFromTopic(ctx, *previous, topic); err != nil {
			s.logger.Warn("Failed to unsubscribe previous push token",
				zap.String("uid", uid), zap.Error(err))
		}
	}
	if err := s.messenger.SubscribeToTopic(ctx, token, topic); err != nil {
		s.logger.Error("Failed to subscribe push token to topic",
			zap.String("uid", uid), zap.Error(err))
	}

	s.logger.Info("Push token registered", zap.String("uid", uid))
	return &RegisterPushTokenResponse{PushToken: token}, nil
}

// SendTestNotification pushes a message to the caller's own topic so a device
// can verify its subscription end to end. Requires a registered push token.
func (s *service) SendTestNotification(ctx context.Context, uid, title, body string) error {
	stored, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		return err
	}
	if stored == nil || stored.PushToken == nil {
		return fmt.Errorf("no push token registered for %s", uid)
	}
	if title == "" {
		title = "Test"
	}
	if body == "" {
		body = "Notification de test"
	}
	if err := s.messenger.SendToTopic(ctx, shared.UserTopic(uid), title, body); err != nil {
		return fmt.Errorf("sending test notification for %s: %w", uid, err)
	}
	return nil
}

// DeleteAccount removes the caller's sites, profile row and provider account,
// in that order. Local data goes first so a provider failure never leaves
// orphaned rows pointing at a half-deleted account; a provider failure is
// surfaced even though local cleanup already succeeded.
func (s *service) DeleteAccount(ctx context.Context, uid string) error {
	stored, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		return err
	}

	if stored != nil && stored.PushToken != nil {
		if err := s.messenger.UnsubscribeFromTopic(ctx, *stored.PushToken, shared.UserTopic(uid)); err != nil {
			s.logger.Warn("Failed to unsubscribe push token during account deletion",
				zap.String("uid", uid), zap.Error(err))
		}
	}

	if err := s.sites.DeleteAllByOwner(ctx, uid); err != nil {
		return fmt.Errorf("deleting sites for %s: %w", uid, err)
	}
	if err := s.repo.DeleteByUID(ctx, uid); err != nil {
		return fmt.Errorf("deleting user row for %s: %w", uid, err)
	}
	if err := s.accounts.DeleteAccount(ctx, uid); err != nil {
		return fmt.Errorf("deleting provider account for %s: %w", uid, err)
	}

	s.logger.Info("Account deleted", zap.String("uid", uid))
	return nil
}

// getOrCreateRow is the storage-level variant of GetOrCreateByUID, returning
// the mutable row instead of the cross-package view.
func (s *service) getOrCreateRow(ctx context.Context, uid string) (*User, error) {
	if _, err := s.GetOrCreateByUID(ctx, uid); err != nil {
		return nil, err
	}
	stored, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("user %s not found after get-or-create", uid)
	}
	return stored, nil
}

// initialPatch builds the first-contact claims patch for a stored profile.
func (s *service) initialPatch(u *User) claims.Patch {
	status := claims.StatusActive
	return claims.Patch{
		Plan:                      &u.Plan,
		Status:                    &status,
		MaxSites:                  &u.MaxSites,
		EmailNotificationsEnabled: &u.EmailNotificationsEnabled,
	}
}
