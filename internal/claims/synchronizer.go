package claims

import (
	"context"
	"fmt"

	"gratias_backend/internal/shared"

	"go.uber.org/zap"
)

// Event is a user-facing message recorded into the claims history alongside a
// state update. Category, when set, replaces any previous message sharing the
// same prefix so repeated toggles do not flood the history.
type Event struct {
	Message  string
	Category string
}

// Syncer defines the contract for mirroring user state into custom claims.
type Syncer interface {
	SyncAfterEvent(ctx context.Context, uid string, event Event, patch Patch) error
	EnsureInitialClaims(ctx context.Context, uid string, patch Patch) (bool, error)
}

// Synchronizer performs read-merge-write cycles against the provider's claims
// store. Concurrent writers can still race between read and write; callers
// that need strict ordering must serialize per user.
type Synchronizer struct {
	store  shared.ClaimsStore
	logger *zap.Logger
}

// NewSynchronizer creates a Synchronizer backed by the given claims store.
func NewSynchronizer(store shared.ClaimsStore, logger *zap.Logger) *Synchronizer {
	return &Synchronizer{store: store, logger: logger.Named("ClaimsSynchronizer")}
}

var _ Syncer = (*Synchronizer)(nil)

// SyncAfterEvent reads the current claims, overlays the patch, records the
// event in the bounded message history and writes the result back.
func (s *Synchronizer) SyncAfterEvent(ctx context.Context, uid string, event Event, patch Patch) error {
	snapshot, err := s.store.GetCustomClaims(ctx, uid)
	if err != nil {
		return fmt.Errorf("reading custom claims for %s: %w", uid, err)
	}

	merged := Merge(snapshot, patch)

	if event.Message != "" {
		history := NewHistory(MaxMessages, MessagesFromSnapshot(snapshot))
		if event.Category != "" {
			history.RemoveCategory(event.Category)
		}
		history.Append(event.Message)
		merged[ClaimLastMessage] = event.Message
		merged[ClaimMessages] = history.Entries()
	}

	if err := s.store.SetCustomClaims(ctx, uid, merged); err != nil {
		return fmt.Errorf("writing custom claims for %s: %w", uid, err)
	}

	s.logger.Debug("Custom claims synchronized",
		zap.String("uid", uid),
		zap.Bool("has_message", event.Message != ""),
	)
	return nil
}

// EnsureInitialClaims seeds the claims blob on first contact. It writes only
// when the plan field is absent, so an already-provisioned user is never
// overwritten; the returned bool reports whether a write happened.
func (s *Synchronizer) EnsureInitialClaims(ctx context.Context, uid string, patch Patch) (bool, error) {
	snapshot, err := s.store.GetCustomClaims(ctx, uid)
	if err != nil {
		return false, fmt.Errorf("reading custom claims for %s: %w", uid, err)
	}
	if _, provisioned := snapshot[ClaimPlan]; provisioned {
		return false, nil
	}

	merged := Merge(snapshot, patch)
	if err := s.store.SetCustomClaims(ctx, uid, merged); err != nil {
		return false, fmt.Errorf("writing initial custom claims for %s: %w", uid, err)
	}

	s.logger.Info("Initial custom claims provisioned", zap.String("uid", uid))
	return true, nil
}
