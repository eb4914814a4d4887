package shared

import (
	"context"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
)

// User is the cross-package view of a stored user profile.
type User struct {
	UID                       string
	Plan                      string
	MaxSites                  int
	EmailNotificationsEnabled bool
	PushToken                 *string
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// UserProvider resolves the stored profile for an identity, creating it with
// plan defaults on first contact.
type UserProvider interface {
	GetOrCreateByUID(ctx context.Context, uid string) (*User, error)
}

// TokenVerifier verifies identity-provider bearer tokens.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// ClaimsStore exposes the identity provider's per-user custom-claims blob.
// The provider is the system of record for this structure; callers must
// re-read before merging rather than trust a local copy.
type ClaimsStore interface {
	GetCustomClaims(ctx context.Context, uid string) (map[string]interface{}, error)
	SetCustomClaims(ctx context.Context, uid string, claims map[string]interface{}) error
}

// TopicMessenger manages push-notification topic subscriptions and delivery.
type TopicMessenger interface {
	SubscribeToTopic(ctx context.Context, token, topic string) error
	UnsubscribeFromTopic(ctx context.Context, token, topic string) error
	SendToTopic(ctx context.Context, topic, title, body string) error
}

// AccountDeleter removes an account from the identity provider.
type AccountDeleter interface {
	DeleteAccount(ctx context.Context, uid string) error
}

// UserTopic returns the per-user push-notification topic name.
func UserTopic(uid string) string {
	return "user_" + uid
}
