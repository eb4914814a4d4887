package firebase

import (
	"context"
	"fmt"
	"path/filepath"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"gratias_backend/internal/config"
)

// Service wraps the Firebase Admin SDK clients used by the application:
// auth (token verification, custom claims, account deletion) and messaging
// (push-notification topics).
type Service struct {
	authClient      *auth.Client
	messagingClient *messaging.Client
	logger          *zap.Logger
}

// NewService initializes the Firebase Admin SDK and returns a Service.
func NewService(cfg *config.Config, logger *zap.Logger) (*Service, error) {
	if cfg.FirebaseServiceAccountKeyPath == "" {
		logger.Error("Firebase service account key path is not configured.")
		return nil, fmt.Errorf("firebase service account key path is required")
	}

	cleanPath := filepath.Clean(cfg.FirebaseServiceAccountKeyPath)
	opt := option.WithCredentialsFile(cleanPath)

	var app *firebase.App
	var err error
	if cfg.FirebaseProjectID != "" {
		conf := &firebase.Config{ProjectID: cfg.FirebaseProjectID}
		app, err = firebase.NewApp(context.Background(), conf, opt)
	} else {
		// Let the SDK infer the project from the credentials file.
		app, err = firebase.NewApp(context.Background(), nil, opt)
	}
	if err != nil {
		logger.Error("Failed to initialize Firebase Admin SDK app", zap.Error(err), zap.String("keyPath", cleanPath))
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	authClient, err := app.Auth(context.Background())
	if err != nil {
		logger.Error("Failed to get Firebase Auth client", zap.Error(err))
		return nil, fmt.Errorf("error getting Firebase Auth client: %w", err)
	}

	messagingClient, err := app.Messaging(context.Background())
	if err != nil {
		logger.Error("Failed to get Firebase Messaging client", zap.Error(err))
		return nil, fmt.Errorf("error getting Firebase Messaging client: %w", err)
	}

	logger.Info("Firebase Admin SDK initialized successfully.")
	return &Service{
		authClient:      authClient,
		messagingClient: messagingClient,
		logger:          logger,
	}, nil
}

// VerifyIDToken verifies a Firebase ID token, including a revocation check,
// and returns the token claims.
func (s *Service) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if idToken == "" {
		return nil, fmt.Errorf("ID token must not be empty")
	}

	token, err := s.authClient.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		s.logger.Warn("Firebase ID token verification failed", zap.Error(err))
		return nil, fmt.Errorf("failed to verify Firebase ID token: %w", err)
	}

	s.logger.Debug("Firebase ID token verified successfully", zap.String("uid", token.UID))
	return token, nil
}

// GetCustomClaims returns a fresh read of the user's custom-claims blob.
// Never nil: an account without claims yields an empty map.
func (s *Service) GetCustomClaims(ctx context.Context, uid string) (map[string]interface{}, error) {
	record, err := s.authClient.GetUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to get user record for %s: %w", uid, err)
	}
	if record.CustomClaims == nil {
		return map[string]interface{}{}, nil
	}
	return record.CustomClaims, nil
}

// SetCustomClaims replaces the user's custom-claims blob in a single call.
func (s *Service) SetCustomClaims(ctx context.Context, uid string, claims map[string]interface{}) error {
	if err := s.authClient.SetCustomUserClaims(ctx, uid, claims); err != nil {
		return fmt.Errorf("failed to set custom claims for %s: %w", uid, err)
	}
	return nil
}

// DeleteAccount removes the user from Firebase Auth.
func (s *Service) DeleteAccount(ctx context.Context, uid string) error {
	if err := s.authClient.DeleteUser(ctx, uid); err != nil {
		s.logger.Error("Failed to delete Firebase user", zap.Error(err), zap.String("uid", uid))
		return fmt.Errorf("failed to delete Firebase user %s: %w", uid, err)
	}
	s.logger.Info("Firebase user deleted", zap.String("uid", uid))
	return nil
}

// SubscribeToTopic subscribes a registration token to a topic.
func (s *Service) SubscribeToTopic(ctx context.Context, token, topic string) error {
	resp, err := s.messagingClient.SubscribeToTopic(ctx, []string{token}, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe token to topic %s: %w", topic, err)
	}
	if resp.FailureCount > 0 {
		return fmt.Errorf("subscription to topic %s rejected for %d token(s)", topic, resp.FailureCount)
	}
	return nil
}

// UnsubscribeFromTopic removes a registration token from a topic.
func (s *Service) UnsubscribeFromTopic(ctx context.Context, token, topic string) error {
	resp, err := s.messagingClient.UnsubscribeFromTopic(ctx, []string{token}, topic)
	if err != nil {
		return fmt.Errorf("failed to unsubscribe token from topic %s: %w", topic, err)
	}
	if resp.FailureCount > 0 {
		return fmt.Errorf("unsubscription from topic %s rejected for %d token(s)", topic, resp.FailureCount)
	}
	return nil
}

// SendToTopic sends a notification message to every subscriber of a topic.
func (s *Service) SendToTopic(ctx context.Context, topic, title, body string) error {
	msg := &messaging.Message{
		Topic: topic,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	}
	id, err := s.messagingClient.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send notification to topic %s: %w", topic, err)
	}
	s.logger.Debug("Push notification sent", zap.String("topic", topic), zap.String("messageID", id))
	return nil
}
