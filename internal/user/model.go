// File: internal/user/model.go
package user

import (
	"gratias_backend/internal/common"
	"gratias_backend/internal/shared"
)

// User is the locally persisted profile for one identity-provider account.
// The identity provider remains authoritative for authentication; this row
// holds plan, quota and notification preferences.
type User struct {
	common.BaseModel
	FirebaseUID               string  `gorm:"type:varchar(128);not null;uniqueIndex"`
	Plan                      string  `gorm:"type:varchar(50);not null;default:'free'"`
	MaxSites                  int     `gorm:"not null;default:2"`
	EmailNotificationsEnabled bool    `gorm:"not null;default:false"`
	PushToken                 *string `gorm:"type:text"`
}

func (User) TableName() string {
	return "users"
}

// ToShared maps the stored row to the cross-package view.
func (u *User) ToShared() *shared.User {
	return &shared.User{
		UID:                       u.FirebaseUID,
		Plan:                      u.Plan,
		MaxSites:                  u.MaxSites,
		EmailNotificationsEnabled: u.EmailNotificationsEnabled,
		PushToken:                 u.PushToken,
		CreatedAt:                 u.CreatedAt,
		UpdatedAt:                 u.UpdatedAt,
	}
}

// --- API DTOs ---

// InitProfileResponse tells the client its claims were provisioned and the
// identity token should be refreshed.
type InitProfileResponse struct {
	Token string `json:"token"`
}

// UpdateEmailNotificationsRequest toggles the email-notification preference.
// Enabled is a pointer so an absent field is distinguishable from false.
type UpdateEmailNotificationsRequest struct {
	Enabled *bool `json:"enabled"`
}

// UpdateEmailNotificationsResponse echoes the stored preference.
type UpdateEmailNotificationsResponse struct {
	EmailNotificationsEnabled bool   `json:"emailNotificationsEnabled"`
	Token                     string `json:"token"`
}

// RegisterPushTokenRequest carries the device push token to subscribe.
type RegisterPushTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// RegisterPushTokenResponse echoes the stored push token.
type RegisterPushTokenResponse struct {
	PushToken string `json:"pushToken"`
}

// SendTestNotificationRequest is the payload for the self-test push.
type SendTestNotificationRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}
