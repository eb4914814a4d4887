// File: internal/common/context_keys.go
package common

const (
	// AuthorizationHeader is the header name for authorization token
	AuthorizationHeader = "Authorization"
	// AuthorizationTypeBearer is the prefix for Bearer tokens
	AuthorizationTypeBearer = "Bearer"
	// FirebaseUIDKey is the context key for storing the authenticated Firebase UID
	FirebaseUIDKey = "firebaseUID"
	// UserEmailKey is the context key for storing the authenticated user's email
	UserEmailKey = "userEmail"
)
