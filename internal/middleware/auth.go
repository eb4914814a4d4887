// File: internal/middleware/auth.go
package middleware

import (
	"gratias_backend/internal/common"
	"gratias_backend/internal/shared"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware creates a Gin middleware that verifies Firebase bearer tokens
// and stores the authenticated identity in the request context.
func AuthMiddleware(verifier shared.TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := common.GetTokenFromContext(c)
		if tokenString == "" {
			logger.Debug("Authorization header missing or malformed")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("En-tête d'autorisation manquant ou invalide. Utilisez le format: Bearer <token>"))
			return
		}

		token, err := verifier.VerifyIDToken(c.Request.Context(), tokenString)
		if err != nil {
			logger.Warn("Firebase token verification failed", zap.Error(err))
			common.RespondWithError(c, mapVerificationError(err))
			return
		}

		c.Set(common.FirebaseUIDKey, token.UID)
		if email, ok := token.Claims["email"].(string); ok {
			c.Set(common.UserEmailKey, email)
		}

		logger.Debug("Request authenticated", zap.String("uid", token.UID))
		c.Next()
	}
}

// mapVerificationError translates Firebase verification failures into stable
// API errors without leaking SDK detail.
func mapVerificationError(err error) *common.APIError {
	switch {
	case firebaseauth.IsIDTokenExpired(err):
		return common.ErrUnauthorized.WithDetails("Le token a expiré. Veuillez vous reconnecter.")
	case firebaseauth.IsIDTokenRevoked(err):
		return common.ErrUnauthorized.WithDetails("Le token a été révoqué. Veuillez vous reconnecter.")
	case firebaseauth.IsUserNotFound(err):
		return common.ErrNotFound.WithDetails("Utilisateur non trouvé")
	default:
		return common.ErrUnauthorized.WithDetails("Token invalide ou expiré")
	}
}
