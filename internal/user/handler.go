// File: internal/user/handler.go
package user

import (
	"errors"

	"gratias_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for user handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new user handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for user operations. All routes require
// authentication; the identity always comes from the verified token, never
// from the payload.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	userGroup := router.Group("/users")
	userGroup.Use(authMW)
	{
		userGroup.POST("/init-profile", h.initProfile)
		userGroup.PUT("/me/email-notifications", h.setEmailNotifications)
		userGroup.PUT("/me/push-token", h.registerPushToken)
		userGroup.POST("/me/test-notification", h.sendTestNotification)
		userGroup.DELETE("/me", h.deleteAccount)
	}
}

func (h *Handler) initProfile(c *gin.Context) {
	uid := common.GetFirebaseUIDFromContext(c)
	if uid == "" {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	resp, err := h.service.InitProfile(c.Request.Context(), uid)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Profil initialisé.", resp)
}

func (h *Handler) setEmailNotifications(c *gin.Context) {
	uid := common.GetFirebaseUIDFromContext(c)
	if uid == "" {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	var req UpdateEmailNotificationsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		common.RespondWithError(c, common.ErrInvalidInput.WithDetails("Le champ 'enabled' est requis"))
		return
	}

	resp, err := h.service.SetEmailNotifications(c.Request.Context(), uid, *req.Enabled)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Préférence mise à jour.", resp)
}

func (h *Handler) registerPushToken(c *gin.Context) {
	uid := common.GetFirebaseUIDFromContext(c)
	if uid == "" {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	var req RegisterPushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(validationErrs)))
			return
		}
		common.RespondWithError(c, common.ErrInvalidInput.WithDetails("Corps de requête JSON invalide"))
		return
	}

	resp, err := h.service.RegisterPushToken(c.Request.Context(), uid, req.Token)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Token de notification enregistré.", resp)
}

func (h *Handler) sendTestNotification(c *gin.Context) {
	uid := common.GetFirebaseUIDFromContext(c)
	if uid == "" {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	var req SendTestNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// An empty body is fine; defaults apply.
		req = SendTestNotificationRequest{}
	}

	if err := h.service.SendTestNotification(c.Request.Context(), uid, req.Title, req.Body); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Notification de test envoyée.", nil)
}

func (h *Handler) deleteAccount(c *gin.Context) {
	uid := common.GetFirebaseUIDFromContext(c)
	if uid == "" {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	if err := h.service.DeleteAccount(c.Request.Context(), uid); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Compte supprimé.", gin.H{"success": true})
}
