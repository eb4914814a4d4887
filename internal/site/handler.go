// File: internal/site/handler.go
package site

import (
	"gratias_backend/internal/common"
	"gratias_backend/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for site handlers.
type Handler struct {
	service Service
	cfg     *config.Config
	logger  *zap.Logger
}

// NewHandler creates a new site handler.
func NewHandler(service Service, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		cfg:     cfg,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for site operations. All routes require
// authentication. The destructive reset route is only mounted outside release
// mode.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	siteGroup := router.Group("/sites")
	siteGroup.Use(authMW)
	{
		siteGroup.POST("", h.createSite)
		siteGroup.GET("", h.getOwnSites)
	}

	if h.cfg.GinMode != gin.ReleaseMode {
		devGroup := router.Group("/dev")
		devGroup.Use(authMW)
		devGroup.POST("/cleanup", h.resetOwnSites)
	}
}

func (h *Handler) createSite(c *gin.Context) {
	uid := common.GetFirebaseUIDFromContext(c)
	if uid == "" {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	var req CreateSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Create site: malformed request body", zap.Error(err), zap.String("uid", uid))
		common.RespondWithError(c, common.ErrInvalidInput.WithDetails("Corps de requête JSON invalide"))
		return
	}

	resp, err := h.service.CreateSite(c.Request.Context(), uid, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Site créé avec succès.", resp)
}

func (h *Handler) getOwnSites(c *gin.Context) {
	uid := common.GetFirebaseUIDFromContext(c)
	if uid == "" {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	sites, err := h.service.GetOwnSites(c.Request.Context(), uid)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "", sites)
}

func (h *Handler) resetOwnSites(c *gin.Context) {
	uid := common.GetFirebaseUIDFromContext(c)
	if uid == "" {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	if err := h.service.ResetOwnerSites(c.Request.Context(), uid); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Sites supprimés.", gin.H{"success": true})
}
