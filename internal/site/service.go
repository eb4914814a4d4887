// File: internal/site/service.go
package site

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"gratias_backend/internal/claims"
	"gratias_backend/internal/common"
	"gratias_backend/internal/config"
	"gratias_backend/internal/platform/crypto"
	"gratias_backend/internal/shared"

	"go.uber.org/zap"
)

// Service defines the interface for site business logic.
type Service interface {
	CreateSite(ctx context.Context, ownerUID string, req CreateSiteRequest) (*CreateSiteResponse, error)
	GetOwnSites(ctx context.Context, ownerUID string) ([]SiteResponse, error)
	// ResetOwnerSites wipes every site for the owner and zeroes the mirrored
	// site count. Exposed on a development-only route.
	ResetOwnerSites(ctx context.Context, ownerUID string) error
}

type service struct {
	repo   Repository
	users  shared.UserProvider
	syncer claims.Syncer
	cfg    *config.Config
	logger *zap.Logger
}

// NewService creates a new site service.
func NewService(
	repo Repository,
	users shared.UserProvider,
	syncer claims.Syncer,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	return &service{
		repo:   repo,
		users:  users,
		syncer: syncer,
		cfg:    cfg,
		logger: logger.Named("SiteService"),
	}
}

// CreateSite registers a new site for the owner. Checks run in a fixed order
// so the cheapest rejections happen first and the quota check precedes domain
// validation as an admission-control short-circuit.
func (s *service) CreateSite(ctx context.Context, ownerUID string, req CreateSiteRequest) (*CreateSiteResponse, error) {
	user, err := s.users.GetOrCreateByUID(ctx, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("resolving user %s: %w", ownerUID, err)
	}

	if req.SiteName == "" || len(req.Domains) == 0 || req.SiteType == "" {
		return nil, common.ErrMissingFields
	}
	if utf8.RuneCountInString(req.SiteName) > MaxSiteNameLength {
		return nil, common.ErrSiteNameTooLong
	}
	siteType := SiteType(req.SiteType)
	if !siteType.IsValid() {
		return nil, common.ErrInvalidSiteType.WithDetails(fmt.Sprintf("Type reçu: %q", req.SiteType))
	}

	count, err := s.repo.CountByOwner(ctx, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("counting sites for %s: %w", ownerUID, err)
	}
	if count >= int64(user.MaxSites) {
		s.logger.Info("Site quota reached",
			zap.String("uid", ownerUID),
			zap.Int64("site_count", count),
			zap.Int("max_sites", user.MaxSites),
		)
		return nil, common.ErrSiteQuotaExceeded
	}

	normalized := make([]string, 0, len(req.Domains))
	for _, raw := range req.Domains {
		domain := NormalizeDomain(raw)
		if !IsValidDomain(domain) {
			return nil, common.ErrInvalidDomain.WithDetails(fmt.Sprintf("Domaine invalide: %q", raw))
		}
		normalized = append(normalized, domain)
	}

	for _, domain := range normalized {
		holder, err := s.repo.FindByLockedDomain(ctx, domain)
		if err != nil {
			return nil, fmt.Errorf("checking locked domain %s: %w", domain, err)
		}
		if holder != nil {
			return nil, common.ErrDomainAlreadyExists.WithDetails(fmt.Sprintf("Domaine déjà utilisé: %q", domain))
		}
	}

	suffix := crypto.NewAPIKeySuffix()
	newSite := &Site{
		OwnerUID:     ownerUID,
		SiteName:     req.SiteName,
		SiteType:     siteType,
		APIKeySuffix: suffix,
	}
	for i, domain := range normalized {
		newSite.Domains = append(newSite.Domains, SiteDomain{
			Value:    domain,
			Locked:   false,
			Position: i,
		})
	}

	if err := s.repo.Create(ctx, newSite); err != nil {
		if errors.Is(err, ErrDuplicateSite) {
			return nil, common.ErrSiteNameExists
		}
		return nil, fmt.Errorf("persisting site for %s: %w", ownerUID, err)
	}

	// Authoritative recount rather than count+1: tolerates concurrent
	// creations and deletions for the same owner.
	newCount, err := s.repo.CountByOwner(ctx, ownerUID)
	if err != nil {
		s.logger.Warn("Site count refresh failed after creation",
			zap.String("uid", ownerUID), zap.Error(err))
		newCount = count + 1
	}

	// Claims mirroring is best-effort: the site row is the durable outcome.
	event := claims.Event{Message: claims.SiteCreatedMessage(newSite.SiteName, newSite.CreatedAt)}
	patch := claims.Patch{SiteCount: &newCount}
	if err := s.syncer.SyncAfterEvent(ctx, ownerUID, event, patch); err != nil {
		s.logger.Error("Claims sync failed after site creation",
			zap.String("uid", ownerUID), zap.Error(err))
	}

	s.logger.Info("Site created",
		zap.String("uid", ownerUID),
		zap.String("site_name", newSite.SiteName),
		zap.Int64("site_count", newCount),
	)

	return &CreateSiteResponse{
		APIKey: s.cfg.APIKeyPublicPrefix + suffix,
		Token:  "reload",
	}, nil
}

// ResetOwnerSites deletes all of the owner's sites and mirrors the zero count
// into claims.
func (s *service) ResetOwnerSites(ctx context.Context, ownerUID string) error {
	if err := s.repo.DeleteAllByOwner(ctx, ownerUID); err != nil {
		return fmt.Errorf("resetting sites for %s: %w", ownerUID, err)
	}
	var zero int64
	if err := s.syncer.SyncAfterEvent(ctx, ownerUID, claims.Event{}, claims.Patch{SiteCount: &zero}); err != nil {
		s.logger.Error("Claims sync failed after site reset",
			zap.String("uid", ownerUID), zap.Error(err))
	}
	s.logger.Info("Sites reset", zap.String("uid", ownerUID))
	return nil
}

// GetOwnSites returns the caller's sites in creation order.
func (s *service) GetOwnSites(ctx context.Context, ownerUID string) ([]SiteResponse, error) {
	sites, err := s.repo.FindAllByOwner(ctx, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("listing sites for %s: %w", ownerUID, err)
	}
	responses := make([]SiteResponse, 0, len(sites))
	for i := range sites {
		responses = append(responses, sites[i].ToResponse())
	}
	return responses, nil
}
