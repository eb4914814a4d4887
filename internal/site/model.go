// File: internal/site/model.go
package site

import (
	"gratias_backend/internal/common"

	"github.com/google/uuid"
)

// SiteType enumerates the kinds of sites a user can register.
type SiteType string

const (
	TypeFormulaire  SiteType = "formulaire"
	TypeVitrine     SiteType = "vitrine"
	TypeReservation SiteType = "reservation"
	TypeLanding     SiteType = "landing"
	TypeAutres      SiteType = "autres"
)

// IsValid reports whether the value is one of the known site types.
func (t SiteType) IsValid() bool {
	switch t {
	case TypeFormulaire, TypeVitrine, TypeReservation, TypeLanding, TypeAutres:
		return true
	}
	return false
}

// MaxSiteNameLength bounds the user-chosen site name.
const MaxSiteNameLength = 15

// Site is a registered site owned by one identity. The API key suffix is the
// only key material stored; the public prefix lives in configuration.
type Site struct {
	common.BaseModel
	OwnerUID     string       `gorm:"type:varchar(128);not null;index;uniqueIndex:idx_owner_site_name"`
	SiteName     string       `gorm:"type:varchar(15);not null;uniqueIndex:idx_owner_site_name"`
	SiteType     SiteType     `gorm:"type:varchar(20);not null"`
	APIKeySuffix string       `gorm:"type:varchar(64);not null;uniqueIndex"`
	Domains      []SiteDomain `gorm:"foreignKey:SiteID;constraint:OnDelete:CASCADE;"`
}

func (Site) TableName() string {
	return "sites"
}

// SiteDomain is one domain attached to a site, in declaration order. Locked
// marks a domain as permanently claimed; creation always writes unlocked
// domains but admission checks collide against locked ones.
type SiteDomain struct {
	common.BaseModel
	SiteID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Value    string    `gorm:"type:varchar(255);not null;index"`
	Locked   bool      `gorm:"not null;default:false"`
	Position int       `gorm:"not null;default:0"`
}

func (SiteDomain) TableName() string {
	return "site_domains"
}

// --- API DTOs ---

// CreateSiteRequest is the inbound payload for site registration. Field
// presence is checked in the service so missing values surface as
// MISSING_FIELDS rather than a generic binding error.
type CreateSiteRequest struct {
	SiteName string   `json:"siteName"`
	Domains  []string `json:"domains"`
	SiteType string   `json:"siteType"`
}

// CreateSiteResponse returns the assembled API key. Token tells the client to
// refresh its identity token because custom claims changed.
type CreateSiteResponse struct {
	APIKey string `json:"apiKey"`
	Token  string `json:"token"`
}

// SiteResponse is the read view of a site.
type SiteResponse struct {
	ID       uuid.UUID        `json:"id"`
	SiteName string           `json:"siteName"`
	SiteType SiteType         `json:"siteType"`
	Domains  []DomainResponse `json:"domains"`
}

// DomainResponse is the read view of one attached domain.
type DomainResponse struct {
	Value  string `json:"value"`
	Locked bool   `json:"locked"`
}

// ToResponse maps a stored site to its read view.
func (s *Site) ToResponse() SiteResponse {
	domains := make([]DomainResponse, 0, len(s.Domains))
	for _, d := range s.Domains {
		domains = append(domains, DomainResponse{Value: d.Value, Locked: d.Locked})
	}
	return SiteResponse{
		ID:       s.ID,
		SiteName: s.SiteName,
		SiteType: s.SiteType,
		Domains:  domains,
	}
}
