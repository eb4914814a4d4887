// File: internal/site/repository.go
package site

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrDuplicateSite is returned by Create when the (owner, site name) pair or
// the API key suffix already exists.
var ErrDuplicateSite = errors.New("site already exists")

// Repository defines the interface for site data operations.
type Repository interface {
	Create(ctx context.Context, site *Site) error
	CountByOwner(ctx context.Context, ownerUID string) (int64, error)
	FindByOwnerAndName(ctx context.Context, ownerUID, siteName string) (*Site, error)
	FindAllByOwner(ctx context.Context, ownerUID string) ([]Site, error)
	// FindByLockedDomain returns any site holding the given domain value with
	// locked = true, or nil when the domain is unclaimed.
	FindByLockedDomain(ctx context.Context, domainValue string) (*Site, error)
	DeleteAllByOwner(ctx context.Context, ownerUID string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM site repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Create inserts the site together with its domain rows in one transaction.
func (r *gormRepository) Create(ctx context.Context, site *Site) error {
	if err := r.db.WithContext(ctx).Create(site).Error; err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateSite
		}
		return fmt.Errorf("failed to create site: %w", err)
	}
	return nil
}

func (r *gormRepository) CountByOwner(ctx context.Context, ownerUID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Site{}).
		Where("owner_uid = ?", ownerUID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count sites for owner: %w", err)
	}
	return count, nil
}

func (r *gormRepository) FindByOwnerAndName(ctx context.Context, ownerUID, siteName string) (*Site, error) {
	var site Site
	err := r.db.WithContext(ctx).
		Preload("Domains", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("owner_uid = ? AND site_name = ?", ownerUID, siteName).
		First(&site).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find site by owner and name: %w", err)
	}
	return &site, nil
}

func (r *gormRepository) FindAllByOwner(ctx context.Context, ownerUID string) ([]Site, error) {
	var sites []Site
	err := r.db.WithContext(ctx).
		Preload("Domains", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("owner_uid = ?", ownerUID).
		Order("created_at ASC").
		Find(&sites).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sites for owner: %w", err)
	}
	return sites, nil
}

func (r *gormRepository) FindByLockedDomain(ctx context.Context, domainValue string) (*Site, error) {
	var site Site
	err := r.db.WithContext(ctx).
		Joins("JOIN site_domains ON site_domains.site_id = sites.id").
		Where("site_domains.value = ? AND site_domains.locked = ?", domainValue, true).
		First(&site).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up locked domain: %w", err)
	}
	return &site, nil
}

// DeleteAllByOwner removes every site and attached domain for an owner.
func (r *gormRepository) DeleteAllByOwner(ctx context.Context, ownerUID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&Site{}).Where("owner_uid = ?", ownerUID).Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("failed to collect site ids for owner: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("site_id IN ?", ids).Delete(&SiteDomain{}).Error; err != nil {
			return fmt.Errorf("failed to delete site domains for owner: %w", err)
		}
		if err := tx.Where("owner_uid = ?", ownerUID).Delete(&Site{}).Error; err != nil {
			return fmt.Errorf("failed to delete sites for owner: %w", err)
		}
		return nil
	})
}

// isDuplicateKeyError covers the translated GORM error plus the raw driver
// messages sqlite and postgres emit when translation misses.
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
