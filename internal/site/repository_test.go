package site

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Site{}, &SiteDomain{}))
	return db
}

func seedSite(t *testing.T, repo Repository, owner, name string, domains ...SiteDomain) *Site {
	t.Helper()
	s := &Site{
		OwnerUID:     owner,
		SiteName:     name,
		SiteType:     TypeVitrine,
		APIKeySuffix: owner + "-" + name + "-suffix",
		Domains:      domains,
	}
	require.NoError(t, repo.Create(context.Background(), s))
	return s
}

func TestRepositoryCreateAndFind(t *testing.T) {
	repo := NewGORMRepository(newTestDB(t))
	ctx := context.Background()

	created := seedSite(t, repo, "u1", "Shop",
		SiteDomain{Value: "shop.example.com", Position: 0},
		SiteDomain{Value: "localhost:3000", Position: 1},
	)
	assert.NotEqual(t, uuid.Nil, created.ID)

	found, err := repo.FindByOwnerAndName(ctx, "u1", "Shop")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, found.Domains, 2)
	assert.Equal(t, "shop.example.com", found.Domains[0].Value)
	assert.Equal(t, "localhost:3000", found.Domains[1].Value)

	missing, err := repo.FindByOwnerAndName(ctx, "u1", "Nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryDuplicateOwnerAndName(t *testing.T) {
	repo := NewGORMRepository(newTestDB(t))
	ctx := context.Background()

	seedSite(t, repo, "u1", "Shop", SiteDomain{Value: "a.co"})

	dup := &Site{
		OwnerUID:     "u1",
		SiteName:     "Shop",
		SiteType:     TypeLanding,
		APIKeySuffix: "different-suffix",
	}
	err := repo.Create(ctx, dup)
	assert.True(t, errors.Is(err, ErrDuplicateSite), "expected ErrDuplicateSite, got %v", err)

	// The same name under a different owner is fine.
	other := &Site{
		OwnerUID:     "u2",
		SiteName:     "Shop",
		SiteType:     TypeLanding,
		APIKeySuffix: "other-owner-suffix",
	}
	assert.NoError(t, repo.Create(ctx, other))
}

func TestRepositoryCountByOwner(t *testing.T) {
	repo := NewGORMRepository(newTestDB(t))
	ctx := context.Background()

	count, err := repo.CountByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	seedSite(t, repo, "u1", "One", SiteDomain{Value: "one.example.com"})
	seedSite(t, repo, "u1", "Two", SiteDomain{Value: "two.example.com"})
	seedSite(t, repo, "u2", "Other", SiteDomain{Value: "other.example.com"})

	count, err = repo.CountByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRepositoryFindByLockedDomain(t *testing.T) {
	repo := NewGORMRepository(newTestDB(t))
	ctx := context.Background()

	seedSite(t, repo, "u1", "Open", SiteDomain{Value: "open.example.com", Locked: false})
	seedSite(t, repo, "u2", "Claimed", SiteDomain{Value: "claimed.example.com", Locked: true})

	// Unlocked domains never collide.
	holder, err := repo.FindByLockedDomain(ctx, "open.example.com")
	require.NoError(t, err)
	assert.Nil(t, holder)

	holder, err = repo.FindByLockedDomain(ctx, "claimed.example.com")
	require.NoError(t, err)
	require.NotNil(t, holder)
	assert.Equal(t, "Claimed", holder.SiteName)

	holder, err = repo.FindByLockedDomain(ctx, "unknown.example.com")
	require.NoError(t, err)
	assert.Nil(t, holder)
}

func TestRepositoryDeleteAllByOwner(t *testing.T) {
	db := newTestDB(t)
	repo := NewGORMRepository(db)
	ctx := context.Background()

	seedSite(t, repo, "u1", "One", SiteDomain{Value: "one.example.com"})
	seedSite(t, repo, "u1", "Two", SiteDomain{Value: "two.example.com"})
	kept := seedSite(t, repo, "u2", "Keep", SiteDomain{Value: "keep.example.com"})

	require.NoError(t, repo.DeleteAllByOwner(ctx, "u1"))

	count, err := repo.CountByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	var domainCount int64
	require.NoError(t, db.Model(&SiteDomain{}).Count(&domainCount).Error)
	assert.Equal(t, int64(1), domainCount)

	remaining, err := repo.FindAllByOwner(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, kept.SiteName, remaining[0].SiteName)

	// Deleting an owner with no sites is a no-op.
	assert.NoError(t, repo.DeleteAllByOwner(ctx, "u1"))
}
