package user

import (
	"context"
	"errors"
	"testing"

	"gratias_backend/internal/claims"
	"gratias_backend/internal/common"
	"gratias_backend/internal/config"
	"gratias_backend/internal/site"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockRepository is a mock type for user.Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindByUID(ctx context.Context, uid string) (*User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockRepository) Update(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockRepository) DeleteByUID(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

func (m *MockRepository) ListAll(ctx context.Context) ([]User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]User), args.Error(1)
}

// MockSiteRepository is a mock type for site.Repository.
type MockSiteRepository struct {
	mock.Mock
}

func (m *MockSiteRepository) Create(ctx context.Context, s *site.Site) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSiteRepository) CountByOwner(ctx context.Context, ownerUID string) (int64, error) {
	args := m.Called(ctx, ownerUID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSiteRepository) FindByOwnerAndName(ctx context.Context, ownerUID, siteName string) (*site.Site, error) {
	args := m.Called(ctx, ownerUID, siteName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*site.Site), args.Error(1)
}

func (m *MockSiteRepository) FindAllByOwner(ctx context.Context, ownerUID string) ([]site.Site, error) {
	args := m.Called(ctx, ownerUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]site.Site), args.Error(1)
}

func (m *MockSiteRepository) FindByLockedDomain(ctx context.Context, domainValue string) (*site.Site, error) {
	args := m.Called(ctx, domainValue)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*site.Site), args.Error(1)
}

func (m *MockSiteRepository) DeleteAllByOwner(ctx context.Context, ownerUID string) error {
	args := m.Called(ctx, ownerUID)
	return args.Error(0)
}

// MockSyncer is a mock type for claims.Syncer.
type MockSyncer struct {
	mock.Mock
}

func (m *MockSyncer) SyncAfterEvent(ctx context.Context, uid string, event claims.Event, patch claims.Patch) error {
	args := m.Called(ctx, uid, event, patch)
	return args.Error(0)
}

func (m *MockSyncer) EnsureInitialClaims(ctx context.Context, uid string, patch claims.Patch) (bool, error) {
	args := m.Called(ctx, uid, patch)
	return args.Bool(0), args.Error(1)
}

// MockMessenger is a mock type for shared.TopicMessenger.
type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) SubscribeToTopic(ctx context.Context, token, topic string) error {
	args := m.Called(ctx, token, topic)
	return args.Error(0)
}

func (m *MockMessenger) UnsubscribeFromTopic(ctx context.Context, token, topic string) error {
	args := m.Called(ctx, token, topic)
	return args.Error(0)
}

func (m *MockMessenger) SendToTopic(ctx context.Context, topic, title, body string) error {
	args := m.Called(ctx, topic, title, body)
	return args.Error(0)
}

// MockAccountDeleter is a mock type for shared.AccountDeleter.
type MockAccountDeleter struct {
	mock.Mock
}

func (m *MockAccountDeleter) DeleteAccount(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

type serviceFixture struct {
	repo      *MockRepository
	sites     *MockSiteRepository
	syncer    *MockSyncer
	messenger *MockMessenger
	accounts  *MockAccountDeleter
	svc       Service
}

func newServiceFixture() *serviceFixture {
	repo := new(MockRepository)
	sites := new(MockSiteRepository)
	syncer := new(MockSyncer)
	messenger := new(MockMessenger)
	accounts := new(MockAccountDeleter)
	cfg := &config.Config{DefaultPlan: "free", DefaultMaxSites: 2}
	return &serviceFixture{
		repo:      repo,
		sites:     sites,
		syncer:    syncer,
		messenger: messenger,
		accounts:  accounts,
		svc:       NewService(repo, sites, syncer, messenger, accounts, cfg, zap.NewNop()),
	}
}

func storedUser(uid string) *User {
	return &User{
		FirebaseUID:               uid,
		Plan:                      "free",
		MaxSites:                  2,
		EmailNotificationsEnabled: false,
	}
}

func TestGetOrCreateByUIDReturnsExisting(t *testing.T) {
	f := newServiceFixture()
	f.repo.On("FindByUID", mock.Anything, "u1").Return(storedUser("u1"), nil)

	u, err := f.svc.GetOrCreateByUID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UID)
	assert.Equal(t, 2, u.MaxSites)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGetOrCreateByUIDCreatesWithDefaults(t *testing.T) {
	f := newServiceFixture()
	f.repo.On("FindByUID", mock.Anything, "u1").Return(nil, nil)

	var created *User
	f.repo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*User)
		}).
		Return(nil)
	f.syncer.On("EnsureInitialClaims", mock.Anything, "u1", mock.Anything).Return(true, nil)

	u, err := f.svc.GetOrCreateByUID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "free", u.Plan)
	assert.Equal(t, 2, u.MaxSites)

	require.NotNil(t, created)
	assert.Equal(t, "u1", created.FirebaseUID)
	f.syncer.AssertExpectations(t)
}

func TestGetOrCreateByUIDLosingRaceIsNoop(t *testing.T) {
	f := newServiceFixture()
	f.repo.On("FindByUID", mock.Anything, "u1").Return(nil, nil).Once()
	f.repo.On("Create", mock.Anything, mock.Anything).Return(ErrDuplicateUser)
	f.repo.On("FindByUID", mock.Anything, "u1").Return(storedUser("u1"), nil).Once()

	u, err := f.svc.GetOrCreateByUID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UID)
	f.syncer.AssertNotCalled(t, "EnsureInitialClaims", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetOrCreateByUIDCreationStillSucceedsWhenClaimsSeedFails(t *testing.T) {
	f := newServiceFixture()
	f.repo.On("FindByUID", mock.Anything, "u1").Return(nil, nil)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.syncer.On("EnsureInitialClaims", mock.Anything, "u1", mock.Anything).
		Return(false, errors.New("provider down"))

	u, err := f.svc.GetOrCreateByUID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UID)
}

func TestInitProfileProvisionsClaims(t *testing.T) {
	f := newServiceFixture()
	f.repo.On("FindByUID", mock.Anything, "u1").Return(storedUser("u1"), nil)

	var patch claims.Patch
	f.syncer.On("EnsureInitialClaims", mock.Anything, "u1", mock.Anything).
		Run(func(args mock.Arguments) {
			patch = args.Get(2).(claims.Patch)
		}).
		Return(true, nil)

	resp, err := f.svc.InitProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "reload", resp.Token)

	require.NotNil(t, patch.Plan)
	assert.Equal(t, "free", *patch.Plan)
	require.NotNil(t, patch.Status)
	assert.Equal(t, claims.StatusActive, *patch.Status)
	require.NotNil(t, patch.MaxSites)
	assert.Equal(t, 2, *patch.MaxSites)
}

func TestSetEmailNotifications(t *testing.T) {
	f := newServiceFixture()
	f.repo.On("FindByUID", mock.Anything, "u1").Return(storedUser("u1"), nil)

	var updated *User
	f.repo.On("Update", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			updated = args.Get(1).(*User)
		}).
		Return(nil)

	var event claims.Event
	var patch claims.Patch
	f.syncer.On("SyncAfterEvent", mock.Anything, "u1", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			event = args.Get(2).(claims.Event)
			patch = args.Get(3).(claims.Patch)
		}).
		Return(nil)

	resp, err := f.svc.SetEmailNotifications(context.Background(), "u1", true)
	require.NoError(t, err)
	assert.True(t, resp.EmailNotificationsEnabled)
	assert.Equal(t, "reload", resp.Token)

	require.NotNil(t, updated)
	assert.True(t, updated.EmailNotificationsEnabled)

	assert.Equal(t, claims.EmailNotificationsCategory, event.Category)
	assert.Contains(t, event.Message, claims.EmailNotificationsCategory)
	require.NotNil(t, patch.EmailNotificationsEnabled)
	assert.True(t, *patch.EmailNotificationsEnabled)
}

func TestRegisterPushTokenRequiresToken(t *testing.T) {
	f := newServiceFixture()

	_, err := f.svc.RegisterPushToken(context.Background(), "u1", "")
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_INPUT", apiErr.Code)
	f.messenger.AssertNotCalled(t, "SubscribeToTopic", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterPushTokenReplacesPreviousToken(t *testing.T) {
	f := newServiceFixture()
	old := "old-token"
	existing := storedUser("u1")
	existing.PushToken = &old
	f.repo.On("FindByUID", mock.Anything, "u1").Return(existing, nil)

	// Unsubscribing the stale token is best-effort.
	f.messenger.On("UnsubscribeFromTopic", mock.Anything, "old-token", "user_u1").
		Return(errors.New("stale token"))
	f.messenger.On("SubscribeToTopic", mock.Anything, "new-token", "user_u1").Return(nil)
	f.repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	resp, err := f.svc.RegisterPushToken(context.Background(), "u1", "new-token")
	require.NoError(t, err)
	assert.Equal(t, "new-token", resp.PushToken)
	f.messenger.AssertExpectations(t)
}

func TestRegisterPushTokenSubscribeFailureIsBestEffort(t *testing.T) {
	f := newServiceFixture()
	f.repo.On("FindByUID", mock.Anything, "u1").Return(storedUser("u1"), nil)

	var updated *User
	f.repo.On("Update", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			updated = args.Get(1).(*User)
		}).
		Return(nil)
	f.messenger.On("SubscribeToTopic", mock.Anything, "tok", "user_u1").
		Return(errors.New("messaging down"))

	// The token is persisted before the subscription attempt, so a transient
	// FCM failure neither loses it nor fails the request.
	resp, err := f.svc.RegisterPushToken(context.Background(), "u1", "tok")
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.PushToken)
	require.NotNil(t, updated)
	require.NotNil(t, updated.PushToken)
	assert.Equal(t, "tok", *updated.PushToken)
	f.messenger.AssertExpectations(t)
}

func TestDeleteAccountOrdering(t *testing.T) {
	f := newServiceFixture()
	tok := "push-token"
	existing := storedUser("u1")
	existing.PushToken = &tok

	f.repo.On("FindByUID", mock.Anything, "u1").Return(existing, nil)
	// Unsubscribe failure must not stop the deletion.
	f.messenger.On("UnsubscribeFromTopic", mock.Anything, "push-token", "user_u1").
		Return(errors.New("already gone"))
	f.sites.On("DeleteAllByOwner", mock.Anything, "u1").Return(nil)
	f.repo.On("DeleteByUID", mock.Anything, "u1").Return(nil)
	f.accounts.On("DeleteAccount", mock.Anything, "u1").Return(nil)

	err := f.svc.DeleteAccount(context.Background(), "u1")
	require.NoError(t, err)
	f.sites.AssertExpectations(t)
	f.repo.AssertExpectations(t)
	f.accounts.AssertExpectations(t)
}

func TestDeleteAccountProviderFailureIsSurfaced(t *testing.T) {
	f := newServiceFixture()
	f.repo.On("FindByUID", mock.Anything, "u1").Return(storedUser("u1"), nil)
	f.sites.On("DeleteAllByOwner", mock.Anything, "u1").Return(nil)
	f.repo.On("DeleteByUID", mock.Anything, "u1").Return(nil)
	f.accounts.On("DeleteAccount", mock.Anything, "u1").Return(errors.New("provider down"))

	err := f.svc.DeleteAccount(context.Background(), "u1")
	assert.Error(t, err)
	// Local cleanup already ran; the provider failure is still reported.
	f.sites.AssertCalled(t, "DeleteAllByOwner", mock.Anything, "u1")
	f.repo.AssertCalled(t, "DeleteByUID", mock.Anything, "u1")
}

func TestSendTestNotificationRequiresPushToken(t *testing.T) {
	f := newServiceFixture()
	f.repo.On("FindByUID", mock.Anything, "u1").Return(storedUser("u1"), nil)

	err := f.svc.SendTestNotification(context.Background(), "u1", "", "")
	assert.Error(t, err)
	f.messenger.AssertNotCalled(t, "SendToTopic", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendTestNotificationDefaults(t *testing.T) {
	f := newServiceFixture()
	tok := "push-token"
	existing := storedUser("u1")
	existing.PushToken = &tok
	f.repo.On("FindByUID", mock.Anything, "u1").Return(existing, nil)

	var title, body string
	f.messenger.On("SendToTopic", mock.Anything, "user_u1", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			title = args.Get(2).(string)
			body = args.Get(3).(string)
		}).
		Return(nil)

	err := f.svc.SendTestNotification(context.Background(), "u1", "", "")
	require.NoError(t, err)
	assert.Equal(t, "Test", title)
	assert.Equal(t, "Notification de test", body)
}
