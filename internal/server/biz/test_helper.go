package biz

import (
	"context"
	"testing"

	"github.com/uptrace/bun"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/identity"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/identity/local"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/permissions"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/pkg/watcher"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/pkg/xcache"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/store"
)

type testServices struct {
	DB       *bun.DB
	Backend  identity.Backend
	Settings *SettingService
	System   *SystemService
	Users    *UserService
	Orgs     *OrganizationService
	Sessions *SessionService
	Auth     *AuthService
	Matrix   *permissions.Store
	Notifier watcher.Notifier[MatrixChange]
	Sync     *MatrixSync
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	db := store.OpenForTest(t)
	cacheConfig := xcache.Config{Mode: xcache.ModeMemory}

	settings := NewSettingService(SettingServiceParams{
		CacheConfig: cacheConfig,
		DB:          db,
	})
	system := NewSystemService(SystemServiceParams{
		DB:             db,
		SettingService: settings,
	})

	backend := local.New(db, local.Config{}, func(ctx context.Context) (string, error) {
		return system.SecretKey(ctx)
	})

	users := NewUserService(UserServiceParams{
		CacheConfig: cacheConfig,
		DB:          db,
	})
	orgs := NewOrganizationService(OrganizationServiceParams{
		DB:          db,
		Backend:     backend,
		UserService: users,
	})
	sessions := NewSessionService(SessionServiceParams{
		Config:              SessionConfig{},
		Backend:             backend,
		UserService:         users,
		OrganizationService: orgs,
		SystemService:       system,
	})

	auth := NewAuthService(AuthServiceParams{
		SystemService:  system,
		UserService:    users,
		SettingService: settings,
	})

	matrix := permissions.NewStore(settings)
	notifier := watcher.NewMemoryWatcher[MatrixChange](watcher.MemoryWatcherOptions{Buffer: 1})
	sync := NewMatrixSync(MatrixSyncParams{
		Matrix:   matrix,
		Notifier: notifier,
	})

	return &testServices{
		DB:       db,
		Backend:  backend,
		Settings: settings,
		System:   system,
		Users:    users,
		Orgs:     orgs,
		Sessions: sessions,
		Auth:     auth,
		Matrix:   matrix,
		Notifier: notifier,
		Sync:     sync,
	}
}

func initializeTestSystem(t *testing.T, svc *testServices) {
	t.Helper()

	err := svc.System.Initialize(context.Background(), &InitializeSystemParams{
		RecoveryEmail:    DefaultRecoveryEmail,
		RecoveryPassword: "recovery-pass",
		RecoveryName:     "Recovery Operator",
		OrganizationName: "Nexus HQ",
		OrganizationSlug: "nexus-hq",
		Plan:             "enterprise",
	})
	if err != nil {
		t.Fatalf("initialize test system: %v", err)
	}
}
