package biz

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/identity"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/permissions"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/store"
)

// fakeBackend is an in-memory identity backend for state machine tests.
type fakeBackend struct {
	mu        sync.Mutex
	session   *identity.Session
	signInErr error
	signOuts  int
	callbacks []identity.Callback
}

func (f *fakeBackend) SignUp(ctx context.Context, email, password string, meta identity.Metadata) (*identity.Session, error) {
	return f.SignIn(ctx, email, password)
}

func (f *fakeBackend) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.signInErr != nil {
		return nil, f.signInErr
	}

	return f.session, nil
}

func (f *fakeBackend) SignOut(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.signOuts++
	f.session = nil

	return nil
}

func (f *fakeBackend) CurrentSession(ctx context.Context) (*identity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.session, nil
}

func (f *fakeBackend) OnAuthStateChange(cb identity.Callback) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.callbacks = append(f.callbacks, cb)

	return func() {}
}

func (f *fakeBackend) emit(event identity.Event) {
	f.mu.Lock()
	callbacks := append([]identity.Callback(nil), f.callbacks...)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(event, nil)
	}
}

func (f *fakeBackend) signOutCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.signOuts
}

func (f *fakeBackend) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	return nil
}

func (f *fakeBackend) SendPasswordReset(ctx context.Context, email string) error {
	return nil
}

func (f *fakeBackend) DeleteUser(ctx context.Context, userID string) error {
	return nil
}

type fakeProfileLoader func(ctx context.Context, id string) (*store.Profile, error)

func (f fakeProfileLoader) GetProfile(ctx context.Context, id string) (*store.Profile, error) {
	return f(ctx, id)
}

type fakeOrgLoader func(ctx context.Context, id string) (*store.Organization, error)

func (f fakeOrgLoader) GetByID(ctx context.Context, id string) (*store.Organization, error) {
	return f(ctx, id)
}

func recoverySession() *identity.Session {
	return &identity.Session{
		UserID:    "recovery-id",
		Email:     DefaultRecoveryEmail,
		Token:     "token",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestSessionService_InitializeWithoutSession(t *testing.T) {
	svc := newTestServices(t)
	initializeTestSystem(t, svc)

	snap := svc.Sessions.Initialize(context.Background())
	require.Equal(t, SessionUnauthenticated, snap.State)
	require.False(t, snap.Authenticated())
}

func TestSessionService_SignInResolvesProfile(t *testing.T) {
	svc := newTestServices(t)
	initializeTestSystem(t, svc)
	ctx := context.Background()

	_, err := svc.Orgs.SignUp(ctx, SignUpParams{
		OrganizationName: "Acme",
		FullName:         "Owner",
		Email:            "owner@acme.com",
		Password:         "s3cret-pass",
	})
	require.NoError(t, err)

	snap, err := svc.Sessions.SignIn(ctx, "owner@acme.com", "s3cret-pass")
	require.NoError(t, err)
	require.Equal(t, SessionAuthenticated, snap.State)
	require.Equal(t, "owner@acme.com", snap.Profile.Email)
	require.NotNil(t, snap.Organization)
	require.Equal(t, "acme", snap.Organization.Slug)
	// A fresh organization starts pending, so even its owner is held at the
	// approval gate.
	require.True(t, snap.PendingApproval)
}

func TestSessionService_PendingGateExemptsRecoveryIdentity(t *testing.T) {
	svc := newTestServices(t)
	backend := &fakeBackend{session: recoverySession()}

	sessions := newSessionService(SessionConfig{}, backend,
		fakeProfileLoader(func(ctx context.Context, id string) (*store.Profile, error) {
			return &store.Profile{
				ID:             id,
				Email:          DefaultRecoveryEmail,
				Role:           string(permissions.RoleOwner),
				OrganizationID: "org-1",
				Active:         true,
			}, nil
		}),
		fakeOrgLoader(func(ctx context.Context, id string) (*store.Organization, error) {
			return &store.Organization{ID: id, Name: "Acme", Slug: "acme", Status: store.OrgStatusPending}, nil
		}),
		svc.System,
	)

	snap := sessions.Initialize(context.Background())
	require.Equal(t, SessionAuthenticated, snap.State)
	require.False(t, snap.PendingApproval)
}

func TestSessionService_SignInWrongPassword(t *testing.T) {
	svc := newTestServices(t)
	initializeTestSystem(t, svc)

	snap, err := svc.Sessions.SignIn(context.Background(), DefaultRecoveryEmail, "wrong")
	require.ErrorIs(t, err, ErrInvalidPassword)
	require.Equal(t, SessionUnauthenticated, snap.State)
}

func TestSessionService_PendingGateForMembers(t *testing.T) {
	svc := newTestServices(t)
	initializeTestSystem(t, svc)
	ctx := context.Background()

	_, err := svc.Orgs.SignUp(ctx, SignUpParams{
		OrganizationName: "Acme",
		FullName:         "Owner",
		Email:            "owner@acme.com",
		Password:         "s3cret-pass",
	})
	require.NoError(t, err)

	_, err = svc.Orgs.JoinOrganization(ctx, JoinOrganizationParams{
		OrganizationSlug: "acme",
		FullName:         "Member",
		Email:            "member@acme.com",
		Password:         "s3cret-pass",
	})
	require.NoError(t, err)

	snap, err := svc.Sessions.SignIn(ctx, "member@acme.com", "s3cret-pass")
	require.NoError(t, err)
	require.Equal(t, SessionAuthenticated, snap.State)
	require.True(t, snap.PendingApproval)
}

func TestSessionService_SessionWithoutProfileIsDropped(t *testing.T) {
	svc := newTestServices(t)
	initializeTestSystem(t, svc)
	ctx := context.Background()

	// An identity with no profile row: registered directly against the
	// backend, outside the organization flows.
	_, err := svc.Backend.SignUp(ctx, "ghost@acme.com", "s3cret-pass", identity.Metadata{})
	require.NoError(t, err)

	snap := svc.Sessions.Initialize(ctx)
	require.Equal(t, SessionUnauthenticated, snap.State)

	persisted, err := svc.Backend.CurrentSession(ctx)
	require.NoError(t, err)
	require.Nil(t, persisted)
}

func TestSessionService_SafeModeForRecoveryIdentity(t *testing.T) {
	svc := newTestServices(t)
	backend := &fakeBackend{session: recoverySession()}

	sessions := newSessionService(SessionConfig{}, backend,
		fakeProfileLoader(func(ctx context.Context, id string) (*store.Profile, error) {
			return nil, identity.NewError(identity.CodeRecursivePolicy, "infinite recursion detected in policy")
		}),
		fakeOrgLoader(func(ctx context.Context, id string) (*store.Organization, error) {
			return nil, ErrOrganizationNotFound
		}),
		svc.System,
	)

	snap := sessions.Initialize(context.Background())
	require.Equal(t, SessionSafeMode, snap.State)
	require.True(t, snap.Authenticated())
	require.Equal(t, string(permissions.RoleOwner), snap.Profile.Role)
	require.Equal(t, DefaultRecoveryEmail, snap.Profile.Email)
	// Safe mode carries a synthesized organization so tenant-scoped screens
	// keep working while the backend is repaired.
	require.NotNil(t, snap.Organization)
	require.Equal(t, store.OrgStatusActive, snap.Organization.Status)
	require.Equal(t, snap.Profile.OrganizationID, snap.Organization.ID)
	require.Zero(t, backend.signOutCount())
}

func TestSessionService_SignInRecoveryFallbackOnBackendOutage(t *testing.T) {
	svc := newTestServices(t)
	backend := &fakeBackend{signInErr: errors.New("connection refused")}

	sessions := newSessionService(SessionConfig{}, backend,
		fakeProfileLoader(func(ctx context.Context, id string) (*store.Profile, error) {
			return nil, ErrProfileNotFound
		}),
		fakeOrgLoader(func(ctx context.Context, id string) (*store.Organization, error) {
			return nil, ErrOrganizationNotFound
		}),
		svc.System,
	)

	snap, err := sessions.SignIn(context.Background(), DefaultRecoveryEmail, "recovery-pass")
	require.NoError(t, err)
	require.Equal(t, SessionSafeMode, snap.State)
	require.True(t, snap.Authenticated())
	require.Equal(t, string(permissions.RoleOwner), snap.Profile.Role)
	require.Equal(t, DefaultRecoveryEmail, snap.Profile.Email)
	require.NotNil(t, snap.Organization)
	require.Equal(t, store.OrgStatusActive, snap.Organization.Status)
}

func TestSessionService_SignInBackendErrorPassesThroughForOthers(t *testing.T) {
	svc := newTestServices(t)
	outage := errors.New("connection refused")
	backend := &fakeBackend{signInErr: outage}

	sessions := newSessionService(SessionConfig{}, backend,
		fakeProfileLoader(func(ctx context.Context, id string) (*store.Profile, error) {
			return nil, ErrProfileNotFound
		}),
		fakeOrgLoader(func(ctx context.Context, id string) (*store.Organization, error) {
			return nil, ErrOrganizationNotFound
		}),
		svc.System,
	)

	snap, err := sessions.SignIn(context.Background(), "user@acme.com", "s3cret-pass")
	require.ErrorIs(t, err, outage)
	require.Equal(t, SessionUnauthenticated, snap.State)
}

func TestSessionService_RecursivePolicyForRegularIdentity(t *testing.T) {
	svc := newTestServices(t)
	session := recoverySession()
	session.Email = "user@acme.com"
	backend := &fakeBackend{session: session}

	sessions := newSessionService(SessionConfig{}, backend,
		fakeProfileLoader(func(ctx context.Context, id string) (*store.Profile, error) {
			return nil, identity.NewError(identity.CodeRecursivePolicy, "infinite recursion detected in policy")
		}),
		fakeOrgLoader(func(ctx context.Context, id string) (*store.Organization, error) {
			return nil, ErrOrganizationNotFound
		}),
		svc.System,
	)

	snap := sessions.Initialize(context.Background())
	require.Equal(t, SessionUnauthenticated, snap.State)
	require.Equal(t, 1, backend.signOutCount())
}

func TestSessionService_StaleResolutionIsDiscarded(t *testing.T) {
	svc := newTestServices(t)
	backend := &fakeBackend{session: recoverySession()}

	block := make(chan struct{})
	entered := make(chan struct{})

	sessions := newSessionService(SessionConfig{}, backend,
		fakeProfileLoader(func(ctx context.Context, id string) (*store.Profile, error) {
			close(entered)
			<-block

			return &store.Profile{ID: id, Email: DefaultRecoveryEmail, Role: string(permissions.RoleOwner), Active: true}, nil
		}),
		fakeOrgLoader(func(ctx context.Context, id string) (*store.Organization, error) {
			return nil, ErrOrganizationNotFound
		}),
		svc.System,
	)

	done := make(chan SessionSnapshot)

	go func() {
		snap, _ := sessions.SignIn(context.Background(), DefaultRecoveryEmail, "recovery-pass")
		done <- snap
	}()

	<-entered

	// Sign-out wins: the in-flight resolution committed under an older epoch
	// must not resurrect the session.
	require.NoError(t, sessions.SignOut(context.Background()))
	close(block)

	snap := <-done
	require.Equal(t, SessionUnauthenticated, snap.State)
	require.Equal(t, SessionUnauthenticated, sessions.Snapshot().State)
}

func TestSessionService_SignOutClearsResidualState(t *testing.T) {
	svc := newTestServices(t)
	initializeTestSystem(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.System.CompleteOnboarding(ctx))

	snap, err := svc.Sessions.SignIn(ctx, DefaultRecoveryEmail, "recovery-pass")
	require.NoError(t, err)
	require.Equal(t, SessionAuthenticated, snap.State)

	require.NoError(t, svc.Sessions.SignOut(ctx))
	require.Equal(t, SessionUnauthenticated, svc.Sessions.Snapshot().State)

	record, err := svc.System.OnboardingInfo(ctx)
	require.NoError(t, err)
	require.Nil(t, record)

	persisted, err := svc.Backend.CurrentSession(ctx)
	require.NoError(t, err)
	require.Nil(t, persisted)
}

func TestSessionService_SubscribeAndBackendEvents(t *testing.T) {
	svc := newTestServices(t)
	backend := &fakeBackend{session: recoverySession()}

	sessions := newSessionService(SessionConfig{}, backend,
		fakeProfileLoader(func(ctx context.Context, id string) (*store.Profile, error) {
			return &store.Profile{ID: id, Email: DefaultRecoveryEmail, Role: string(permissions.RoleOwner), Active: true}, nil
		}),
		fakeOrgLoader(func(ctx context.Context, id string) (*store.Organization, error) {
			return nil, ErrOrganizationNotFound
		}),
		svc.System,
	)
	require.NoError(t, sessions.Start(context.Background()))

	t.Cleanup(func() { _ = sessions.Stop(context.Background()) })

	var states []SessionState

	unsubscribe := sessions.Subscribe(func(snap SessionSnapshot) {
		states = append(states, snap.State)
	})

	require.Equal(t, []SessionState{SessionUninitialized}, states)

	snap := sessions.Initialize(context.Background())
	require.Equal(t, SessionAuthenticated, snap.State)

	// An external revocation forces the session out.
	backend.emit(identity.EventTokenRevoked)
	require.Equal(t, SessionUnauthenticated, sessions.Snapshot().State)

	require.Equal(t, []SessionState{
		SessionUninitialized,
		SessionLoading,
		SessionAuthenticated,
		SessionUnauthenticated,
	}, states)

	unsubscribe()
	sessions.Initialize(context.Background())
	require.Len(t, states, 4)
}

func TestSessionService_HistoryRecordsTransitions(t *testing.T) {
	svc := newTestServices(t)
	initializeTestSystem(t, svc)

	ctx := context.Background()

	_, err := svc.Sessions.SignIn(ctx, DefaultRecoveryEmail, "recovery-pass")
	require.NoError(t, err)
	require.NoError(t, svc.Sessions.SignOut(ctx))

	history := svc.Sessions.History()
	require.NotEmpty(t, history)

	states := make([]SessionState, 0, len(history))
	for _, transition := range history {
		states = append(states, transition.State)
	}

	require.Contains(t, states, SessionLoading)
	require.Contains(t, states, SessionAuthenticated)
	require.Equal(t, SessionUnauthenticated, states[len(states)-1])

	authenticated := history[1]
	require.Equal(t, SessionAuthenticated, authenticated.State)
	require.Equal(t, DefaultRecoveryEmail, authenticated.Email)
	require.False(t, authenticated.At.IsZero())
}

func TestSessionService_HistorySince(t *testing.T) {
	svc := newTestServices(t)
	initializeTestSystem(t, svc)

	ctx := context.Background()

	_, err := svc.Sessions.SignIn(ctx, DefaultRecoveryEmail, "recovery-pass")
	require.NoError(t, err)

	cut := time.Now()

	require.NoError(t, svc.Sessions.SignOut(ctx))

	all := svc.Sessions.History()
	recent := svc.Sessions.HistorySince(cut)

	require.NotEmpty(t, recent)
	require.Less(t, len(recent), len(all))
	require.Equal(t, SessionUnauthenticated, recent[len(recent)-1].State)

	for _, transition := range recent {
		require.False(t, transition.At.Before(cut))
	}
}
