package local

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/identity"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/store"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()

	db := store.OpenForTest(t)

	return New(db, Config{}, func(ctx context.Context) (string, error) {
		return "test-secret-key", nil
	})
}

func TestSignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	backend := newTestBackend(t)

	session, err := backend.SignUp(ctx, "ana@example.com", "s3cret-pass", identity.Metadata{"full_name": "Ana Souza"})
	require.NoError(t, err)
	require.NotEmpty(t, session.UserID)
	require.Equal(t, "ana@example.com", session.Email)
	require.NotEmpty(t, session.Token)

	again, err := backend.SignIn(ctx, "ana@example.com", "s3cret-pass")
	require.NoError(t, err)
	require.Equal(t, session.UserID, again.UserID)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	backend := newTestBackend(t)

	_, err := backend.SignUp(ctx, "ana@example.com", "s3cret-pass", identity.Metadata{})
	require.NoError(t, err)

	_, err = backend.SignUp(ctx, "ana@example.com", "other-pass", identity.Metadata{})
	require.Error(t, err)
	require.Equal(t, identity.CodeEmailTaken, identity.ErrorCode(err))
}

func TestSignInWrongPassword(t *testing.T) {
	ctx := context.Background()
	backend := newTestBackend(t)

	_, err := backend.SignUp(ctx, "ana@example.com", "s3cret-pass", identity.Metadata{})
	require.NoError(t, err)

	_, err = backend.SignIn(ctx, "ana@example.com", "wrong")
	require.True(t, identity.IsInvalidCredentials(err))

	_, err = backend.SignIn(ctx, "nobody@example.com", "wrong")
	require.True(t, identity.IsInvalidCredentials(err))
}

func TestCurrentSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := newTestBackend(t)

	signedUp, err := backend.SignUp(ctx, "ana@example.com", "s3cret-pass", identity.Metadata{})
	require.NoError(t, err)

	persisted, err := backend.CurrentSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, persisted)
	require.Equal(t, signedUp.UserID, persisted.UserID)

	require.NoError(t, backend.SignOut(ctx))

	persisted, err = backend.CurrentSession(ctx)
	require.NoError(t, err)
	require.Nil(t, persisted)
}

func TestAuthStateCallbacks(t *testing.T) {
	ctx := context.Background()
	backend := newTestBackend(t)

	var events []identity.Event

	unsubscribe := backend.OnAuthStateChange(func(event identity.Event, session *identity.Session) {
		events = append(events, event)
	})

	_, err := backend.SignUp(ctx, "ana@example.com", "s3cret-pass", identity.Metadata{})
	require.NoError(t, err)
	require.NoError(t, backend.SignOut(ctx))

	require.Equal(t, []identity.Event{identity.EventSignedIn, identity.EventSignedOut}, events)

	unsubscribe()

	_, err = backend.SignIn(ctx, "ana@example.com", "s3cret-pass")
	require.NoError(t, err)
	require.Len(t, events, 2)
}

func TestUpdatePassword(t *testing.T) {
	ctx := context.Background()
	backend := newTestBackend(t)

	session, err := backend.SignUp(ctx, "ana@example.com", "s3cret-pass", identity.Metadata{})
	require.NoError(t, err)

	require.NoError(t, backend.UpdatePassword(ctx, session.UserID, "new-pass"))

	_, err = backend.SignIn(ctx, "ana@example.com", "s3cret-pass")
	require.True(t, identity.IsInvalidCredentials(err))

	_, err = backend.SignIn(ctx, "ana@example.com", "new-pass")
	require.NoError(t, err)

	err = backend.UpdatePassword(ctx, "missing-id", "whatever")
	require.True(t, identity.IsUserNotFound(err))
}

func TestDeleteUserClearsOwnSession(t *testing.T) {
	ctx := context.Background()
	backend := newTestBackend(t)

	session, err := backend.SignUp(ctx, "ana@example.com", "s3cret-pass", identity.Metadata{})
	require.NoError(t, err)

	require.NoError(t, backend.DeleteUser(ctx, session.UserID))

	persisted, err := backend.CurrentSession(ctx)
	require.NoError(t, err)
	require.Nil(t, persisted)

	_, err = backend.SignIn(ctx, "ana@example.com", "s3cret-pass")
	require.True(t, identity.IsInvalidCredentials(err))
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hashed, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	require.NoError(t, VerifyPassword(hashed, "s3cret-pass"))
	require.Error(t, VerifyPassword(hashed, "other"))

	key, err := GenerateSecretKey()
	require.NoError(t, err)
	require.Len(t, key, 64)
}
