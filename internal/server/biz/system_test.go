package biz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/permissions"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/store"
)

func TestSystemService_Initialize(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	isInitialized, err := svc.System.IsInitialized(ctx)
	require.NoError(t, err)
	require.False(t, isInitialized)

	initializeTestSystem(t, svc)

	isInitialized, err = svc.System.IsInitialized(ctx)
	require.NoError(t, err)
	require.True(t, isInitialized)

	secretKey, err := svc.System.SecretKey(ctx)
	require.NoError(t, err)
	require.Len(t, secretKey, 64)

	profile, err := svc.Users.GetProfileByEmail(ctx, DefaultRecoveryEmail)
	require.NoError(t, err)
	require.Equal(t, string(permissions.RoleOwner), profile.Role)
	require.True(t, profile.Active)

	org, err := svc.Orgs.GetBySlug(ctx, "nexus-hq")
	require.NoError(t, err)
	require.Equal(t, store.OrgStatusActive, org.Status)
	require.Equal(t, org.ID, profile.OrganizationID)
}

func TestSystemService_InitializeTwiceIsNoop(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	initializeTestSystem(t, svc)

	keyBefore, err := svc.System.SecretKey(ctx)
	require.NoError(t, err)

	initializeTestSystem(t, svc)

	keyAfter, err := svc.System.SecretKey(ctx)
	require.NoError(t, err)
	require.Equal(t, keyBefore, keyAfter)
}

func TestSystemService_SecretKeyBeforeInitialize(t *testing.T) {
	svc := newTestServices(t)

	_, err := svc.System.SecretKey(context.Background())
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestSystemService_Onboarding(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	record, err := svc.System.OnboardingInfo(ctx)
	require.NoError(t, err)
	require.Nil(t, record)

	require.NoError(t, svc.System.CompleteOnboarding(ctx))

	record, err = svc.System.OnboardingInfo(ctx)
	require.NoError(t, err)
	require.NotNil(t, record)
	require.True(t, record.Onboarded)
	require.NotNil(t, record.CompletedAt)

	require.NoError(t, svc.System.ResetOnboarding(ctx))

	record, err = svc.System.OnboardingInfo(ctx)
	require.NoError(t, err)
	require.Nil(t, record)
}
