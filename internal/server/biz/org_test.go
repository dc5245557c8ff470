package biz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/contexts"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/identity"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/permissions"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/store"
)

func privilegedContext() context.Context {
	return contexts.WithUser(context.Background(), &store.Profile{
		ID:   "admin-1",
		Role: string(permissions.RoleAdmin),
	})
}

func TestOrganizationService_SignUp(t *testing.T) {
	svc := newTestServices(t)
	initializeTestSystem(t, svc)
	ctx := context.Background()

	result, err := svc.Orgs.SignUp(ctx, SignUpParams{
		OrganizationName: "Maúa Park Incorporadora",
		Plan:             "starter",
		FullName:         "Ana Souza",
		Email:            "ana@mauapark.com",
		Password:         "s3cret-pass",
	})
	require.NoError(t, err)
	require.Equal(t, store.OrgStatusPending, result.Organization.Status)
	require.Equal(t, "maua-park-incorporadora", result.Organization.Slug)
	require.Equal(t, string(permissions.RoleOwner), result.Profile.Role)
	require.True(t, result.Profile.Active)
	require.Equal(t, result.Session.UserID, result.Profile.ID)
}

func TestOrganizationService_SignUpCompensatesOnProfileFailure(t *testing.T) {
	svc := newTestServices(t)
	initializeTestSystem(t, svc)
	ctx := context.Background()

	// A dangling profile row already owns this email, so the profile insert
	// must fail and pull the new organization down with it.
	hq, err := svc.Orgs.GetBySlug(ctx, "nexus-hq")
	require.NoError(t, err)

	_, err = svc.DB.NewInsert().Model(&store.Profile{
		ID:             "dangling-profile",
		FullName:       "Dangling",
		Email:          "taken@example.com",
		Role:           string(permissions.RoleSales),
		OrganizationID: hq.ID,
		Active:         true,
	}).Exec(ctx)
	require.NoError(t, err)

	_, err = svc.Orgs.SignUp(ctx, SignUpParams{
		OrganizationName: "Shadow Org",
		FullName:         "Impostor",
		Email:            "taken@example.com",
		Password:         "whatever1",
	})
	require.Error(t, err)

	_, err = svc.Orgs.GetBySlug(ctx, "shadow-org")
	require.ErrorIs(t, err, ErrOrganizationNotFound)

	// The half-created identity is compensated away too.
	_, err = svc.Backend.SignIn(ctx, "taken@example.com", "whatever1")
	require.True(t, identity.IsInvalidCredentials(err))
}

func TestOrganizationService_JoinOrganizationStartsInactive(t *testing.T) {
	svc := newTestServices(t)
	initializeTestSystem(t, svc)
	ctx := context.Background()

	owner, err := svc.Orgs.SignUp(ctx, SignUpParams{
		OrganizationName: "Acme",
		FullName:         "Owner",
		Email:            "owner@acme.com",
		Password:         "s3cret-pass",
	})
	require.NoError(t, err)

	member, err := svc.Orgs.JoinOrganization(ctx, JoinOrganizationParams{
		OrganizationSlug: "acme",
		FullName:         "New Member",
		Email:            "member@acme.com",
		Password:         "s3cret-pass",
	})
	require.NoError(t, err)
	require.False(t, member.Profile.Active)
	require.Equal(t, string(permissions.DefaultMemberRole), member.Profile.Role)
	require.Equal(t, owner.Organization.ID, member.Profile.OrganizationID)

	team, err := svc.Users.ListTeam(ctx, owner.Organization.ID)
	require.NoError(t, err)
	require.Len(t, team, 1)
	require.Equal(t, owner.Profile.ID, team[0].ID)

	require.NoError(t, svc.Users.SetActive(ctx, member.Profile.ID, true))

	team, err = svc.Users.ListTeam(ctx, owner.Organization.ID)
	require.NoError(t, err)
	require.Len(t, team, 2)
}

func TestOrganizationService_JoinUnknownOrganization(t *testing.T) {
	svc := newTestServices(t)
	initializeTestSystem(t, svc)

	_, err := svc.Orgs.JoinOrganization(context.Background(), JoinOrganizationParams{
		OrganizationSlug: "nope",
		FullName:         "Nobody",
		Email:            "nobody@example.com",
		Password:         "s3cret-pass",
	})
	require.ErrorIs(t, err, ErrOrganizationNotFound)
}

func TestOrganizationService_ApproveIsIdempotent(t *testing.T) {
	svc := newTestServices(t)
	initializeTestSystem(t, svc)
	ctx := context.Background()

	result, err := svc.Orgs.SignUp(ctx, SignUpParams{
		OrganizationName: "Acme",
		FullName:         "Owner",
		Email:            "owner@acme.com",
		Password:         "s3cret-pass",
	})
	require.NoError(t, err)

	pending, err := svc.Orgs.IsPending(ctx, result.Organization.ID)
	require.NoError(t, err)
	require.True(t, pending)

	adminCtx := privilegedContext()

	org, err := svc.Orgs.ApproveOrganization(adminCtx, result.Organization.ID)
	require.NoError(t, err)
	require.Equal(t, store.OrgStatusActive, org.Status)

	org, err = svc.Orgs.ApproveOrganization(adminCtx, result.Organization.ID)
	require.NoError(t, err)
	require.Equal(t, store.OrgStatusActive, org.Status)

	pending, err = svc.Orgs.IsPending(ctx, result.Organization.ID)
	require.NoError(t, err)
	require.False(t, pending)
}

func TestOrganizationService_ApproveRequiresPrivilege(t *testing.T) {
	svc := newTestServices(t)
	initializeTestSystem(t, svc)
	ctx := context.Background()

	result, err := svc.Orgs.SignUp(ctx, SignUpParams{
		OrganizationName: "Acme",
		FullName:         "Owner",
		Email:            "owner@acme.com",
		Password:         "s3cret-pass",
	})
	require.NoError(t, err)

	_, err = svc.Orgs.ApproveOrganization(ctx, result.Organization.ID)
	require.ErrorIs(t, err, ErrNotPrivileged)

	salesCtx := contexts.WithUser(ctx, &store.Profile{ID: "u1", Role: string(permissions.RoleSales)})

	_, err = svc.Orgs.ApproveOrganization(salesCtx, result.Organization.ID)
	require.ErrorIs(t, err, ErrNotPrivileged)
}

func TestOrganizationService_ListPending(t *testing.T) {
	svc := newTestServices(t)
	initializeTestSystem(t, svc)
	ctx := context.Background()

	for _, name := range []string{"First Org", "Second Org"} {
		_, err := svc.Orgs.SignUp(ctx, SignUpParams{
			OrganizationName: name,
			FullName:         "Owner " + name,
			Email:            Slugify(name) + "@example.com",
			Password:         "s3cret-pass",
		})
		require.NoError(t, err)
	}

	pending, err := svc.Orgs.ListPending(privilegedContext())
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, "First Org", pending[0].Name)
}

func TestOrganizationService_SwitchOrganization(t *testing.T) {
	svc := newTestServices(t)
	initializeTestSystem(t, svc)
	ctx := context.Background()

	result, err := svc.Orgs.SignUp(ctx, SignUpParams{
		OrganizationName: "Acme",
		FullName:         "Owner",
		Email:            "owner@acme.com",
		Password:         "s3cret-pass",
	})
	require.NoError(t, err)

	org, err := svc.Orgs.SwitchOrganization(ctx, result.Profile.ID, result.Organization.ID)
	require.NoError(t, err)
	require.Equal(t, result.Organization.ID, org.ID)

	other, err := svc.Orgs.GetBySlug(ctx, "nexus-hq")
	require.NoError(t, err)

	_, err = svc.Orgs.SwitchOrganization(ctx, result.Profile.ID, other.ID)
	require.Error(t, err)
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "maua-park", Slugify("Maúa Park "))
	require.Equal(t, "acme-2-go", Slugify("Acme 2 Go!"))
	require.Equal(t, "", Slugify("---"))
}
