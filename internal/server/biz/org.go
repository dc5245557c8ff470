package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/fx"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/authz"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/contexts"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/identity"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/log"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/permissions"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/pkg/xtime"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/store"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/tenantscope"
)

type OrganizationServiceParams struct {
	fx.In

	DB          *bun.DB
	Backend     identity.Backend
	UserService *UserService
}

func NewOrganizationService(params OrganizationServiceParams) *OrganizationService {
	return &OrganizationService{
		AbstractService: &AbstractService{
			db: params.DB,
		},
		Backend:     params.Backend,
		UserService: params.UserService,
	}
}

type OrganizationService struct {
	*AbstractService

	Backend     identity.Backend
	UserService *UserService
}

type SignUpParams struct {
	OrganizationName string
	Plan             string
	FullName         string
	Email            string
	Password         string
}

type SignUpResult struct {
	Session      *identity.Session
	Organization *store.Organization
	Profile      *store.Profile
}

// SignUp registers a new identity, creates its organization in pending state
// and attaches an owner profile. The organization row is compensated away if
// the profile cannot be created, so a half-registered tenant never survives.
func (s *OrganizationService) SignUp(ctx context.Context, params SignUpParams) (*SignUpResult, error) {
	session, err := s.Backend.SignUp(ctx, params.Email, params.Password, identity.Metadata{"full_name": params.FullName})
	if err != nil {
		return nil, err
	}

	now := xtime.UTCNow()
	org := &store.Organization{
		ID:        uuid.NewString(),
		Name:      params.OrganizationName,
		Slug:      Slugify(params.OrganizationName),
		Status:    store.OrgStatusPending,
		Plan:      params.Plan,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.db.NewInsert().Model(org).Exec(ctx); err != nil {
		s.compensateIdentity(ctx, session.UserID)

		return nil, fmt.Errorf("create organization: %w", err)
	}

	profile := &store.Profile{
		ID:             session.UserID,
		FullName:       params.FullName,
		Email:          params.Email,
		Role:           string(permissions.RoleOwner),
		OrganizationID: org.ID,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := s.db.NewInsert().Model(profile).Exec(ctx); err != nil {
		// The organization must not outlive its failed owner profile.
		if _, derr := s.db.NewDelete().
			Model((*store.Organization)(nil)).
			Where("id = ?", org.ID).
			Exec(ctx); derr != nil {
			log.Error(ctx, "failed to compensate organization after profile failure",
				log.String("organization_id", org.ID),
				log.Cause(derr),
			)
		}

		s.compensateIdentity(ctx, session.UserID)

		return nil, fmt.Errorf("create owner profile: %w", err)
	}

	log.Info(ctx, "organization signed up",
		log.String("organization_id", org.ID),
		log.String("owner_id", profile.ID),
	)

	return &SignUpResult{Session: session, Organization: org, Profile: profile}, nil
}

type JoinOrganizationParams struct {
	OrganizationSlug string
	FullName         string
	Email            string
	Password         string
}

// JoinOrganization registers a new identity inside an existing organization.
// The member profile starts deactivated and stays invisible to team listings
// until a privileged member activates it.
func (s *OrganizationService) JoinOrganization(ctx context.Context, params JoinOrganizationParams) (*SignUpResult, error) {
	org, err := s.GetBySlug(ctx, params.OrganizationSlug)
	if err != nil {
		return nil, err
	}

	session, err := s.Backend.SignUp(ctx, params.Email, params.Password, identity.Metadata{"full_name": params.FullName})
	if err != nil {
		return nil, err
	}

	now := xtime.UTCNow()
	profile := &store.Profile{
		ID:             session.UserID,
		FullName:       params.FullName,
		Email:          params.Email,
		Role:           string(permissions.DefaultMemberRole),
		OrganizationID: org.ID,
		Active:         false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := s.db.NewInsert().Model(profile).Exec(ctx); err != nil {
		s.compensateIdentity(ctx, session.UserID)

		return nil, fmt.Errorf("create member profile: %w", err)
	}

	log.Info(ctx, "member joined organization",
		log.String("organization_id", org.ID),
		log.String("profile_id", profile.ID),
	)

	return &SignUpResult{Session: session, Organization: org, Profile: profile}, nil
}

// ApproveOrganization moves a pending organization to active. Approving an
// already-active organization is a no-op, so retried approvals are safe.
func (s *OrganizationService) ApproveOrganization(ctx context.Context, organizationID string) (*store.Organization, error) {
	if err := s.requirePrivileged(ctx); err != nil {
		return nil, err
	}

	org, err := s.GetByID(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	if org.Status == store.OrgStatusActive {
		return org, nil
	}

	if _, err := s.db.NewUpdate().
		Model((*store.Organization)(nil)).
		Set("status = ?", store.OrgStatusActive).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", organizationID).
		Where("status = ?", store.OrgStatusPending).
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("approve organization %q: %w", organizationID, err)
	}

	log.Info(ctx, "organization approved", log.String("organization_id", organizationID))

	return s.GetByID(ctx, organizationID)
}

// SuspendOrganization moves an organization to suspended.
func (s *OrganizationService) SuspendOrganization(ctx context.Context, organizationID string) (*store.Organization, error) {
	if err := s.requirePrivileged(ctx); err != nil {
		return nil, err
	}

	res, err := s.db.NewUpdate().
		Model((*store.Organization)(nil)).
		Set("status = ?", store.OrgStatusSuspended).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", organizationID).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("suspend organization %q: %w", organizationID, err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrOrganizationNotFound
	}

	return s.GetByID(ctx, organizationID)
}

// IsPending reports whether the organization is still awaiting approval.
// Pending tenants are gated away from the workspace.
func (s *OrganizationService) IsPending(ctx context.Context, organizationID string) (bool, error) {
	org, err := s.GetByID(ctx, organizationID)
	if err != nil {
		return false, err
	}

	return org.Status == store.OrgStatusPending, nil
}

// SwitchOrganization validates that the profile belongs to the requested
// organization and returns it. Profiles hold exactly one membership, so there
// is nothing to switch; the operation exists for API symmetry.
func (s *OrganizationService) SwitchOrganization(ctx context.Context, profileID, organizationID string) (*store.Organization, error) {
	profile, err := s.UserService.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	if profile.OrganizationID != organizationID {
		return nil, fmt.Errorf("profile %q is not a member of organization %q", profileID, organizationID)
	}

	return s.GetByID(ctx, organizationID)
}

// GetByID loads an organization by id.
func (s *OrganizationService) GetByID(ctx context.Context, id string) (*store.Organization, error) {
	org := new(store.Organization)

	err := s.db.NewSelect().
		Model(org).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, ErrOrganizationNotFound
		}

		return nil, fmt.Errorf("get organization %q: %w", id, err)
	}

	return org, nil
}

// GetBySlug loads an organization by its slug.
func (s *OrganizationService) GetBySlug(ctx context.Context, slug string) (*store.Organization, error) {
	org := new(store.Organization)

	err := s.db.NewSelect().
		Model(org).
		Where("slug = ?", slug).
		Scan(ctx)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, ErrOrganizationNotFound
		}

		return nil, fmt.Errorf("get organization by slug %q: %w", slug, err)
	}

	return org, nil
}

// ListPending returns organizations awaiting approval, oldest first.
func (s *OrganizationService) ListPending(ctx context.Context) ([]*store.Organization, error) {
	if err := s.requirePrivileged(ctx); err != nil {
		return nil, err
	}

	var orgs []*store.Organization

	err := s.db.NewSelect().
		Model(&orgs).
		Where("status = ?", store.OrgStatusPending).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending organizations: %w", err)
	}

	return orgs, nil
}

func (s *OrganizationService) requirePrivileged(ctx context.Context) error {
	if authz.IsBypassActive(ctx) {
		return nil
	}

	user := contexts.GetUser(ctx)
	if user == nil {
		return ErrNotPrivileged
	}

	if !permissions.IsPrivilegedRole(permissions.Role(user.Role)) {
		return ErrNotPrivileged
	}

	return nil
}

func (s *OrganizationService) compensateIdentity(ctx context.Context, userID string) {
	if err := s.Backend.DeleteUser(ctx, userID); err != nil {
		log.Error(ctx, "failed to compensate identity after sign-up failure",
			log.String("user_id", userID),
			log.Cause(err),
		)
	}
}

// Slugify derives a URL-safe slug from an organization name. Diacritics are
// folded the same way tenant-scope matching folds them.
func Slugify(name string) string {
	folded := strings.ToLower(tenantscope.Normalize(name))

	var b strings.Builder

	lastDash := true

	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)

			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')

				lastDash = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}
