package biz

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"go.uber.org/fx"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/log"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/pkg/xcache"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/store"
)

type UserServiceParams struct {
	fx.In

	CacheConfig xcache.Config
	DB          *bun.DB
}

func NewUserService(params UserServiceParams) *UserService {
	return &UserService{
		AbstractService: &AbstractService{
			db: params.DB,
		},
		Cache: xcache.NewFromConfig[*store.Profile](params.CacheConfig),
	}
}

type UserService struct {
	*AbstractService

	Cache xcache.Cache[*store.Profile]
}

// GetProfile loads a profile with its organization. Returns
// ErrProfileNotFound when the id has no profile row.
func (s *UserService) GetProfile(ctx context.Context, id string) (*store.Profile, error) {
	if cached, err := s.Cache.Get(ctx, id); err == nil && cached != nil {
		return cached, nil
	}

	profile := new(store.Profile)

	err := s.db.NewSelect().
		Model(profile).
		Relation("Organization").
		Where("p.id = ?", id).
		Scan(ctx)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, ErrProfileNotFound
		}

		return nil, fmt.Errorf("get profile %q: %w", id, err)
	}

	if err := s.Cache.Set(ctx, id, profile); err != nil {
		log.Warn(ctx, "failed to cache profile", log.String("profile_id", id), log.Cause(err))
	}

	return profile, nil
}

// GetProfileByEmail loads a profile by its email address.
func (s *UserService) GetProfileByEmail(ctx context.Context, email string) (*store.Profile, error) {
	profile := new(store.Profile)

	err := s.db.NewSelect().
		Model(profile).
		Relation("Organization").
		Where("p.email = ?", email).
		Scan(ctx)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, ErrProfileNotFound
		}

		return nil, fmt.Errorf("get profile by email: %w", err)
	}

	return profile, nil
}

// ListTeam returns the active members of an organization. Members awaiting
// approval (active=false) are excluded.
func (s *UserService) ListTeam(ctx context.Context, organizationID string) ([]*store.Profile, error) {
	var members []*store.Profile

	err := s.db.NewSelect().
		Model(&members).
		Where("organization_id = ?", organizationID).
		Where("active = ?", true).
		Order("full_name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list team for organization %q: %w", organizationID, err)
	}

	return members, nil
}

// UpdateProfileParams carries the mutable profile attributes. Nil fields are
// left unchanged.
type UpdateProfileParams struct {
	FullName *string
	Avatar   *string
	Role     *string
}

// UpdateProfile applies params to the profile and evicts its cache entry.
func (s *UserService) UpdateProfile(ctx context.Context, id string, params UpdateProfileParams) (*store.Profile, error) {
	query := s.db.NewUpdate().
		Model((*store.Profile)(nil)).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id)

	if params.FullName != nil {
		query = query.Set("full_name = ?", *params.FullName)
	}

	if params.Avatar != nil {
		query = query.Set("avatar = ?", *params.Avatar)
	}

	if params.Role != nil {
		query = query.Set("role = ?", *params.Role)
	}

	res, err := query.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("update profile %q: %w", id, err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrProfileNotFound
	}

	if err := s.Cache.Delete(ctx, id); err != nil {
		log.Warn(ctx, "failed to evict cached profile", log.String("profile_id", id), log.Cause(err))
	}

	return s.GetProfile(ctx, id)
}

// SetActive toggles membership activation and evicts the cache entry.
func (s *UserService) SetActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.NewUpdate().
		Model((*store.Profile)(nil)).
		Set("active = ?", active).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set profile %q active: %w", id, err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProfileNotFound
	}

	if err := s.Cache.Delete(ctx, id); err != nil {
		log.Warn(ctx, "failed to evict cached profile", log.String("profile_id", id), log.Cause(err))
	}

	return nil
}
