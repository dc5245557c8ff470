package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/fx"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/authz"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/build"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/identity/local"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/log"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/permissions"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/pkg/xtime"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/store"
)

// OnboardingRecord tracks whether the guided first-run tour was completed and
// under which version.
type OnboardingRecord struct {
	Onboarded   bool       `json:"onboarded"`
	Version     string     `json:"version"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type SystemServiceParams struct {
	fx.In

	DB             *bun.DB
	SettingService *SettingService
}

func NewSystemService(params SystemServiceParams) *SystemService {
	return &SystemService{
		AbstractService: &AbstractService{
			db: params.DB,
		},
		SettingService: params.SettingService,
	}
}

type SystemService struct {
	*AbstractService

	SettingService *SettingService
}

// IsInitialized reports whether the workspace has been bootstrapped.
func (s *SystemService) IsInitialized(ctx context.Context) (bool, error) {
	value, ok, err := s.SettingService.Get(ctx, SettingKeyInitialized)
	if err != nil {
		return false, fmt.Errorf("failed to check initialization status: %w", err)
	}

	return ok && strings.EqualFold(value, "true"), nil
}

type InitializeSystemParams struct {
	RecoveryEmail    string
	RecoveryPassword string
	RecoveryName     string
	OrganizationName string
	OrganizationSlug string
	Plan             string
}

// Initialize bootstraps the workspace: a signing key, a seed organization and
// the recovery owner profile, all in one transaction. Calling it on an
// already-initialized workspace is a no-op.
func (s *SystemService) Initialize(ctx context.Context, params *InitializeSystemParams) error {
	isInitialized, err := s.IsInitialized(ctx)
	if err != nil {
		return err
	}

	if isInitialized {
		return nil
	}

	secretKey, err := local.GenerateSecretKey()
	if err != nil {
		return fmt.Errorf("failed to generate secret key: %w", err)
	}

	hashedPassword, err := local.HashPassword(params.RecoveryPassword)
	if err != nil {
		return err
	}

	now := xtime.UTCNow()
	userID := uuid.NewString()
	orgID := uuid.NewString()

	err = s.RunInTransaction(ctx, func(txCtx context.Context, tx bun.Tx) error {
		authUser := &store.AuthUser{
			ID:           userID,
			Email:        params.RecoveryEmail,
			PasswordHash: hashedPassword,
			CreatedAt:    now,
		}
		if _, err := tx.NewInsert().Model(authUser).Exec(txCtx); err != nil {
			return fmt.Errorf("seed recovery identity: %w", err)
		}

		org := &store.Organization{
			ID:        orgID,
			Name:      params.OrganizationName,
			Slug:      params.OrganizationSlug,
			Status:    store.OrgStatusActive,
			Plan:      params.Plan,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := tx.NewInsert().Model(org).Exec(txCtx); err != nil {
			return fmt.Errorf("seed organization: %w", err)
		}

		profile := &store.Profile{
			ID:             userID,
			FullName:       params.RecoveryName,
			Email:          params.RecoveryEmail,
			Role:           string(permissions.RoleOwner),
			OrganizationID: orgID,
			Active:         true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if _, err := tx.NewInsert().Model(profile).Exec(txCtx); err != nil {
			return fmt.Errorf("seed recovery profile: %w", err)
		}

		settings := []*store.Setting{
			{Key: SettingKeySecretKey, Value: secretKey, UpdatedAt: now},
			{Key: SettingKeyVersion, Value: build.Version, UpdatedAt: now},
			{Key: SettingKeyInitialized, Value: "true", UpdatedAt: now},
		}
		for _, setting := range settings {
			if _, err := tx.NewInsert().Model(setting).Exec(txCtx); err != nil {
				return fmt.Errorf("seed setting %q: %w", setting.Key, err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	log.Info(ctx, "system initialized",
		log.String("organization_id", orgID),
		log.String("recovery_user_id", userID),
	)

	return nil
}

// SecretKey returns the session token signing key.
func (s *SystemService) SecretKey(ctx context.Context) (string, error) {
	key, ok, err := s.SettingService.Get(ctx, SettingKeySecretKey)
	if err != nil {
		return "", err
	}

	if !ok {
		return "", ErrNotInitialized
	}

	return key, nil
}

// Version returns the version recorded at bootstrap, or the build version
// when the workspace is not initialized yet.
func (s *SystemService) Version(ctx context.Context) (string, error) {
	value, ok, err := s.SettingService.Get(ctx, SettingKeyVersion)
	if err != nil {
		return "", err
	}

	if !ok {
		return build.Version, nil
	}

	return value, nil
}

// OnboardingInfo retrieves the first-run tour record, or nil if never set.
func (s *SystemService) OnboardingInfo(ctx context.Context) (*OnboardingRecord, error) {
	ctx = authz.WithSystemBypass(ctx, "read-onboarding-info")

	var record OnboardingRecord

	ok, err := s.SettingService.GetJSON(ctx, SettingKeyOnboarded, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to get onboarding info: %w", err)
	}

	if !ok {
		return nil, nil
	}

	return &record, nil
}

// CompleteOnboarding marks the first-run tour as completed.
func (s *SystemService) CompleteOnboarding(ctx context.Context) error {
	now := xtime.UTCNow()
	record := &OnboardingRecord{
		Onboarded:   true,
		Version:     build.Version,
		CompletedAt: &now,
	}

	return s.SettingService.SetJSON(ctx, SettingKeyOnboarded, record)
}

// ResetOnboarding clears the tour record so the next session replays it.
func (s *SystemService) ResetOnboarding(ctx context.Context) error {
	return s.SettingService.Delete(ctx, SettingKeyOnboarded)
}
