package biz

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"
	"go.uber.org/fx"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/log"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/pkg/xcache"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/pkg/xtime"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/store"
)

const (
	// SettingKeyInitialized marks the workspace as bootstrapped.
	SettingKeyInitialized = "system_initialized"

	// SettingKeyVersion records the schema/application version at bootstrap.
	SettingKeyVersion = "system_version"

	// SettingKeySecretKey holds the session token signing key.
	//
	//nolint:gosec // Key name, not a credential.
	SettingKeySecretKey = "system_jwt_secret_key"

	// SettingKeyPermissionMatrix holds the JSON-encoded permission matrix.
	SettingKeyPermissionMatrix = "permissions_matrix"

	// SettingKeyOnboarded holds the JSON-encoded OnboardingRecord.
	SettingKeyOnboarded = "system_onboarded"
)

type SettingServiceParams struct {
	fx.In

	CacheConfig xcache.Config
	DB          *bun.DB
}

func NewSettingService(params SettingServiceParams) *SettingService {
	return &SettingService{
		AbstractService: &AbstractService{
			db: params.DB,
		},
		Cache: xcache.NewFromConfig[*store.Setting](params.CacheConfig),
	}
}

// SettingService is the durable key-value layer under every persisted
// application marker: bootstrap flags, the signing key, the permission matrix
// document and the onboarding record.
type SettingService struct {
	*AbstractService

	Cache xcache.Cache[*store.Setting]
}

// Get returns the raw value for key. ok is false when the key is absent.
func (s *SettingService) Get(ctx context.Context, key string) (string, bool, error) {
	if cached, err := s.Cache.Get(ctx, key); err == nil && cached != nil {
		return cached.Value, true, nil
	}

	setting, err := s.fetch(ctx, key)
	if err != nil {
		return "", false, err
	}

	if setting == nil {
		return "", false, nil
	}

	if err := s.Cache.Set(ctx, key, setting); err != nil {
		log.Warn(ctx, "failed to cache setting", log.String("key", key), log.Cause(err))
	}

	return setting.Value, true, nil
}

// GetFresh reads key straight from storage, skipping the cache. Used where a
// stale read is a correctness problem, like token revocation marks written
// outside this service.
func (s *SettingService) GetFresh(ctx context.Context, key string) (string, bool, error) {
	setting, err := s.fetch(ctx, key)
	if err != nil {
		return "", false, err
	}

	if setting == nil {
		return "", false, nil
	}

	return setting.Value, true, nil
}

func (s *SettingService) fetch(ctx context.Context, key string) (*store.Setting, error) {
	setting := new(store.Setting)

	err := s.db.NewSelect().
		Model(setting).
		Where("key = ?", key).
		Scan(ctx)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("get setting %q: %w", key, err)
	}

	return setting, nil
}

// Set writes key to value, replacing any previous value.
func (s *SettingService) Set(ctx context.Context, key, value string) error {
	setting := &store.Setting{
		Key:       key,
		Value:     value,
		UpdatedAt: xtime.UTCNow(),
	}

	if _, err := s.db.NewInsert().
		Model(setting).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}

	if err := s.Cache.Set(ctx, key, setting); err != nil {
		log.Warn(ctx, "failed to cache setting", log.String("key", key), log.Cause(err))
	}

	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *SettingService) Delete(ctx context.Context, key string) error {
	if _, err := s.db.NewDelete().
		Model((*store.Setting)(nil)).
		Where("key = ?", key).
		Exec(ctx); err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}

	if err := s.Cache.Delete(ctx, key); err != nil {
		log.Warn(ctx, "failed to evict cached setting", log.String("key", key), log.Cause(err))
	}

	return nil
}

// GetJSON decodes the value for key into out. ok is false when absent.
func (s *SettingService) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	value, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return ok, err
	}

	if err := json.Unmarshal([]byte(value), out); err != nil {
		return false, fmt.Errorf("decode setting %q: %w", key, err)
	}

	return true, nil
}

// SetJSON encodes v and stores it under key.
func (s *SettingService) SetJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode setting %q: %w", key, err)
	}

	return s.Set(ctx, key, string(raw))
}

// LoadMatrix implements permissions.Persister.
func (s *SettingService) LoadMatrix(ctx context.Context) ([]byte, bool, error) {
	value, ok, err := s.Get(ctx, SettingKeyPermissionMatrix)
	if err != nil || !ok {
		return nil, ok, err
	}

	return []byte(value), true, nil
}

// SaveMatrix implements permissions.Persister. The whole matrix document is
// replaced in one write.
func (s *SettingService) SaveMatrix(ctx context.Context, data []byte) error {
	return s.Set(ctx, SettingKeyPermissionMatrix, string(data))
}
