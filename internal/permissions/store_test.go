package permissions

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePersister struct {
	data    []byte
	loadErr error
	saveErr error
	saves   int
}

func (f *fakePersister) LoadMatrix(ctx context.Context) ([]byte, bool, error) {
	if f.loadErr != nil {
		return nil, false, f.loadErr
	}

	return f.data, f.data != nil, nil
}

func (f *fakePersister) SaveMatrix(ctx context.Context, data []byte) error {
	if f.saveErr != nil {
		return f.saveErr
	}

	f.data = data
	f.saves++

	return nil
}

func TestStoreLoadWithoutPersistedDocument(t *testing.T) {
	store := NewStore(&fakePersister{})
	store.Load(context.Background())

	assert.True(t, store.HasPermission(RoleSales, ModuleCommercial, ActionEdit))
	assert.False(t, store.HasPermission(RoleSales, ModuleSettings, ActionView))
}

func TestStoreLoadAppliesOverrides(t *testing.T) {
	overrides := make(Matrix)
	overrides.SetCell(RoleExecutive, ModuleSettings, ViewOnly())

	data, err := json.Marshal(overrides)
	require.NoError(t, err)

	store := NewStore(&fakePersister{data: data})
	store.Load(context.Background())

	assert.True(t, store.HasPermission(RoleExecutive, ModuleSettings, ActionView))
	// Defaults still apply for untouched cells.
	assert.True(t, store.HasPermission(RoleSales, ModuleProposals, ActionDelete))
}

func TestStoreLoadMalformedDocumentFallsBack(t *testing.T) {
	store := NewStore(&fakePersister{data: []byte("{not json")})

	// Must not panic or propagate the parse error.
	store.Load(context.Background())

	assert.True(t, store.HasPermission(RoleOwner, ModuleSettings, ActionDelete))
	assert.False(t, store.HasPermission(RoleExecutive, ModuleSettings, ActionView))
}

func TestStoreLoadPersisterErrorFallsBack(t *testing.T) {
	store := NewStore(&fakePersister{loadErr: errors.New("backend down")})
	store.Load(context.Background())

	assert.True(t, store.HasPermission(RoleAdmin, ModuleFinance, ActionDelete))
}

func TestStoreUpdatePermissionPersistsWholeMatrix(t *testing.T) {
	persister := &fakePersister{}
	store := NewStore(persister)
	store.Load(context.Background())

	err := store.UpdatePermission(context.Background(), RoleExecutive, ModuleSettings, ActionView, true)
	require.NoError(t, err)
	assert.Equal(t, 1, persister.saves)
	assert.True(t, store.HasPermission(RoleExecutive, ModuleSettings, ActionView))

	// The persisted document is the full matrix, usable as overrides by a
	// fresh store.
	fresh := NewStore(persister)
	fresh.Load(context.Background())
	assert.True(t, fresh.HasPermission(RoleExecutive, ModuleSettings, ActionView))
}

func TestStoreUpdatePermissionRollsBackOnWriteFailure(t *testing.T) {
	persister := &fakePersister{saveErr: errors.New("disk full")}
	store := NewStore(persister)
	store.Load(context.Background())

	err := store.UpdatePermission(context.Background(), RoleExecutive, ModuleSettings, ActionView, true)
	require.Error(t, err)

	// No partially-applied state.
	assert.False(t, store.HasPermission(RoleExecutive, ModuleSettings, ActionView))
}

func TestStoreUpdatePermissionValidatesInput(t *testing.T) {
	store := NewStore(nil)

	assert.Error(t, store.UpdatePermission(context.Background(), Role("ghost"), ModulePortal, ActionView, true))
	assert.Error(t, store.UpdatePermission(context.Background(), RoleSales, Module("nope"), ActionView, true))
}
