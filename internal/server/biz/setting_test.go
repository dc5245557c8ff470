package biz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSettingService_RoundTrip(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	_, ok, err := svc.Settings.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, svc.Settings.Set(ctx, "brand_name", "Nexus"))

	value, ok, err := svc.Settings.Get(ctx, "brand_name")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Nexus", value)

	require.NoError(t, svc.Settings.Set(ctx, "brand_name", "Nexus CRM"))

	value, _, err = svc.Settings.Get(ctx, "brand_name")
	require.NoError(t, err)
	require.Equal(t, "Nexus CRM", value)

	require.NoError(t, svc.Settings.Delete(ctx, "brand_name"))

	_, ok, err = svc.Settings.Get(ctx, "brand_name")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSettingService_JSON(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	type payload struct {
		Enabled bool   `json:"enabled"`
		Label   string `json:"label"`
	}

	require.NoError(t, svc.Settings.SetJSON(ctx, "feature", payload{Enabled: true, Label: "beta"}))

	var got payload

	ok, err := svc.Settings.GetJSON(ctx, "feature", &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, payload{Enabled: true, Label: "beta"}, got)

	ok, err = svc.Settings.GetJSON(ctx, "absent", &got)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSettingService_MatrixPersister(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	_, ok, err := svc.Settings.LoadMatrix(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, svc.Settings.SaveMatrix(ctx, []byte(`{"sales":{}}`)))

	data, ok, err := svc.Settings.LoadMatrix(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"sales":{}}`, string(data))
}
