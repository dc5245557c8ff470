package xmap

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestGetStringPtr(t *testing.T) {
	meta := map[string]any{
		"full_name": "Ana Souza",
		"avatar":    lo.ToPtr("https://cdn.nexus.app/a.png"),
		"attempts":  3,
	}

	require.Equal(t, lo.ToPtr("Ana Souza"), GetStringPtr(meta, "full_name"))
	require.Equal(t, lo.ToPtr("https://cdn.nexus.app/a.png"), GetStringPtr(meta, "avatar"))

	// Wrong type and missing key both come back nil.
	require.Nil(t, GetStringPtr(meta, "attempts"))
	require.Nil(t, GetStringPtr(meta, "plan"))
	require.Nil(t, GetStringPtr(nil, "full_name"))
}

func TestGetPtr(t *testing.T) {
	meta := map[string]any{
		"attempts": int64(3),
		"active":   true,
	}

	require.Equal(t, lo.ToPtr(int64(3)), GetPtr[int64](meta, "attempts"))
	require.Equal(t, lo.ToPtr(true), GetPtr[bool](meta, "active"))
	require.Nil(t, GetPtr[string](meta, "attempts"))
	require.Nil(t, GetPtr[int64](meta, "missing"))
}
