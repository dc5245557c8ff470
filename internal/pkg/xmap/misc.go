// Package xmap extracts typed values from loosely-typed attribute maps, the
// key/value shape identity providers attach to accounts.
package xmap

import "github.com/samber/lo"

// GetPtr returns a pointer to the value stored under key when it is a T or a
// *T, and nil otherwise. A nil map yields nil.
func GetPtr[T any](m map[string]any, key string) *T {
	if m == nil {
		return nil
	}

	switch v := m[key].(type) {
	case T:
		return lo.ToPtr(v)
	case *T:
		return v
	default:
		return nil
	}
}

// GetStringPtr is GetPtr for the common string case.
func GetStringPtr(m map[string]any, key string) *string {
	return GetPtr[string](m, key)
}
