package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/contexts"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/pkg/xtest"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/store"
)

func scopeTestRouter(user *store.Profile) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if user != nil {
			c.Request = c.Request.WithContext(contexts.WithUser(c.Request.Context(), user))
		}

		c.Next()
	})

	handlers := NewScopeHandlers(ScopeHandlersParams{})
	router.POST("/scope/filter", handlers.Filter)

	return router
}

func TestScopeFilter_Unauthenticated(t *testing.T) {
	router := scopeTestRouter(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/scope/filter", strings.NewReader(`{"records":[]}`))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestScopeFilter_LayeredVisibility(t *testing.T) {
	router := scopeTestRouter(&store.Profile{
		ID:       "u-1",
		FullName: "Bia Ferraz",
		Email:    "bia@acme.com",
		Role:     "sales",
	})

	body := `{
		"managedGroupName": "Equipe Sul",
		"visibleUnits": ["Unidade Centro"],
		"records": [
			{"id": "r-1", "groupName": "Equipe Sul", "ownerEmail": "outro@acme.com", "customerName": "Cliente A"},
			{"id": "r-2", "groupName": "Equipe Norte", "ownerEmail": "bia@acme.com", "customerName": "Cliente B"},
			{"id": "r-3", "groupName": "Equipe Norte", "ownerEmail": "outro@acme.com", "customerName": "Unidade Centro"},
			{"id": "r-4", "groupName": "Equipe Norte", "ownerEmail": "outro@acme.com", "customerName": "Cliente C"}
		]
	}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/scope/filter", strings.NewReader(body))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	expected := json.RawMessage(`[
		{"id": "r-1", "groupName": "Equipe Sul", "ownerEmail": "outro@acme.com", "customerName": "Cliente A"},
		{"id": "r-2", "groupName": "Equipe Norte", "ownerEmail": "bia@acme.com", "customerName": "Cliente B"},
		{"id": "r-3", "groupName": "Equipe Norte", "ownerEmail": "outro@acme.com", "customerName": "Unidade Centro"}
	]`)

	got := json.RawMessage(w.Body.Bytes())
	require.True(t, xtest.Equal(got, expected), xtest.Diff(got, expected))
}
