package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/fx"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/contexts"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/objects"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/permissions"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/server/biz"
)

type PermissionHandlersParams struct {
	fx.In

	Matrix *permissions.Store
	Sync   *biz.MatrixSync
}

func NewPermissionHandlers(params PermissionHandlersParams) *PermissionHandlers {
	return &PermissionHandlers{
		Matrix: params.Matrix,
		Sync:   params.Sync,
	}
}

type PermissionHandlers struct {
	Matrix *permissions.Store
	Sync   *biz.MatrixSync
}

// ListModules returns the module registry.
func (h *PermissionHandlers) ListModules(c *gin.Context) {
	infos := lo.Map(permissions.AllModuleInfos(), func(info permissions.ModuleInfo, _ int) objects.ModuleInfo {
		return objects.ModuleInfo{
			Name:        string(info.Key),
			Description: info.Description,
		}
	})

	c.JSON(http.StatusOK, infos)
}

// GetMatrix returns the full permission matrix as a flat cell list.
func (h *PermissionHandlers) GetMatrix(c *gin.Context) {
	c.JSON(http.StatusOK, objects.NewPermissionCells(h.Matrix.Snapshot()))
}

// Check answers a single permission query for the caller's role.
func (h *PermissionHandlers) Check(c *gin.Context) {
	ctx := c.Request.Context()

	user := contexts.GetUser(ctx)
	if user == nil {
		JSONError(c, http.StatusUnauthorized, errors.New("not authenticated"))
		return
	}

	module := permissions.Module(c.Query("module"))
	if !permissions.IsValidModule(module) {
		JSONError(c, http.StatusBadRequest, errors.New("unknown module"))
		return
	}

	action := permissions.Action(c.DefaultQuery("action", string(permissions.ActionView)))

	allowed := h.Matrix.HasPermission(permissions.Role(user.Role), module, action)
	c.JSON(http.StatusOK, gin.H{"allowed": allowed})
}

type UpdatePermissionRequest struct {
	Role   string `json:"role"   binding:"required"`
	Module string `json:"module" binding:"required"`
	Action string `json:"action" binding:"required"`
	Value  bool   `json:"value"`
}

// Update merges a single cell change and persists the whole matrix.
func (h *PermissionHandlers) Update(c *gin.Context) {
	ctx := c.Request.Context()

	user := contexts.GetUser(ctx)
	if user == nil {
		JSONError(c, http.StatusUnauthorized, errors.New("not authenticated"))
		return
	}

	if !permissions.IsPrivilegedRole(permissions.Role(user.Role)) {
		JSONError(c, http.StatusForbidden, biz.ErrNotPrivileged)
		return
	}

	var req UpdatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	err := h.Sync.UpdatePermission(ctx,
		permissions.Role(req.Role),
		permissions.Module(req.Module),
		permissions.Action(req.Action),
		req.Value,
	)
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	c.JSON(http.StatusOK, objects.NewPermissionCells(h.Matrix.Snapshot()))
}
