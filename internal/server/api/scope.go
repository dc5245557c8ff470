package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/fx"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/contexts"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/tenantscope"
)

type ScopeHandlersParams struct {
	fx.In
}

func NewScopeHandlers(_ ScopeHandlersParams) *ScopeHandlers {
	return &ScopeHandlers{}
}

// ScopeHandlers exposes the record visibility resolver so portal surfaces
// can filter lists that carry no direct foreign key to the caller.
type ScopeHandlers struct{}

type ScopeRecord struct {
	ID           string `json:"id"`
	GroupName    string `json:"groupName"`
	OwnerEmail   string `json:"ownerEmail"`
	CustomerName string `json:"customerName"`
}

type FilterScopeRequest struct {
	ManagedGroupName string        `json:"managedGroupName"`
	VisibleUnits     []string      `json:"visibleUnits"`
	Records          []ScopeRecord `json:"records" binding:"required"`
}

// Filter returns the subset of records visible to the caller.
func (h *ScopeHandlers) Filter(c *gin.Context) {
	ctx := c.Request.Context()

	user := contexts.GetUser(ctx)
	if user == nil {
		JSONError(c, http.StatusUnauthorized, errors.New("not authenticated"))
		return
	}

	var req FilterScopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	identity := tenantscope.Identity{
		Name:             user.FullName,
		Email:            user.Email,
		ManagedGroupName: req.ManagedGroupName,
		VisibleUnits:     req.VisibleUnits,
	}

	visible := lo.Filter(req.Records, func(record ScopeRecord, _ int) bool {
		return tenantscope.Visible(identity, tenantscope.Record{
			GroupName:    record.GroupName,
			OwnerEmail:   record.OwnerEmail,
			CustomerName: record.CustomerName,
		})
	})

	c.JSON(http.StatusOK, visible)
}
