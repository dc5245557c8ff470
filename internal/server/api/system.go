package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/build"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/server/biz"
)

type SystemHandlersParams struct {
	fx.In

	SystemService *biz.SystemService
}

func NewSystemHandlers(params SystemHandlersParams) *SystemHandlers {
	return &SystemHandlers{
		SystemService: params.SystemService,
	}
}

type SystemHandlers struct {
	SystemService *biz.SystemService
}

// Health is the liveness endpoint.
func (h *SystemHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": build.Version})
}

type SystemStatusResponse struct {
	Initialized bool   `json:"initialized"`
	Version     string `json:"version"`
}

// GetSystemStatus reports whether the workspace was bootstrapped.
func (h *SystemHandlers) GetSystemStatus(c *gin.Context) {
	ctx := c.Request.Context()

	initialized, err := h.SystemService.IsInitialized(ctx)
	if err != nil {
		JSONError(c, http.StatusInternalServerError, biz.ErrInternal)
		return
	}

	version, err := h.SystemService.Version(ctx)
	if err != nil {
		JSONError(c, http.StatusInternalServerError, biz.ErrInternal)
		return
	}

	c.JSON(http.StatusOK, SystemStatusResponse{
		Initialized: initialized,
		Version:     version,
	})
}

type InitializeSystemRequest struct {
	RecoveryEmail    string `json:"recoveryEmail"    binding:"required,email"`
	RecoveryPassword string `json:"recoveryPassword" binding:"required,min=8"`
	RecoveryName     string `json:"recoveryName"     binding:"required"`
	OrganizationName string `json:"organizationName" binding:"required"`
	Plan             string `json:"plan"`
}

// InitializeSystem bootstraps the workspace. Safe to retry; the second call
// is a no-op.
func (h *SystemHandlers) InitializeSystem(c *gin.Context) {
	var req InitializeSystemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	err := h.SystemService.Initialize(c.Request.Context(), &biz.InitializeSystemParams{
		RecoveryEmail:    req.RecoveryEmail,
		RecoveryPassword: req.RecoveryPassword,
		RecoveryName:     req.RecoveryName,
		OrganizationName: req.OrganizationName,
		OrganizationSlug: biz.Slugify(req.OrganizationName),
		Plan:             req.Plan,
	})
	if err != nil {
		JSONError(c, http.StatusInternalServerError, biz.ErrInternal)
		return
	}

	c.Status(http.StatusNoContent)
}

// CompleteOnboarding marks the first-run tour as done.
func (h *SystemHandlers) CompleteOnboarding(c *gin.Context) {
	if err := h.SystemService.CompleteOnboarding(c.Request.Context()); err != nil {
		JSONError(c, http.StatusInternalServerError, biz.ErrInternal)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetOnboarding returns the first-run tour record.
func (h *SystemHandlers) GetOnboarding(c *gin.Context) {
	record, err := h.SystemService.OnboardingInfo(c.Request.Context())
	if err != nil {
		JSONError(c, http.StatusInternalServerError, biz.ErrInternal)
		return
	}

	if record == nil {
		record = &biz.OnboardingRecord{}
	}

	c.JSON(http.StatusOK, record)
}
