package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/contexts"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/objects"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/server/biz"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/store"
)

type OrganizationHandlersParams struct {
	fx.In

	OrganizationService *biz.OrganizationService
	UserService         *biz.UserService
}

func NewOrganizationHandlers(params OrganizationHandlersParams) *OrganizationHandlers {
	return &OrganizationHandlers{
		OrganizationService: params.OrganizationService,
		UserService:         params.UserService,
	}
}

type OrganizationHandlers struct {
	OrganizationService *biz.OrganizationService
	UserService         *biz.UserService
}

type SignUpRequest struct {
	OrganizationName string `json:"organizationName" binding:"required"`
	Plan             string `json:"plan"`
	FullName         string `json:"fullName"         binding:"required"`
	Email            string `json:"email"            binding:"required,email"`
	Password         string `json:"password"         binding:"required,min=8"`
}

type SignUpResponse struct {
	Token        string                    `json:"token"`
	User         *objects.UserInfo         `json:"user"`
	Organization *objects.OrganizationInfo `json:"organization"`
}

// SignUp registers a new organization with its owner.
func (h *OrganizationHandlers) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	result, err := h.OrganizationService.SignUp(c.Request.Context(), biz.SignUpParams{
		OrganizationName: req.OrganizationName,
		Plan:             req.Plan,
		FullName:         req.FullName,
		Email:            req.Email,
		Password:         req.Password,
	})
	if err != nil {
		JSONError(c, http.StatusConflict, err)
		return
	}

	c.JSON(http.StatusCreated, SignUpResponse{
		Token:        result.Session.Token,
		User:         objects.NewUserInfo(result.Profile),
		Organization: objects.NewOrganizationInfo(result.Organization),
	})
}

type JoinRequest struct {
	OrganizationSlug string `json:"organizationSlug" binding:"required"`
	FullName         string `json:"fullName"         binding:"required"`
	Email            string `json:"email"            binding:"required,email"`
	Password         string `json:"password"         binding:"required,min=8"`
}

// Join registers a new member inside an existing organization.
func (h *OrganizationHandlers) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	result, err := h.OrganizationService.JoinOrganization(c.Request.Context(), biz.JoinOrganizationParams{
		OrganizationSlug: req.OrganizationSlug,
		FullName:         req.FullName,
		Email:            req.Email,
		Password:         req.Password,
	})
	if err != nil {
		if errors.Is(err, biz.ErrOrganizationNotFound) {
			JSONError(c, http.StatusNotFound, err)
			return
		}

		JSONError(c, http.StatusConflict, err)

		return
	}

	c.JSON(http.StatusCreated, SignUpResponse{
		Token:        result.Session.Token,
		User:         objects.NewUserInfo(result.Profile),
		Organization: objects.NewOrganizationInfo(result.Organization),
	})
}

// Approve moves a pending organization to active.
func (h *OrganizationHandlers) Approve(c *gin.Context) {
	org, err := h.OrganizationService.ApproveOrganization(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, biz.ErrOrganizationNotFound):
			JSONError(c, http.StatusNotFound, err)
		case errors.Is(err, biz.ErrNotPrivileged):
			JSONError(c, http.StatusForbidden, err)
		default:
			JSONError(c, http.StatusInternalServerError, biz.ErrInternal)
		}

		return
	}

	c.JSON(http.StatusOK, objects.NewOrganizationInfo(org))
}

// Suspend moves an organization to suspended.
func (h *OrganizationHandlers) Suspend(c *gin.Context) {
	org, err := h.OrganizationService.SuspendOrganization(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, biz.ErrOrganizationNotFound):
			JSONError(c, http.StatusNotFound, err)
		case errors.Is(err, biz.ErrNotPrivileged):
			JSONError(c, http.StatusForbidden, err)
		default:
			JSONError(c, http.StatusInternalServerError, biz.ErrInternal)
		}

		return
	}

	c.JSON(http.StatusOK, objects.NewOrganizationInfo(org))
}

// ListPending lists organizations awaiting approval.
func (h *OrganizationHandlers) ListPending(c *gin.Context) {
	orgs, err := h.OrganizationService.ListPending(c.Request.Context())
	if err != nil {
		if errors.Is(err, biz.ErrNotPrivileged) {
			JSONError(c, http.StatusForbidden, err)
			return
		}

		JSONError(c, http.StatusInternalServerError, biz.ErrInternal)

		return
	}

	c.JSON(http.StatusOK, objects.NewOrganizationInfos(orgs))
}

// Get returns the caller's organization.
func (h *OrganizationHandlers) Get(c *gin.Context) {
	org, err := h.OrganizationService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, biz.ErrOrganizationNotFound) {
			JSONError(c, http.StatusNotFound, err)
			return
		}

		JSONError(c, http.StatusInternalServerError, biz.ErrInternal)

		return
	}

	c.JSON(http.StatusOK, objects.NewOrganizationInfo(org))
}

type OrganizationStatusResponse struct {
	Organization    *objects.OrganizationInfo `json:"organization"`
	PendingApproval bool                      `json:"pendingApproval"`
}

// RecheckStatus re-reads the caller's organization so a member held at the
// approval gate can poll for activation without signing in again.
func (h *OrganizationHandlers) RecheckStatus(c *gin.Context) {
	ctx := c.Request.Context()

	user := contexts.GetUser(ctx)
	if user == nil {
		JSONError(c, http.StatusUnauthorized, errors.New("not authenticated"))
		return
	}

	org, err := h.OrganizationService.GetByID(ctx, user.OrganizationID)
	if err != nil {
		if errors.Is(err, biz.ErrOrganizationNotFound) {
			JSONError(c, http.StatusNotFound, err)
			return
		}

		JSONError(c, http.StatusInternalServerError, biz.ErrInternal)

		return
	}

	c.JSON(http.StatusOK, OrganizationStatusResponse{
		Organization:    objects.NewOrganizationInfo(org),
		PendingApproval: org.Status == store.OrgStatusPending,
	})
}

// Team lists the caller's active teammates.
func (h *OrganizationHandlers) Team(c *gin.Context) {
	ctx := c.Request.Context()

	user := contexts.GetUser(ctx)
	if user == nil {
		JSONError(c, http.StatusUnauthorized, errors.New("not authenticated"))
		return
	}

	members, err := h.UserService.ListTeam(ctx, user.OrganizationID)
	if err != nil {
		JSONError(c, http.StatusInternalServerError, biz.ErrInternal)
		return
	}

	c.JSON(http.StatusOK, objects.NewUserInfos(members))
}
