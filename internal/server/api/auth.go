package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/contexts"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/identity"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/objects"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/permissions"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/server/biz"
)

type AuthHandlersParams struct {
	fx.In

	Backend        identity.Backend
	SessionService *biz.SessionService
	UserService    *biz.UserService
}

func NewAuthHandlers(params AuthHandlersParams) *AuthHandlers {
	return &AuthHandlers{
		Backend:        params.Backend,
		SessionService: params.SessionService,
		UserService:    params.UserService,
	}
}

type AuthHandlers struct {
	Backend        identity.Backend
	SessionService *biz.SessionService
	UserService    *biz.UserService
}

type SignInRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SessionResponse struct {
	State           string                    `json:"state"`
	Token           string                    `json:"token,omitempty"`
	User            *objects.UserInfo         `json:"user,omitempty"`
	Organization    *objects.OrganizationInfo `json:"organization,omitempty"`
	PendingApproval bool                      `json:"pendingApproval,omitempty"`
}

func newSessionResponse(snap biz.SessionSnapshot) SessionResponse {
	resp := SessionResponse{
		State:           string(snap.State),
		User:            objects.NewUserInfo(snap.Profile),
		Organization:    objects.NewOrganizationInfo(snap.Organization),
		PendingApproval: snap.PendingApproval,
	}

	if snap.Session != nil {
		resp.Token = snap.Session.Token
	}

	return resp
}

// SignIn authenticates credentials and resolves the workspace session.
func (h *AuthHandlers) SignIn(c *gin.Context) {
	var (
		ctx = c.Request.Context()
		req SignInRequest
	)

	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	snap, err := h.SessionService.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, biz.ErrInvalidPassword) || errors.Is(err, biz.ErrProfileNotFound) {
			JSONError(c, http.StatusUnauthorized, errors.New("invalid email or password"))
			return
		}

		// Backend failures are surfaced as-is so the operator sees what the
		// backend actually said.
		JSONError(c, http.StatusInternalServerError, err)

		return
	}

	c.JSON(http.StatusOK, newSessionResponse(snap))
}

// SignOut drops the current session.
func (h *AuthHandlers) SignOut(c *gin.Context) {
	if err := h.SessionService.SignOut(c.Request.Context()); err != nil {
		JSONError(c, http.StatusInternalServerError, biz.ErrInternal)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetSession returns the current session snapshot.
func (h *AuthHandlers) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, newSessionResponse(h.SessionService.Snapshot()))
}

// GetSessionHistory returns the recorded session state transitions, oldest
// first. Privileged roles only; it is a diagnostic surface.
func (h *AuthHandlers) GetSessionHistory(c *gin.Context) {
	user := contexts.GetUser(c.Request.Context())
	if user == nil {
		JSONError(c, http.StatusUnauthorized, errors.New("not authenticated"))
		return
	}

	if !permissions.IsPrivilegedRole(permissions.Role(user.Role)) {
		JSONError(c, http.StatusForbidden, biz.ErrNotPrivileged)
		return
	}

	history := h.SessionService.History()

	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			JSONError(c, http.StatusBadRequest, errors.New("invalid since timestamp"))
			return
		}

		history = h.SessionService.HistorySince(since)
	}

	c.JSON(http.StatusOK, history)
}

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SendPasswordReset initiates a password reset for the given email.
func (h *AuthHandlers) SendPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	if err := h.Backend.SendPasswordReset(c.Request.Context(), req.Email); err != nil {
		JSONError(c, http.StatusInternalServerError, biz.ErrInternal)
		return
	}

	c.Status(http.StatusAccepted)
}

type UpdatePasswordRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

// UpdatePassword replaces the caller's password.
func (h *AuthHandlers) UpdatePassword(c *gin.Context) {
	ctx := c.Request.Context()

	user := contexts.GetUser(ctx)
	if user == nil {
		JSONError(c, http.StatusUnauthorized, errors.New("not authenticated"))
		return
	}

	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	if err := h.Backend.UpdatePassword(ctx, user.ID, req.Password); err != nil {
		JSONError(c, http.StatusInternalServerError, biz.ErrInternal)
		return
	}

	c.Status(http.StatusNoContent)
}

type UpdateProfileRequest struct {
	FullName *string `json:"fullName" binding:"omitempty,min=1"`
	Avatar   *string `json:"avatar"`
}

// UpdateProfile updates the caller's own profile. Role changes are not
// self-service and go through admin tooling.
func (h *AuthHandlers) UpdateProfile(c *gin.Context) {
	ctx := c.Request.Context()

	user := contexts.GetUser(ctx)
	if user == nil {
		JSONError(c, http.StatusUnauthorized, errors.New("not authenticated"))
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	profile, err := h.UserService.UpdateProfile(ctx, user.ID, biz.UpdateProfileParams{
		FullName: req.FullName,
		Avatar:   req.Avatar,
	})
	if err != nil {
		if errors.Is(err, biz.ErrProfileNotFound) {
			JSONError(c, http.StatusNotFound, err)
			return
		}

		JSONError(c, http.StatusInternalServerError, biz.ErrInternal)

		return
	}

	c.JSON(http.StatusOK, objects.NewUserInfo(profile))
}
