// Package objects contains the wire shapes shared by the API handlers and
// biz services. They live here to avoid circular dependencies.
package objects

import (
	"github.com/samber/lo"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/permissions"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/store"
)

type UserInfo struct {
	ID             string            `json:"id"`
	FullName       string            `json:"fullName"`
	Email          string            `json:"email"`
	Role           string            `json:"role"`
	Active         bool              `json:"active"`
	Avatar         string            `json:"avatar,omitempty"`
	OrganizationID string            `json:"organizationId,omitempty"`
	Organization   *OrganizationInfo `json:"organization,omitempty"`
}

type OrganizationInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Status string `json:"status"`
	Plan   string `json:"plan,omitempty"`
}

type ModuleInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type PermissionCell struct {
	Role   string `json:"role"`
	Module string `json:"module"`
	View   bool   `json:"view"`
	Create bool   `json:"create"`
	Edit   bool   `json:"edit"`
	Delete bool   `json:"delete"`
}

// NewUserInfo converts a profile row to its wire shape.
func NewUserInfo(profile *store.Profile) *UserInfo {
	if profile == nil {
		return nil
	}

	return &UserInfo{
		ID:             profile.ID,
		FullName:       profile.FullName,
		Email:          profile.Email,
		Role:           profile.Role,
		Active:         profile.Active,
		Avatar:         profile.Avatar,
		OrganizationID: profile.OrganizationID,
		Organization:   NewOrganizationInfo(profile.Organization),
	}
}

// NewUserInfos converts a profile slice.
func NewUserInfos(profiles []*store.Profile) []*UserInfo {
	return lo.Map(profiles, func(profile *store.Profile, _ int) *UserInfo {
		return NewUserInfo(profile)
	})
}

// NewOrganizationInfo converts an organization row to its wire shape.
func NewOrganizationInfo(org *store.Organization) *OrganizationInfo {
	if org == nil {
		return nil
	}

	return &OrganizationInfo{
		ID:     org.ID,
		Name:   org.Name,
		Slug:   org.Slug,
		Status: string(org.Status),
		Plan:   org.Plan,
	}
}

// NewOrganizationInfos converts an organization slice.
func NewOrganizationInfos(orgs []*store.Organization) []*OrganizationInfo {
	return lo.Map(orgs, func(org *store.Organization, _ int) *OrganizationInfo {
		return NewOrganizationInfo(org)
	})
}

// NewPermissionCells flattens a matrix for admin screens, roles and modules
// in their registry order.
func NewPermissionCells(matrix permissions.Matrix) []PermissionCell {
	cells := make([]PermissionCell, 0, len(permissions.AllRoles())*len(permissions.AllModules()))

	for _, role := range permissions.AllRoles() {
		for _, module := range permissions.AllModules() {
			set, _ := matrix.Cell(role, module)
			cells = append(cells, PermissionCell{
				Role:   string(role),
				Module: string(module),
				View:   set.View,
				Create: set.Create,
				Edit:   set.Edit,
				Delete: set.Delete,
			})
		}
	}

	return cells
}
