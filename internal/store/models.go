package store

import (
	"time"

	"github.com/uptrace/bun"
)

// OrgStatus is the organization lifecycle status. Transitions are
// one-directional: pending organizations are approved into active and never
// revert.
type OrgStatus string

const (
	OrgStatusPending   OrgStatus = "pending"
	OrgStatusActive    OrgStatus = "active"
	OrgStatusSuspended OrgStatus = "suspended"
)

// Organization is a tenant. The slug is the human-readable join key and is
// immutable after creation.
type Organization struct {
	bun.BaseModel `bun:"table:organizations,alias:o"`

	ID        string    `bun:"id,pk" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Slug      string    `bun:"slug,notnull,unique" json:"slug"`
	Status    OrgStatus `bun:"status,notnull,default:'pending'" json:"status"`
	Plan      string    `bun:"plan,notnull,default:'starter'" json:"plan"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

// Profile links an identity-backend user to an organization and a role.
// The ID is the identity backend's user id, not a locally generated one.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:p"`

	ID              string    `bun:"id,pk" json:"id"`
	FullName        string    `bun:"full_name,notnull" json:"fullName"`
	Email           string    `bun:"email,notnull,unique" json:"email"`
	Role            string    `bun:"role,notnull" json:"role"`
	OrganizationID  string    `bun:"organization_id,notnull" json:"organizationId"`
	RelatedClientID *string   `bun:"related_client_id" json:"relatedClientId,omitempty"`
	Active          bool      `bun:"active,notnull,default:true" json:"active"`
	Avatar          string    `bun:"avatar" json:"avatar,omitempty"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt       time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`

	Organization *Organization `bun:"rel:belongs-to,join:organization_id=id" json:"organization,omitempty"`
}

// AuthUser is an identity-backend credential record, kept separate from the
// profile the application reads. Mirrors the auth/profile split of hosted
// identity providers.
type AuthUser struct {
	bun.BaseModel `bun:"table:auth_users,alias:au"`

	ID           string    `bun:"id,pk" json:"id"`
	Email        string    `bun:"email,notnull,unique" json:"email"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

// Setting is one durable key-value entry. Values are opaque strings; JSON
// documents (the permission matrix, the local session snapshot, the first-run
// record) are stored encoded.
type Setting struct {
	bun.BaseModel `bun:"table:settings,alias:s"`

	Key       string    `bun:"key,pk" json:"key"`
	Value     string    `bun:"value,notnull" json:"value"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}
