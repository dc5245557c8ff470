package biz

import (
	"errors"
)

var (
	ErrInvalidJWT           = errors.New("invalid jwt token")
	ErrInvalidPassword      = errors.New("invalid password")
	ErrNotInitialized       = errors.New("system not initialized")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrOrganizationPending  = errors.New("organization pending approval")
	ErrNotPrivileged        = errors.New("operation requires a privileged role")
	ErrInternal             = errors.New("server internal error, please try again later")
)
