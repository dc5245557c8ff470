package contexts

import (
	"context"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/store"
)

// WithUser stores the profile of the authenticated user in the context.
func WithUser(ctx context.Context, user *store.Profile) context.Context {
	container := getContainer(ctx)
	container.User = user

	return withContainer(ctx, container)
}

// GetUser retrieves the profile of the authenticated user from the context,
// or nil when the request is unauthenticated.
func GetUser(ctx context.Context) *store.Profile {
	return getContainer(ctx).User
}

// WithOrganization stores the current organization in the context.
func WithOrganization(ctx context.Context, org *store.Organization) context.Context {
	container := getContainer(ctx)
	container.Organization = org

	return withContainer(ctx, container)
}

// GetOrganization retrieves the current organization from the context, or
// nil when none was resolved.
func GetOrganization(ctx context.Context) *store.Organization {
	return getContainer(ctx).Organization
}

// WithTraceID stores the trace id in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	container := getContainer(ctx)
	container.TraceID = &traceID

	return withContainer(ctx, container)
}

// GetTraceID retrieves the trace id from the context.
func GetTraceID(ctx context.Context) (string, bool) {
	container := getContainer(ctx)
	if container.TraceID != nil {
		return *container.TraceID, true
	}

	return "", false
}

// WithOperationName stores the operation name in the context.
func WithOperationName(ctx context.Context, name string) context.Context {
	container := getContainer(ctx)
	container.OperationName = &name

	return withContainer(ctx, container)
}

// GetOperationName retrieves the operation name from the context.
func GetOperationName(ctx context.Context) (string, bool) {
	container := getContainer(ctx)
	if container.OperationName != nil {
		return *container.OperationName, true
	}

	return "", false
}

// AppendError records a handler error in the context for access logging.
func AppendError(ctx context.Context, err error) context.Context {
	container := getContainer(ctx)
	container.Errors = append(container.Errors, err)

	return withContainer(ctx, container)
}

// GetErrors retrieves the handler errors recorded in the context.
func GetErrors(ctx context.Context) []error {
	return getContainer(ctx).Errors
}
