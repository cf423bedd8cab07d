package middleware

import (
	"context"

	"github.com/angelmondragon/costumerental-backend/pkg/enums"
)

// Staff is the authenticated caller, as read from the bearer token.
type Staff struct {
	ID   string
	Name string
	Role enums.StaffRole
}

type staffKey struct{}

// WithStaff stores the staff member on ctx for handlers and services.
func WithStaff(ctx context.Context, staffID, name string, role enums.StaffRole) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, staffKey{}, Staff{ID: staffID, Name: name, Role: role})
}

// StaffFromContext reports false on unauthenticated routes.
func StaffFromContext(ctx context.Context) (Staff, bool) {
	if ctx == nil {
		return Staff{}, false
	}
	staff, ok := ctx.Value(staffKey{}).(Staff)
	return staff, ok
}

func StaffIDFromContext(ctx context.Context) string {
	staff, _ := StaffFromContext(ctx)
	return staff.ID
}

func StaffNameFromContext(ctx context.Context) string {
	staff, _ := StaffFromContext(ctx)
	return staff.Name
}

func RoleFromContext(ctx context.Context) enums.StaffRole {
	staff, _ := StaffFromContext(ctx)
	return staff.Role
}
