package rbac

import (
	"context"
	"strings"

	"github.com/jobdiary/jobdiary/internal/shared"
)

// Roles assigned to staff accounts.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// PermissionSource resolves the capabilities of a staff member.
type PermissionSource interface {
	EffectivePermissions(ctx context.Context, staffID int64) ([]string, error)
}

// RoleLookup returns the role stored on a staff account.
type RoleLookup interface {
	RoleOf(ctx context.Context, staffID int64) (string, error)
}

// Service maps staff roles onto capabilities.
type Service struct {
	roles RoleLookup
}

// NewService constructs a Service.
func NewService(roles RoleLookup) *Service {
	return &Service{roles: roles}
}

// EffectivePermissions returns the capabilities granted by the staff member's role.
func (s *Service) EffectivePermissions(ctx context.Context, staffID int64) ([]string, error) {
	role, err := s.roles.RoleOf(ctx, staffID)
	if err != nil {
		return nil, err
	}
	return PermissionsForRole(role), nil
}

// PermissionsForRole lists the capabilities of role; unknown roles get none.
func PermissionsForRole(role string) []string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleAdmin:
		return shared.AllScopes()
	case RoleStaff:
		return shared.StaffScopes()
	default:
		return nil
	}
}

var _ PermissionSource = (*Service)(nil)
