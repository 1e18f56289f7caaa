package security

import (
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/librarydesk/internal/domain"
)

// Permission represents an action permission
type Permission string

const (
	PermViewCatalogue     Permission = "view_catalogue"
	PermBorrowBook        Permission = "borrow_book"
	PermReturnBook        Permission = "return_book"
	PermViewOwnHistory    Permission = "view_own_history"
	PermManageBooks       Permission = "manage_books"
	PermViewBorrowRecords Permission = "view_borrow_records"
	PermViewReports       Permission = "view_reports"
	PermWatchActivity     Permission = "watch_activity"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[domain.Role][]Permission{
	domain.RoleAdmin: {
		PermViewCatalogue,
		PermManageBooks,
		PermViewBorrowRecords,
		PermViewReports,
		PermWatchActivity,
	},
	domain.RoleUser: {
		PermViewCatalogue,
		PermBorrowBook,
		PermReturnBook,
		PermViewOwnHistory,
	},
}

// AuthorizationService handles authorization checks
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{
		logger: logger,
	}
}

// HasPermission checks if a role has a specific permission
func (as *AuthorizationService) HasPermission(role domain.Role, permission Permission) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// ValidatePermission validates that a role has a specific permission
func (as *AuthorizationService) ValidatePermission(role domain.Role, permission Permission) error {
	if !as.HasPermission(role, permission) {
		as.logger.Warn("permission denied",
			slog.String("role", string(role)),
			slog.String("permission", string(permission)),
		)
		return fmt.Errorf("permission denied: %s role cannot %s", role, permission)
	}
	return nil
}

// GetRolePermissions returns all permissions for a role
func (as *AuthorizationService) GetRolePermissions(role domain.Role) []Permission {
	return RolePermissions[role]
}
