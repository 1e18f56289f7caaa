package security

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aryan0dhankhar/librarydesk/internal/domain"
)

func TestRolePermissions(t *testing.T) {
	as := NewAuthorizationService(nil)

	assert.True(t, as.HasPermission(domain.RoleUser, PermBorrowBook))
	assert.True(t, as.HasPermission(domain.RoleUser, PermReturnBook))
	assert.False(t, as.HasPermission(domain.RoleAdmin, PermBorrowBook), "Admins manage the catalogue but do not borrow")
	assert.True(t, as.HasPermission(domain.RoleAdmin, PermManageBooks))
	assert.False(t, as.HasPermission(domain.RoleUser, PermViewReports))
	assert.False(t, as.HasPermission(domain.Role("GUEST"), PermViewCatalogue))

	assert.NoError(t, as.ValidatePermission(domain.RoleAdmin, PermViewReports))
	assert.Error(t, as.ValidatePermission(domain.RoleUser, PermManageBooks))
	assert.Len(t, as.GetRolePermissions(domain.RoleUser), 4)
}
