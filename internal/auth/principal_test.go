package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cristianml/tomevault/internal/model"
)

func adminUser() model.User {
	return model.User{
		ID:       7,
		Username: "boss",
		Email:    "boss@example.com",
		Roles: []model.Role{
			{Name: model.RoleUser, Permissions: []model.Permission{
				{Name: model.PermReadBook}, {Name: model.PermAddBook},
			}},
			{Name: model.RoleAdmin, Permissions: []model.Permission{
				{Name: model.PermReadBook}, {Name: model.PermManageUsers},
			}},
		},
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
	}
}

func TestDerivePrincipalFlattensRolesAndPermissions(t *testing.T) {
	u := adminUser()
	p := DerivePrincipal(&u)

	// Roles come first with the prefix, then permissions, duplicates
	// dropped in first-seen order.
	assert.Equal(t,
		[]string{"ROLE_USER", "ROLE_ADMIN", "READ_BOOK", "ADD_BOOK", "MANAGE_USERS"},
		p.Authorities())
	assert.Equal(t, []string{"USER", "ADMIN"}, p.Roles())

	assert.True(t, p.HasAuthority("MANAGE_USERS"))
	assert.True(t, p.HasAuthority("ROLE_ADMIN"))
	assert.False(t, p.HasAuthority("ADMIN"), "bare role name is not an authority string")

	assert.True(t, p.HasRole(model.RoleAdmin))
	assert.False(t, p.HasRole(model.RoleSuperAdmin))
	assert.True(t, p.HasAnyRole(model.RoleSuperAdmin, model.RoleAdmin))
	assert.False(t, p.HasAnyRole(model.RoleSuperAdmin, model.RoleDeveloper))
}

func TestDerivePrincipalNoRoles(t *testing.T) {
	u := model.User{ID: 1, Username: "bare"}
	p := DerivePrincipal(&u)
	assert.Empty(t, p.Authorities())
	assert.Empty(t, p.Roles())
}

func TestCheckAccountStatus(t *testing.T) {
	good := adminUser()
	assert.NoError(t, CheckAccountStatus(&good))

	disabled := adminUser()
	disabled.Enabled = false
	assert.ErrorIs(t, CheckAccountStatus(&disabled), ErrAccountDisabled)

	locked := adminUser()
	locked.AccountNonLocked = false
	assert.ErrorIs(t, CheckAccountStatus(&locked), ErrAccountLocked)

	expired := adminUser()
	expired.CredentialsNonExpired = false
	assert.ErrorIs(t, CheckAccountStatus(&expired), ErrAccountExpired)

	deleted := adminUser()
	deleted.Deleted = true
	deleted.Enabled = false
	// Deleted wins over disabled.
	assert.ErrorIs(t, CheckAccountStatus(&deleted), ErrAccountDeleted)
}

func TestErrorCodeMapping(t *testing.T) {
	assert.Equal(t, "invalid_credentials", ErrorCode(ErrInvalidCredentials))
	assert.Equal(t, "account_disabled", ErrorCode(ErrAccountDisabled))
	assert.Equal(t, "account_deleted", ErrorCode(ErrAccountDeleted))
	assert.Equal(t, "access_denied", ErrorCode(ErrAccessDenied))
	assert.Equal(t, "", ErrorCode(nil))
}
