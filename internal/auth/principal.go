package auth

import (
	"github.com/cristianml/tomevault/internal/model"
)

// RolePrefix is prepended to role names when flattening them into
// authority strings, e.g. ADMIN becomes ROLE_ADMIN.  Permissions are used
// as-is.
const RolePrefix = "ROLE_"

// Principal is the reconstructed identity attached to a request: the user
// snapshot it was derived from plus the flattened authority set.  It is
// created fresh by the identity filter (or the authenticator at login) and
// lives exactly as long as the request; it must never be cached or shared
// across requests.
type Principal struct {
	UserID      uint64
	Username    string
	Email       string
	authorities map[string]struct{}
	ordered     []string
	roles       []string
}

// DerivePrincipal flattens a user's current role/permission graph into a
// Principal.  One authority per role (ROLE_ prefixed) plus one per
// permission owned transitively through the roles, deduplicated but kept in
// first-seen order.
func DerivePrincipal(u *model.User) Principal {
	p := Principal{
		UserID:      u.ID,
		Username:    u.Username,
		Email:       u.Email,
		authorities: make(map[string]struct{}),
	}
	add := func(a string) {
		if _, seen := p.authorities[a]; !seen {
			p.authorities[a] = struct{}{}
			p.ordered = append(p.ordered, a)
		}
	}
	for _, role := range u.Roles {
		p.roles = append(p.roles, role.Name)
		add(RolePrefix + role.Name)
	}
	for _, role := range u.Roles {
		for _, perm := range role.Permissions {
			add(perm.Name)
		}
	}
	return p
}

// Authorities returns the flattened authority strings in derivation order.
func (p *Principal) Authorities() []string {
	return p.ordered
}

// Roles returns the bare role names (without the ROLE_ prefix).
func (p *Principal) Roles() []string {
	return p.roles
}

// HasAuthority reports whether the principal carries the given authority
// string, either a ROLE_-prefixed role or a bare permission name.
func (p *Principal) HasAuthority(a string) bool {
	_, ok := p.authorities[a]
	return ok
}

// HasRole reports whether the principal holds the named role.  The name is
// given without the ROLE_ prefix.
func (p *Principal) HasRole(name string) bool {
	return p.HasAuthority(RolePrefix + name)
}

// HasAnyRole reports whether the principal holds at least one of the named
// roles.
func (p *Principal) HasAnyRole(names ...string) bool {
	for _, n := range names {
		if p.HasRole(n) {
			return true
		}
	}
	return false
}

// CheckAccountStatus is the single precondition deciding whether an account
// is in good standing.  Both the authenticator and the request identity
// filter call it, so a disabled, locked, expired or soft-deleted user is
// rejected identically at login and on every later request.  Deleted wins
// over disabled: soft delete also clears the enabled flag, and the caller
// should learn the stronger reason.
func CheckAccountStatus(u *model.User) error {
	if u.Deleted {
		return ErrAccountDeleted
	}
	if !u.Enabled {
		return ErrAccountDisabled
	}
	if !u.AccountNonLocked {
		return ErrAccountLocked
	}
	if !u.AccountNonExpired || !u.CredentialsNonExpired {
		return ErrAccountExpired
	}
	return nil
}
