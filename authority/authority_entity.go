package authority

import (
	"strings"

	"github.com/fundwit/go-commons/types"
)

// Permissions holds the role tags of an actor.
// Tenant scoped roles have the form "<role>_<tenantId>", eg. "manager_123".
type Permissions []string

func (c Permissions) HasRole(role string) bool {
	for _, v := range c {
		if strings.EqualFold(v, role) {
			return true
		}
	}
	return false
}

func (c Permissions) HasAnyRole(roles []string) bool {
	for _, role := range roles {
		if c.HasRole(role) {
			return true
		}
	}
	return false
}

func (c Permissions) HasGlobalViewRole() bool {
	for _, v := range c {
		if strings.HasPrefix(strings.ToLower(v), "system:") {
			return true
		}
	}
	return false
}

func (c Permissions) HasRolePrefix(prefix string) bool {
	for _, v := range c {
		if strings.HasPrefix(strings.ToLower(v), strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

func (c Permissions) HasRoleSuffix(suffix string) bool {
	for _, v := range c {
		if strings.HasSuffix(strings.ToLower(v), strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}

func (c Permissions) HasTenantViewPerm(tenantId types.ID) bool {
	return c.HasGlobalViewRole() || c.HasRoleSuffix("_"+tenantId.String())
}

// TenantRoles of an actor, parsed from Permissions at signing time.
type TenantRoles []TenantRole

type TenantRole struct {
	TenantID types.ID `json:"tenantId"`
	Role     string   `json:"role"`
}

func (c TenantRoles) HasTenant(tenantId types.ID) bool {
	for _, v := range c {
		if v.TenantID == tenantId {
			return true
		}
	}
	return false
}

func (c TenantRoles) RolesOfTenant(tenantId types.ID) []string {
	roles := []string{}
	for _, v := range c {
		if v.TenantID == tenantId {
			roles = append(roles, v.Role)
		}
	}
	return roles
}
