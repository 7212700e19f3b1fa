package session

import (
	"context"
	"gesdoc/authority"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
)

type Session struct {
	Context context.Context `json:"-"`

	Token       string                `json:"token"`
	Identity    Identity              `json:"identity"`
	Perms       authority.Permissions `json:"perms"`
	TenantRoles authority.TenantRoles `json:"tenantRoles"`

	SigningTime time.Time `json:"-"`
}

type Identity struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	Nickname string   `json:"nickname"`
}

func (s *Session) Clone() Session {
	c := Session{Token: s.Token, Identity: s.Identity, SigningTime: s.SigningTime}
	c.Perms = append(authority.Permissions{}, s.Perms...)
	c.TenantRoles = append(authority.TenantRoles{}, s.TenantRoles...)
	return c
}

// VisibleTenants parse visible tenant ids from Session.Perms
func (s *Session) VisibleTenants() []types.ID {
	var tenantIds []types.ID
	for _, v := range s.Perms {
		pairs := strings.Split(v, "_")
		if len(pairs) == 2 {
			id, err := types.ParseID(pairs[1])
			if err != nil {
				continue
			}
			tenantIds = append(tenantIds, id)
		}
	}
	if tenantIds == nil {
		return []types.ID{}
	}
	return tenantIds
}
