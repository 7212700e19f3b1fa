package domain

import (
	"github.com/fundwit/go-commons/types"
)

const (
	TenantRoleManager  = "manager"
	TenantRoleCommon   = "common"
	TenantRoleReviewer = "reviewer"
)

type Tenant struct {
	ID         types.ID        `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	Name       string          `json:"name"`
	Identifier string          `json:"identifier"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	Creator    types.ID        `json:"creator" sql:"type:BIGINT UNSIGNED NOT NULL"`
}

func (r *Tenant) TableName() string {
	return "tenants"
}

type TenantMember struct {
	TenantID   types.ID        `json:"tenantId" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	MemberID   types.ID        `json:"memberId" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	Role       string          `json:"role"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (r *TenantMember) TableName() string {
	return "tenant_members"
}

type TenantCreating struct {
	Name       string `json:"name" binding:"required"`
	Identifier string `json:"identifier" binding:"required"`
}

type TenantMemberAdding struct {
	TenantID types.ID `json:"tenantId" uri:"id" binding:"-"`
	MemberID types.ID `json:"memberId" binding:"required"`
	Role     string   `json:"role" binding:"required"`
}
