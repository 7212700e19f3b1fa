package domain

import (
	"github.com/fundwit/go-commons/types"
)

type Status struct {
	ID       types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	TenantID types.ID `json:"tenantId" gorm:"unique_index:uni_tenant_status_name" sql:"type:BIGINT UNSIGNED NOT NULL"`
	Name     string   `json:"name" gorm:"unique_index:uni_tenant_status_name"`

	IsInitial bool `json:"isInitial"`
	IsFinal   bool `json:"isFinal"`
	Active    bool `json:"active"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (r *Status) TableName() string {
	return "statuses"
}

type StatusCreating struct {
	TenantID  types.ID `json:"tenantId" binding:"required"`
	Name      string   `json:"name" binding:"required"`
	IsInitial bool     `json:"isInitial"`
	IsFinal   bool     `json:"isFinal"`
}

type StatusQuery struct {
	TenantID types.ID `form:"tenantId" json:"-" validate:"required,min=1"`
}
