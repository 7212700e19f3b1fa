package domain

import (
	"github.com/fundwit/go-commons/types"
)

type Document struct {
	ID       types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	TenantID types.ID `json:"tenantId" gorm:"index:idx_document_tenant" sql:"type:BIGINT UNSIGNED NOT NULL"`
	Name     string   `json:"name"`

	StatusID        types.ID        `json:"statusId" sql:"type:BIGINT UNSIGNED NOT NULL"`
	StatusBeginTime types.Timestamp `json:"statusBeginTime" sql:"type:DATETIME(6)"`
	// DueTime is zero when the current status has no SLA deadline
	DueTime types.Timestamp `json:"dueTime" sql:"type:DATETIME(6)"`

	CreatorID  types.ID        `json:"creatorId" sql:"type:BIGINT UNSIGNED NOT NULL"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (r *Document) TableName() string {
	return "documents"
}

type DocumentCreation struct {
	TenantID types.ID `json:"tenantId" binding:"required"`
	Name     string   `json:"name" binding:"required"`
}

type DocumentQuery struct {
	TenantID types.ID `form:"tenantId" json:"-"`
	Name     string   `form:"name"`
	StatusID types.ID `form:"statusId"`
}

type TransitionCreation struct {
	DocumentID types.ID `json:"documentId" uri:"documentId" binding:"-" validate:"required,min=1"`
	ToStatusID types.ID `json:"toStatusId" binding:"required"`
	Comment    string   `json:"comment"`
}
