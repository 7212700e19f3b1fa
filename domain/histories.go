package domain

import (
	"github.com/fundwit/go-commons/types"
)

// HistoryEntry is immutable once written, one per realized transition.
type HistoryEntry struct {
	ID       types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	TenantID types.ID `json:"tenantId" sql:"type:BIGINT UNSIGNED NOT NULL"`

	DocumentID  types.ID `json:"documentId" gorm:"index:idx_history_document" sql:"type:BIGINT UNSIGNED NOT NULL"`
	PerformedBy types.ID `json:"performedBy" sql:"type:BIGINT UNSIGNED NOT NULL"`

	FromStatusID types.ID `json:"fromStatusId" sql:"type:BIGINT UNSIGNED NOT NULL"`
	ToStatusID   types.ID `json:"toStatusId" sql:"type:BIGINT UNSIGNED NOT NULL"`

	Comments         string `json:"comments"`
	TimeSpentMinutes int64  `json:"timeSpentMinutes"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (r *HistoryEntry) TableName() string {
	return "history_entries"
}

type HistoryQuery struct {
	DocumentID types.ID `form:"documentId" uri:"documentId" json:"-" validate:"required,min=1"`
}
