package domain

import (
	"github.com/fundwit/go-commons/types"
)

type ApprovalState string

const (
	ApprovalPending  ApprovalState = "PENDING"
	ApprovalApproved ApprovalState = "APPROVED"
	ApprovalRejected ApprovalState = "REJECTED"
)

// ApprovalRequest rows sharing (DocumentID, EdgeID) while pending form one batch.
// The batch resolves approved when all members approve, rejected when any member rejects.
type ApprovalRequest struct {
	ID       types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	TenantID types.ID `json:"tenantId" sql:"type:BIGINT UNSIGNED NOT NULL"`

	DocumentID types.ID `json:"documentId" gorm:"index:idx_approval_batch" sql:"type:BIGINT UNSIGNED NOT NULL"`
	EdgeID     types.ID `json:"edgeId" gorm:"index:idx_approval_batch" sql:"type:BIGINT UNSIGNED NOT NULL"`

	ApproverID  types.ID `json:"approverId" gorm:"index:idx_approval_approver" sql:"type:BIGINT UNSIGNED NOT NULL"`
	RequesterID types.ID `json:"requesterId" sql:"type:BIGINT UNSIGNED NOT NULL"`

	State    ApprovalState `json:"state"`
	Comments string        `json:"comments"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	// RespondedAt is zero while the request is pending
	RespondedAt types.Timestamp `json:"respondedAt" sql:"type:DATETIME(6)"`
}

func (r *ApprovalRequest) TableName() string {
	return "approval_requests"
}

type ApprovalRequestQuery struct {
	DocumentID types.ID `form:"documentId" json:"-"`
	PendingMe  bool     `form:"pendingMe" json:"-"`
}
