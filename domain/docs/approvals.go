package docs

import (
	"gesdoc/bizerror"
	"gesdoc/domain"
	"gesdoc/domain/flow"
	"gesdoc/domain/history"
	"gesdoc/event"
	"gesdoc/idgen"
	"gesdoc/persistence"
	"gesdoc/session"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

type ApprovalResultCode string

const (
	BatchStillPending ApprovalResultCode = "BATCH_STILL_PENDING"
	BatchComplete     ApprovalResultCode = "BATCH_COMPLETE"
	BatchRejected     ApprovalResultCode = "BATCH_REJECTED"
)

// audit strings kept verbatim from the legacy document system
const (
	CommentDocumentApproved   = "Documento aprobado"
	CommentRejectedPrefix     = "Aprobación rechazada: "
	CommentCancelledBySibling = "cancelled by rejection of sibling approval"
)

type ApprovalResult struct {
	Result           ApprovalResultCode `json:"result"`
	PendingRemaining int                `json:"pendingRemaining"`
	Document         domain.Document    `json:"document"`
}

var (
	AssignApproversFunc       = AssignApproversByRole
	ApproveRequestFunc        = ApproveRequest
	RejectRequestFunc         = RejectRequest
	QueryApprovalRequestsFunc = QueryApprovalRequests
)

// AssignApproversByRole is the default approver assignment: every distinct
// tenant member holding one of the edge's approver roles.
func AssignApproversByRole(tx *gorm.DB, doc *domain.Document, edge *domain.WorkflowEdge) ([]types.ID, error) {
	if len(edge.ApproverRoles) == 0 {
		return []types.ID{}, nil
	}
	var members []domain.TenantMember
	if err := tx.Where("tenant_id = ? AND role in (?)", doc.TenantID, []string(edge.ApproverRoles)).
		Find(&members).Error; err != nil {
		return nil, err
	}

	seen := map[types.ID]bool{}
	approvers := []types.ID{}
	for _, member := range members {
		if seen[member.MemberID] {
			continue
		}
		seen[member.MemberID] = true
		approvers = append(approvers, member.MemberID)
	}
	return approvers, nil
}

// openBatch creates one pending approval request per assigned approver.
// At most one batch may be in flight per (document, edge).
func openBatch(tx *gorm.DB, doc *domain.Document, edge *flow.EdgeDetail, s *session.Session,
	comment string, now types.Timestamp) ([]domain.ApprovalRequest, *event.EventRecord, error) {

	pending := 0
	if err := tx.Model(&domain.ApprovalRequest{}).
		Where("document_id = ? AND edge_id = ? AND state = ?", doc.ID, edge.ID, domain.ApprovalPending).
		Count(&pending).Error; err != nil {
		return nil, nil, err
	}
	if pending > 0 {
		return nil, nil, bizerror.ErrApprovalBatchExists
	}

	approvers, err := AssignApproversFunc(tx, doc, &edge.WorkflowEdge)
	if err != nil {
		return nil, nil, err
	}
	if len(approvers) == 0 {
		return nil, nil, bizerror.ErrEmptyApproverSet
	}

	requests := make([]domain.ApprovalRequest, 0, len(approvers))
	for _, approverId := range approvers {
		request := domain.ApprovalRequest{
			ID:       idgen.NextID(idWorker),
			TenantID: doc.TenantID,

			DocumentID: doc.ID,
			EdgeID:     edge.ID,

			ApproverID:  approverId,
			RequesterID: s.Identity.ID,

			State:      domain.ApprovalPending,
			CreateTime: now,
		}
		if err := tx.Create(&request).Error; err != nil {
			return nil, nil, err
		}
		requests = append(requests, request)
	}

	ev, err := event.CreateEvent(event.SourceTypeDocument, doc.ID, doc.Name, event.EventCategoryApprovalRequested,
		[]event.UpdatedProperty{{
			PropertyName: "StatusID", PropertyDesc: "Status",
			OldValue: edge.FromStatusID.String(), OldValueDesc: edge.FromStatus.Name,
			NewValue: edge.ToStatusID.String(), NewValueDesc: edge.ToStatus.Name,
		}, {
			PropertyName: "Comment", PropertyDesc: "Comment", NewValue: comment, NewValueDesc: comment,
		}},
		&s.Identity, now, tx)
	if err != nil {
		return nil, nil, err
	}
	return requests, ev, nil
}

// ApproveRequest marks one pending approval request approved. When it is the
// last pending member of its batch the underlying transition is applied,
// exactly once even under concurrent final approvals: the batch is serialized
// on the document row lock.
func ApproveRequest(id types.ID, comment string, s *session.Session) (*ApprovalResult, error) {
	var result *ApprovalResult
	var pendingEvents []*event.EventRecord

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		request := domain.ApprovalRequest{}
		if err := tx.Where(&domain.ApprovalRequest{ID: id}).First(&request).Error; err != nil {
			return err
		}
		if request.ApproverID != s.Identity.ID {
			return bizerror.ErrNotApprover
		}

		doc := domain.Document{}
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where(&domain.Document{ID: request.DocumentID}).First(&doc).Error; err != nil {
			return err
		}

		now := types.CurrentTimestamp()
		query := tx.Model(&domain.ApprovalRequest{}).
			Where("id = ? AND state = ?", id, domain.ApprovalPending).
			Update(map[string]interface{}{
				"state": domain.ApprovalApproved, "comments": comment, "responded_at": now,
			})
		if err := query.Error; err != nil {
			return err
		}
		if query.RowsAffected != 1 {
			return bizerror.ErrAlreadyResolved
		}

		remaining := 0
		if err := tx.Model(&domain.ApprovalRequest{}).
			Where("document_id = ? AND edge_id = ? AND state = ?", request.DocumentID, request.EdgeID, domain.ApprovalPending).
			Count(&remaining).Error; err != nil {
			return err
		}
		if remaining > 0 {
			result = &ApprovalResult{Result: BatchStillPending, PendingRemaining: remaining, Document: doc}
			return nil
		}

		edge, err := loadEdgeDetail(tx, request.EdgeID)
		if err != nil {
			return err
		}
		ev, err := applyTransition(tx, &doc, edge, s, CommentDocumentApproved, now)
		if err != nil {
			return err
		}
		pendingEvents = append(pendingEvents, ev)

		ev, err = event.CreateEvent(event.SourceTypeDocument, doc.ID, doc.Name, event.EventCategoryApprovalBatchResolve,
			[]event.UpdatedProperty{{
				PropertyName: "StatusID", PropertyDesc: "Status",
				OldValue: edge.FromStatusID.String(), OldValueDesc: edge.FromStatus.Name,
				NewValue: edge.ToStatusID.String(), NewValueDesc: edge.ToStatus.Name,
			}},
			&s.Identity, now, tx)
		if err != nil {
			return err
		}
		pendingEvents = append(pendingEvents, ev)

		result = &ApprovalResult{Result: BatchComplete, Document: doc}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, ev := range pendingEvents {
		if event.InvokeHandlersFunc != nil {
			event.InvokeHandlersFunc(ev)
		}
	}
	return result, nil
}

// RejectRequest rejects one pending approval request and cancels every
// pending sibling of its batch. The document status never changes, the
// rejection is still recorded in the history trail.
func RejectRequest(id types.ID, comment string, s *session.Session) (*ApprovalResult, error) {
	if strings.TrimSpace(comment) == "" {
		return nil, bizerror.ErrCommentRequired
	}

	var result *ApprovalResult
	var pendingEvents []*event.EventRecord

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		request := domain.ApprovalRequest{}
		if err := tx.Where(&domain.ApprovalRequest{ID: id}).First(&request).Error; err != nil {
			return err
		}
		if request.ApproverID != s.Identity.ID {
			return bizerror.ErrNotApprover
		}

		doc := domain.Document{}
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where(&domain.Document{ID: request.DocumentID}).First(&doc).Error; err != nil {
			return err
		}

		now := types.CurrentTimestamp()
		query := tx.Model(&domain.ApprovalRequest{}).
			Where("id = ? AND state = ?", id, domain.ApprovalPending).
			Update(map[string]interface{}{
				"state": domain.ApprovalRejected, "comments": comment, "responded_at": now,
			})
		if err := query.Error; err != nil {
			return err
		}
		if query.RowsAffected != 1 {
			return bizerror.ErrAlreadyResolved
		}

		// fail-fast abort of the batch
		if err := tx.Model(&domain.ApprovalRequest{}).
			Where("document_id = ? AND edge_id = ? AND state = ?", request.DocumentID, request.EdgeID, domain.ApprovalPending).
			Update(map[string]interface{}{
				"state": domain.ApprovalRejected, "comments": CommentCancelledBySibling, "responded_at": now,
			}).Error; err != nil {
			return err
		}

		entry := &domain.HistoryEntry{
			TenantID:   doc.TenantID,
			DocumentID: doc.ID, PerformedBy: s.Identity.ID,
			FromStatusID: doc.StatusID, ToStatusID: doc.StatusID,
			Comments:   CommentRejectedPrefix + comment,
			CreateTime: now,
		}
		if err := history.RecordFunc(tx, entry); err != nil {
			return err
		}

		ev, err := event.CreateEvent(event.SourceTypeDocument, doc.ID, doc.Name, event.EventCategoryApprovalRejected,
			[]event.UpdatedProperty{{
				PropertyName: "Comment", PropertyDesc: "Comment",
				NewValue: comment, NewValueDesc: comment,
			}},
			&s.Identity, now, tx)
		if err != nil {
			return err
		}
		pendingEvents = append(pendingEvents, ev)

		result = &ApprovalResult{Result: BatchRejected, Document: doc}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, ev := range pendingEvents {
		if event.InvokeHandlersFunc != nil {
			event.InvokeHandlersFunc(ev)
		}
	}
	return result, nil
}

func QueryApprovalRequests(query *domain.ApprovalRequestQuery, s *session.Session) (*[]domain.ApprovalRequest, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	q := db.Model(&domain.ApprovalRequest{})
	if query.DocumentID > 0 {
		doc := domain.Document{}
		if err := db.Where(&domain.Document{ID: query.DocumentID}).Select("tenant_id").First(&doc).Error; err != nil {
			return nil, err
		}
		if !s.Perms.HasTenantViewPerm(doc.TenantID) {
			return &[]domain.ApprovalRequest{}, nil
		}
		q = q.Where("document_id = ?", query.DocumentID)
	} else {
		q = q.Where("approver_id = ?", s.Identity.ID)
	}
	if query.PendingMe {
		q = q.Where("approver_id = ? AND state = ?", s.Identity.ID, domain.ApprovalPending)
	}

	var requests []domain.ApprovalRequest
	if err := q.Order("create_time ASC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return &requests, nil
}

func loadEdgeDetail(tx *gorm.DB, edgeId types.ID) (*flow.EdgeDetail, error) {
	detail := flow.EdgeDetail{}
	if err := tx.Where(&domain.WorkflowEdge{ID: edgeId}).First(&detail.WorkflowEdge).Error; err != nil {
		return nil, err
	}
	if err := tx.Where(&domain.Status{ID: detail.FromStatusID}).First(&detail.FromStatus).Error; err != nil {
		return nil, err
	}
	if err := tx.Where(&domain.Status{ID: detail.ToStatusID}).First(&detail.ToStatus).Error; err != nil {
		return nil, err
	}
	return &detail, nil
}
