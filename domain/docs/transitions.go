package docs

import (
	"gesdoc/bizerror"
	"gesdoc/domain"
	"gesdoc/domain/flow"
	"gesdoc/domain/history"
	"gesdoc/event"
	"gesdoc/persistence"
	"gesdoc/session"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

type TransitionResultCode string

const (
	TransitionApplied          TransitionResultCode = "APPLIED"
	TransitionPendingApprovals TransitionResultCode = "PENDING_APPROVALS"
)

type TransitionResult struct {
	Result   TransitionResultCode `json:"result"`
	Document domain.Document      `json:"document"`

	ApprovalRequests []domain.ApprovalRequest `json:"approvalRequests,omitempty"`
}

var (
	RequestTransitionFunc = RequestTransition
)

// RequestTransition moves a document along an active edge of its tenant's
// workflow, or opens an approval batch when the edge is gated.
func RequestTransition(c *domain.TransitionCreation, s *session.Session) (*TransitionResult, error) {
	var result *TransitionResult
	var pendingEvents []*event.EventRecord

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		doc := domain.Document{}
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where(&domain.Document{ID: c.DocumentID}).First(&doc).Error; err != nil {
			return err
		}
		if !s.Perms.HasTenantViewPerm(doc.TenantID) {
			return bizerror.ErrForbidden
		}

		edge, err := flow.FindEdgeFunc(tx, doc.TenantID, doc.StatusID, c.ToStatusID)
		if err != nil {
			return err
		}
		if !flow.IsAuthorized(&edge.WorkflowEdge, s) {
			return bizerror.ErrForbidden
		}
		if edge.RequiresComment && strings.TrimSpace(c.Comment) == "" {
			return bizerror.ErrCommentRequired
		}

		now := types.CurrentTimestamp()
		if !edge.RequiresApproval {
			ev, err := applyTransition(tx, &doc, edge, s, c.Comment, now)
			if err != nil {
				return err
			}
			pendingEvents = append(pendingEvents, ev)
			result = &TransitionResult{Result: TransitionApplied, Document: doc}
			return nil
		}

		requests, ev, err := openBatch(tx, &doc, edge, s, c.Comment, now)
		if err != nil {
			return err
		}
		pendingEvents = append(pendingEvents, ev)
		result = &TransitionResult{Result: TransitionPendingApprovals, Document: doc, ApprovalRequests: requests}
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

// applyTransition is the single path allowed to mutate a document's status.
// It must run inside the caller's transaction and is never invoked twice for
// one logical transition: the conditional update detects a stale status.
func applyTransition(tx *gorm.DB, doc *domain.Document, edge *flow.EdgeDetail, s *session.Session,
	comment string, now types.Timestamp) (*event.EventRecord, error) {

	if doc.TenantID != edge.TenantID {
		return nil, bizerror.ErrTenantMismatch
	}

	dueTime := flow.DueTime(&edge.WorkflowEdge, now)
	query := tx.Model(&domain.Document{}).
		Where("id = ? AND status_id = ?", doc.ID, edge.FromStatusID).
		Update(map[string]interface{}{
			"status_id":         edge.ToStatusID,
			"status_begin_time": now,
			"due_time":          dueTime,
		})
	if err := query.Error; err != nil {
		return nil, err
	}
	if query.RowsAffected != 1 {
		return nil, bizerror.ErrConcurrentModification
	}

	timeSpent := int64(0)
	if !doc.StatusBeginTime.IsZero() {
		timeSpent = int64(now.Time().Sub(doc.StatusBeginTime.Time()).Minutes())
	}
	entry := &domain.HistoryEntry{
		TenantID:   doc.TenantID,
		DocumentID: doc.ID, PerformedBy: s.Identity.ID,
		FromStatusID: edge.FromStatusID, ToStatusID: edge.ToStatusID,
		Comments: comment, TimeSpentMinutes: timeSpent,
		CreateTime: now,
	}
	if err := history.RecordFunc(tx, entry); err != nil {
		return nil, err
	}

	doc.StatusID = edge.ToStatusID
	doc.StatusBeginTime = now
	doc.DueTime = dueTime

	return event.CreateEvent(event.SourceTypeDocument, doc.ID, doc.Name, event.EventCategoryTransitionApplied,
		[]event.UpdatedProperty{{
			PropertyName: "StatusID", PropertyDesc: "Status",
			OldValue: edge.FromStatusID.String(), OldValueDesc: edge.FromStatus.Name,
			NewValue: edge.ToStatusID.String(), NewValueDesc: edge.ToStatus.Name,
		}},
		&s.Identity, now, tx)
}
