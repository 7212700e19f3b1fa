package notification

import (
	"context"
	"fmt"
	"gesdoc/domain"
	"gesdoc/event"
	"gesdoc/persistence"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

var (
	NotificationHandlerName = "documentNotifier"

	DeliverFunc = logDelivery
)

// Notification is the decision to notify: who should hear about a committed
// workflow event. Delivery itself belongs to an external dispatcher and its
// failure never affects the committed transaction.
type Notification struct {
	Category     event.EventCategory `json:"category"`
	DocumentID   types.ID            `json:"documentId"`
	DocumentDesc string              `json:"documentDesc"`

	TriggeredBy types.ID   `json:"triggeredBy"`
	Recipients  []types.ID `json:"recipients"`
}

func DocumentNotificationHandle(e *event.EventRecord) *event.EventHandleResult {
	if e.SourceType != event.SourceTypeDocument {
		return nil
	}

	recipients, err := resolveRecipients(e)
	if err != nil {
		return &event.EventHandleResult{
			Message:           fmt.Sprintf("resolve recipients of document %d: %v", e.SourceId, err),
			HandlerIdentifier: NotificationHandlerName,
		}
	}
	if len(recipients) == 0 {
		return &event.EventHandleResult{Success: true, HandlerIdentifier: NotificationHandlerName}
	}

	n := Notification{
		Category:     e.EventCategory,
		DocumentID:   e.SourceId,
		DocumentDesc: e.SourceDesc,
		TriggeredBy:  e.CreatorId,
		Recipients:   recipients,
	}
	if err := DeliverFunc(&n); err != nil {
		return &event.EventHandleResult{
			Message:           fmt.Sprintf("deliver notification of document %d: %v", e.SourceId, err),
			HandlerIdentifier: NotificationHandlerName,
		}
	}
	return &event.EventHandleResult{Success: true, HandlerIdentifier: NotificationHandlerName}
}

func resolveRecipients(e *event.EventRecord) ([]types.ID, error) {
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())

	switch e.EventCategory {
	case event.EventCategoryApprovalRequested:
		var requests []domain.ApprovalRequest
		if err := db.Where("document_id = ? AND state = ?", e.SourceId, domain.ApprovalPending).
			Find(&requests).Error; err != nil {
			return nil, err
		}
		recipients := []types.ID{}
		for _, request := range requests {
			recipients = appendDistinct(recipients, request.ApproverID)
		}
		return recipients, nil

	case event.EventCategoryApprovalBatchResolve, event.EventCategoryApprovalRejected:
		var requests []domain.ApprovalRequest
		if err := db.Where("document_id = ?", e.SourceId).Find(&requests).Error; err != nil {
			return nil, err
		}
		recipients := []types.ID{}
		for _, request := range requests {
			recipients = appendDistinct(recipients, request.RequesterID)
		}
		return recipients, nil

	case event.EventCategoryTransitionApplied:
		doc := domain.Document{}
		if err := db.Where(&domain.Document{ID: e.SourceId}).Select("creator_id").First(&doc).Error; err != nil {
			return nil, err
		}
		if doc.CreatorID == e.CreatorId {
			return []types.ID{}, nil
		}
		return []types.ID{doc.CreatorID}, nil
	}
	return []types.ID{}, nil
}

func appendDistinct(ids []types.ID, id types.ID) []types.ID {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

func logDelivery(n *Notification) error {
	logrus.Infof("notify %v of %s on document %d", n.Recipients, n.Category, n.DocumentID)
	return nil
}
