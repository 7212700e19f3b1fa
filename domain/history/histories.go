package history

import (
	"errors"
	"gesdoc/bizerror"
	"gesdoc/domain"
	"gesdoc/idgen"
	"gesdoc/persistence"
	"gesdoc/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	RecordFunc           = Record
	TimeSpentMinutesFunc = TimeSpentMinutes
	QueryHistoriesFunc   = QueryHistories
)

// Record appends one history entry. There is no update or delete path,
// rows are immutable once written.
func Record(tx *gorm.DB, entry *domain.HistoryEntry) error {
	if entry.DocumentID == 0 {
		return errors.New("history entry without document")
	}
	if entry.ID == 0 {
		entry.ID = idgen.NextID(idWorker)
	}
	if entry.CreateTime.IsZero() {
		entry.CreateTime = types.CurrentTimestamp()
	}
	return tx.Create(entry).Error
}

// TimeSpentMinutes computes the minutes between the most recent entry
// arriving at fromStatusId and the most recent entry arriving at toStatusId.
// The second result is false when either entry is missing.
func TimeSpentMinutes(tx *gorm.DB, documentId, fromStatusId, toStatusId types.ID) (int64, bool, error) {
	var entered, left domain.HistoryEntry
	err := tx.Where("document_id = ? AND to_status_id = ?", documentId, fromStatusId).
		Order("create_time DESC").First(&entered).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	err = tx.Where("document_id = ? AND to_status_id = ?", documentId, toStatusId).
		Order("create_time DESC").First(&left).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}

	minutes := int64(left.CreateTime.Time().Sub(entered.CreateTime.Time()).Minutes())
	return minutes, true, nil
}

func QueryHistories(query *domain.HistoryQuery, s *session.Session) (*[]domain.HistoryEntry, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	doc := domain.Document{}
	if err := db.Where(&domain.Document{ID: query.DocumentID}).Select("tenant_id").First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &[]domain.HistoryEntry{}, nil
		}
		return nil, err
	}
	if !s.Perms.HasTenantViewPerm(doc.TenantID) {
		return nil, bizerror.ErrForbidden
	}

	var entries []domain.HistoryEntry
	if err := db.Where(&domain.HistoryEntry{DocumentID: query.DocumentID}).
		Order("create_time ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return &entries, nil
}
