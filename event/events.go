package event

import (
	"gesdoc/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

// EventPersistCreateFunc writes the record inside the caller's transaction.
var EventPersistCreateFunc = func(record *EventRecord, db *gorm.DB) error {
	return db.Create(record).Error
}

func CreateEvent(sourceType string, sourceId types.ID, sourceDesc string, category EventCategory,
	updatedProperties []UpdatedProperty, identity *session.Identity, timestamp types.Timestamp,
	db *gorm.DB) (*EventRecord, error) {

	record := EventRecord{
		Event: Event{
			SourceType: sourceType,
			SourceId:   sourceId,
			SourceDesc: sourceDesc,

			EventCategory:     category,
			UpdatedProperties: updatedProperties,

			CreatorId:   identity.ID,
			CreatorName: identity.Name,
		},
		Synced:    false,
		Timestamp: timestamp,
	}
	if err := EventPersistCreateFunc(&record, db); err != nil {
		return nil, err
	}
	return &record, nil
}
