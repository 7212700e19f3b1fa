package indices

import (
	"fmt"
	"gesdoc/client/es"
	"gesdoc/domain"
	"gesdoc/session"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

var (
	DocumentIndexName = "documents"
)

type DocumentIndexRecord struct {
	domain.Document
}

type BatchActionError map[types.ID]error

func (e BatchActionError) Error() string {
	return fmt.Sprintf("%v", map[types.ID]error(e))
}

func IndexDocuments(documents []domain.Document, s *session.Session) error {
	records := make([]DocumentIndexRecord, 0, len(documents))
	for _, doc := range documents {
		records = append(records, DocumentIndexRecord{Document: doc})
	}

	if err := saveDocumentRecords(records, s); err != nil {
		return err
	}
	return nil
}

func saveDocumentRecords(records []DocumentIndexRecord, s *session.Session) BatchActionError {
	errs := BatchActionError{}

	for _, record := range records {
		if err := es.IndexFunc(DocumentIndexName, record.ID, record, s); err != nil {
			errs[record.ID] = err
			logrus.Warnf("index document %d %s %s\n", record.ID, record.Name, err)
		} else {
			logrus.Infof("index document %d %s successfully\n", record.ID, record.Name)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
