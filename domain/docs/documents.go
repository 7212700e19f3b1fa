package docs

import (
	"context"
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

	CreateDocumentFunc = CreateDocument
	DetailDocumentFunc = DetailDocument
	QueryDocumentsFunc = QueryDocuments
	LoadDocumentsFunc  = LoadDocuments
)

func CreateDocument(c *domain.DocumentCreation, s *session.Session) (*domain.Document, error) {
	if !s.Perms.HasRoleSuffix("_" + c.TenantID.String()) {
		return nil, bizerror.ErrForbidden
	}

	now := types.CurrentTimestamp()
	doc := &domain.Document{
		ID:       idgen.NextID(idWorker),
		TenantID: c.TenantID,
		Name:     c.Name,

		StatusBeginTime: now,
		CreatorID:       s.Identity.ID,
		CreateTime:      now,
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		initial := domain.Status{}
		err := tx.Where("tenant_id = ? AND is_initial = ? AND active = ?", c.TenantID, true, true).
			First(&initial).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("no initial status is defined for tenant " + c.TenantID.String())
			}
			return err
		}
		doc.StatusID = initial.ID
		return tx.Create(doc).Error
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func DetailDocument(id types.ID, s *session.Session) (*domain.Document, error) {
	doc := domain.Document{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Where(&domain.Document{ID: id}).First(&doc).Error; err != nil {
		return nil, err
	}
	if !s.Perms.HasTenantViewPerm(doc.TenantID) {
		return nil, bizerror.ErrForbidden
	}
	return &doc, nil
}

func QueryDocuments(query *domain.DocumentQuery, s *session.Session) (*[]domain.Document, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	q := db.Model(&domain.Document{})
	if query.TenantID > 0 {
		q = q.Where("tenant_id = ?", query.TenantID)
	}
	if query.Name != "" {
		q = q.Where("name like ?", "%"+query.Name+"%")
	}
	if query.StatusID > 0 {
		q = q.Where("status_id = ?", query.StatusID)
	}
	visibleTenants := s.VisibleTenants()
	if len(visibleTenants) == 0 {
		return &[]domain.Document{}, nil
	}
	q = q.Where("tenant_id in (?)", visibleTenants)

	var documents []domain.Document
	if err := q.Find(&documents).Error; err != nil {
		return nil, err
	}
	return &documents, nil
}

// LoadDocuments pages over all documents regardless of tenant, for index synchronization.
func LoadDocuments(page, size int) ([]domain.Document, error) {
	documents := []domain.Document{}
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	offset := (page - 1) * size
	if offset < 0 {
		offset = 0
	}
	if err := db.Order("id ASC").Offset(offset).Limit(size).Find(&documents).Error; err != nil {
		return nil, err
	}
	return documents, nil
}
