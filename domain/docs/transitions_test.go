package docs_test

import (
	"context"
	"gesdoc/bizerror"
	"gesdoc/domain"
	"gesdoc/domain/docs"
	"gesdoc/domain/flow"
	"gesdoc/domain/history"
	"gesdoc/event"
	"gesdoc/persistence"
	"gesdoc/session"
	"gesdoc/testinfra"
	"testing"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
)

type workflowFixture struct {
	draft, review, approved domain.Status

	toReview   domain.WorkflowEdge
	toApproved domain.WorkflowEdge
}

func docTestSetup(t *testing.T, testDatabase **testinfra.TestDatabase) (*workflowFixture, *[]event.EventRecord, *[]event.EventRecord) {
	db := testinfra.StartMysqlTestDatabase("gesdoc")
	*testDatabase = db
	Expect(db.DS.GormDB(context.Background()).AutoMigrate(
		&domain.Tenant{}, &domain.TenantMember{},
		&domain.Status{}, &domain.WorkflowEdge{},
		&domain.Document{}, &domain.ApprovalRequest{}, &domain.HistoryEntry{}).Error).To(BeNil())
	persistence.ActiveDataSourceManager = db.DS

	flow.FindEdgeFunc = flow.FindEdge
	history.RecordFunc = history.Record
	docs.AssignApproversFunc = docs.AssignApproversByRole

	manager := testinfra.BuildSession(10, "manager_100")
	draft, err := flow.CreateStatus(&domain.StatusCreating{TenantID: 100, Name: "DRAFT", IsInitial: true}, manager)
	Expect(err).To(BeNil())
	review, err := flow.CreateStatus(&domain.StatusCreating{TenantID: 100, Name: "REVIEW"}, manager)
	Expect(err).To(BeNil())
	approved, err := flow.CreateStatus(&domain.StatusCreating{TenantID: 100, Name: "APPROVED", IsFinal: true}, manager)
	Expect(err).To(BeNil())

	toReview, err := flow.CreateEdge(&domain.EdgeCreating{TenantID: 100,
		FromStatusID: draft.ID, ToStatusID: review.ID, SlaHours: 48}, manager)
	Expect(err).To(BeNil())
	toApproved, err := flow.CreateEdge(&domain.EdgeCreating{TenantID: 100,
		FromStatusID: review.ID, ToStatusID: approved.ID,
		RolesAllowed: domain.RoleTags{"manager"}, ApproverRoles: domain.RoleTags{"reviewer"},
		RequiresApproval: true}, manager)
	Expect(err).To(BeNil())

	persistedEvents := []event.EventRecord{}
	event.EventPersistCreateFunc = func(record *event.EventRecord, db *gorm.DB) error {
		persistedEvents = append(persistedEvents, *record)
		return nil
	}
	handedEvents := []event.EventRecord{}
	event.InvokeHandlersFunc = func(record *event.EventRecord) []event.EventHandleResult {
		handedEvents = append(handedEvents, *record)
		return nil
	}

	fixture := &workflowFixture{draft: *draft, review: *review, approved: *approved,
		toReview: *toReview, toApproved: *toApproved}
	return fixture, &persistedEvents, &handedEvents
}

func docTestTeardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func buildDocument(name string, tenantId types.ID, s *session.Session) *domain.Document {
	doc, err := docs.CreateDocument(&domain.DocumentCreation{TenantID: tenantId, Name: name}, s)
	Expect(err).To(BeNil())
	Expect(doc.ID).ToNot(BeZero())
	return doc
}

func addMember(tenantId, memberId types.ID, role string) {
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	Expect(db.Create(&domain.TenantMember{TenantID: tenantId, MemberID: memberId, Role: role,
		CreateTime: types.CurrentTimestamp()}).Error).To(BeNil())
}

func TestCreateDocument(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase
	defer docTestTeardown(t, testDatabase)
	fixture, _, _ := docTestSetup(t, &testDatabase)

	t.Run("document starts at the initial status", func(t *testing.T) {
		s := testinfra.BuildSession(20, "common_100")
		doc := buildDocument("contract 1", 100, s)
		Expect(doc.StatusID).To(Equal(fixture.draft.ID))
		Expect(doc.CreatorID).To(Equal(types.ID(20)))
		Expect(doc.StatusBeginTime.IsZero()).To(BeFalse())
		Expect(doc.DueTime.IsZero()).To(BeTrue())
	})

	t.Run("stranger can not create document", func(t *testing.T) {
		_, err := docs.CreateDocument(&domain.DocumentCreation{TenantID: 100, Name: "contract x"},
			testinfra.BuildSession(20, "common_200"))
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("tenant without initial status rejects creation", func(t *testing.T) {
		_, err := docs.CreateDocument(&domain.DocumentCreation{TenantID: 200, Name: "contract y"},
			testinfra.BuildSession(20, "common_200"))
		Expect(err).ToNot(BeNil())
	})
}

func TestRequestTransitionDirect(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase
	defer docTestTeardown(t, testDatabase)
	fixture, persistedEvents, handedEvents := docTestSetup(t, &testDatabase)

	s := testinfra.BuildSession(20, "common_100")

	t.Run("ungated edge applies immediately with one history entry", func(t *testing.T) {
		doc := buildDocument("contract 1", 100, s)

		result, err := docs.RequestTransition(&domain.TransitionCreation{
			DocumentID: doc.ID, ToStatusID: fixture.review.ID, Comment: "ready"}, s)
		Expect(err).To(BeNil())
		Expect(result.Result).To(Equal(docs.TransitionApplied))
		Expect(result.Document.StatusID).To(Equal(fixture.review.ID))
		Expect(result.Document.DueTime.IsZero()).To(BeFalse())

		db := persistence.ActiveDataSourceManager.GormDB(context.Background())
		found := domain.Document{}
		Expect(db.Where(&domain.Document{ID: doc.ID}).First(&found).Error).To(BeNil())
		Expect(found.StatusID).To(Equal(fixture.review.ID))
		Expect(found.DueTime.Time().Sub(found.StatusBeginTime.Time())).To(Equal(48 * time.Hour))

		var entries []domain.HistoryEntry
		Expect(db.Where(&domain.HistoryEntry{DocumentID: doc.ID}).Find(&entries).Error).To(BeNil())
		Expect(len(entries)).To(Equal(1))
		Expect(entries[0].FromStatusID).To(Equal(fixture.draft.ID))
		Expect(entries[0].ToStatusID).To(Equal(fixture.review.ID))
		Expect(entries[0].Comments).To(Equal("ready"))
		Expect(entries[0].PerformedBy).To(Equal(types.ID(20)))

		Expect(len(*persistedEvents)).To(Equal(1))
		Expect((*persistedEvents)[0].EventCategory).To(Equal(event.EventCategory(event.EventCategoryTransitionApplied)))
		Expect(len(*handedEvents)).To(Equal(1))
	})

	t.Run("unknown transition leaves the document untouched", func(t *testing.T) {
		doc := buildDocument("contract 2", 100, s)

		_, err := docs.RequestTransition(&domain.TransitionCreation{
			DocumentID: doc.ID, ToStatusID: fixture.approved.ID}, s)
		Expect(err).To(Equal(bizerror.ErrUnknownTransition))

		db := persistence.ActiveDataSourceManager.GormDB(context.Background())
		found := domain.Document{}
		Expect(db.Where(&domain.Document{ID: doc.ID}).First(&found).Error).To(BeNil())
		Expect(found.StatusID).To(Equal(fixture.draft.ID))
		var entries []domain.HistoryEntry
		Expect(db.Where(&domain.HistoryEntry{DocumentID: doc.ID}).Find(&entries).Error).To(BeNil())
		Expect(entries).To(BeEmpty())
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		doc := buildDocument("contract 3", 100, s)
		_, err := docs.RequestTransition(&domain.TransitionCreation{
			DocumentID: doc.ID, ToStatusID: fixture.review.ID}, testinfra.BuildSession(30, "common_200"))
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("edge restricted to roles rejects other members", func(t *testing.T) {
		doc := buildDocument("contract 4", 100, s)
		result, err := docs.RequestTransition(&domain.TransitionCreation{
			DocumentID: doc.ID, ToStatusID: fixture.review.ID}, s)
		Expect(err).To(BeNil())
		Expect(result.Result).To(Equal(docs.TransitionApplied))

		// review -> approved allows managers only
		_, err = docs.RequestTransition(&domain.TransitionCreation{
			DocumentID: doc.ID, ToStatusID: fixture.approved.ID}, s)
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})
}

func TestRequestTransitionCommentRequired(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase
	defer docTestTeardown(t, testDatabase)
	fixture, _, _ := docTestSetup(t, &testDatabase)

	manager := testinfra.BuildSession(10, "manager_100")
	rework, err := flow.CreateStatus(&domain.StatusCreating{TenantID: 100, Name: "REWORK"}, manager)
	Expect(err).To(BeNil())
	_, err = flow.CreateEdge(&domain.EdgeCreating{TenantID: 100,
		FromStatusID: fixture.draft.ID, ToStatusID: rework.ID, RequiresComment: true}, manager)
	Expect(err).To(BeNil())

	s := testinfra.BuildSession(20, "common_100")
	doc := buildDocument("contract 1", 100, s)

	t.Run("blank comment is rejected before any write", func(t *testing.T) {
		_, err := docs.RequestTransition(&domain.TransitionCreation{
			DocumentID: doc.ID, ToStatusID: rework.ID, Comment: "   "}, s)
		Expect(err).To(Equal(bizerror.ErrCommentRequired))

		db := persistence.ActiveDataSourceManager.GormDB(context.Background())
		found := domain.Document{}
		Expect(db.Where(&domain.Document{ID: doc.ID}).First(&found).Error).To(BeNil())
		Expect(found.StatusID).To(Equal(fixture.draft.ID))
		var entries []domain.HistoryEntry
		Expect(db.Where(&domain.HistoryEntry{DocumentID: doc.ID}).Find(&entries).Error).To(BeNil())
		Expect(entries).To(BeEmpty())
	})

	t.Run("comment satisfies the gate", func(t *testing.T) {
		result, err := docs.RequestTransition(&domain.TransitionCreation{
			DocumentID: doc.ID, ToStatusID: rework.ID, Comment: "needs figures"}, s)
		Expect(err).To(BeNil())
		Expect(result.Result).To(Equal(docs.TransitionApplied))
	})
}

func TestRequestTransitionConcurrentModification(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase
	defer docTestTeardown(t, testDatabase)
	fixture, _, _ := docTestSetup(t, &testDatabase)

	s := testinfra.BuildSession(20, "common_100")
	doc := buildDocument("contract 1", 100, s)

	// simulate a racing writer: the edge is resolved against a status the
	// document no longer holds by the time of the conditional update
	flow.FindEdgeFunc = func(tx *gorm.DB, tenantId, fromStatusId, toStatusId types.ID) (*flow.EdgeDetail, error) {
		detail, err := flow.FindEdge(tx, tenantId, fromStatusId, toStatusId)
		if err != nil {
			return nil, err
		}
		Expect(tx.Model(&domain.Document{}).Where("id = ?", doc.ID).
			Update(map[string]interface{}{"status_id": fixture.review.ID}).Error).To(BeNil())
		return detail, nil
	}
	defer func() { flow.FindEdgeFunc = flow.FindEdge }()

	_, err := docs.RequestTransition(&domain.TransitionCreation{
		DocumentID: doc.ID, ToStatusID: fixture.review.ID}, s)
	Expect(err).To(Equal(bizerror.ErrConcurrentModification))

	// the failed transition left no history behind
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	var entries []domain.HistoryEntry
	Expect(db.Where(&domain.HistoryEntry{DocumentID: doc.ID}).Find(&entries).Error).To(BeNil())
	Expect(entries).To(BeEmpty())
}
