package servehttp_test

import (
	"bytes"
	"gesdoc/bizerror"
	"gesdoc/domain"
	"gesdoc/domain/flow"
	"gesdoc/servehttp"
	"gesdoc/session"
	"gesdoc/testinfra"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

func workflowTestRouter() *gin.Engine {
	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	servehttp.RegisterWorkflowRestAPI(router)
	return router
}

func TestCreateStatusRestAPI(t *testing.T) {
	RegisterTestingT(t)
	router := workflowTestRouter()

	t.Run("created status is returned", func(t *testing.T) {
		ts := types.TimestampOfDate(2025, 3, 1, 10, 0, 0, 0, time.Now().Location())
		flow.CreateStatusFunc = func(c *domain.StatusCreating, s *session.Session) (*domain.Status, error) {
			Expect(c.TenantID).To(Equal(types.ID(100)))
			Expect(c.Name).To(Equal("DRAFT"))
			Expect(c.IsInitial).To(BeTrue())
			return &domain.Status{ID: 1, TenantID: 100, Name: "DRAFT", IsInitial: true, Active: true, CreateTime: ts}, nil
		}

		req := httptest.NewRequest(http.MethodPost, "/v1/statuses",
			bytes.NewReader([]byte(`{"tenantId": "100", "name": "DRAFT", "isInitial": true}`)))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusCreated))
		Expect(body).To(MatchJSON(`{"id": "1", "tenantId": "100", "name": "DRAFT", "isInitial": true,
			"isFinal": false, "active": true, "createTime": "` + timestampJSON(ts) + `"}`))
	})

	t.Run("duplicated name is rejected", func(t *testing.T) {
		flow.CreateStatusFunc = func(c *domain.StatusCreating, s *session.Session) (*domain.Status, error) {
			return nil, bizerror.ErrStatusExisted
		}
		req := httptest.NewRequest(http.MethodPost, "/v1/statuses",
			bytes.NewReader([]byte(`{"tenantId": "100", "name": "DRAFT"}`)))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(ContainSubstring("workflow.status_existed"))
	})
}

func TestCreateEdgeRestAPI(t *testing.T) {
	RegisterTestingT(t)
	router := workflowTestRouter()

	t.Run("created edge is returned", func(t *testing.T) {
		ts := types.TimestampOfDate(2025, 3, 1, 10, 0, 0, 0, time.Now().Location())
		flow.CreateEdgeFunc = func(c *domain.EdgeCreating, s *session.Session) (*domain.WorkflowEdge, error) {
			Expect(c.TenantID).To(Equal(types.ID(100)))
			Expect(c.RolesAllowed).To(Equal(domain.RoleTags{"manager"}))
			Expect(c.ApproverRoles).To(Equal(domain.RoleTags{"reviewer"}))
			Expect(c.RequiresApproval).To(BeTrue())
			Expect(c.SlaHours).To(Equal(48))
			return &domain.WorkflowEdge{ID: 5, TenantID: 100, FromStatusID: 1, ToStatusID: 2,
				RolesAllowed: c.RolesAllowed, ApproverRoles: c.ApproverRoles,
				RequiresApproval: true, SlaHours: 48, Active: true, CreateTime: ts}, nil
		}

		req := httptest.NewRequest(http.MethodPost, "/v1/workflow-edges",
			bytes.NewReader([]byte(`{"tenantId": "100", "fromStatusId": "1", "toStatusId": "2",
				"rolesAllowed": ["manager"], "approverRoles": ["reviewer"], "requiresApproval": true, "slaHours": 48}`)))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusCreated))
		Expect(body).To(MatchJSON(`{"id": "5", "tenantId": "100", "fromStatusId": "1", "toStatusId": "2",
			"rolesAllowed": ["manager"], "approverRoles": ["reviewer"], "requiresApproval": true,
			"requiresComment": false, "slaHours": 48, "active": true, "createTime": "` + timestampJSON(ts) + `"}`))
	})

	t.Run("tenant mismatch is rejected", func(t *testing.T) {
		flow.CreateEdgeFunc = func(c *domain.EdgeCreating, s *session.Session) (*domain.WorkflowEdge, error) {
			return nil, bizerror.ErrTenantMismatch
		}
		req := httptest.NewRequest(http.MethodPost, "/v1/workflow-edges",
			bytes.NewReader([]byte(`{"tenantId": "100", "fromStatusId": "1", "toStatusId": "2"}`)))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(ContainSubstring("workflow.tenant_mismatch"))
	})
}

func TestQueryStatusesRestAPI(t *testing.T) {
	RegisterTestingT(t)
	router := workflowTestRouter()

	t.Run("statuses of a tenant are returned", func(t *testing.T) {
		ts := types.TimestampOfDate(2025, 3, 1, 10, 0, 0, 0, time.Now().Location())
		flow.QueryStatusesFunc = func(query *domain.StatusQuery, s *session.Session) (*[]domain.Status, error) {
			Expect(query.TenantID).To(Equal(types.ID(100)))
			return &[]domain.Status{{ID: 1, TenantID: 100, Name: "DRAFT", IsInitial: true, Active: true, CreateTime: ts}}, nil
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/statuses?tenantId=100", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`[{"id": "1", "tenantId": "100", "name": "DRAFT", "isInitial": true,
			"isFinal": false, "active": true, "createTime": "` + timestampJSON(ts) + `"}]`))
	})

	t.Run("missing tenant fails validation", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/statuses", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(ContainSubstring("common.bad_param"))
	})
}

func TestDisableEdgeRestAPI(t *testing.T) {
	RegisterTestingT(t)
	router := workflowTestRouter()

	t.Run("edge is disabled", func(t *testing.T) {
		disabled := types.ID(0)
		flow.DisableEdgeFunc = func(id types.ID, s *session.Session) error {
			disabled = id
			return nil
		}
		req := httptest.NewRequest(http.MethodDelete, "/v1/workflow-edges/5", nil)
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusNoContent))
		Expect(disabled).To(Equal(types.ID(5)))
	})

	t.Run("forbidden without manager role", func(t *testing.T) {
		flow.DisableEdgeFunc = func(id types.ID, s *session.Session) error {
			return bizerror.ErrForbidden
		}
		req := httptest.NewRequest(http.MethodDelete, "/v1/workflow-edges/5", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusForbidden))
		Expect(body).To(ContainSubstring("security.forbidden"))
	})
}
