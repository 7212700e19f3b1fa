package flow

import (
	"errors"
	"gesdoc/bizerror"
	"gesdoc/domain"
	"gesdoc/idgen"
	"gesdoc/persistence"
	"gesdoc/session"
	"strconv"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	FindEdgeFunc      = FindEdge
	ListReachableFunc = ListReachable

	CreateStatusFunc  = CreateStatus
	QueryStatusesFunc = QueryStatuses
	CreateEdgeFunc    = CreateEdge
	QueryEdgesFunc    = QueryEdges
	DisableEdgeFunc   = DisableEdge
)

type EdgeDetail struct {
	domain.WorkflowEdge

	FromStatus domain.Status `json:"fromStatus"`
	ToStatus   domain.Status `json:"toStatus"`
}

// FindEdge resolves the unique active edge between two statuses of a tenant.
// The edge and both statuses must share the tenant of the caller.
func FindEdge(tx *gorm.DB, tenantId, fromStatusId, toStatusId types.ID) (*EdgeDetail, error) {
	var edges []domain.WorkflowEdge
	if err := tx.Where("tenant_id = ? AND from_status_id = ? AND to_status_id = ? AND active = ?",
		tenantId, fromStatusId, toStatusId, true).Find(&edges).Error; err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return nil, bizerror.ErrUnknownTransition
	}
	if len(edges) > 1 {
		return nil, errors.New("expected one active edge, but actual is " + strconv.Itoa(len(edges)))
	}

	detail := EdgeDetail{WorkflowEdge: edges[0]}
	if err := tx.Where(&domain.Status{ID: edges[0].FromStatusID}).First(&detail.FromStatus).Error; err != nil {
		return nil, err
	}
	if err := tx.Where(&domain.Status{ID: edges[0].ToStatusID}).First(&detail.ToStatus).Error; err != nil {
		return nil, err
	}
	if detail.FromStatus.TenantID != tenantId || detail.ToStatus.TenantID != tenantId {
		return nil, bizerror.ErrTenantMismatch
	}
	if !detail.ToStatus.Active {
		return nil, bizerror.ErrUnknownTransition
	}
	return &detail, nil
}

// ListReachable returns the statuses reachable from fromStatusId via active edges.
func ListReachable(tenantId, fromStatusId types.ID, s *session.Session) ([]domain.Status, error) {
	if !s.Perms.HasTenantViewPerm(tenantId) {
		return nil, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	var edges []domain.WorkflowEdge
	if err := db.Where("tenant_id = ? AND from_status_id = ? AND active = ?",
		tenantId, fromStatusId, true).Find(&edges).Error; err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return []domain.Status{}, nil
	}

	targetIds := make([]types.ID, 0, len(edges))
	for _, edge := range edges {
		targetIds = append(targetIds, edge.ToStatusID)
	}
	statuses := []domain.Status{}
	if err := db.Where("tenant_id = ? AND active = ? AND id in (?)", tenantId, true, targetIds).
		Find(&statuses).Error; err != nil {
		return nil, err
	}
	return statuses, nil
}

// IsAuthorized reports whether the actor may use the edge.
// An empty RolesAllowed set is a wildcard: any role of the tenant is accepted.
func IsAuthorized(edge *domain.WorkflowEdge, s *session.Session) bool {
	if len(edge.RolesAllowed) == 0 {
		return s.Perms.HasRoleSuffix("_" + edge.TenantID.String())
	}
	for _, role := range edge.RolesAllowed {
		if s.Perms.HasRole(role + "_" + edge.TenantID.String()) {
			return true
		}
	}
	return false
}

// DueTime computes the SLA deadline of an edge. Pure function.
// Returns the zero Timestamp when the edge carries no SLA.
func DueTime(edge *domain.WorkflowEdge, start types.Timestamp) types.Timestamp {
	if edge.SlaHours <= 0 {
		return types.Timestamp{}
	}
	return types.Timestamp(start.Time().Add(time.Duration(edge.SlaHours) * time.Hour))
}

func CreateStatus(c *domain.StatusCreating, s *session.Session) (*domain.Status, error) {
	if !s.Perms.HasRole(domain.TenantRoleManager + "_" + c.TenantID.String()) {
		return nil, bizerror.ErrForbidden
	}

	status := &domain.Status{
		ID:         idgen.NextID(idWorker),
		TenantID:   c.TenantID,
		Name:       c.Name,
		IsInitial:  c.IsInitial,
		IsFinal:    c.IsFinal,
		Active:     true,
		CreateTime: types.CurrentTimestamp(),
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		var exist []domain.Status
		if err := tx.Where(&domain.Status{TenantID: c.TenantID, Name: c.Name}).Find(&exist).Error; err != nil {
			return err
		}
		if len(exist) > 0 {
			return bizerror.ErrStatusExisted
		}
		return tx.Create(status).Error
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

func QueryStatuses(query *domain.StatusQuery, s *session.Session) (*[]domain.Status, error) {
	if !s.Perms.HasTenantViewPerm(query.TenantID) {
		return &[]domain.Status{}, nil
	}
	var statuses []domain.Status
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Where("tenant_id = ? AND active = ?", query.TenantID, true).
		Order("create_time ASC").Find(&statuses).Error; err != nil {
		return nil, err
	}
	return &statuses, nil
}

func CreateEdge(c *domain.EdgeCreating, s *session.Session) (*domain.WorkflowEdge, error) {
	if !s.Perms.HasRole(domain.TenantRoleManager + "_" + c.TenantID.String()) {
		return nil, bizerror.ErrForbidden
	}

	edge := &domain.WorkflowEdge{
		ID:           idgen.NextID(idWorker),
		TenantID:     c.TenantID,
		FromStatusID: c.FromStatusID,
		ToStatusID:   c.ToStatusID,

		RolesAllowed:  c.RolesAllowed,
		ApproverRoles: c.ApproverRoles,

		RequiresApproval: c.RequiresApproval,
		RequiresComment:  c.RequiresComment,
		SlaHours:         c.SlaHours,
		Active:           true,
		CreateTime:       types.CurrentTimestamp(),
	}
	if edge.RolesAllowed == nil {
		edge.RolesAllowed = domain.RoleTags{}
	}
	if edge.ApproverRoles == nil {
		edge.ApproverRoles = domain.RoleTags{}
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, statusId := range []types.ID{c.FromStatusID, c.ToStatusID} {
			status := domain.Status{}
			if err := tx.Where(&domain.Status{ID: statusId}).First(&status).Error; err != nil {
				return err
			}
			if status.TenantID != c.TenantID {
				return bizerror.ErrTenantMismatch
			}
		}

		// at most one active edge per (tenant, from, to)
		var exist []domain.WorkflowEdge
		if err := tx.Where("tenant_id = ? AND from_status_id = ? AND to_status_id = ? AND active = ?",
			c.TenantID, c.FromStatusID, c.ToStatusID, true).Find(&exist).Error; err != nil {
			return err
		}
		if len(exist) > 0 {
			return bizerror.ErrEdgeExisted
		}
		return tx.Create(edge).Error
	})
	if err != nil {
		return nil, err
	}
	return edge, nil
}

func QueryEdges(query *domain.EdgeQuery, s *session.Session) (*[]domain.WorkflowEdge, error) {
	if !s.Perms.HasTenantViewPerm(query.TenantID) {
		return &[]domain.WorkflowEdge{}, nil
	}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	q := db.Where("tenant_id = ? AND active = ?", query.TenantID, true)
	if query.FromStatusID > 0 {
		q = q.Where("from_status_id = ?", query.FromStatusID)
	}
	var edges []domain.WorkflowEdge
	if err := q.Find(&edges).Error; err != nil {
		return nil, err
	}
	return &edges, nil
}

// DisableEdge deactivates an edge instead of deleting it, open approval
// batches keep their reference for audit.
func DisableEdge(id types.ID, s *session.Session) error {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	return db.Transaction(func(tx *gorm.DB) error {
		edge := domain.WorkflowEdge{}
		if err := tx.Where(&domain.WorkflowEdge{ID: id}).First(&edge).Error; err != nil {
			return err
		}
		if !s.Perms.HasRole(domain.TenantRoleManager + "_" + edge.TenantID.String()) {
			return bizerror.ErrForbidden
		}
		return tx.Model(&domain.WorkflowEdge{}).Where("id = ?", id).
			Update(map[string]interface{}{"active": false}).Error
	})
}
