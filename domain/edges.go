package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fundwit/go-commons/types"
)

// RoleTags is a JSON encoded set of role tags on a workflow edge.
// An empty set on RolesAllowed means any role may use the edge.
type RoleTags []string

func (t RoleTags) Value() (driver.Value, error) {
	jsonBytes, err := json.Marshal(&t)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (t *RoleTags) Scan(v interface{}) error {
	jsonString, ok := v.(string)
	if !ok {
		jsonByte, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("type is neither string nor []byte: %T %v", v, v)
		}
		jsonString = string(jsonByte)
	}
	return json.Unmarshal([]byte(jsonString), t)
}

func (t RoleTags) Contains(role string) bool {
	for _, v := range t {
		if strings.EqualFold(v, role) {
			return true
		}
	}
	return false
}

type WorkflowEdge struct {
	ID           types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	TenantID     types.ID `json:"tenantId" gorm:"index:idx_tenant_from_to" sql:"type:BIGINT UNSIGNED NOT NULL"`
	FromStatusID types.ID `json:"fromStatusId" gorm:"index:idx_tenant_from_to" sql:"type:BIGINT UNSIGNED NOT NULL"`
	ToStatusID   types.ID `json:"toStatusId" gorm:"index:idx_tenant_from_to" sql:"type:BIGINT UNSIGNED NOT NULL"`

	RolesAllowed  RoleTags `json:"rolesAllowed" sql:"type:TEXT"`
	ApproverRoles RoleTags `json:"approverRoles" sql:"type:TEXT"`

	RequiresApproval bool `json:"requiresApproval"`
	RequiresComment  bool `json:"requiresComment"`

	// SlaHours 0 means no deadline for the edge
	SlaHours int  `json:"slaHours"`
	Active   bool `json:"active"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (r *WorkflowEdge) TableName() string {
	return "workflow_edges"
}

type EdgeCreating struct {
	TenantID     types.ID `json:"tenantId" binding:"required"`
	FromStatusID types.ID `json:"fromStatusId" binding:"required"`
	ToStatusID   types.ID `json:"toStatusId" binding:"required"`

	RolesAllowed  RoleTags `json:"rolesAllowed"`
	ApproverRoles RoleTags `json:"approverRoles"`

	RequiresApproval bool `json:"requiresApproval"`
	RequiresComment  bool `json:"requiresComment"`
	SlaHours         int  `json:"slaHours" binding:"min=0"`
}

type EdgeQuery struct {
	TenantID     types.ID `form:"tenantId" json:"-" validate:"required,min=1"`
	FromStatusID types.ID `form:"fromStatusId" json:"-"`
}
