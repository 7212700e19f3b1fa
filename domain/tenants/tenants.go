package tenants

import (
	"gesdoc/account"
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

	CreateTenantFunc       = CreateTenant
	AddTenantMemberFunc    = AddTenantMember
	QueryTenantMembersFunc = QueryTenantMembers
)

func CreateTenant(c *domain.TenantCreating, s *session.Session) (*domain.Tenant, error) {
	if !s.Perms.HasRole(account.SystemAdminRole) {
		return nil, bizerror.ErrForbidden
	}

	tenant := &domain.Tenant{
		ID:         idgen.NextID(idWorker),
		Name:       c.Name,
		Identifier: c.Identifier,
		CreateTime: types.CurrentTimestamp(),
		Creator:    s.Identity.ID,
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tenant).Error; err != nil {
			return err
		}
		// creator becomes the first manager
		member := &domain.TenantMember{
			TenantID: tenant.ID, MemberID: s.Identity.ID,
			Role: domain.TenantRoleManager, CreateTime: tenant.CreateTime,
		}
		return tx.Create(member).Error
	})
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func AddTenantMember(c *domain.TenantMemberAdding, s *session.Session) error {
	if !s.Perms.HasRole(domain.TenantRoleManager + "_" + c.TenantID.String()) {
		return bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	return db.Transaction(func(tx *gorm.DB) error {
		tenant := domain.Tenant{}
		if err := tx.Where(&domain.Tenant{ID: c.TenantID}).First(&tenant).Error; err != nil {
			return err
		}
		member := domain.TenantMember{TenantID: c.TenantID, MemberID: c.MemberID}
		if err := tx.Where(&member).First(&member).Error; err == nil {
			return tx.Model(&domain.TenantMember{}).
				Where("tenant_id = ? AND member_id = ?", c.TenantID, c.MemberID).
				Update(map[string]interface{}{"role": c.Role}).Error
		} else if !gorm.IsRecordNotFoundError(err) {
			return err
		}
		member.Role = c.Role
		member.CreateTime = types.CurrentTimestamp()
		return tx.Create(&member).Error
	})
}

func QueryTenantMembers(tenantId types.ID, s *session.Session) (*[]domain.TenantMember, error) {
	if !s.Perms.HasTenantViewPerm(tenantId) {
		return nil, bizerror.ErrForbidden
	}
	var members []domain.TenantMember
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Where(&domain.TenantMember{TenantID: tenantId}).Find(&members).Error; err != nil {
		return nil, err
	}
	return &members, nil
}
