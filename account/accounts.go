package account

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"gesdoc/authority"
	"gesdoc/bizerror"
	"gesdoc/domain"
	"gesdoc/idgen"
	"gesdoc/persistence"
	"gesdoc/session"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
	"github.com/sony/sonyflake"
)

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	LoadPermFunc   = LoadPerm
	CreateUserFunc = CreateUser
)

const SystemAdminRole = "system:admin"

func HashSha256(raw string) string {
	h := sha256.New()
	h.Write([]byte(raw))
	return hex.EncodeToString(h.Sum(nil))
}

func CreateUser(c *UserCreation, s *session.Session) (*UserInfo, error) {
	if !s.Perms.HasRole(SystemAdminRole) {
		return nil, bizerror.ErrForbidden
	}

	user := User{
		ID:     idgen.NextID(idWorker),
		Name:   c.Name,
		Secret: HashSha256(c.Secret),

		Nickname: c.Nickname,
	}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &UserInfo{ID: user.ID, Name: user.Name, Nickname: user.Nickname}, nil
}

// LoadPerm collects the role tags of a user from its tenant memberships.
func LoadPerm(userId types.ID) (authority.Permissions, authority.TenantRoles) {
	perms := authority.Permissions{}
	tenantRoles := authority.TenantRoles{}

	var memberships []domain.TenantMember
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	if err := db.Where(&domain.TenantMember{MemberID: userId}).Find(&memberships).Error; err != nil {
		logrus.Warnf("failed to load tenant memberships of user %v: %v", userId, err)
		return perms, tenantRoles
	}

	for _, membership := range memberships {
		perms = append(perms, membership.Role+"_"+membership.TenantID.String())
		tenantRoles = append(tenantRoles, authority.TenantRole{TenantID: membership.TenantID, Role: membership.Role})
	}
	return perms, tenantRoles
}
