package servehttp

import (
	"gesdoc/bizerror"
	"gesdoc/domain"
	"gesdoc/domain/tenants"
	"gesdoc/misc"
	"gesdoc/session"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathTenants = "/v1/tenants"

func RegisterTenantsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathTenants, middleWares...)

	g.POST("", handleCreateTenant)
	g.POST(":id/members", handleAddTenantMember)
	g.GET(":id/members", handleQueryTenantMembers)
}

func handleCreateTenant(c *gin.Context) {
	creation := domain.TenantCreating{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	tenant, err := tenants.CreateTenantFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusCreated, tenant)
}

func handleAddTenantMember(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	adding := domain.TenantMemberAdding{}
	if err := c.ShouldBindBodyWith(&adding, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	adding.TenantID = id

	if err := tenants.AddTenantMemberFunc(&adding, session.ExtractSessionFromGinContext(c)); err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, nil)
}

func handleQueryTenantMembers(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	members, err := tenants.QueryTenantMembersFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, members)
}
