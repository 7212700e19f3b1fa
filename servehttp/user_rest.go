package servehttp

import (
	"gesdoc/account"
	"gesdoc/bizerror"
	"gesdoc/session"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathUsers = "/v1/users"

func RegisterUsersRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathUsers, middleWares...)
	g.POST("", handleCreateUser)
}

func handleCreateUser(c *gin.Context) {
	creation := account.UserCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	user, err := account.CreateUserFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusCreated, user)
}
