package servehttp

import (
	"gesdoc/bizerror"
	"gesdoc/domain"
	"gesdoc/domain/docs"
	"gesdoc/misc"
	"gesdoc/session"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathApprovalRequests = "/v1/approval-requests"

type ApprovalResponding struct {
	Comment string `json:"comment"`
}

func RegisterApprovalsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathApprovalRequests, middleWares...)

	g.GET("", handleQueryApprovalRequests)
	g.POST(":id/approval", handleApprove)
	g.POST(":id/rejection", handleReject)
}

func handleQueryApprovalRequests(c *gin.Context) {
	query := domain.ApprovalRequestQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	requests, err := docs.QueryApprovalRequestsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, requests)
}

func handleApprove(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	responding := ApprovalResponding{}
	if err := c.ShouldBindBodyWith(&responding, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	result, err := docs.ApproveRequestFunc(id, responding.Comment, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, result)
}

func handleReject(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	responding := ApprovalResponding{}
	if err := c.ShouldBindBodyWith(&responding, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	result, err := docs.RejectRequestFunc(id, responding.Comment, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, result)
}
