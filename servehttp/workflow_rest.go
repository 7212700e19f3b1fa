package servehttp

import (
	"gesdoc/bizerror"
	"gesdoc/domain"
	"gesdoc/domain/flow"
	"gesdoc/misc"
	"gesdoc/session"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	PathStatuses      = "/v1/statuses"
	PathWorkflowEdges = "/v1/workflow-edges"
)

func RegisterWorkflowRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	handler := &workflowHandler{validator: validator.New()}

	statuses := r.Group(PathStatuses, middleWares...)
	statuses.POST("", handler.handleCreateStatus)
	statuses.GET("", handler.handleQueryStatuses)

	edges := r.Group(PathWorkflowEdges, middleWares...)
	edges.POST("", handler.handleCreateEdge)
	edges.GET("", handler.handleQueryEdges)
	edges.DELETE(":id", handler.handleDisableEdge)
}

type workflowHandler struct {
	validator *validator.Validate
}

func (h *workflowHandler) handleCreateStatus(c *gin.Context) {
	creation := domain.StatusCreating{}
	err := c.ShouldBindBodyWith(&creation, binding.JSON)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err = h.validator.Struct(creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	status, err := flow.CreateStatusFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusCreated, status)
}

func (h *workflowHandler) handleQueryStatuses(c *gin.Context) {
	query := domain.StatusQuery{}
	_ = c.MustBindWith(&query, binding.Query)
	if err := h.validator.Struct(query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	statuses, err := flow.QueryStatusesFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, statuses)
}

func (h *workflowHandler) handleCreateEdge(c *gin.Context) {
	creation := domain.EdgeCreating{}
	err := c.ShouldBindBodyWith(&creation, binding.JSON)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err = h.validator.Struct(creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	edge, err := flow.CreateEdgeFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusCreated, edge)
}

func (h *workflowHandler) handleQueryEdges(c *gin.Context) {
	query := domain.EdgeQuery{}
	_ = c.MustBindWith(&query, binding.Query)
	if err := h.validator.Struct(query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	edges, err := flow.QueryEdgesFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, edges)
}

func (h *workflowHandler) handleDisableEdge(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	if err := flow.DisableEdgeFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
