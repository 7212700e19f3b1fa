package servehttp

import (
	"gesdoc/bizerror"
	"gesdoc/domain"
	"gesdoc/domain/docs"
	"gesdoc/domain/flow"
	"gesdoc/domain/history"
	"gesdoc/misc"
	"gesdoc/session"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var PathDocuments = "/v1/documents"

func RegisterDocumentsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathDocuments, middleWares...)

	handler := &documentHandler{validator: validator.New()}

	g.POST("", handler.handleCreate)
	g.GET("", handler.handleQuery)
	g.GET(":id", handler.handleDetail)
	g.GET(":id/reachable-statuses", handler.handleReachableStatuses)
	g.GET(":id/histories", handler.handleQueryHistories)
	g.POST(":id/transitions", handler.handleCreateTransition)
}

type documentHandler struct {
	validator *validator.Validate
}

func (h *documentHandler) handleCreate(c *gin.Context) {
	creation := domain.DocumentCreation{}
	err := c.ShouldBindBodyWith(&creation, binding.JSON)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err = h.validator.Struct(creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	doc, err := docs.CreateDocumentFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *documentHandler) handleQuery(c *gin.Context) {
	query := domain.DocumentQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	documents, err := docs.QueryDocumentsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, documents)
}

func (h *documentHandler) handleDetail(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	doc, err := docs.DetailDocumentFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *documentHandler) handleReachableStatuses(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	s := session.ExtractSessionFromGinContext(c)
	doc, err := docs.DetailDocumentFunc(id, s)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	statuses, err := flow.ListReachableFunc(doc.TenantID, doc.StatusID, s)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, statuses)
}

func (h *documentHandler) handleQueryHistories(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	query := domain.HistoryQuery{DocumentID: id}
	entries, err := history.QueryHistoriesFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *documentHandler) handleCreateTransition(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	creation := domain.TransitionCreation{}
	err = c.ShouldBindBodyWith(&creation, binding.JSON)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	creation.DocumentID = id
	if err = h.validator.Struct(creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	result, err := docs.RequestTransitionFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusCreated, result)
}
