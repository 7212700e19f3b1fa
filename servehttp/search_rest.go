package servehttp

import (
	"gesdoc/domain"
	"gesdoc/indices/search"
	"gesdoc/session"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathDocumentSearch = "/v1/document-search"

func RegisterDocumentSearchRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathDocumentSearch, middleWares...)
	g.GET("", handleSearchDocuments)
}

func handleSearchDocuments(c *gin.Context) {
	query := domain.DocumentQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	documents, err := search.SearchDocumentsFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, documents)
}
