package indices

import (
	"gesdoc/session"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	PathIndexRequests = "/v1/index-request"
)

// RegisterIndicesRestAPI exposes the admin endpoint that triggers a full
// resync of the document index.
func RegisterIndicesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathIndexRequests, middleWares...)
	g.POST("", handleIndexRequest)
}

// result is false when a sync run is already in progress.
func handleIndexRequest(c *gin.Context) {
	s := session.ExtractSessionFromGinContext(c)
	scheduled, err := ScheduleNewSyncRunFunc(s)
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, gin.H{"result": scheduled})
}
