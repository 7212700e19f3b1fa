package bizerror_test

import (
	"errors"
	"gesdoc/bizerror"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
)

func buildRouter(handler gin.HandlerFunc) *gin.Engine {
	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	router.GET("/probe", handler)
	return router
}

func execute(router *gin.Engine) (int, string) {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code, w.Body.String()
}

func TestErrorHandling(t *testing.T) {
	RegisterTestingT(t)

	t.Run("panic with a sentinel is mapped", func(t *testing.T) {
		status, body := execute(buildRouter(func(c *gin.Context) {
			panic(bizerror.ErrUnauthenticated)
		}))
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(body).To(MatchJSON(`{"code": "common.unauthenticated", "message": "unauthenticated", "data": null}`))
	})

	t.Run("collected gin errors are mapped too", func(t *testing.T) {
		status, body := execute(buildRouter(func(c *gin.Context) {
			_ = c.Error(bizerror.ErrConcurrentModification)
			c.Abort()
		}))
		Expect(status).To(Equal(http.StatusConflict))
		Expect(body).To(MatchJSON(`{"code": "workflow.concurrent_modification", "message": "concurrent modification", "data": null}`))
	})

	t.Run("bad param carries its cause", func(t *testing.T) {
		status, body := execute(buildRouter(func(c *gin.Context) {
			panic(&bizerror.ErrBadParam{Cause: errors.New("name is required")})
		}))
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code": "common.bad_param", "message": "name is required", "data": null}`))
	})

	t.Run("gorm record not found maps to 404", func(t *testing.T) {
		status, body := execute(buildRouter(func(c *gin.Context) {
			_ = c.Error(gorm.ErrRecordNotFound)
			c.Abort()
		}))
		Expect(status).To(Equal(http.StatusNotFound))
		Expect(body).To(MatchJSON(`{"code": "common.record_not_found", "message": "record not found", "data": null}`))
	})

	t.Run("unknown errors become internal server error", func(t *testing.T) {
		status, body := execute(buildRouter(func(c *gin.Context) {
			_ = c.Error(errors.New("a mocked error"))
			c.Abort()
		}))
		Expect(status).To(Equal(http.StatusInternalServerError))
		Expect(body).To(ContainSubstring("common.internal_server_error"))
	})
}
