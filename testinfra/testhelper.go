package testinfra

import (
	"context"
	"gesdoc/authority"
	"gesdoc/session"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

// BuildSession builds a signed-in session whose tenant roles are parsed
// from perms of the shape "<role>_<tenantId>".
func BuildSession(uid types.ID, perms ...string) *session.Session {
	tenantRoles := authority.TenantRoles{}
	for _, perm := range perms {
		idx := strings.LastIndex(perm, "_")
		if idx > 0 {
			role := perm[0:idx]
			tenantId, err := types.ParseID(perm[idx+1:])
			if err != nil {
				continue
			}
			tenantRoles = append(tenantRoles, authority.TenantRole{TenantID: tenantId, Role: role})
		}
	}

	return &session.Session{
		Context:     context.Background(),
		Token:       "test-token",
		Identity:    session.Identity{ID: uid, Name: "user_" + uid.String()},
		Perms:       perms,
		TenantRoles: tenantRoles,
	}
}

func ExecuteRequest(req *http.Request, router *gin.Engine) (int, string, *http.Response) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	resp := w.Result()
	bodyBytes, _ := ioutil.ReadAll(resp.Body)
	return resp.StatusCode, string(bodyBytes), resp
}
