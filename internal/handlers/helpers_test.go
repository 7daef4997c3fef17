package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"tutoring-service/internal/middleware"
	"tutoring-service/internal/models"
)

var (
	tutor   = models.Profile{ID: "tutor-1", UserID: "u-tutor", FullName: "Sipho Dlamini", Role: models.RoleTutor}
	student = models.Profile{ID: "student-1", UserID: "u-student", FullName: "Naledi Khumalo", Role: models.RoleStudent}
)

// newRouter returns a test engine that authenticates every request as profile.
func newRouter(profile *models.Profile) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if profile != nil {
			c.Set(middleware.UserIDKey, profile.ID)
			c.Set(middleware.ProfileKey, *profile)
		}
		c.Next()
	})
	return r
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func strPtr(s string) *string { return &s }
