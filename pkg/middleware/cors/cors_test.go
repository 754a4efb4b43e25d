package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func request(allowed []string, method, origin string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(allowed))
	r.GET("/api/groups", func(c *gin.Context) { c.Status(http.StatusOK) })
	req := httptest.NewRequest(method, "/api/groups", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAllowAllWithoutCredentials(t *testing.T) {
	w := request(nil, http.MethodGet, "https://timetable.example")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
}

func TestAllowListEchoesOrigin(t *testing.T) {
	allowed := []string{"https://timetable.example/"}
	w := request(allowed, http.MethodGet, "https://timetable.example")
	assert.Equal(t, "https://timetable.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = request(allowed, http.MethodGet, "https://evil.example")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPreflightShortCircuits(t *testing.T) {
	w := request([]string{"https://timetable.example"}, http.MethodOptions, "https://timetable.example")
	assert.Equal(t, http.StatusNoContent, w.Code)
}
