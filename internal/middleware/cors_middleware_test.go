package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func corsEngine(origins ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(CORS(origins))
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return engine
}

func TestCORSAllowsListedAndWildcardSubdomains(t *testing.T) {
	engine := corsEngine("http://localhost:5173", "https://*.studiora.app")

	cases := map[string]string{
		"http://localhost:5173":     "http://localhost:5173",
		"https://web.studiora.app":  "https://web.studiora.app",
		"http://web.studiora.app":   "",
		"https://evil.example.com":  "",
		"https://studiora.app.evil": "",
	}
	for origin, expected := range cases {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", origin)
		recorder := httptest.NewRecorder()

		engine.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, expected, recorder.Header().Get("Access-Control-Allow-Origin"), origin)
	}
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	engine := corsEngine("*")

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://anything.example")
	recorder := httptest.NewRecorder()

	engine.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, recorder.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}
