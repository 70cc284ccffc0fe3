package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newProtectedEngine(mw gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	engine.POST("/internal/backfill", mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": "ok"})
	})
	return engine
}

func doPost(engine *gin.Engine, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/internal/backfill", nil)
	if secret != "" {
		req.Header.Set(InternalSecretHeader, secret)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestInternalAuthAcceptsMatchingSecret(t *testing.T) {
	engine := newProtectedEngine(InternalAuth("s3cret"))
	rec := doPost(engine, "s3cret")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestInternalAuthRejectsWrongSecret(t *testing.T) {
	engine := newProtectedEngine(InternalAuth("s3cret"))
	require.Equal(t, http.StatusUnauthorized, doPost(engine, "nope").Code)
	require.Equal(t, http.StatusUnauthorized, doPost(engine, "").Code)
}

func TestInternalAuthDisabledWhenUnconfigured(t *testing.T) {
	engine := newProtectedEngine(InternalAuth(""))
	require.Equal(t, http.StatusUnauthorized, doPost(engine, "anything").Code)
	require.Equal(t, http.StatusUnauthorized, doPost(engine, "").Code)
}

func TestRateLimitBlocksWithinWindow(t *testing.T) {
	current := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	limiter := &rateLimiter{
		window: 10 * time.Second,
		last:   make(map[string]time.Time),
		now:    func() time.Time { return current },
	}
	engine := newProtectedEngine(limiter.handle)

	require.Equal(t, http.StatusOK, doPost(engine, "").Code)
	require.Equal(t, http.StatusTooManyRequests, doPost(engine, "").Code)

	current = current.Add(11 * time.Second)
	require.Equal(t, http.StatusOK, doPost(engine, "").Code)
}

func TestRateLimitDisabledForZeroWindow(t *testing.T) {
	engine := newProtectedEngine(RateLimit(0))
	require.Equal(t, http.StatusOK, doPost(engine, "").Code)
	require.Equal(t, http.StatusOK, doPost(engine, "").Code)
}

func TestCORSAllowsListedOrigin(t *testing.T) {
	engine := gin.New()
	engine.Use(CORS([]string{"https://app.example.com"}))
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
