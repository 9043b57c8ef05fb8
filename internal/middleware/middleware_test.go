package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franciscosanchezn/insight-hub-api/internal/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newIssuer(t *testing.T) *auth.SessionIssuer {
	t.Helper()
	issuer, err := auth.NewSessionIssuer("middleware-test-secret")
	require.NoError(t, err)
	return issuer
}

func protectedRouter(verifier SessionVerifier, extra ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	handlers := append([]gin.HandlerFunc{SessionAuth(verifier)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		principal, _ := PrincipalFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": principal.ID, "kind": principal.Kind})
	})
	router.GET("/protected", handlers...)
	return router
}

func TestSessionAuth(t *testing.T) {
	issuer := newIssuer(t)
	router := protectedRouter(issuer)
	accountToken, err := issuer.Issue(12, "a@b.co", time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		target string
		header string
		status int
	}{
		{"bearer header", "/protected", "Bearer " + accountToken, http.StatusOK},
		{"token query", "/protected?token=" + accountToken, "", http.StatusOK},
		{"missing", "/protected", "", http.StatusUnauthorized},
		{"wrong scheme", "/protected", "Basic abc", http.StatusUnauthorized},
		{"empty bearer", "/protected", "Bearer ", http.StatusUnauthorized},
		{"invalid token", "/protected", "Bearer not-a-token", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusUnauthorized {
				assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")
			}
		})
	}
}

func TestRequireKind(t *testing.T) {
	issuer := newIssuer(t)
	accountToken, err := issuer.Issue(1, "a@b.co", time.Hour)
	require.NoError(t, err)
	adminToken, err := issuer.IssueAdmin(2, time.Hour)
	require.NoError(t, err)

	adminOnly := protectedRouter(issuer, RequireAdmin())
	accountOnly := protectedRouter(issuer, RequireAccount())

	do := func(router *gin.Engine, token string) int {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do(adminOnly, adminToken))
	assert.Equal(t, http.StatusForbidden, do(adminOnly, accountToken))
	assert.Equal(t, http.StatusOK, do(accountOnly, accountToken))
	assert.Equal(t, http.StatusForbidden, do(accountOnly, adminToken))
}

func TestRequireKindWithoutSession(t *testing.T) {
	router := gin.New()
	router.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"), "burst exhausted")
	assert.True(t, limiter.Allow("10.0.0.2"), "clients are limited separately")

	now = now.Add(time.Second)
	assert.True(t, limiter.Allow("10.0.0.1"), "token refilled")

	now = now.Add(idleVisitorTTL + time.Second)
	limiter.Allow("10.0.0.3")
	assert.Len(t, limiter.visitors, 1, "idle clients are dropped")
}

func TestRateLimiterMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(NewRateLimiter(1, 1).Middleware())
	router.GET("/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "TOO_MANY_REQUESTS")
}

func TestHTTPMetrics(t *testing.T) {
	metrics, err := NewHTTPMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	router := gin.New()
	router.Use(metrics.Middleware())
	router.GET("/posts/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/metrics", metrics.Handler())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/posts/1", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/posts/2", nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `insighthub_http_requests_total{method="GET",route="/posts/:id",status="204"} 2`)
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFrom(c)) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	incoming := "7d444840-9dc0-11d1-b245-5ffdce74fad2"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, incoming, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.NotEqual(t, "<script>", w.Header().Get(RequestIDHeader))
}

func TestRequestLoggerOmitsQuery(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)

	router := gin.New()
	router.Use(RequestID(), RequestLogger(logger))
	router.GET("/auth/me", func(c *gin.Context) { c.Status(http.StatusUnauthorized) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/auth/me?token=secret-token", nil))

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "/auth/me", entry.Data["path"])
	assert.Equal(t, http.StatusUnauthorized, entry.Data["status"])
	for _, value := range entry.Data {
		if s, ok := value.(string); ok {
			assert.False(t, strings.Contains(s, "secret-token"))
		}
	}
}

func TestRateLimiterSweepsOnInterval(t *testing.T) {
	limiter := NewRateLimiter(10, 10)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.Allow("10.0.0.1")
	swept := limiter.lastSweep

	now = now.Add(idleVisitorTTL / 2)
	limiter.Allow("10.0.0.2")
	assert.Equal(t, swept, limiter.lastSweep, "no sweep before the interval elapses")
	assert.Len(t, limiter.visitors, 2)

	now = now.Add(idleVisitorTTL/2 + time.Second)
	limiter.Allow("10.0.0.3")
	assert.Equal(t, now, limiter.lastSweep)
	assert.Len(t, limiter.visitors, 2, "only the client idle past the TTL is dropped")
	assert.NotContains(t, limiter.visitors, "10.0.0.1")
}
