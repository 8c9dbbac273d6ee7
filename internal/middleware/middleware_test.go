package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/BruksfildServices01/salon-scheduler/internal/metrics"
	"github.com/BruksfildServices01/salon-scheduler/internal/portal"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.salon.test"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://app.salon.test")
	rec := serve(r, req)
	assert.Equal(t, "https://app.salon.test", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.test")
	rec = serve(r, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.salon.test")
	rec = serve(r, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://evil.test")
	rec = serve(r, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	open := gin.New()
	open.Use(CORSMiddleware(nil))
	open.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://anywhere.test")
	rec = serve(open, req)
	assert.Equal(t, "https://anywhere.test", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLoggerAndMetrics(t *testing.T) {
	var buf bytes.Buffer
	m := metrics.New()

	r := gin.New()
	r.Use(RequestLogger(slog.New(slog.NewTextHandler(&buf, nil))), Metrics(m))
	r.GET("/api/db/clients/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	serve(r, httptest.NewRequest(http.MethodGet, "/api/db/clients/abc", nil))

	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "route=/api/db/clients/:id")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/db/clients/:id", "4xx")))
}

func TestPortalSession(t *testing.T) {
	issuer := portal.NewSessionIssuer("secret", time.Hour)
	raw, _, err := issuer.Issue("client_avery", "abcdef123456")
	assert.NoError(t, err)

	r := gin.New()
	r.Use(PortalSession(issuer))
	r.GET("/packet", func(c *gin.Context) {
		token, ok := InviteToken(c)
		c.JSON(http.StatusOK, gin.H{"token": token, "ok": ok})
	})

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/packet", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"token":"","ok":false}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/packet", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec = serve(r, req)
	assert.JSONEq(t, `{"token":"abcdef123456","ok":true}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/packet", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_session")

	req = httptest.NewRequest(http.MethodGet, "/packet", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec = serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
