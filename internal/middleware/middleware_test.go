package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/javajoker/jewelry-backend/internal/i18n"
	"github.com/javajoker/jewelry-backend/internal/models"
	"github.com/javajoker/jewelry-backend/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("middleware-test-secret")
}

func protectedRouter() *gin.Engine {
	r := gin.New()
	r.Use(I18nMiddleware("en"))
	admin := r.Group("/admin", AuthRequired(), AdminRequired())
	admin.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	staff := r.Group("/staff", AuthRequired(), StaffRequired())
	staff.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func bearer(t *testing.T, role models.UserRole) string {
	token, err := utils.GenerateJWT(uuid.New(), "tester", string(role), 1)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthRequired(t *testing.T) {
	r := protectedRouter()

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"missing header", "/admin/ping", "", http.StatusUnauthorized},
		{"wrong scheme", "/admin/ping", "Token abc", http.StatusUnauthorized},
		{"garbage token", "/admin/ping", "Bearer abc", http.StatusUnauthorized},
		{"staff on admin route", "/admin/ping", bearer(t, models.UserRoleStaff), http.StatusForbidden},
		{"admin on admin route", "/admin/ping", bearer(t, models.UserRoleAdmin), http.StatusOK},
		{"staff on staff route", "/staff/ping", bearer(t, models.UserRoleStaff), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusOK {
				assert.Contains(t, w.Body.String(), `"success":false`)
			}
		})
	}
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	refresh, err := utils.GenerateRefreshToken(uuid.New(), 1)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/staff/ping", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	w := httptest.NewRecorder()
	protectedRouter().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(NewRateLimiter(rate.Every(time.Hour), 2).Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestRateLimiterEvictsIdleVisitors(t *testing.T) {
	rl := &RateLimiter{visitors: make(map[string]*visitor), rate: rate.Inf, burst: 1, idleTTL: time.Minute}
	rl.getVisitor("10.0.0.1")
	rl.evictIdle(time.Now().Add(2 * time.Minute))
	assert.Empty(t, rl.visitors)
}

func TestI18nMiddleware(t *testing.T) {
	require.NoError(t, i18n.Initialize("en"))

	r := gin.New()
	r.Use(I18nMiddleware("en"))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, utils.GetLangFromContext(c)) })

	tests := map[string]string{
		"":                     "en",
		"hi-IN,hi;q=0.9":       "hi",
		"fr-FR,en;q=0.8":       "en",
		"de":                   "en",
		"  HI ; q=1 , en":      "hi",
	}
	for header, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", header)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Body.String(), "header %q", header)
	}
}

type auditSink struct {
	entries chan *models.AuditLog
}

func (s *auditSink) Record(_ context.Context, entry *models.AuditLog) error {
	s.entries <- entry
	return nil
}

func TestAuditLogMiddleware(t *testing.T) {
	sink := &auditSink{entries: make(chan *models.AuditLog, 1)}
	userID := uuid.New()
	productID := uuid.New()

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", userID.String()) }, AuditLogMiddleware(sink))
	r.PUT("/v1/admin/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	body := strings.NewReader(`{"name":"Band","password":"secret"}`)
	req := httptest.NewRequest(http.MethodPut, "/v1/admin/products/"+productID.String(), body)
	r.ServeHTTP(httptest.NewRecorder(), req)

	select {
	case entry := <-sink.entries:
		assert.Equal(t, "PUT /v1/admin/products/:id", entry.Action)
		assert.Equal(t, "products", entry.ResourceType)
		require.NotNil(t, entry.ResourceID)
		assert.Equal(t, productID, *entry.ResourceID)
		assert.Equal(t, userID, *entry.UserID)
		assert.Equal(t, "Band", entry.NewValues["name"])
		assert.NotContains(t, entry.NewValues, "password")
	case <-time.After(time.Second):
		t.Fatal("audit entry not recorded")
	}
}

func TestExtractResourceType(t *testing.T) {
	assert.Equal(t, "products", extractResourceType("/v1/products/abc"))
	assert.Equal(t, "pricing", extractResourceType("/v1/admin/pricing/recalculate"))
	assert.Equal(t, "health", extractResourceType("/health"))
	assert.Equal(t, "unknown", extractResourceType("/"))
}
