package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/ledger_backend/utils"
)

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware())
	r.GET("/me", func(c *gin.Context) {
		id, _ := utils.GetUserIdFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
	r.GET("/admin", RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header   string
		value    string
		expected string
	}{
		{"Authorization", "Bearer abc", "abc"},
		{"Authorization", "bearer  abc ", "abc"},
		{"Authorization", "Basic abc", ""},
		{"token", "xyz", "xyz"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(tc.header, tc.value)
		if got := bearerToken(req); got != tc.expected {
			t.Fatalf("%s=%q: expected %q, got %q", tc.header, tc.value, tc.expected, got)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	t.Setenv("API_SECRET", "test-secret")
	r := newAuthRouter()

	// anonymous passes
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous request: expected 200, got %d", w.Code)
	}

	// garbage token is rejected
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: expected 401, got %d", w.Code)
	}

	// valid user token reaches the handler but not the admin route
	token, err := utils.JwtGenerate("u-1", "user@example.com", "user")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != `{"id":"u-1"}` {
		t.Fatalf("valid token: got %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("user on admin route: expected 403, got %d", w.Code)
	}

	adminToken, _ := utils.JwtGenerate("u-2", "admin@example.com", "admin")
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("token", adminToken)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("admin route: expected 204, got %d", w.Code)
	}
}

func TestIdentityProxyMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/identity", IdentityProxyMiddleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	t.Setenv("IDENTITY_PROXY_SECRET", "")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/identity", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("disabled: expected 404, got %d", w.Code)
	}

	t.Setenv("IDENTITY_PROXY_SECRET", "s3cret")
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/identity", nil)
	req.Header.Set("X-Identity-Secret", "wrong")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong secret: expected 401, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/auth/identity", nil)
	req.Header.Set("X-Identity-Secret", "s3cret")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("right secret: expected 204, got %d", w.Code)
	}
}
