package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quillpress/internal/config"
	"github.com/quillpress/internal/db"
	"github.com/quillpress/internal/logger"
	"github.com/quillpress/internal/storage"
	gormlogger "gorm.io/gorm/logger"
)

func setupRouter(t *testing.T, cfg config.AppConfig) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.Open(db.DriverSQLite, fmt.Sprintf("file:router-%d?mode=memory&cache=shared", time.Now().UnixNano()), gormlogger.Silent)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	if err := db.EnsureUser(gdb, "root", "password123"); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	mediaRoot := t.TempDir()
	media := storage.NewLocalStore(mediaRoot, cfg.MediaURLPath)
	return SetupRouter(cfg, gdb, media, logger.Discard()), mediaRoot
}

func testConfig() config.AppConfig {
	return config.AppConfig{
		SessionSecret:    "test-secret",
		JWTAccessSecret:  "access",
		JWTRefreshSecret: "refresh",
		AccessTTL:        time.Minute,
		RefreshTTL:       time.Hour,
		MediaURLPath:     "/media",
		PageSize:         10,
	}
}

func TestPing(t *testing.T) {
	r, _ := setupRouter(t, testConfig())

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestSetupRouterServesMedia(t *testing.T) {
	r, mediaRoot := setupRouter(t, testConfig())

	dir := filepath.Join(mediaRoot, "avatar", "20240102")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := []byte("image bytes")
	if err := os.WriteFile(filepath.Join(dir, "a.png"), content, 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/media/avatar/20240102/a.png", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if rr.Body.String() != string(content) {
		t.Fatalf("unexpected body, got %q", rr.Body.String())
	}
}

func TestWritesRequireAuthentication(t *testing.T) {
	r, _ := setupRouter(t, testConfig())

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/article"},
		{http.MethodPut, "/api/article/1"},
		{http.MethodPatch, "/api/category/1"},
		{http.MethodDelete, "/api/tag/1"},
		{http.MethodPost, "/api/avatar"},
		{http.MethodPost, "/api/user"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(route.method, route.path, bytes.NewBufferString(`{}`))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
		})
	}
}

func TestReadsArePublicButBadTokensAreRejected(t *testing.T) {
	r, _ := setupRouter(t, testConfig())

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/article", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/article", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", rr.Code)
	}
}

func TestSessionLoginAuthorizesWrites(t *testing.T) {
	r, _ := setupRouter(t, testConfig())

	rr := httptest.NewRecorder()
	login := httptest.NewRequest(http.MethodPost, "/api-auth/login", bytes.NewBufferString("username=root&password=password123"))
	login.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(rr, login)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected login 200, got %d: %s", rr.Code, rr.Body.String())
	}
	cookies := rr.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("expected session cookie")
	}

	body, _ := json.Marshal(map[string]any{"title": "Tech"})
	req := httptest.NewRequest(http.MethodPost, "/api/category", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestCORSOnlyWhenConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.CORSAllowedOrigins = "https://blog.example.com"
	r, _ := setupRouter(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/article", nil)
	req.Header.Set("Origin", "https://blog.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://blog.example.com" {
		t.Fatalf("unexpected allow origin %q", got)
	}

	plain, _ := setupRouter(t, testConfig())
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/article", nil)
	req.Header.Set("Origin", "https://blog.example.com")
	plain.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("cors headers should be absent without configuration")
	}
}
