package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quillpress/internal/config"
	"github.com/quillpress/internal/db"
	"github.com/quillpress/internal/logger"
	"github.com/quillpress/internal/router"
	"github.com/quillpress/internal/storage"
	gormlogger "gorm.io/gorm/logger"
)

type e2eSuite struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func newSuite(t *testing.T) *e2eSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.Open(db.DriverSQLite, fmt.Sprintf("file:e2e-%d?mode=memory&cache=shared", time.Now().UnixNano()), gormlogger.Silent)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	if err := db.EnsureUser(gdb, "admin", "admin123"); err != nil {
		t.Fatalf("failed to seed admin: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := config.AppConfig{
		SiteBaseURL:      "https://blog.example.com",
		SessionSecret:    "e2e-secret",
		JWTAccessSecret:  "e2e-access",
		JWTRefreshSecret: "e2e-refresh",
		AccessTTL:        time.Minute,
		RefreshTTL:       time.Hour,
		MediaURLPath:     "/media",
		PageSize:         10,
	}
	media := storage.NewLocalStore(t.TempDir(), cfg.MediaURLPath)

	return &e2eSuite{t: t, handler: router.SetupRouter(cfg, gdb, media, logger.Discard())}
}

func (s *e2eSuite) do(method, path, contentType string, body io.Reader) (int, map[string]any) {
	s.t.Helper()

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			s.t.Fatalf("%s %s: invalid json %q", method, path, w.Body.String())
		}
	}
	return w.Code, out
}

func (s *e2eSuite) json(method, path string, payload any) (int, map[string]any) {
	s.t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			s.t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	return s.do(method, path, "application/json", body)
}

func (s *e2eSuite) login(username, password string) map[string]any {
	s.t.Helper()

	status, out := s.json(http.MethodPost, "/api/token", map[string]any{"username": username, "password": password})
	if status != http.StatusOK {
		s.t.Fatalf("token obtain failed: %d %v", status, out)
	}
	s.token, _ = out["access"].(string)
	return out
}

func (s *e2eSuite) uploadAvatar() map[string]any {
	s.t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{G: 200, A: 255})
	var data bytes.Buffer
	if err := png.Encode(&data, img); err != nil {
		s.t.Fatalf("encode png: %v", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("content", "cover.png")
	if err != nil {
		s.t.Fatalf("create form file: %v", err)
	}
	part.Write(data.Bytes())
	writer.Close()

	status, out := s.do(http.MethodPost, "/api/avatar", writer.FormDataContentType(), &body)
	if status != http.StatusCreated {
		s.t.Fatalf("avatar upload failed: %d %v", status, out)
	}
	return out
}

func TestArticleLifecycle(t *testing.T) {
	s := newSuite(t)

	if status, _ := s.json(http.MethodPost, "/api/category", map[string]any{"title": "Tech"}); status != http.StatusUnauthorized {
		t.Fatalf("anonymous write should be rejected, got %d", status)
	}

	s.login("admin", "admin123")

	status, category := s.json(http.MethodPost, "/api/category", map[string]any{"title": "Tech"})
	if status != http.StatusCreated {
		t.Fatalf("create category: %d %v", status, category)
	}
	categoryID := category["id"].(float64)

	avatar := s.uploadAvatar()
	if content, _ := avatar["content"].(string); !strings.HasPrefix(content, "https://blog.example.com/media/avatar/") {
		t.Fatalf("unexpected avatar content %q", content)
	}

	status, article := s.json(http.MethodPost, "/api/article", map[string]any{
		"title":       "Hello",
		"body":        "# Intro\n\ntext\n\n## Details\n",
		"category_id": categoryID,
		"avatar_id":   avatar["id"],
		"tags":        []string{"new", "new", "go"},
	})
	if status != http.StatusCreated {
		t.Fatalf("create article: %d %v", status, article)
	}
	articleURL := strings.TrimPrefix(article["url"].(string), "https://blog.example.com")

	status, detail := s.json(http.MethodGet, articleURL, nil)
	if status != http.StatusOK {
		t.Fatalf("get article: %d", status)
	}
	if detail["body"] != "# Intro\n\ntext\n\n## Details\n" {
		t.Fatalf("detail should carry raw body, got %v", detail["body"])
	}
	if !strings.Contains(detail["toc_html"].(string), `href="#details"`) {
		t.Fatalf("unexpected toc %v", detail["toc_html"])
	}
	if tags := detail["tags"].([]any); len(tags) != 2 {
		t.Fatalf("expected collapsed tags, got %v", tags)
	}
	if author := detail["author"].(map[string]any); author["username"] != "admin" {
		t.Fatalf("unexpected author %v", author)
	}

	_, again := s.json(http.MethodGet, articleURL, nil)
	if again["body_html"] != detail["body_html"] || again["toc_html"] != detail["toc_html"] {
		t.Fatalf("rendering must be deterministic")
	}

	status, list := s.json(http.MethodGet, fmt.Sprintf("/api/article?category=%d", int(categoryID)), nil)
	if status != http.StatusOK || list["count"] != float64(1) {
		t.Fatalf("unexpected filtered list: %d %v", status, list)
	}
	first := list["results"].([]any)[0].(map[string]any)
	if _, ok := first["body"]; ok {
		t.Fatalf("list representation must not expose body")
	}

	status, _ = s.json(http.MethodDelete, fmt.Sprintf("/api/category/%d", int(categoryID)), nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete category: %d", status)
	}
	_, detail = s.json(http.MethodGet, articleURL, nil)
	if detail["category"] != nil {
		t.Fatalf("article should lose its category, got %v", detail["category"])
	}
}

func TestRejectedWriteLeavesNoTags(t *testing.T) {
	s := newSuite(t)
	s.login("admin", "admin123")

	status, out := s.json(http.MethodPost, "/api/article", map[string]any{
		"title":       "T",
		"body":        "B",
		"category_id": 404,
		"tags":        []string{"ghost"},
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %v", status, out)
	}
	fields := out["fields"].(map[string]any)
	if msgs := fields["category_id"].([]any); msgs[0] != "Category with id 404 not exists." {
		t.Fatalf("unexpected message %v", msgs)
	}

	_, tags := s.json(http.MethodGet, "/api/tag", nil)
	if tags["count"] != float64(0) {
		t.Fatalf("rejected write left tags behind: %v", tags)
	}
}

func TestTagUniquenessAndTokens(t *testing.T) {
	s := newSuite(t)
	pair := s.login("admin", "admin123")

	if status, _ := s.json(http.MethodPost, "/api/tag", map[string]any{"text": "go"}); status != http.StatusCreated {
		t.Fatalf("create tag: %d", status)
	}
	status, out := s.json(http.MethodPost, "/api/tag", map[string]any{"text": "go"})
	if status != http.StatusBadRequest {
		t.Fatalf("expected duplicate to fail, got %d", status)
	}
	if msgs := out["fields"].(map[string]any)["text"].([]any); msgs[0] != "Tag with text go exists." {
		t.Fatalf("unexpected message %v", msgs)
	}

	s.token = ""
	status, refreshed := s.json(http.MethodPost, "/api/token/refresh", map[string]any{"refresh": pair["refresh"]})
	if status != http.StatusOK || refreshed["access"] == "" {
		t.Fatalf("refresh failed: %d %v", status, refreshed)
	}
	if status, _ := s.json(http.MethodPost, "/api/token/verify", map[string]any{"token": refreshed["access"]}); status != http.StatusOK {
		t.Fatalf("verify failed: %d", status)
	}
	if status, _ := s.json(http.MethodPost, "/api/token/verify", map[string]any{"token": "garbage"}); status != http.StatusUnauthorized {
		t.Fatalf("verify should reject garbage, got %d", status)
	}
}
