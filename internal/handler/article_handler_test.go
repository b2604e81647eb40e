package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/quillpress/internal/db"
)

func TestCreateArticleUsesCallerAsAuthor(t *testing.T) {
	api, gdb := setupTestAPI(t)
	alice := seedUser(t, gdb, "alice", false)
	bob := seedUser(t, gdb, "bob", false)

	payload := map[string]any{
		"title":     "Hello",
		"body":      "# Hi\n",
		"tags":      []string{"go", "go"},
		"author_id": bob.ID,
	}
	c, w := newContext(http.MethodPost, "/api/article", payload, alice)
	api.CreateArticle(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	out := decodeBody(t, w)

	author, _ := out["author"].(map[string]any)
	if author["username"] != "alice" {
		t.Fatalf("expected author alice, got %v", author)
	}
	if _, leaked := author["password"]; leaked {
		t.Fatalf("password must never be serialized")
	}
	if !strings.Contains(out["body_html"].(string), `<h1 id="hi">Hi</h1>`) {
		t.Fatalf("unexpected body_html %v", out["body_html"])
	}
	if !strings.Contains(out["toc_html"].(string), `href="#hi"`) {
		t.Fatalf("unexpected toc_html %v", out["toc_html"])
	}
	tags, _ := out["tags"].([]any)
	if len(tags) != 1 || tags[0] != "go" {
		t.Fatalf("unexpected tags %v", tags)
	}
	if out["url"] != "http://example.com/api/article/1" {
		t.Fatalf("unexpected url %v", out["url"])
	}
}

func TestCreateArticleRejectsUnknownCategory(t *testing.T) {
	api, gdb := setupTestAPI(t)
	alice := seedUser(t, gdb, "alice", false)

	payload := map[string]any{"title": "T", "body": "B", "category_id": 9999, "tags": []string{"orphan"}}
	c, w := newContext(http.MethodPost, "/api/article", payload, alice)
	api.CreateArticle(c)

	messages := fieldErrors(t, w, "category_id")
	if len(messages) != 1 || messages[0] != "Category with id 9999 not exists." {
		t.Fatalf("unexpected messages %v", messages)
	}

	var count int64
	gdb.Model(&db.Tag{}).Count(&count)
	if count != 0 {
		t.Fatalf("rejected write must not create tags, got %d", count)
	}
}

func TestListArticlesOmitsBody(t *testing.T) {
	api, gdb := setupTestAPI(t)
	alice := seedUser(t, gdb, "alice", false)

	for _, title := range []string{"one", "two", "three"} {
		c, w := newContext(http.MethodPost, "/api/article", map[string]any{"title": title, "body": "secret body"}, alice)
		api.CreateArticle(c)
		if w.Code != http.StatusCreated {
			t.Fatalf("failed to create article: %s", w.Body.String())
		}
	}

	c, w := newContext(http.MethodGet, "/api/article?page=2", nil, nil)
	api.ListArticles(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "secret body") || strings.Contains(w.Body.String(), "body_html") {
		t.Fatalf("list must not expose body: %s", w.Body.String())
	}

	out := decodeBody(t, w)
	if out["count"] != float64(3) {
		t.Fatalf("unexpected count %v", out["count"])
	}
	if out["next"] != nil {
		t.Fatalf("expected no next page, got %v", out["next"])
	}
	if out["previous"] != "http://example.com/api/article" {
		t.Fatalf("unexpected previous %v", out["previous"])
	}
	if results, _ := out["results"].([]any); len(results) != 1 {
		t.Fatalf("expected 1 result on page 2, got %d", len(results))
	}
}

func TestListArticlesInvalidPage(t *testing.T) {
	api, _ := setupTestAPI(t)

	for _, target := range []string{"/api/article?page=5", "/api/article?page=abc", "/api/article?page=0"} {
		c, w := newContext(http.MethodGet, target, nil, nil)
		api.ListArticles(c)

		if w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected status 404, got %d", target, w.Code)
		}
		if decodeBody(t, w)["error"] != "Invalid page." {
			t.Fatalf("%s: unexpected body %s", target, w.Body.String())
		}
	}
}

func TestUpdateArticleForbiddenForOthers(t *testing.T) {
	api, gdb := setupTestAPI(t)
	alice := seedUser(t, gdb, "alice", false)
	bob := seedUser(t, gdb, "bob", false)

	c, w := newContext(http.MethodPost, "/api/article", map[string]any{"title": "T", "body": "B"}, alice)
	api.CreateArticle(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("failed to create article: %s", w.Body.String())
	}

	c, w = newContext(http.MethodPatch, "/api/article/1", map[string]any{"title": "X"}, bob, idParam(1))
	api.PatchArticle(c)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", w.Code)
	}

	c, w = newContext(http.MethodPatch, "/api/article/1", map[string]any{"category_id": nil}, alice, idParam(1))
	api.PatchArticle(c)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if out := decodeBody(t, w); out["title"] != "T" || out["category"] != nil {
		t.Fatalf("unexpected article %v", out)
	}

	c, w = newContext(http.MethodDelete, "/api/article/1", nil, alice, idParam(1))
	api.DeleteArticle(c)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", w.Code)
	}

	c, w = newContext(http.MethodGet, "/api/article/1", nil, nil, idParam(1))
	api.GetArticle(c)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}
