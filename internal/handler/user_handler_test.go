package handler

import (
	"net/http"
	"strings"
	"testing"
)

func TestCreateUserValidation(t *testing.T) {
	api, gdb := setupTestAPI(t)
	root := seedUser(t, gdb, "root", true)

	cases := []struct {
		name    string
		payload map[string]any
		field   string
	}{
		{name: "missing username", payload: map[string]any{"password": "password123"}, field: "username"},
		{name: "short password", payload: map[string]any{"username": "bob", "password": "short"}, field: "password"},
		{name: "long username", payload: map[string]any{"username": strings.Repeat("u", 151), "password": "password123"}, field: "username"},
		{name: "taken username", payload: map[string]any{"username": "root", "password": "password123"}, field: "username"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, w := newContext(http.MethodPost, "/api/user", tc.payload, root)
			api.CreateUser(c)
			if len(fieldErrors(t, w, tc.field)) == 0 {
				t.Fatalf("expected %s error: %s", tc.field, w.Body.String())
			}
		})
	}
}

func TestCreateUserReturnsPublicDescriptor(t *testing.T) {
	api, gdb := setupTestAPI(t)
	root := seedUser(t, gdb, "root", true)

	c, w := newContext(http.MethodPost, "/api/user", map[string]any{"username": "bob", "password": "password123"}, root)
	api.CreateUser(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	out := decodeBody(t, w)
	for _, key := range []string{"id", "username", "last_login", "date_joined"} {
		if _, ok := out[key]; !ok {
			t.Fatalf("missing %s in %v", key, out)
		}
	}
	if len(out) != 4 {
		t.Fatalf("unexpected extra fields in %v", out)
	}
}

func TestUpdateUserSelfOnly(t *testing.T) {
	api, gdb := setupTestAPI(t)
	alice := seedUser(t, gdb, "alice", false)
	bob := seedUser(t, gdb, "bob", false)

	c, w := newContext(http.MethodPatch, "/api/user/1", map[string]any{"username": "mallory"}, bob, idParam(alice.ID))
	api.PatchUser(c)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", w.Code)
	}

	c, w = newContext(http.MethodPut, "/api/user/1", map[string]any{"password": "password456"}, alice, idParam(alice.ID))
	api.UpdateUser(c)
	if len(fieldErrors(t, w, "username")) != 1 {
		t.Fatalf("expected username required")
	}

	c, w = newContext(http.MethodPatch, "/api/user/1", map[string]any{"username": "alice2"}, alice, idParam(alice.ID))
	api.PatchUser(c)
	if w.Code != http.StatusOK || decodeBody(t, w)["username"] != "alice2" {
		t.Fatalf("unexpected response %d: %s", w.Code, w.Body.String())
	}

	c, w = newContext(http.MethodDelete, "/api/user/1", nil, alice, idParam(alice.ID))
	api.DeleteUser(c)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", w.Code)
	}
}
