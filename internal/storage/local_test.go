package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStoreSaveAndDelete(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root, "/media/")

	name := "avatar/20240102/cover.png"
	if err := store.Save(context.Background(), name, "image/png", strings.NewReader("png-bytes")); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "avatar", "20240102", "cover.png"))
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("unexpected content %q", data)
	}

	if got := store.URL(name); got != "/media/avatar/20240102/cover.png" {
		t.Fatalf("unexpected url %q", got)
	}

	if err := store.Delete(context.Background(), name); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(context.Background(), name); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "/media")

	err := store.Save(context.Background(), "../outside.txt", "text/plain", strings.NewReader("x"))
	if !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	if _, _, err := New(context.Background(), Config{Backend: "ftp"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}

	store, closeFn, err := New(context.Background(), Config{Backend: "local", Root: t.TempDir(), URLPath: "/media"})
	if err != nil {
		t.Fatalf("local backend: %v", err)
	}
	if _, ok := store.(*LocalStore); !ok {
		t.Fatalf("expected *LocalStore, got %T", store)
	}
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
