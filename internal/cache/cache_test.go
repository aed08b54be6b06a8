package cache

import (
	"testing"
	"time"

	"github.com/pengzhou/bz-studypal-api/internal/model"
)

func entry(id string) *model.CachedUser {
	return &model.CachedUser{
		ID:     id,
		Email:  id + "@example.com",
		Role:   model.RoleStudent,
		Status: model.StatusActive,
	}
}

func TestSetGet(t *testing.T) {
	c := New(time.Minute)
	c.Set("u1", entry("u1"))

	got, ok := c.Get("u1")
	if !ok || got.Email != "u1@example.com" {
		t.Fatalf("expected cached entry, got %+v ok=%v", got, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.Set("u1", entry("u1"))

	time.Sleep(50 * time.Millisecond)

	if _, ok := c.Get("u1"); ok {
		t.Fatal("expected entry to be expired")
	}
}

func TestDeleteAndClear(t *testing.T) {
	c := New(time.Minute)
	c.Set("u1", entry("u1"))
	c.Set("u2", entry("u2"))

	c.Delete("u1")
	if _, ok := c.Get("u1"); ok {
		t.Fatal("expected u1 to be deleted")
	}
	if _, ok := c.Get("u2"); !ok {
		t.Fatal("expected u2 to survive delete of u1")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, len=%d", c.Len())
	}
}

func TestOverwriteKeepsLatest(t *testing.T) {
	c := New(time.Minute)
	c.Set("u1", entry("u1"))

	updated := entry("u1")
	updated.Status = model.StatusSuspended
	c.Set("u1", updated)

	got, ok := c.Get("u1")
	if !ok || got.Status != model.StatusSuspended {
		t.Fatalf("expected overwritten entry, got %+v", got)
	}
}
