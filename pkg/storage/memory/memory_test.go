package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/modgate/modgate/pkg/api"
	"github.com/modgate/modgate/pkg/storage"
)

func binding(id string) api.Binding {
	return api.Binding{
		ModuleID:    id,
		HTTPMethod:  "GET",
		URLRule:     "/items",
		Version:     api.DefaultVersion,
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
	}
}

func TestSaveAndGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.SaveBinding(ctx, binding("items.list.get")); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.GetBinding(ctx, "items.list.get")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ModuleID != "items.list.get" || got.HTTPMethod != "GET" {
		t.Errorf("unexpected binding: %+v", got)
	}
}

func TestSaveConflict(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.SaveBinding(ctx, binding("items.list.get")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveBinding(ctx, binding("items.list.get")); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestGetMissing(t *testing.T) {
	s := New()
	_, err := s.GetBinding(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListSorted(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, id := range []string{"c.get", "a.get", "b.get"} {
		if err := s.SaveBinding(ctx, binding(id)); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	bindings, err := s.ListBindings(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"a.get", "b.get", "c.get"}
	if len(bindings) != len(want) {
		t.Fatalf("got %d bindings, want %d", len(bindings), len(want))
	}
	for i, id := range want {
		if bindings[i].ModuleID != id {
			t.Errorf("bindings[%d] = %q, want %q", i, bindings[i].ModuleID, id)
		}
	}
}

func TestDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.SaveBinding(ctx, binding("items.list.get")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.DeleteBinding(ctx, "items.list.get"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteBinding(ctx, "items.list.get"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTenantIsolation(t *testing.T) {
	s := New()
	acme := storage.SetTenant(context.Background(), "acme")
	globex := storage.SetTenant(context.Background(), "globex")

	if err := s.SaveBinding(acme, binding("items.list.get")); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Same id in a different tenant is not a conflict.
	if err := s.SaveBinding(globex, binding("items.list.get")); err != nil {
		t.Fatalf("save in second tenant: %v", err)
	}

	if _, err := s.GetBinding(globex, "items.list.get"); err != nil {
		t.Errorf("tenant should see its own binding: %v", err)
	}

	other, err := s.ListBindings(storage.SetTenant(context.Background(), "other"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("unrelated tenant sees %d bindings", len(other))
	}
}
