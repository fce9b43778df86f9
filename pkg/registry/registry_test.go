package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/modgate/modgate/pkg/api"
	"github.com/modgate/modgate/pkg/bridge"
	"github.com/modgate/modgate/pkg/routes"
)

func echoDescriptor(t *testing.T, id string) Descriptor {
	t.Helper()
	fn := func(ctx context.Context, message string) (string, error) {
		return message, nil
	}
	b, err := bridge.Flatten(routes.Handler{
		Func: fn, Name: "echo", Package: "demo", Params: []string{"message"},
	})
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	return Descriptor{
		Module: api.Module{
			ModuleID: id,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"message": map[string]any{"type": "string"},
				},
				"required": []string{"message"},
			},
		},
		Bound: b,
	}
}

func TestRegisterAndGet(t *testing.T) {
	r := New()
	if err := r.Register(echoDescriptor(t, "demo.echo.post")); err != nil {
		t.Fatalf("register: %v", err)
	}

	d, ok := r.Get("demo.echo.post")
	if !ok {
		t.Fatal("module not found after register")
	}
	if d.Module.ModuleID != "demo.echo.post" {
		t.Errorf("module id = %q", d.Module.ModuleID)
	}
	if r.Len() != 1 {
		t.Errorf("len = %d", r.Len())
	}
}

func TestRegisterDuplicateReplaces(t *testing.T) {
	r := New()
	first := echoDescriptor(t, "demo.echo.post")
	first.Module.Description = "first"
	second := echoDescriptor(t, "demo.echo.post")
	second.Module.Description = "second"

	if err := r.Register(first); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(second); err != nil {
		t.Fatalf("register: %v", err)
	}

	if r.Len() != 1 {
		t.Fatalf("len = %d, want 1", r.Len())
	}
	d, _ := r.Get("demo.echo.post")
	if d.Module.Description != "second" {
		t.Errorf("expected replacement, got %q", d.Module.Description)
	}
}

func TestListOrder(t *testing.T) {
	r := New()
	for _, id := range []string{"c.z.get", "a.x.get", "b.y.get"} {
		if err := r.Register(echoDescriptor(t, id)); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}

	var got []string
	for _, d := range r.List() {
		got = append(got, d.Module.ModuleID)
	}
	want := []string{"c.z.get", "a.x.get", "b.y.get"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("list order = %v, want %v", got, want)
		}
	}
}

func TestUnregister(t *testing.T) {
	r := New()
	if err := r.Register(echoDescriptor(t, "demo.echo.post")); err != nil {
		t.Fatalf("register: %v", err)
	}

	if !r.Unregister("demo.echo.post") {
		t.Error("expected Unregister to report removal")
	}
	if r.Unregister("demo.echo.post") {
		t.Error("expected second Unregister to report absence")
	}
	if _, ok := r.Get("demo.echo.post"); ok {
		t.Error("module still present after Unregister")
	}
}

func TestCall(t *testing.T) {
	r := New()
	if err := r.Register(echoDescriptor(t, "demo.echo.post")); err != nil {
		t.Fatalf("register: %v", err)
	}

	out, err := r.Call(context.Background(), "demo.echo.post",
		map[string]any{"message": "hello"})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if out != "hello" {
		t.Errorf("result = %v", out)
	}
}

func TestCallValidatesInput(t *testing.T) {
	r := New()
	if err := r.Register(echoDescriptor(t, "demo.echo.post")); err != nil {
		t.Fatalf("register: %v", err)
	}

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing required", map[string]any{}},
		{"wrong type", map[string]any{"message": 42}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Call(context.Background(), "demo.echo.post", tt.args)
			var apiErr *api.Error
			if !errors.As(err, &apiErr) || apiErr.Type != api.ErrorTypeValidation {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCallUnknownModule(t *testing.T) {
	r := New()
	_, err := r.Call(context.Background(), "missing.module.get", nil)
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Type != api.ErrorTypeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestCallRecoversPanic(t *testing.T) {
	fn := func(ctx context.Context) (string, error) {
		panic("kaboom")
	}
	b, err := bridge.Flatten(routes.Handler{Func: fn, Name: "boom", Package: "demo"})
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}

	r := New()
	err = r.Register(Descriptor{
		Module: api.Module{ModuleID: "demo.boom.get",
			InputSchema: map[string]any{"type": "object", "properties": map[string]any{}}},
		Bound: b,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err = r.Call(context.Background(), "demo.boom.get", nil)
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Type != api.ErrorTypeServerError {
		t.Fatalf("expected server error from panic, got %v", err)
	}
}

func TestRegisterRejectsBadSchema(t *testing.T) {
	d := echoDescriptor(t, "demo.bad.get")
	d.Module.InputSchema = map[string]any{"type": 123}

	r := New()
	err := r.Register(d)
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Type != api.ErrorTypeInvalidConfig {
		t.Fatalf("expected invalid config error, got %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("bad registration should not be stored")
	}
}
