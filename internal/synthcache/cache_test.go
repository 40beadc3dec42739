package synthcache

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGetPut(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)
	key := Key(Scope{Field: "plan"}, []string{"a", "b"})

	if _, ok, err := c.Get(ctx, key); err != nil || ok {
		t.Fatalf("Get on empty cache = ok %v, err %v", ok, err)
	}
	if err := c.Put(ctx, key, "plan", "merged plan"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	v, ok, err := c.Get(ctx, key)
	if err != nil || !ok || v != "merged plan" {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}

	if err := c.Put(ctx, key, "plan", "newer plan"); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	if v, _, _ := c.Get(ctx, key); v != "newer plan" {
		t.Errorf("overwrite not applied, got %q", v)
	}

	st, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Entries != 1 || st.ByField["plan"] != 1 || st.Hits != 2 {
		t.Errorf("Stats = %+v", st)
	}
}

func TestKeySeparatesInstances(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
	}{
		{"split point", []string{"ab", "c"}, []string{"a", "bc"}},
		{"order", []string{"x", "y"}, []string{"y", "x"}},
		{"empty instance", []string{"x"}, []string{"x", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Scope{Field: "plan"}
			if Key(plan, tt.a) == Key(plan, tt.b) {
				t.Errorf("keys collide for %q and %q", tt.a, tt.b)
			}
		})
	}
}

func TestKeyIncludesScope(t *testing.T) {
	base := Scope{Field: "plan", Narrator: "google", Instructions: "merge plans"}
	ins := []string{"x"}
	tests := []struct {
		name  string
		scope Scope
	}{
		{"field", Scope{Field: "assessment", Narrator: "google", Instructions: "merge plans"}},
		{"narrator", Scope{Field: "plan", Narrator: "openrouter", Instructions: "merge plans"}},
		{"instructions", Scope{Field: "plan", Narrator: "google", Instructions: "merge plans, newest first"}},
		{"boundary", Scope{Field: "plan", Narrator: "googlemerge", Instructions: " plans"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Key(base, ins) == Key(tt.scope, ins) {
				t.Errorf("key ignores %s", tt.name)
			}
		})
	}
	if Key(base, ins) != Key(base, []string{"x"}) {
		t.Error("key must be stable for equal input")
	}
}

func TestPurge(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)
	if err := c.Put(ctx, "k", "plan", "v"); err != nil {
		t.Fatal(err)
	}
	n, err := c.Purge(ctx, time.Now().Add(time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("Purge = %d, %v", n, err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("entry survived purge")
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%s): %v", path, err)
	}
	defer c.Close()
	if err := c.Put(context.Background(), "k", "imaging", "v"); err != nil {
		t.Fatal(err)
	}
	st, err := c.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.DBSizeBytes == 0 {
		t.Error("expected a non-empty database file")
	}
}
