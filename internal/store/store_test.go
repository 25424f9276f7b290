package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"codeberg.org/snonux/marghivasal/internal/apperr"
)

func openSQLite(t *testing.T) *SQLite {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "nested", "state.db"))
	if err != nil {
		t.Skipf("SQLite not available: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	if _, err := kv.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := kv.Set(ctx, "userName", "Amina"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if err := kv.Set(ctx, "userName", "Amina Bello"); err != nil {
		t.Fatalf("Set() overwrite failed: %v", err)
	}

	got, err := kv.Get(ctx, "userName")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got != "Amina Bello" {
		t.Errorf("Get() = %q, want %q", got, "Amina Bello")
	}

	if err := kv.Delete(ctx, "userName"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := kv.Get(ctx, "userName"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrNotFound", err)
	}

	if err := kv.Delete(ctx, "never-set"); err != nil {
		t.Errorf("Delete() of missing key failed: %v", err)
	}
}

func TestMemory(t *testing.T) {
	testKV(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	testKV(t, openSQLite(t))
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	db, err := Open(path)
	if err != nil {
		t.Skipf("SQLite not available: %v", err)
	}
	if err := db.Set(ctx, "favoriteLanguage", "Marghi"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db.Close()

	got, err := db.Get(ctx, "favoriteLanguage")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got != "Marghi" {
		t.Errorf("Get() = %q, want Marghi", got)
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()

	progress := map[string]int{"marghi": 3, "hona": 1}
	if err := SetJSON(ctx, kv, "learnProgress", progress); err != nil {
		t.Fatalf("SetJSON() failed: %v", err)
	}

	var got map[string]int
	if err := GetJSON(ctx, kv, "learnProgress", &got); err != nil {
		t.Fatalf("GetJSON() failed: %v", err)
	}
	if got["marghi"] != 3 || got["hona"] != 1 {
		t.Errorf("GetJSON() = %v, want %v", got, progress)
	}

	var missing []string
	if err := GetJSON(ctx, kv, "nothing", &missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetJSON(missing) error = %v, want ErrNotFound", err)
	}

	kv.Set(ctx, "broken", "{not json")
	if err := GetJSON(ctx, kv, "broken", &got); !errors.Is(err, apperr.ErrPersistence) {
		t.Errorf("GetJSON(broken) error = %v, want ErrPersistence", err)
	}
}
