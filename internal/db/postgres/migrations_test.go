package postgres

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadEmbeddedMigrations(t *testing.T) {
	migrations, err := LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("got %d migrations, want 3", len(migrations))
	}
	for i, m := range migrations {
		if m.Version != i+1 {
			t.Fatalf("migration %d has version %d", i, m.Version)
		}
	}
	if !strings.Contains(migrations[2].SQL, "UNIQUE (habit_id, logged_on)") {
		t.Fatal("habit_activity must keep one entry per day")
	}
}

func TestLoadMigrationsOrderAndValidation(t *testing.T) {
	fsys := fstest.MapFS{
		"m/010_later.sql": {Data: []byte("SELECT 10")},
		"m/002_second.sql": {Data: []byte("SELECT 2")},
		"m/README.md":      {Data: []byte("docs")},
	}
	got, err := loadMigrations(fsys, "m")
	if err != nil {
		t.Fatalf("loadMigrations: %v", err)
	}
	if len(got) != 2 || got[0].Version != 2 || got[1].Version != 10 {
		t.Fatalf("migrations = %+v", got)
	}

	bad := []fstest.MapFS{
		{"m/first.sql": {Data: []byte("x")}},
		{"m/abc_first.sql": {Data: []byte("x")}},
		{"m/001_a.sql": {Data: []byte("x")}, "m/1_b.sql": {Data: []byte("y")}},
	}
	for i, fsys := range bad {
		if _, err := loadMigrations(fsys, "m"); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}
