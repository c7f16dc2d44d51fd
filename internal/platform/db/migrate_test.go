package db

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/rokto/rokto/migrations"
)

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"003_seed.sql":      {Data: []byte("INSERT INTO divisions VALUES ('x', 'y');")},
		"001_locations.sql": {Data: []byte("CREATE TABLE divisions (id TEXT);")},
		"002_indexes.sql":   {Data: []byte("CREATE INDEX i ON divisions (id);")},
		"README.md":         {Data: []byte("docs")},
		"notes.sql":         {Data: []byte("-- no version")},
		"abc_bad.sql":       {Data: []byte("-- non numeric")},
		"sub/004_x.sql":     {Data: []byte("-- nested")},
	}

	migs, err := NewMigrator(nil, fsys).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migs) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migs))
	}
	for i, want := range []string{"001_locations.sql", "002_indexes.sql", "003_seed.sql"} {
		if migs[i].Name != want || migs[i].Version != i+1 {
			t.Errorf("migration %d = %d %s, want %d %s", i, migs[i].Version, migs[i].Name, i+1, want)
		}
	}
	if migs[0].SQL != "CREATE TABLE divisions (id TEXT);" {
		t.Errorf("unexpected SQL content: %s", migs[0].SQL)
	}
}

func TestLoadMigrations_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"001_a.sql":  {Data: []byte("--")},
		"0001_b.sql": {Data: []byte("--")},
	}
	_, err := NewMigrator(nil, fsys).LoadMigrations()
	if err == nil || !strings.Contains(err.Error(), "duplicate migration version 1") {
		t.Errorf("expected duplicate version error, got %v", err)
	}
}

func TestLoadMigrations_Empty(t *testing.T) {
	migs, err := NewMigrator(nil, fstest.MapFS{}).LoadMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(migs) != 0 {
		t.Errorf("expected no migrations, got %d", len(migs))
	}
}

func TestLoadMigrations_Embedded(t *testing.T) {
	migs, err := NewMigrator(nil, migrations.FS).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migs) == 0 || migs[0].Name != "001_locations.sql" {
		t.Fatalf("expected the embedded location schema first, got %+v", migs)
	}
	for _, table := range []string{"divisions", "districts", "thanas"} {
		if !strings.Contains(migs[0].SQL, "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("schema does not create %s", table)
		}
	}
}
