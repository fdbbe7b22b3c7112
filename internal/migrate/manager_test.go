package migrate

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestCollectSQLOrdersAndFilters(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0002_audit_log.up.sql", "create table a(x int);")
	writeFile(t, dir, "0001_identities.up.sql", "create table b(x int);")
	writeFile(t, dir, "0001_identities.down.sql", "drop table b;")
	writeFile(t, dir, "notes.txt", "ignore me")

	files, err := collectSQL(dir, ".up.sql")
	if err != nil {
		t.Fatalf("collectSQL: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 up migrations, got %d", len(files))
	}
	if files[0].base != "0001_identities.up.sql" || files[1].base != "0002_audit_log.up.sql" {
		t.Fatalf("wrong order: %s, %s", files[0].base, files[1].base)
	}
}

func TestCollectSQLMissingDir(t *testing.T) {
	files, err := collectSQL(filepath.Join(t.TempDir(), "nope"), ".sql")
	if err != nil {
		t.Fatalf("missing dir should not error, got %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no files, got %d", len(files))
	}
}
