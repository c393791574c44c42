package migrations

import (
	"io"
	"strings"
	"testing"
)

func TestVersionsMatchAcrossDialects(t *testing.T) {
	mysql, err := Versions("mysql")
	if err != nil {
		t.Fatalf("mysql versions: %v", err)
	}
	postgres, err := Versions("postgres")
	if err != nil {
		t.Fatalf("postgres versions: %v", err)
	}
	if len(mysql) != 3 {
		t.Fatalf("expected 3 migrations, got %v", mysql)
	}
	if len(mysql) != len(postgres) {
		t.Fatalf("dialects diverge: mysql %v postgres %v", mysql, postgres)
	}
	for i := range mysql {
		if mysql[i] != postgres[i] {
			t.Fatalf("dialects diverge at %d: %d vs %d", i, mysql[i], postgres[i])
		}
	}
}

func TestEveryVersionHasDown(t *testing.T) {
	for _, dialect := range []string{"mysql", "postgres"} {
		src, err := Source(dialect)
		if err != nil {
			t.Fatalf("%s source: %v", dialect, err)
		}
		versions, err := Versions(dialect)
		if err != nil {
			t.Fatalf("%s versions: %v", dialect, err)
		}
		for _, v := range versions {
			r, _, err := src.ReadDown(v)
			if err != nil {
				t.Fatalf("%s version %d has no down migration: %v", dialect, v, err)
			}
			r.Close()
		}
		src.Close()
	}
}

func TestSchemaCoversStoreTables(t *testing.T) {
	tables := []string{
		"companies", "permissions", "roles", "permission_role", "users", "skills",
		"jobs", "job_skill", "resumes", "subscribers", "subscriber_skill",
		"notifications", "chat_history",
	}
	for _, dialect := range []string{"mysql", "postgres"} {
		src, err := Source(dialect)
		if err != nil {
			t.Fatalf("%s source: %v", dialect, err)
		}
		versions, _ := Versions(dialect)
		var all strings.Builder
		for _, v := range versions {
			r, _, err := src.ReadUp(v)
			if err != nil {
				t.Fatalf("%s read up %d: %v", dialect, v, err)
			}
			b, _ := io.ReadAll(r)
			r.Close()
			all.Write(b)
		}
		src.Close()
		for _, table := range tables {
			if !strings.Contains(all.String(), "CREATE TABLE IF NOT EXISTS "+table+" (") {
				t.Fatalf("%s schema lacks table %s", dialect, table)
			}
		}
	}
}

func TestUnknownDialect(t *testing.T) {
	if _, err := Source("sqlite"); err == nil {
		t.Fatalf("expected error for unknown dialect")
	}
}
