package database

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	gormlogger "gorm.io/gorm/logger"

	"github.com/R3E-Network/jobhunter/pkg/logger"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	out, err := NormalizeMySQLDSN("root:secret@tcp(localhost:3306)/jobhunter")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	for _, want := range []string{"parseTime=true", "multiStatements=true", "charset=utf8mb4", "/jobhunter"} {
		if !strings.Contains(out, want) {
			t.Fatalf("dsn %q missing %q", out, want)
		}
	}

	out, err = NormalizeMySQLDSN("root@tcp(db:3306)/jh?charset=latin1")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !strings.Contains(out, "charset=latin1") {
		t.Fatalf("explicit charset overwritten: %q", out)
	}
}

func TestNormalizeMySQLDSNRejectsGarbage(t *testing.T) {
	if _, err := NormalizeMySQLDSN("not a dsn"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDialector(t *testing.T) {
	d, err := Dialector("MySQL", "root@tcp(localhost:3306)/jh")
	if err != nil {
		t.Fatalf("mysql dialector: %v", err)
	}
	if d.Name() != "mysql" {
		t.Fatalf("expected mysql, got %s", d.Name())
	}

	d, err = Dialector("postgres", "host=localhost user=jh dbname=jh sslmode=disable")
	if err != nil {
		t.Fatalf("postgres dialector: %v", err)
	}
	if d.Name() != "postgres" {
		t.Fatalf("expected postgres, got %s", d.Name())
	}

	if _, err := Dialector("oracle", ""); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestGormLoggerTrace(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.LoggingConfig{Level: "debug", Format: "json", Output: &buf})
	gl := NewGormLogger(log, false)

	gl.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
	if buf.Len() != 0 {
		t.Fatalf("fast query logged without query logging: %s", buf.String())
	}

	gl.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 2", 0 }, errors.New("boom"))
	if !strings.Contains(buf.String(), "query failed") {
		t.Fatalf("error not logged: %s", buf.String())
	}

	buf.Reset()
	gl.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 3", 0 }, gormlogger.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Fatalf("record not found should be silent: %s", buf.String())
	}

	buf.Reset()
	NewGormLogger(log, true).Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 4", 1 }, nil)
	if !strings.Contains(buf.String(), "SELECT 4") {
		t.Fatalf("query not logged with query logging on: %s", buf.String())
	}
}
