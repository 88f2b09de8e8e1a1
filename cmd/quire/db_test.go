package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConfig writes a sqlite config pointing at a temp database and
// returns its path.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "quire.yaml")
	dbPath := filepath.Join(dir, "quire.db")
	content := "db:\n  driver: sqlite\n  path: " + dbPath + "\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath
}

func TestDBMigrateCmd(t *testing.T) {
	cfgPath := writeConfig(t)

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"db", "migrate", "--config", cfgPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("db migrate failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Migrated 3 tables") {
		t.Errorf("output = %q, want migration summary", buf.String())
	}
}

func TestDBStatusCmd(t *testing.T) {
	cfgPath := writeConfig(t)

	migrate := newRootCmd()
	migrate.SetOut(new(bytes.Buffer))
	migrate.SetArgs([]string{"db", "migrate", "--config", cfgPath})
	if err := migrate.Execute(); err != nil {
		t.Fatalf("db migrate failed: %v", err)
	}

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"db", "status", "--config", cfgPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("db status failed: %v", err)
	}
	out := buf.String()
	for _, table := range []string{"documents", "messages", "feedbacks"} {
		if !strings.Contains(out, table) {
			t.Errorf("status output missing table %q: %s", table, out)
		}
	}
}

func TestDBMigrateCmd_MissingConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"db", "migrate", "--config", "/does/not/exist.yaml"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
