package internal

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/jot/internal/testutil"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.SQLite.Path = filepath.Join(dir, "data", "jot", "notes.db")
	cfg.Export.Dir = filepath.Join(dir, "export")
	cfg.App.HTTP.Port = 0
	return cfg
}

func TestOpenServiceCreatesDataDir(t *testing.T) {
	cfg := testConfig(t)
	svc, closeDB, err := OpenService(cfg, testutil.Logger())
	if err != nil {
		t.Fatal(err)
	}
	defer closeDB()

	if _, err := os.Stat(cfg.SQLite.Path); err != nil {
		t.Fatalf("db file: %v", err)
	}
	ctx := context.Background()
	id, err := svc.CreateNote(ctx, "t", "b")
	if err != nil {
		t.Fatal(err)
	}
	res, err := svc.ExportNotes(ctx, []int64{id}, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Dir != cfg.Export.Dir || res.Count != 1 {
		t.Errorf("export = %+v", res)
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if err := Run(context.Background(), WithLogOutput(io.Discard)); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Import.InboxDir = filepath.Join(t.TempDir(), "inbox")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Run(ctx, WithConfig(cfg), WithLogOutput(io.Discard)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fi, err := os.Stat(cfg.Import.InboxDir); err != nil || !fi.IsDir() {
		t.Errorf("inbox dir not created: %v", err)
	}
}
