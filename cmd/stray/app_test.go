package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"stray/internal/core/config"
)

func TestApp(t *testing.T) {
	tmpDir, _ := os.MkdirTemp("", "apptest")
	defer os.RemoveAll(tmpDir)

	os.WriteFile(filepath.Join(tmpDir, "main.rs"), []byte(`mod helper;

fn main() {
    helper::format_data();
}
`), 0644)
	os.WriteFile(filepath.Join(tmpDir, "helper.rs"), []byte(`pub fn format_data() -> String {
    String::new()
}
`), 0644)

	cfg := config.Default()
	cfg.ProjectRoot = tmpDir
	cfg.History.Enabled = true
	cfg.History.Path = filepath.Join(tmpDir, ".stray", "history.db")
	cfg.History.Project = "apptest"

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	rep, err := app.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(rep.Files) != 2 {
		t.Errorf("Expected 2 files, got %d", len(rep.Files))
	}
	if rep.UnusedCount() != 0 {
		t.Errorf("Expected no unused imports, got %d", rep.UnusedCount())
	}
	if rep.ParseErrorCount() != 0 {
		t.Errorf("Expected no parse errors, got %d", rep.ParseErrorCount())
	}

	// The run was recorded.
	if app.history == nil {
		t.Fatal("history store not opened")
	}
	snaps, err := app.history.Recent("apptest", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 {
		t.Errorf("Expected 1 snapshot, got %d", len(snaps))
	}

	status := app.healthStatus()
	if status.Status != "up" || status.FilesAnalyzed != 2 {
		t.Errorf("health status = %+v", status)
	}
}

func TestNewAppRejectsBadFormat(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Format = "yaml"
	if _, err := NewApp(cfg); err == nil {
		t.Error("Expected error for unsupported format")
	}
}
