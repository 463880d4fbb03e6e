package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsSubagentSession(t *testing.T) {
	if !IsSubagentSession("subagent_42") {
		t.Error("expected subagent_42 to be a subagent session")
	}
	if IsSubagentSession("cron_1") {
		t.Error("cron_1 should not be a subagent session")
	}
}

func TestIsCronSession(t *testing.T) {
	if !IsCronSession("cron_1") {
		t.Error("expected cron_1 to be a cron session")
	}
	if !IsCronSession("scheduler-offline") {
		t.Error("expected scheduler-offline to be a cron session")
	}
	if IsCronSession("subagent_1") {
		t.Error("subagent_1 should not be a cron session")
	}
}

func TestLoadWorkspaceContextFiles_SkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, AgentsFile), []byte("agents content"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, SoulFile), []byte("soul content"), 0o644); err != nil {
		t.Fatal(err)
	}

	files := LoadWorkspaceContextFiles(dir)
	if len(files) != 2 {
		t.Fatalf("len(files) = %d, want 2 (only existing files)", len(files))
	}
	if files[0].Path != AgentsFile || files[0].Content != "agents content" {
		t.Errorf("files[0] = %+v", files[0])
	}
	if files[1].Path != SoulFile || files[1].Content != "soul content" {
		t.Errorf("files[1] = %+v", files[1])
	}
}

func TestLoadWorkspaceContextFiles_ExcludesBootstrapFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, BootstrapFile), []byte("onboarding"), 0o644); err != nil {
		t.Fatal(err)
	}

	files := LoadWorkspaceContextFiles(dir)
	for _, f := range files {
		if f.Path == BootstrapFile {
			t.Error("BOOTSTRAP.md should never be loaded as a standing context file")
		}
	}
}

func TestLoadWorkspaceContextFiles_EmptyDirReturnsNil(t *testing.T) {
	dir := t.TempDir()
	files := LoadWorkspaceContextFiles(dir)
	if len(files) != 0 {
		t.Errorf("len(files) = %d, want 0", len(files))
	}
}
