package bootstrap

import (
	"os"
	"path/filepath"
	"strings"
)

// Template file names seeded into a fresh agent workspace.
const (
	AgentsFile    = "AGENTS.md"
	SoulFile      = "SOUL.md"
	ToolsFile     = "TOOLS.md"
	IdentityFile  = "IDENTITY.md"
	UserFile      = "USER.md"
	HeartbeatFile = "HEARTBEAT.md"
	BootstrapFile = "BOOTSTRAP.md"
)

// ContextFile is one persona/workspace markdown file injected into the
// agent's system prompt (spec §4.12 process bootstrap wiring).
type ContextFile struct {
	Path    string
	Content string
}

// IsSubagentSession reports whether a session key belongs to a spawned
// subagent run rather than a top-level conversation.
func IsSubagentSession(sessionKey string) bool {
	return strings.HasPrefix(sessionKey, "subagent_")
}

// IsCronSession reports whether a session key belongs to a Scheduler Engine
// run (spec §4.10) rather than a live client conversation.
func IsCronSession(sessionKey string) bool {
	return strings.HasPrefix(sessionKey, "cron_") || strings.HasPrefix(sessionKey, "scheduler-offline")
}

// workspaceFiles are the persona/context files loaded into the system
// prompt, in display order. BOOTSTRAP.md is intentionally excluded: it is
// onboarding-only content, seeded once and deleted by the caller after the
// first few turns, not a standing part of every prompt.
var workspaceFiles = []string{AgentsFile, SoulFile, ToolsFile, IdentityFile, UserFile, HeartbeatFile}

// LoadWorkspaceContextFiles reads the seeded persona files out of
// workspaceDir. A missing file is skipped rather than treated as an error
// (EnsureWorkspaceFiles may not have run yet, or the deployment configured
// a workspace with only some of the templates present).
func LoadWorkspaceContextFiles(workspaceDir string) []ContextFile {
	var files []ContextFile
	for _, name := range workspaceFiles {
		content, err := os.ReadFile(filepath.Join(workspaceDir, name))
		if err != nil {
			continue
		}
		files = append(files, ContextFile{Path: name, Content: string(content)})
	}
	return files
}
