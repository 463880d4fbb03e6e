package agent

import (
	"fmt"
	"strings"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/bootstrap"
)

// PromptMode controls how much of the full persona/context stack is
// rendered into the system prompt. Subagent and scheduler-driven runs use
// PromptMinimal to keep token spend down on runs that don't need the full
// workspace context.
type PromptMode int

const (
	PromptFull PromptMode = iota
	PromptMinimal
)

// SystemPromptConfig carries everything BuildSystemPrompt needs to render
// one agent's system prompt for one turn.
type SystemPromptConfig struct {
	AgentID  string
	Model    string
	Workspace string
	Channel  string
	OwnerIDs []string
	Mode     PromptMode

	ToolNames []string
	HasMemory bool
	HasSpawn  bool

	ContextFiles []bootstrap.ContextFile
	ExtraPrompt  string

	SandboxEnabled         bool
	SandboxContainerDir    string
	SandboxWorkspaceAccess string
}

// BuildSystemPrompt renders the system prompt for one turn: an identity
// header, the workspace's persona context files (AGENTS.md, SOUL.md, etc.),
// the list of tools currently available, and any caller-supplied extra
// instructions (subagent task context, webhook trigger context, ...).
func BuildSystemPrompt(cfg SystemPromptConfig) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, an autonomous agent powered by %s.\n", cfg.AgentID, cfg.Model)
	if cfg.Workspace != "" {
		fmt.Fprintf(&b, "Your workspace directory is %s.\n", cfg.Workspace)
	}
	if cfg.Channel != "" {
		fmt.Fprintf(&b, "This conversation is happening over the %s channel.\n", cfg.Channel)
	}
	if len(cfg.OwnerIDs) > 0 {
		fmt.Fprintf(&b, "Your owner(s): %s.\n", strings.Join(cfg.OwnerIDs, ", "))
	}

	if cfg.HasMemory {
		b.WriteString("You have a long-term memory service: recall relevant facts before asking the user to repeat themselves.\n")
	}
	if cfg.HasSpawn {
		b.WriteString("You can delegate focused sub-tasks to a subagent via the spawn tool.\n")
	}

	if cfg.SandboxEnabled {
		fmt.Fprintf(&b, "Shell and file tools execute inside a sandbox container (workspace access: %s", cfg.SandboxWorkspaceAccess)
		if cfg.SandboxContainerDir != "" {
			fmt.Fprintf(&b, ", mounted at %s", cfg.SandboxContainerDir)
		}
		b.WriteString(").\n")
	}

	if cfg.Mode == PromptFull {
		for _, cf := range cfg.ContextFiles {
			if strings.TrimSpace(cf.Content) == "" {
				continue
			}
			fmt.Fprintf(&b, "\n<%s>\n%s\n</%s>\n", cf.Path, cf.Content, cf.Path)
		}
	}

	if len(cfg.ToolNames) > 0 {
		fmt.Fprintf(&b, "\nAvailable tools: %s\n", strings.Join(cfg.ToolNames, ", "))
	}

	if cfg.ExtraPrompt != "" {
		fmt.Fprintf(&b, "\n%s\n", cfg.ExtraPrompt)
	}

	return b.String()
}
