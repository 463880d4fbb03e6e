package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	isatty "github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/agent"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/bootstrap"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/bus"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/config"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/gateway"
	mcpbridge "github.com/nextlevelbuilder/goclaw-orchestrator/internal/mcp"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/memory"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/providers"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/runner"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/scheduler"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/sessions"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/store"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/store/memstore"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/store/pg"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/telemetry"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/tools"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the agent orchestration server",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

// runServe is the Process Bootstrap entry point (spec §4.12): load config,
// wire every component, start the Scheduler Engine then the HTTP/WS
// surface, and block until an interrupt triggers an orderly shutdown.
func runServe() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(newLogHandler(os.Stdout, logLevel)))

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "path", cfgPath, "error", err)
		os.Exit(1)
	}

	if cfg.Providers.Anthropic.APIKey == "" {
		slog.Error("no Anthropic API key configured", "hint", "set GOCLAW_ANTHROPIC_API_KEY or providers.anthropic in config.json")
		os.Exit(1)
	}

	workspace := cfg.WorkspacePath()
	if !filepath.IsAbs(workspace) {
		workspace, _ = filepath.Abs(workspace)
	}
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		slog.Error("failed to create workspace directory", "path", workspace, "error", err)
		os.Exit(1)
	}

	if cfg.Database.Mode != "managed" {
		if seeded, err := bootstrap.EnsureWorkspaceFiles(workspace); err != nil {
			slog.Warn("bootstrap template seeding failed", "error", err)
		} else if len(seeded) > 0 {
			slog.Info("seeded workspace templates", "files", seeded)
		}
	}

	// Durable stores (spec §4.1): Postgres in managed mode, in-memory otherwise.
	var stores *store.Stores
	if cfg.IsManagedMode() {
		stores, err = pg.NewPGStores(store.StoreConfig{PostgresDSN: cfg.Database.PostgresDSN})
		if err != nil {
			slog.Error("failed to initialize postgres stores", "error", err)
			os.Exit(1)
		}
		slog.Info("using postgres-backed stores")

		overrides, err := stores.ConfigOverrides.All(context.Background())
		if err != nil {
			slog.Warn("failed to load config overrides", "error", err)
		} else if err := config.ApplyDBOverrides(cfg, overrides); err != nil {
			slog.Warn("failed to apply config overrides", "error", err)
		} else if len(overrides) > 0 {
			slog.Info("applied db config overrides", "count", len(overrides))
		}
	} else {
		stores = memstore.NewStores()
		slog.Info("using in-memory stores (standalone mode)")
	}

	eventBus := bus.NewBroadcaster()

	provider := providers.NewAnthropicProvider(
		cfg.Providers.Anthropic.APIKey,
		providers.WithAnthropicBaseURL(cfg.Providers.Anthropic.APIBase),
	)

	var traceCollector *tracing.Collector
	if cfg.Telemetry.Enabled {
		traceCollector = tracing.NewCollector(verbose)
	}

	agentDefaults := cfg.ResolveAgent(config.DefaultAgentID)
	toolsReg, hasMemory := buildToolRegistry(cfg, agentDefaults)

	sessMgr := sessions.NewManager()
	contextFiles := bootstrap.LoadWorkspaceContextFiles(workspace)

	loop := agent.NewLoop(agent.LoopConfig{
		ID:             config.DefaultAgentID,
		Provider:       provider,
		Model:          firstNonEmpty(agentDefaults.Model, provider.DefaultModel()),
		ContextWindow:  agentDefaults.ContextWindow,
		MaxIterations:  agentDefaults.MaxToolIterations,
		Workspace:      workspace,
		Bus:            eventBus,
		Sessions:       sessMgr,
		Tools:          toolsReg,
		OwnerIDs:       cfg.Gateway.OwnerIDs,
		HasMemory:      hasMemory,
		ContextFiles:   contextFiles,
		AgentUUID:      uuid.Nil,
		AgentType:      agentDefaults.AgentType,
		TraceCollector: traceCollector,
	})

	router := agent.NewRouter()
	router.Register(config.DefaultAgentID, loop)

	agentRunner := runner.New(router, stores.Sessions)

	tracker := telemetry.NewTracker()
	promReg := prometheus.NewRegistry()
	promExporter := telemetry.NewPromExporter(tracker, promReg)
	agentRunner.SetTelemetry(tracker, promExporter)

	srv := gateway.NewServer(cfg, eventBus, agentRunner, stores.Sessions)
	srv.SetMetricsHandler(promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	srv.SetScheduledTaskStore(stores.ScheduledTasks)
	srv.SetReminderStore(stores.Reminders)
	srv.SetWebhookStore(stores.Webhooks)

	notifier := scheduler.NewNtfyClient(os.Getenv("GOCLAW_NTFY_BASE_URL"), os.Getenv("GOCLAW_NTFY_TOPIC"), os.Getenv("GOCLAW_NTFY_TOKEN"))
	sched := scheduler.New(stores.ScheduledTasks, stores.Reminders, stores.PendingResults, cfg.Cron.ToRetryConfig())
	sched.Inject(srv.ConnectionManager(), agentRunner, notifier)
	srv.SetScheduler(sched)
	srv.ConnectionManager().SetOnFirstConnect(sched.OnConnect)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sched.Start(ctx); err != nil {
		slog.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Shutdown()

	slog.Info("starting goclaw-orchestrator", "host", cfg.Gateway.Host, "port", cfg.Gateway.Port, "managed", cfg.IsManagedMode())
	if err := srv.Start(ctx); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

// newLogHandler picks a slog.Handler for the process's stdout: tint's
// colorized console handler when attached to a real terminal (local dev),
// plain text otherwise (containers, systemd, CI logs) so log lines stay
// greppable when piped or collected without ANSI escapes.
func newLogHandler(w *os.File, level slog.Level) slog.Handler {
	if isatty.IsTerminal(w.Fd()) {
		return tint.NewHandler(w, &tint.Options{Level: level})
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}

// buildToolRegistry wires the two representative local tools (spec §4.3:
// memory_search, current_time) plus any statically-configured MCP servers.
func buildToolRegistry(cfg *config.Config, agentDefaults config.AgentDefaults) (*tools.Registry, bool) {
	reg := tools.NewRegistry()
	reg.Register(tools.NewCurrentTimeTool())

	hasMemory := memEnabled(agentDefaults)
	if hasMemory {
		embedder := memory.NewHTTPEmbedder(
			cfg.Providers.OpenAI.APIBase,
			cfg.Providers.OpenAI.APIKey,
			firstNonEmpty(agentDefaults.Memory.EmbeddingModel, "text-embedding-3-small"),
		)
		vectorStore := memory.NewHTTPVectorStore(cfg.Providers.OpenAI.APIBase, "")
		memSvc := memory.NewService(embedder, vectorStore, "goclaw_memory", 768)
		reg.Register(tools.NewMemorySearchTool(memSvc))
	}

	if len(cfg.Tools.MCPServers) > 0 {
		mcpMgr := mcpbridge.NewManager(reg, mcpbridge.WithConfigs(cfg.Tools.MCPServers))
		if err := mcpMgr.Start(context.Background()); err != nil {
			slog.Warn("mcp startup errors", "error", err)
		}
		slog.Info("MCP servers initialized", "configured", len(cfg.Tools.MCPServers), "tools", len(mcpMgr.ToolNames()))
	}

	return reg, hasMemory
}

func memEnabled(d config.AgentDefaults) bool {
	return d.Memory != nil && (d.Memory.Enabled == nil || *d.Memory.Enabled)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
