// Package telemetry accumulates token usage and estimated cost across every
// model invocation in the process.
package telemetry

import (
	"strings"
	"sync"
	"time"
)

// pricing holds input/output/cached-input USD per million tokens.
type pricing struct {
	input, output, cachedInput float64
}

// priceTable is ordered; the first prefix match wins, "_default" is the
// fallback for any model name that matches nothing.
var priceTable = []struct {
	prefix string
	pricing
}{
	{"gemini-2.5-pro", pricing{1.25, 10.00, 0.3125}},
	{"gemini-2.5-flash", pricing{0.15, 0.60, 0.0375}},
	{"gemini-2.0-flash", pricing{0.10, 0.40, 0.025}},
	{"claude-opus", pricing{15.00, 75.00, 1.50}},
	{"claude-sonnet", pricing{3.00, 15.00, 0.30}},
	{"claude-haiku", pricing{0.80, 4.00, 0.08}},
}

var defaultPricing = pricing{1.25, 10.00, 0.3125}

func priceFor(model string) pricing {
	lower := strings.ToLower(model)
	for _, row := range priceTable {
		if strings.HasPrefix(lower, row.prefix) {
			return row.pricing
		}
	}
	return defaultPricing
}

// AgentStats is the per-agent token/cost breakdown in a Snapshot.
type AgentStats struct {
	PromptTokens int64   `json:"prompt_tokens"`
	CachedTokens int64   `json:"cached_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	Requests     int64   `json:"requests"`
	CostUSD      float64 `json:"cost_usd"`
}

// Snapshot is the read-only view returned by Tracker.Snapshot.
type Snapshot struct {
	UptimeSeconds               float64               `json:"uptime_seconds"`
	TotalRequests                int64                 `json:"total_requests"`
	TotalPromptTokens            int64                 `json:"total_prompt_tokens"`
	TotalCachedTokens            int64                 `json:"total_cached_tokens"`
	TotalOutputTokens            int64                 `json:"total_output_tokens"`
	CacheHitRatePct              float64               `json:"cache_hit_rate_pct"`
	EstimatedCostUSD             float64               `json:"estimated_cost_usd"`
	EstimatedCostWithoutCacheUSD float64               `json:"estimated_cost_without_cache_usd"`
	EstimatedSavingsUSD          float64               `json:"estimated_savings_usd"`
	PerAgent                     map[string]AgentStats `json:"per_agent"`
}

// Tracker is a process-wide, mutex-guarded token/cost accumulator (§4.2).
// record() must never fail the caller's pipeline; there is accordingly no
// error return on Record.
type Tracker struct {
	mu sync.Mutex

	startedAt time.Time

	totalPromptTokens int64
	totalCachedTokens int64
	totalOutputTokens int64
	totalRequests     int64
	costUSD           float64
	costWithoutCache  float64

	perAgent map[string]*AgentStats
}

// NewTracker constructs a Tracker with its uptime clock starting now.
func NewTracker() *Tracker {
	return &Tracker{
		startedAt: time.Now(),
		perAgent:  make(map[string]*AgentStats),
	}
}

// Record accounts for a single model invocation's token usage. agentName
// defaults to "unknown" when empty, matching the reference tracker.
func (t *Tracker) Record(promptTokens, cachedTokens, outputTokens int64, agentName, model string) {
	if agentName == "" {
		agentName = "unknown"
	}
	price := priceFor(model)

	freshInput := promptTokens - cachedTokens
	if freshInput < 0 {
		freshInput = 0
	}
	cost := float64(freshInput)/1e6*price.input +
		float64(cachedTokens)/1e6*price.cachedInput +
		float64(outputTokens)/1e6*price.output
	costWithoutCache := float64(promptTokens)/1e6*price.input +
		float64(outputTokens)/1e6*price.output

	t.mu.Lock()
	defer t.mu.Unlock()

	t.totalPromptTokens += promptTokens
	t.totalCachedTokens += cachedTokens
	t.totalOutputTokens += outputTokens
	t.totalRequests++
	t.costUSD += cost
	t.costWithoutCache += costWithoutCache

	agent, ok := t.perAgent[agentName]
	if !ok {
		agent = &AgentStats{}
		t.perAgent[agentName] = agent
	}
	agent.PromptTokens += promptTokens
	agent.CachedTokens += cachedTokens
	agent.OutputTokens += outputTokens
	agent.Requests++
	agent.CostUSD += cost
}

// Snapshot returns a point-in-time copy of all accumulated counters (P8:
// the total fields are always the elementwise sum of every Record call).
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	var cacheRate float64
	if t.totalPromptTokens > 0 {
		cacheRate = float64(t.totalCachedTokens) / float64(t.totalPromptTokens) * 100
	}

	perAgent := make(map[string]AgentStats, len(t.perAgent))
	for name, stats := range t.perAgent {
		perAgent[name] = *stats
	}

	return Snapshot{
		UptimeSeconds:                time.Since(t.startedAt).Seconds(),
		TotalRequests:                t.totalRequests,
		TotalPromptTokens:            t.totalPromptTokens,
		TotalCachedTokens:            t.totalCachedTokens,
		TotalOutputTokens:            t.totalOutputTokens,
		CacheHitRatePct:              cacheRate,
		EstimatedCostUSD:             t.costUSD,
		EstimatedCostWithoutCacheUSD: t.costWithoutCache,
		EstimatedSavingsUSD:          t.costWithoutCache - t.costUSD,
		PerAgent:                     perAgent,
	}
}

// Reset clears every counter and restarts the uptime clock.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startedAt = time.Now()
	t.totalPromptTokens = 0
	t.totalCachedTokens = 0
	t.totalOutputTokens = 0
	t.totalRequests = 0
	t.costUSD = 0
	t.costWithoutCache = 0
	t.perAgent = make(map[string]*AgentStats)
}
