package telemetry

import "testing"

func TestTracker_RecordAdditivity(t *testing.T) {
	tr := NewTracker()

	calls := []struct {
		prompt, cached, output int64
		agent, model           string
	}{
		{1000, 200, 50, "main", "claude-sonnet-4-5"},
		{500, 0, 20, "sub", "gemini-2.5-flash"},
		{300, 300, 10, "main", "claude-sonnet-4-5"},
	}

	var wantPrompt, wantCached, wantOutput int64
	for _, c := range calls {
		tr.Record(c.prompt, c.cached, c.output, c.agent, c.model)
		wantPrompt += c.prompt
		wantCached += c.cached
		wantOutput += c.output
	}

	snap := tr.Snapshot()
	if snap.TotalPromptTokens != wantPrompt {
		t.Errorf("TotalPromptTokens = %d, want %d", snap.TotalPromptTokens, wantPrompt)
	}
	if snap.TotalCachedTokens != wantCached {
		t.Errorf("TotalCachedTokens = %d, want %d", snap.TotalCachedTokens, wantCached)
	}
	if snap.TotalOutputTokens != wantOutput {
		t.Errorf("TotalOutputTokens = %d, want %d", snap.TotalOutputTokens, wantOutput)
	}
	if snap.TotalRequests != int64(len(calls)) {
		t.Errorf("TotalRequests = %d, want %d", snap.TotalRequests, len(calls))
	}
	if len(snap.PerAgent) != 2 {
		t.Errorf("PerAgent has %d entries, want 2", len(snap.PerAgent))
	}
	if snap.PerAgent["main"].Requests != 2 {
		t.Errorf("main requests = %d, want 2", snap.PerAgent["main"].Requests)
	}
}

func TestTracker_CostUsesCachedDiscount(t *testing.T) {
	tr := NewTracker()
	// 1,000,000 prompt tokens, half cached, Gemini 2.5 Pro pricing.
	tr.Record(1_000_000, 500_000, 0, "main", "gemini-2.5-pro")
	snap := tr.Snapshot()

	// fresh=500_000 @ $1.25/M + cached=500_000 @ $0.3125/M = 0.625 + 0.15625
	want := 0.625 + 0.15625
	if diff := snap.EstimatedCostUSD - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("EstimatedCostUSD = %v, want %v", snap.EstimatedCostUSD, want)
	}
	if snap.EstimatedSavingsUSD <= 0 {
		t.Errorf("EstimatedSavingsUSD = %v, want > 0 (cache should save money)", snap.EstimatedSavingsUSD)
	}
}

func TestTracker_UnknownModelFallsBackToDefault(t *testing.T) {
	tr := NewTracker()
	tr.Record(1_000_000, 0, 0, "main", "some-unreleased-model")
	snap := tr.Snapshot()
	if diff := snap.EstimatedCostUSD - 1.25; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("EstimatedCostUSD = %v, want 1.25 (default pricing)", snap.EstimatedCostUSD)
	}
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker()
	tr.Record(100, 0, 10, "main", "")
	tr.Reset()
	snap := tr.Snapshot()
	if snap.TotalRequests != 0 || snap.TotalPromptTokens != 0 || len(snap.PerAgent) != 0 {
		t.Errorf("Reset did not clear state: %+v", snap)
	}
}

func TestTracker_CacheHitRateZeroWithNoPromptTokens(t *testing.T) {
	tr := NewTracker()
	snap := tr.Snapshot()
	if snap.CacheHitRatePct != 0 {
		t.Errorf("CacheHitRatePct = %v, want 0 on empty tracker", snap.CacheHitRatePct)
	}
}
