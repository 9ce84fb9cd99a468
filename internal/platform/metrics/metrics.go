// Package metrics provides observability for the observer core.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers runtime counters.
type Collector struct {
	// Tick metrics
	TickCount      int64
	TickLatencySum int64 // nanoseconds
	TickLatencyMax int64
	LastTickTime   time.Time

	// Session metrics
	ActionsAccepted  int64
	ActionsRejected  int64
	Interventions    int64
	EraAdvances      int64
	RunsEnded        int64
	StaleCompletions int64

	// Narrative metrics
	NarrativeCalls      int64
	NarrativeFallbacks  int64
	NarrativeLatencySum int64
	NarrativePanics     int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// LLM metrics
	LLMRequests   int64
	LLMTokensUsed int64
	LLMCostUSD    float64
	LLMLatencySum int64

	// Persistence metrics
	EventsWritten    int64
	EventWriteErrors int64

	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = New()

// New returns an empty collector. Tests use private collectors.
func New() *Collector {
	return &Collector{StartTime: time.Now()}
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordTick records a tick cycle completion.
func (c *Collector) RecordTick(latency time.Duration) {
	atomic.AddInt64(&c.TickCount, 1)
	atomic.AddInt64(&c.TickLatencySum, int64(latency))

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.TickLatencyMax) {
		atomic.StoreInt64(&c.TickLatencyMax, int64(latency))
	}

	c.mu.Lock()
	c.LastTickTime = time.Now()
	c.mu.Unlock()
}

// RecordAction records a player action outcome.
func (c *Collector) RecordAction(accepted bool) {
	if accepted {
		atomic.AddInt64(&c.ActionsAccepted, 1)
	} else {
		atomic.AddInt64(&c.ActionsRejected, 1)
	}
}

// RecordIntervention counts a karma spend.
func (c *Collector) RecordIntervention() {
	atomic.AddInt64(&c.Interventions, 1)
}

// RecordEraAdvance counts an era transition.
func (c *Collector) RecordEraAdvance() {
	atomic.AddInt64(&c.EraAdvances, 1)
}

// RecordRunEnded counts a run reaching its ending.
func (c *Collector) RecordRunEnded() {
	atomic.AddInt64(&c.RunsEnded, 1)
}

// RecordStaleCompletion counts a discarded narrative result.
func (c *Collector) RecordStaleCompletion() {
	atomic.AddInt64(&c.StaleCompletions, 1)
}

// RecordNarrative records one narrator call.
func (c *Collector) RecordNarrative(fallback bool, latency time.Duration) {
	atomic.AddInt64(&c.NarrativeCalls, 1)
	atomic.AddInt64(&c.NarrativeLatencySum, int64(latency))
	if fallback {
		atomic.AddInt64(&c.NarrativeFallbacks, 1)
	}
}

// RecordNarrativePanic counts a recovered narrator panic.
func (c *Collector) RecordNarrativePanic() {
	atomic.AddInt64(&c.NarrativePanics, 1)
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// RecordLLMCall records an LLM API call.
func (c *Collector) RecordLLMCall(tokens int, cost float64, latency time.Duration) {
	atomic.AddInt64(&c.LLMRequests, 1)
	atomic.AddInt64(&c.LLMTokensUsed, int64(tokens))
	atomic.AddInt64(&c.LLMLatencySum, int64(latency))

	c.mu.Lock()
	c.LLMCostUSD += cost
	c.mu.Unlock()
}

// RecordEventWrite records a persister write.
func (c *Collector) RecordEventWrite(err error) {
	atomic.AddInt64(&c.EventsWritten, 1)
	if err != nil {
		atomic.AddInt64(&c.EventWriteErrors, 1)
	}
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tickCount := atomic.LoadInt64(&c.TickCount)
	narrativeCalls := atomic.LoadInt64(&c.NarrativeCalls)
	llmRequests := atomic.LoadInt64(&c.LLMRequests)

	var tickAvg, narrativeAvg, llmAvg float64
	if tickCount > 0 {
		tickAvg = float64(atomic.LoadInt64(&c.TickLatencySum)) / float64(tickCount) / 1e6 // ms
	}
	if narrativeCalls > 0 {
		narrativeAvg = float64(atomic.LoadInt64(&c.NarrativeLatencySum)) / float64(narrativeCalls) / 1e6
	}
	if llmRequests > 0 {
		llmAvg = float64(atomic.LoadInt64(&c.LLMLatencySum)) / float64(llmRequests) / 1e9 // seconds
	}

	lastTick := ""
	if !c.LastTickTime.IsZero() {
		lastTick = c.LastTickTime.Format(time.RFC3339)
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"tick": map[string]interface{}{
			"count":          tickCount,
			"avg_latency_ms": tickAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.TickLatencyMax)) / 1e6,
			"last_tick":      lastTick,
		},

		"session": map[string]interface{}{
			"actions_accepted":  atomic.LoadInt64(&c.ActionsAccepted),
			"actions_rejected":  atomic.LoadInt64(&c.ActionsRejected),
			"interventions":     atomic.LoadInt64(&c.Interventions),
			"era_advances":      atomic.LoadInt64(&c.EraAdvances),
			"runs_ended":        atomic.LoadInt64(&c.RunsEnded),
			"stale_completions": atomic.LoadInt64(&c.StaleCompletions),
		},

		"narrative": map[string]interface{}{
			"calls":          narrativeCalls,
			"fallbacks":      atomic.LoadInt64(&c.NarrativeFallbacks),
			"panics":         atomic.LoadInt64(&c.NarrativePanics),
			"avg_latency_ms": narrativeAvg,
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},

		"llm": map[string]interface{}{
			"requests":        llmRequests,
			"tokens_used":     atomic.LoadInt64(&c.LLMTokensUsed),
			"cost_usd":        c.LLMCostUSD,
			"avg_latency_sec": llmAvg,
		},

		"events": map[string]interface{}{
			"written": atomic.LoadInt64(&c.EventsWritten),
			"errors":  atomic.LoadInt64(&c.EventWriteErrors),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.HandlerFunc {
	return collector.Handler()
}

// Handler serves c as JSON.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		_ = json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func PrometheusHandler() http.HandlerFunc {
	return collector.PrometheusHandler()
}

type promMetric struct {
	name, help, kind string
	value            func() string
}

// PrometheusHandler serves c in the Prometheus text format.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	counter := func(p *int64) func() string {
		return func() string { return fmt.Sprintf("%d", atomic.LoadInt64(p)) }
	}
	metrics := []promMetric{
		{"transition_tick_count", "Total tick cycles", "counter", counter(&c.TickCount)},
		{"transition_tick_latency_max_ms", "Maximum tick latency", "gauge", func() string {
			return fmt.Sprintf("%.2f", float64(atomic.LoadInt64(&c.TickLatencyMax))/1e6)
		}},
		{"transition_actions_accepted", "Player actions accepted", "counter", counter(&c.ActionsAccepted)},
		{"transition_actions_rejected", "Player actions rejected", "counter", counter(&c.ActionsRejected)},
		{"transition_interventions", "Karma interventions applied", "counter", counter(&c.Interventions)},
		{"transition_era_advances", "Era transitions", "counter", counter(&c.EraAdvances)},
		{"transition_stale_completions", "Narrative results discarded as stale", "counter", counter(&c.StaleCompletions)},
		{"transition_narrative_calls", "Narrator calls", "counter", counter(&c.NarrativeCalls)},
		{"transition_narrative_fallbacks", "Narrator calls answered with fallback text", "counter", counter(&c.NarrativeFallbacks)},
		{"transition_ws_connections", "Active WebSocket connections", "gauge", counter(&c.WSConnectionsActive)},
		{"transition_llm_requests", "Total LLM API requests", "counter", counter(&c.LLMRequests)},
		{"transition_llm_tokens_used", "Total tokens consumed", "counter", counter(&c.LLMTokensUsed)},
		{"transition_llm_cost_usd", "Total LLM cost in USD", "counter", func() string {
			c.mu.RLock()
			defer c.mu.RUnlock()
			return fmt.Sprintf("%.4f", c.LLMCostUSD)
		}},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, m := range metrics {
			fmt.Fprintf(w, "# HELP %s %s\n", m.name, m.help)
			fmt.Fprintf(w, "# TYPE %s %s\n", m.name, m.kind)
			fmt.Fprintf(w, "%s %s\n\n", m.name, m.value())
		}
		fmt.Fprintf(w, "# HELP transition_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE transition_ws_messages_total counter\n")
		fmt.Fprintf(w, "transition_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "transition_ws_messages_total{direction=\"out\"} %d\n", atomic.LoadInt64(&c.WSMessagesOut))
	}
}
