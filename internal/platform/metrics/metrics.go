// Package metrics provides observability for the clicker server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance and gameplay counters.
type Collector struct {
	// Tick metrics
	TickCount      int64
	TickLatencySum int64 // nanoseconds
	TickLatencyMax int64
	LastTickTime   time.Time
	DriftCount     int64

	// Persistence metrics
	SavesWritten    int64
	SaveLatencySum  int64
	SaveLatencyMax  int64
	SaveErrors      int64
	LoadFallbacks   int64 // snapshot missing or corrupt, defaults used

	// Gameplay
	Taps              int64
	TapsRejected      int64
	UpgradesPurchased int64
	SkinsPurchased    int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = New()

// New returns a fresh collector. Tests use their own instead of the global one.
func New() *Collector {
	return &Collector{StartTime: time.Now()}
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordTick records a progression tick completion.
func (c *Collector) RecordTick(latency time.Duration) {
	atomic.AddInt64(&c.TickCount, 1)
	atomic.AddInt64(&c.TickLatencySum, int64(latency))
	storeMax(&c.TickLatencyMax, int64(latency))

	c.mu.Lock()
	c.LastTickTime = time.Now()
	c.mu.Unlock()
}

// RecordDrift records a leaderboard drift cycle.
func (c *Collector) RecordDrift() {
	atomic.AddInt64(&c.DriftCount, 1)
}

// RecordSave records a snapshot write to the store.
func (c *Collector) RecordSave(latency time.Duration, err error) {
	atomic.AddInt64(&c.SavesWritten, 1)
	atomic.AddInt64(&c.SaveLatencySum, int64(latency))
	storeMax(&c.SaveLatencyMax, int64(latency))

	if err != nil {
		atomic.AddInt64(&c.SaveErrors, 1)
	}
}

// RecordLoadFallback records a load that fell back to defaults.
func (c *Collector) RecordLoadFallback() {
	atomic.AddInt64(&c.LoadFallbacks, 1)
}

// RecordTap records a tap attempt.
func (c *Collector) RecordTap(accepted bool) {
	if accepted {
		atomic.AddInt64(&c.Taps, 1)
	} else {
		atomic.AddInt64(&c.TapsRejected, 1)
	}
}

// RecordUpgradePurchase records a successful upgrade purchase.
func (c *Collector) RecordUpgradePurchase() {
	atomic.AddInt64(&c.UpgradesPurchased, 1)
}

// RecordSkinPurchase records a successful skin purchase.
func (c *Collector) RecordSkinPurchase() {
	atomic.AddInt64(&c.SkinsPurchased, 1)
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

// storeMax is a compare-and-swap max; plain load/store would race between drivers.
func storeMax(addr *int64, v int64) {
	for {
		cur := atomic.LoadInt64(addr)
		if v <= cur || atomic.CompareAndSwapInt64(addr, cur, v) {
			return
		}
	}
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	lastTick := c.LastTickTime
	c.mu.RUnlock()

	tickCount := atomic.LoadInt64(&c.TickCount)
	saves := atomic.LoadInt64(&c.SavesWritten)

	var tickAvg, saveAvg float64
	if tickCount > 0 {
		tickAvg = float64(atomic.LoadInt64(&c.TickLatencySum)) / float64(tickCount) / 1e6 // ms
	}
	if saves > 0 {
		saveAvg = float64(atomic.LoadInt64(&c.SaveLatencySum)) / float64(saves) / 1e6
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"tick": map[string]interface{}{
			"count":          tickCount,
			"drift_count":    atomic.LoadInt64(&c.DriftCount),
			"avg_latency_ms": tickAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.TickLatencyMax)) / 1e6,
			"last_tick":      lastTick.Format(time.RFC3339),
		},

		"storage": map[string]interface{}{
			"saves":           saves,
			"avg_save_lat_ms": saveAvg,
			"max_save_lat_ms": float64(atomic.LoadInt64(&c.SaveLatencyMax)) / 1e6,
			"errors":          atomic.LoadInt64(&c.SaveErrors),
			"load_fallbacks":  atomic.LoadInt64(&c.LoadFallbacks),
		},

		"gameplay": map[string]interface{}{
			"taps":               atomic.LoadInt64(&c.Taps),
			"taps_rejected":      atomic.LoadInt64(&c.TapsRejected),
			"upgrades_purchased": atomic.LoadInt64(&c.UpgradesPurchased),
			"skins_purchased":    atomic.LoadInt64(&c.SkinsPurchased),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler returns metrics in Prometheus text format.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		fmt.Fprintf(w, "# HELP clicker_tick_count Total progression ticks\n")
		fmt.Fprintf(w, "# TYPE clicker_tick_count counter\n")
		fmt.Fprintf(w, "clicker_tick_count %d\n\n", atomic.LoadInt64(&c.TickCount))

		fmt.Fprintf(w, "# HELP clicker_tick_latency_max_ms Maximum tick latency\n")
		fmt.Fprintf(w, "# TYPE clicker_tick_latency_max_ms gauge\n")
		fmt.Fprintf(w, "clicker_tick_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.TickLatencyMax))/1e6)

		fmt.Fprintf(w, "# HELP clicker_saves_total Total snapshot writes\n")
		fmt.Fprintf(w, "# TYPE clicker_saves_total counter\n")
		fmt.Fprintf(w, "clicker_saves_total %d\n\n", atomic.LoadInt64(&c.SavesWritten))

		fmt.Fprintf(w, "# HELP clicker_save_errors_total Failed snapshot writes\n")
		fmt.Fprintf(w, "# TYPE clicker_save_errors_total counter\n")
		fmt.Fprintf(w, "clicker_save_errors_total %d\n\n", atomic.LoadInt64(&c.SaveErrors))

		fmt.Fprintf(w, "# HELP clicker_taps_total Tap attempts\n")
		fmt.Fprintf(w, "# TYPE clicker_taps_total counter\n")
		fmt.Fprintf(w, "clicker_taps_total{result=\"accepted\"} %d\n", atomic.LoadInt64(&c.Taps))
		fmt.Fprintf(w, "clicker_taps_total{result=\"rejected\"} %d\n\n", atomic.LoadInt64(&c.TapsRejected))

		fmt.Fprintf(w, "# HELP clicker_purchases_total Successful purchases\n")
		fmt.Fprintf(w, "# TYPE clicker_purchases_total counter\n")
		fmt.Fprintf(w, "clicker_purchases_total{kind=\"upgrade\"} %d\n", atomic.LoadInt64(&c.UpgradesPurchased))
		fmt.Fprintf(w, "clicker_purchases_total{kind=\"skin\"} %d\n\n", atomic.LoadInt64(&c.SkinsPurchased))

		fmt.Fprintf(w, "# HELP clicker_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE clicker_ws_connections gauge\n")
		fmt.Fprintf(w, "clicker_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP clicker_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE clicker_ws_messages_total counter\n")
		fmt.Fprintf(w, "clicker_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "clicker_ws_messages_total{direction=\"out\"} %d\n", atomic.LoadInt64(&c.WSMessagesOut))
	}
}
