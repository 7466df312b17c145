// Package main - tapper
// Load generator: opens WebSocket clients against a running clicker server and
// spams TAP actions, then reports throughput and how many taps were accepted.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Config for the tapper
type Config struct {
	ServerURL    string
	NumClients   int
	TapInterval  time.Duration
	TapCost      float64
	TestDuration time.Duration
	Username     string
}

// Stats tracks performance metrics
type Stats struct {
	TapsSent     int64
	TapsAccepted int64
	TapsRejected int64
	StatePushes  int64
	Errors       int64

	mu        sync.Mutex
	rejects   map[string]int64
	latencies []time.Duration
}

type serverMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type actionResult struct {
	Action string `json:"action"`
	OK     bool   `json:"ok"`
	Error  string `json:"error"`
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	numClients := flag.Int("clients", 4, "Number of concurrent clients")
	interval := flag.Duration("interval", 50*time.Millisecond, "Tap interval per client")
	cost := flag.Float64("cost", 1, "Energy spent per tap")
	duration := flag.Duration("duration", 30*time.Second, "Test duration")
	username := flag.String("register", "", "Register this username first if the server has no player yet")
	flag.Parse()

	config := Config{
		ServerURL:    *serverURL,
		NumClients:   *numClients,
		TapInterval:  *interval,
		TapCost:      *cost,
		TestDuration: *duration,
		Username:     *username,
	}

	fmt.Println("=========================================")
	fmt.Println("TAPPER - WebSocket load generator")
	fmt.Println("=========================================")
	fmt.Printf("Server:   %s\n", config.ServerURL)
	fmt.Printf("Clients:  %d\n", config.NumClients)
	fmt.Printf("Interval: %v\n", config.TapInterval)
	fmt.Printf("Duration: %v\n", config.TestDuration)
	fmt.Println("=========================================")

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if config.Username != "" {
		if err := register(ctx, config); err != nil {
			log.Printf("register: %v", err)
		}
	}

	stats := runLoad(ctx, config)
	printResults(stats, config)
}

// register sends a single REGISTER action; "already registered" is fine.
func register(ctx context.Context, config Config) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]interface{}{
		"type":    "REGISTER",
		"payload": map[string]string{"username": config.Username},
	}); err != nil {
		return err
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg serverMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		if msg.Type != "ACTION_RESULT" {
			continue
		}
		var res actionResult
		json.Unmarshal(msg.Payload, &res)
		if !res.OK {
			fmt.Printf("Register skipped: %s\n", res.Error)
		}
		return nil
	}
}

func runLoad(ctx context.Context, config Config) *Stats {
	stats := &Stats{rejects: make(map[string]int64)}
	var wg sync.WaitGroup

	for i := 0; i < config.NumClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			runClient(ctx, clientID, config, stats)
		}(i)

		// Stagger client starts to avoid thundering herd
		time.Sleep(10 * time.Millisecond)
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Printf("Progress: sent=%d accepted=%d rejected=%d errors=%d\n",
					atomic.LoadInt64(&stats.TapsSent),
					atomic.LoadInt64(&stats.TapsAccepted),
					atomic.LoadInt64(&stats.TapsRejected),
					atomic.LoadInt64(&stats.Errors))
			}
		}
	}()

	wg.Wait()
	return stats
}

func runClient(ctx context.Context, clientID int, config Config, stats *Stats) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		log.Printf("Client %d: connection failed: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	// Results come back in order on one connection, so a FIFO of send
	// times is enough to measure round trips.
	var pendingMu sync.Mutex
	var pending []time.Time

	go func() {
		for {
			var msg serverMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			switch msg.Type {
			case "STATE":
				atomic.AddInt64(&stats.StatePushes, 1)
			case "ACTION_RESULT":
				var res actionResult
				if err := json.Unmarshal(msg.Payload, &res); err != nil {
					atomic.AddInt64(&stats.Errors, 1)
					continue
				}

				pendingMu.Lock()
				var sent time.Time
				if len(pending) > 0 {
					sent, pending = pending[0], pending[1:]
				}
				pendingMu.Unlock()

				stats.mu.Lock()
				if !sent.IsZero() {
					stats.latencies = append(stats.latencies, time.Since(sent))
				}
				if !res.OK {
					stats.rejects[res.Error]++
				}
				stats.mu.Unlock()

				if res.OK {
					atomic.AddInt64(&stats.TapsAccepted, 1)
				} else {
					atomic.AddInt64(&stats.TapsRejected, 1)
				}
			}
		}
	}()

	ticker := time.NewTicker(config.TapInterval)
	defer ticker.Stop()

	tap := map[string]interface{}{
		"type":    "TAP",
		"payload": map[string]float64{"cost": config.TapCost},
	}
	for {
		select {
		case <-ctx.Done():
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			pendingMu.Lock()
			pending = append(pending, time.Now())
			pendingMu.Unlock()

			if err := conn.WriteJSON(tap); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				return
			}
			atomic.AddInt64(&stats.TapsSent, 1)
		}
	}
}

func printResults(stats *Stats, config Config) {
	sent := atomic.LoadInt64(&stats.TapsSent)
	accepted := atomic.LoadInt64(&stats.TapsAccepted)
	rejected := atomic.LoadInt64(&stats.TapsRejected)
	errs := atomic.LoadInt64(&stats.Errors)

	fmt.Println("\n=========================================")
	fmt.Println("RESULTS")
	fmt.Println("=========================================")
	fmt.Printf("Taps sent:     %d\n", sent)
	fmt.Printf("Accepted:      %d\n", accepted)
	fmt.Printf("Rejected:      %d\n", rejected)
	fmt.Printf("State pushes:  %d\n", atomic.LoadInt64(&stats.StatePushes))
	fmt.Printf("Errors:        %d\n", errs)
	fmt.Printf("Throughput:    %.2f taps/sec\n", float64(sent)/config.TestDuration.Seconds())

	stats.mu.Lock()
	defer stats.mu.Unlock()

	if len(stats.rejects) > 0 {
		fmt.Println("\nRejections:")
		for reason, n := range stats.rejects {
			fmt.Printf("  %-24s %d\n", reason, n)
		}
	}

	if len(stats.latencies) > 0 {
		sort.Slice(stats.latencies, func(i, j int) bool { return stats.latencies[i] < stats.latencies[j] })
		n := len(stats.latencies)
		fmt.Printf("\nRound trip:\n")
		fmt.Printf("  Min: %v\n", stats.latencies[0])
		fmt.Printf("  P50: %v\n", stats.latencies[n/2])
		fmt.Printf("  P99: %v\n", stats.latencies[n*99/100])
		fmt.Printf("  Max: %v\n", stats.latencies[n-1])
	}
	fmt.Println("=========================================")
}
