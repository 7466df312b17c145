// Package main - economy-sim
// Plays an auto-tapping, auto-buying user on a simulated clock and prints how
// fast the economy progresses. Nothing is persisted.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/MRamiBalles/furcoin-clicker/internal/platform/logger"
	"github.com/MRamiBalles/furcoin-clicker/internal/sim"
)

func main() {
	duration := flag.Duration("duration", 24*time.Hour, "Simulated play time")
	tps := flag.Int("taps", 5, "Taps per second")
	strategy := flag.String("strategy", "payback", "Upgrade strategy: cheapest, payback or none")
	seed := flag.Int64("seed", 1, "Leaderboard drift seed")
	out := flag.String("out", "", "Write the report as JSON to this file")
	verbose := flag.Bool("v", false, "Log engine output")
	flag.Parse()

	strat, err := sim.ParseStrategy(*strategy)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := logger.NewDiscardLogger()
	if *verbose {
		log = logger.NewLogger()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	start := time.Now()
	report, err := sim.Run(ctx, sim.Options{
		Duration:      *duration,
		TapsPerSecond: *tps,
		Strategy:      strat,
		Seed:          *seed,
	}, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulation failed: %v\n", err)
		os.Exit(1)
	}

	printReport(report, time.Since(start))

	if *out != "" {
		data, _ := json.MarshalIndent(report, "", "  ")
		if err := os.WriteFile(*out, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", *out, err)
			os.Exit(1)
		}
		fmt.Printf("\nReport saved to %s\n", *out)
	}
}

func printReport(r *sim.Report, took time.Duration) {
	line := strings.Repeat("=", 50)
	fmt.Println(line)
	fmt.Println("ECONOMY SIMULATION")
	fmt.Println(line)
	fmt.Printf("Strategy:        %s\n", r.Strategy)
	fmt.Printf("Simulated:       %v (in %v)\n", r.Elapsed, took.Round(time.Millisecond))
	fmt.Printf("Balance:         %.0f\n", r.Balance)
	fmt.Printf("Profit/hour:     %.0f\n", r.ProfitPerHour)
	fmt.Printf("Level:           %d (%s)\n", r.Level, r.LevelName)
	fmt.Printf("Rank:            %d\n", r.Rank)
	fmt.Printf("Taps:            %d\n", r.Taps)

	if len(r.Milestones) > 0 {
		fmt.Println("\nLevels reached:")
		for _, m := range r.Milestones {
			fmt.Printf("  %-8s after %v\n", m.Name, m.At)
		}
	}

	if len(r.Purchases) > 0 {
		ids := make([]string, 0, len(r.Purchases))
		for id := range r.Purchases {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		fmt.Println("\nUpgrades owned:")
		for _, id := range ids {
			fmt.Printf("  %-16s x%d\n", id, r.Purchases[id])
		}
	}
	fmt.Println(line)
}
