package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/olgasafonova/oblique-strategies-mcp-server/internal/strategies"
)

func newStore() *strategies.Store {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return strategies.NewDefaultStore(strategies.WithLogger(logger))
}

// measureCachePerformance compares the first load of each edition with a cached load
func measureCachePerformance() {
	store := newStore()
	ctx := context.Background()

	fmt.Println("=== Cache Performance Test ===")
	fmt.Println()
	fmt.Println("1. Load per edition (cold vs cached):")

	for _, key := range store.Registry().Keys() {
		start := time.Now()
		lines, err := store.Load(ctx, key)
		if err != nil {
			fmt.Printf("   %-12s error: %v\n", key, err)
			continue
		}
		cold := time.Since(start)

		start = time.Now()
		_, _ = store.Load(ctx, key)
		cached := time.Since(start)

		fmt.Printf("   %-12s %3d strategies  cold %-10v cached %-10v (%.0fx)\n",
			key, len(lines), cold, cached, float64(cold)/float64(max(cached, time.Nanosecond)))
	}
	fmt.Printf("   Cached editions: %d\n", store.CachedEditions())
	fmt.Println()
}

// measureConcurrentColdLoad loads one edition from many goroutines on an empty cache
func measureConcurrentColdLoad() {
	store := newStore()
	ctx := context.Background()
	const workers = 64

	fmt.Println("2. Concurrent cold load:")

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Load(ctx, strategies.DefaultEdition)
		}()
	}
	wg.Wait()

	fmt.Printf("   %d goroutines loading %s: %v\n", workers, strategies.DefaultEdition, time.Since(start))
	fmt.Printf("   Cached editions afterwards: %d\n", store.CachedEditions())
	fmt.Println()
}

// measureSearchPerformance compares searching one edition with searching all of them
func measureSearchPerformance() {
	store := newStore()
	ctx := context.Background()
	const iterations = 1000

	fmt.Println("3. Search performance:")

	// Warm the cache so only matching is measured
	store.ListEditions(ctx)

	start := time.Now()
	var result strategies.SearchResult
	for i := 0; i < iterations; i++ {
		result = store.Search(ctx, "the", "")
	}
	all := time.Since(start)
	fmt.Printf("   All editions:  %v per search (%d matches)\n", all/iterations, result.Count)

	start = time.Now()
	for i := 0; i < iterations; i++ {
		result = store.Search(ctx, "the", "programmers")
	}
	one := time.Since(start)
	fmt.Printf("   One edition:   %v per search (%d matches)\n", one/iterations, result.Count)
	fmt.Println()
}

// measureRandomDraws reports draw throughput on a warm cache
func measureRandomDraws() {
	store := newStore()
	ctx := context.Background()
	const iterations = 100000

	fmt.Println("4. Random draws:")

	store.GetRandom(ctx, "")
	start := time.Now()
	for i := 0; i < iterations; i++ {
		store.GetRandom(ctx, "")
	}
	elapsed := time.Since(start)
	fmt.Printf("   %d draws in %v (%v per draw)\n", iterations, elapsed, elapsed/iterations)
	fmt.Println()
}

func main() {
	fmt.Println("Oblique Strategies MCP Server - Performance Measurements")
	fmt.Println("========================================================")
	fmt.Println()

	measureCachePerformance()
	measureConcurrentColdLoad()
	measureSearchPerformance()
	measureRandomDraws()

	fmt.Println("=== Summary ===")
	fmt.Println()
	fmt.Println("• Caching: each edition is read and parsed once, later loads are map lookups")
	fmt.Println("• Concurrency: simultaneous cold loads of one edition share a single read")
	fmt.Println("• Search: linear case-insensitive scan, cost grows with the editions searched")
}
