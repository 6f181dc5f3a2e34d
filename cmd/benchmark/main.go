// Benchmark tool for measuring ClaimGuard accuracy and throughput.
//
// Usage:
//
//	go run cmd/benchmark/main.go -url http://localhost:8000 -claims 5000
//
// This tool:
//  1. Generates synthetic claims whose expected outcome is known
//  2. Sends each claim (or batch of claims) to ClaimGuard for adjudication
//  3. Compares the returned status with the expected status
//  4. Reports a confusion matrix, accuracy, latency and throughput
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"github.com/opensource-finance/claimguard/internal/api"
	"github.com/opensource-finance/claimguard/internal/domain"
)

var statuses = []domain.ClaimStatus{domain.StatusApproved, domain.StatusPartialApproval, domain.StatusRejected}

// Metrics tracks benchmark results.
type Metrics struct {
	mu sync.Mutex
	// Confusion[expected][actual]
	Confusion map[domain.ClaimStatus]map[domain.ClaimStatus]int64

	TotalProcessed   int64
	TotalErrors      int64
	ProcessingTimeMs int64
}

func newMetrics() *Metrics {
	m := &Metrics{Confusion: make(map[domain.ClaimStatus]map[domain.ClaimStatus]int64)}
	for _, s := range statuses {
		m.Confusion[s] = make(map[domain.ClaimStatus]int64)
	}
	return m
}

func (m *Metrics) record(expected, actual domain.ClaimStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Confusion[expected] == nil {
		m.Confusion[expected] = make(map[domain.ClaimStatus]int64)
	}
	m.Confusion[expected][actual]++
}

// Correct returns the number of claims whose status matched.
func (m *Metrics) Correct() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for s, row := range m.Confusion {
		n += row[s]
	}
	return n
}

// Config holds the benchmark run parameters.
type Config struct {
	BaseURL   string
	Workers   int
	BatchSize int
	RPS       float64
	Verbose   bool
}

func main() {
	baseURL := flag.String("url", "http://localhost:8000", "ClaimGuard base URL")
	count := flag.Int("claims", 1000, "Number of synthetic claims to send")
	seed := flag.Int64("seed", 42, "Generator seed")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	batchSize := flag.Int("batch", 0, "Claims per /adjudicate/batch request (0 = one claim per request)")
	rps := flag.Float64("rps", 0, "Maximum requests per second (0 = unlimited)")
	verbose := flag.Bool("verbose", false, "Print each claim result")
	flag.Parse()

	if *batchSize > api.MaxBatchSize {
		fmt.Printf("ERROR: -batch cannot exceed %d\n", api.MaxBatchSize)
		os.Exit(1)
	}

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║        CLAIMGUARD BENCHMARK - Synthetic Claim Adjudication    ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nClaimGuard URL: %s\n", *baseURL)
	fmt.Printf("Claims:         %s\n", humanize.Comma(int64(*count)))
	fmt.Printf("Seed:           %d\n", *seed)
	fmt.Printf("Workers:        %d\n", *workers)
	fmt.Printf("Batch Size:     %d\n", *batchSize)
	fmt.Printf("Rate Limit:     %.0f req/s\n", *rps)
	fmt.Println()

	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: ClaimGuard not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure ClaimGuard is running:")
		fmt.Println("  go run cmd/claimguard/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ ClaimGuard is healthy")

	claims := NewGenerator(*seed).Generate(*count)
	fmt.Printf("✓ Generated %s claims across %d scenarios\n", humanize.Comma(int64(len(claims))), len(scenarios))

	cfg := Config{
		BaseURL:   *baseURL,
		Workers:   *workers,
		BatchSize: *batchSize,
		RPS:       *rps,
		Verbose:   *verbose,
	}

	fmt.Printf("\nRunning benchmark with %d workers...\n", cfg.Workers)
	startTime := time.Now()
	metrics := runBenchmark(context.Background(), claims, cfg)
	duration := time.Since(startTime)

	printResults(metrics, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// chunk splits claims into request-sized groups.
func chunk(claims []LabelledClaim, size int) [][]LabelledClaim {
	if size <= 0 {
		size = 1
	}
	var out [][]LabelledClaim
	for len(claims) > 0 {
		n := min(size, len(claims))
		out = append(out, claims[:n])
		claims = claims[n:]
	}
	return out
}

func runBenchmark(ctx context.Context, claims []LabelledClaim, cfg Config) *Metrics {
	metrics := newMetrics()

	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	limiter := rate.NewLimiter(limit, max(1, int(cfg.RPS)))

	work := make(chan []LabelledClaim, 100)
	var wg sync.WaitGroup

	for i := 0; i < max(1, cfg.Workers); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 30 * time.Second}

			for group := range work {
				if err := limiter.Wait(ctx); err != nil {
					atomic.AddInt64(&metrics.TotalErrors, int64(len(group)))
					continue
				}

				start := time.Now()
				got, err := send(ctx, client, cfg, group)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, int64(len(group)))

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, int64(len(group)))
					if cfg.Verbose {
						fmt.Printf("ERROR: %s -> %v\n", group[0].Claim.ClaimID, err)
					}
					continue
				}

				for i, lc := range group {
					actual := got[i]
					if actual == "" {
						atomic.AddInt64(&metrics.TotalErrors, 1)
						continue
					}
					expected := lc.Scenario.Expected()
					metrics.record(expected, actual)

					if cfg.Verbose {
						mark := "✓"
						if actual != expected {
							mark = "✗"
						}
						fmt.Printf("%s %-16s | %-20s | Claimed: %14s | Expected: %-16s | Got: %s\n",
							mark,
							lc.Claim.ClaimID,
							lc.Scenario,
							"Rs."+humanize.FormatFloat("#,###.##", lc.Claim.TotalAmount),
							expected,
							actual,
						)
					}
				}
			}
		}()
	}

	for _, group := range chunk(claims, cfg.BatchSize) {
		work <- group
	}
	close(work)

	wg.Wait()
	return metrics
}

// send adjudicates a group of claims and returns one status per claim.
// A failed slot inside a batch is returned as an empty status.
func send(ctx context.Context, client *http.Client, cfg Config, group []LabelledClaim) ([]domain.ClaimStatus, error) {
	if cfg.BatchSize <= 0 {
		var resp api.AdjudicateResponse
		if err := post(ctx, client, cfg.BaseURL+"/adjudicate", group[0].Claim, &resp); err != nil {
			return nil, err
		}
		if resp.Result == nil {
			return nil, fmt.Errorf("response has no result")
		}
		return []domain.ClaimStatus{resp.Result.Status}, nil
	}

	batch := make([]*domain.ClaimRecord, len(group))
	for i, lc := range group {
		batch[i] = lc.Claim
	}

	var resp api.BatchResponse
	if err := post(ctx, client, cfg.BaseURL+"/adjudicate/batch", batch, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.ClaimStatus, len(group))
	for _, item := range resp.Results {
		if item.Index < 0 || item.Index >= len(out) || item.Result == nil {
			continue
		}
		out[item.Index] = item.Result.Status
	}
	return out, nil
}

func post(ctx context.Context, client *http.Client, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      BENCHMARK RESULTS                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	fmt.Printf("\n📊 RUN STATISTICS\n")
	fmt.Printf("   Total Processed:  %s\n", humanize.Comma(m.TotalProcessed))
	fmt.Printf("   Errors:           %s\n", humanize.Comma(m.TotalErrors))

	fmt.Printf("\n📈 CONFUSION MATRIX (rows: expected, columns: actual)\n")
	fmt.Printf("   %-18s", "")
	for _, s := range statuses {
		fmt.Printf(" %16s", s)
	}
	fmt.Println()
	var scored int64
	for _, expected := range statuses {
		fmt.Printf("   %-18s", expected)
		for _, actual := range statuses {
			n := m.Confusion[expected][actual]
			scored += n
			fmt.Printf(" %16d", n)
		}
		fmt.Println()
	}

	correct := m.Correct()
	accuracy := float64(0)
	if scored > 0 {
		accuracy = float64(correct) / float64(scored)
	}

	fmt.Printf("\n🎯 ACCURACY\n")
	fmt.Printf("   Matched:    %s / %s\n", humanize.Comma(correct), humanize.Comma(scored))
	fmt.Printf("   Accuracy:   %.4f\n", accuracy)

	fmt.Printf("\n⏱️  PERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.TotalProcessed > 0 {
		avgMs := float64(m.ProcessingTimeMs) / float64(m.TotalProcessed)
		cps := float64(m.TotalProcessed) / duration.Seconds()
		fmt.Printf("   Avg Latency:      %.2f ms/claim\n", avgMs)
		fmt.Printf("   Throughput:       %s claims/sec\n", humanize.CommafWithDigits(cps, 2))
	}

	fmt.Printf("\n💡 INTERPRETATION\n")
	switch {
	case accuracy == 1:
		fmt.Println("   ✅ Every claim matched its expected outcome")
	case accuracy >= 0.99:
		fmt.Println("   ⚠️  Near-perfect - inspect the off-diagonal cells")
	default:
		fmt.Println("   ❌ Outcomes diverge from the rule catalog - check the loaded rules")
	}

	fmt.Println()
}
