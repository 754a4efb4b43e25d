package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"
)

func main() {
	var (
		baseURL    string
		path       string
		stagesRaw  string
		scale      float64
		think      time.Duration
		timeout    time.Duration
		p90, p99   time.Duration
		errorLimit float64
	)

	flag.StringVar(&baseURL, "base-url", envOr("BASE_URL", "http://localhost:8080"), "API base URL (BASE_URL)")
	flag.StringVar(&path, "path", "/api/healthz", "Path every virtual user requests")
	flag.StringVar(&stagesRaw, "stages", "", "Override stages, e.g. 30s:200,1m:200,30s:1000,1m:0")
	flag.Float64Var(&scale, "scale", 1, "Multiply every stage target")
	flag.DurationVar(&think, "think", time.Second, "Pause between requests of one virtual user")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.DurationVar(&p90, "p90", 300*time.Millisecond, "Fail when p(90) latency reaches this")
	flag.DurationVar(&p99, "p99", time.Second, "Fail when p(99) latency reaches this")
	flag.Float64Var(&errorLimit, "max-error-rate", 0.01, "Fail when the error rate reaches this")
	flag.Parse()

	stages := defaultStages
	if stagesRaw != "" {
		parsed, err := parseStages(stagesRaw)
		if err != nil {
			log.Fatalf("invalid stages: %v", err)
		}
		stages = parsed
	}
	if scale <= 0 {
		log.Fatalf("scale must be positive")
	}
	stages = scaleStages(stages, scale)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	target := strings.TrimRight(baseURL, "/") + path
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        0,
			MaxIdleConnsPerHost: 1024,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	fmt.Printf("Load test: GET %s, %d stages over %s\n", target, len(stages), totalDuration(stages))
	rec := &recorder{}
	run(ctx, stages, func(vuCtx context.Context) {
		virtualUser(vuCtx, client, target, think, rec)
	})

	s := rec.summary()
	printSummary(s)
	failed := thresholds{P90: p90, P99: p99, MaxErrorRate: errorLimit}.violations(s)
	for _, v := range failed {
		fmt.Printf("THRESHOLD FAILED: %s\n", v)
	}
	if len(failed) > 0 {
		os.Exit(1)
	}
}

// run keeps the number of live virtual users on the stage plan until it ends
// or ctx is cancelled, then waits for every user to stop.
func run(ctx context.Context, stages []stage, vu func(context.Context)) {
	var (
		wg      sync.WaitGroup
		cancels []context.CancelFunc
	)
	start := time.Now()
	total := totalDuration(stages)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		elapsed := time.Since(start)
		if elapsed >= total || ctx.Err() != nil {
			break
		}
		want := vusAt(stages, elapsed)
		for len(cancels) < want {
			vuCtx, cancel := context.WithCancel(ctx)
			cancels = append(cancels, cancel)
			wg.Add(1)
			go func() {
				defer wg.Done()
				vu(vuCtx)
			}()
		}
		for len(cancels) > want {
			last := len(cancels) - 1
			cancels[last]()
			cancels = cancels[:last]
		}

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}

	for _, cancel := range cancels {
		cancel()
	}
	wg.Wait()
}

func virtualUser(ctx context.Context, client *http.Client, target string, think time.Duration, rec *recorder) {
	for ctx.Err() == nil {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			rec.record(0, false)
			return
		}
		start := time.Now()
		resp, err := client.Do(req)
		latency := time.Since(start)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			rec.record(latency, false)
		} else {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			rec.record(latency, resp.StatusCode == http.StatusOK)
		}

		if think > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(think):
			}
		}
	}
}

func printSummary(s summary) {
	fmt.Printf("requests......: %d\n", s.Requests)
	fmt.Printf("failures......: %d (%.2f%%)\n", s.Failures, s.ErrorRate*100)
	fmt.Printf("latency p(50).: %s\n", s.P50)
	fmt.Printf("latency p(90).: %s\n", s.P90)
	fmt.Printf("latency p(99).: %s\n", s.P99)
	fmt.Printf("latency max...: %s\n", s.Max)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
