package main

import (
	"math"
	"sort"
	"sync"
	"time"
)

type recorder struct {
	mu        sync.Mutex
	latencies []time.Duration
	failures  int
}

func (r *recorder) record(latency time.Duration, ok bool) {
	r.mu.Lock()
	r.latencies = append(r.latencies, latency)
	if !ok {
		r.failures++
	}
	r.mu.Unlock()
}

type summary struct {
	Requests  int
	Failures  int
	ErrorRate float64
	P50       time.Duration
	P90       time.Duration
	P99       time.Duration
	Max       time.Duration
}

func (r *recorder) summary() summary {
	r.mu.Lock()
	latencies := append([]time.Duration(nil), r.latencies...)
	failures := r.failures
	r.mu.Unlock()

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	s := summary{Requests: len(latencies), Failures: failures}
	if s.Requests == 0 {
		return s
	}
	s.ErrorRate = float64(failures) / float64(s.Requests)
	s.P50 = percentile(latencies, 50)
	s.P90 = percentile(latencies, 90)
	s.P99 = percentile(latencies, 99)
	s.Max = latencies[len(latencies)-1]
	return s
}

// percentile uses the nearest-rank method on sorted input.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

type thresholds struct {
	P90          time.Duration
	P99          time.Duration
	MaxErrorRate float64
}

// violations lists every threshold the run broke.
func (t thresholds) violations(s summary) []string {
	var out []string
	if s.Requests == 0 {
		return []string{"no requests completed"}
	}
	if s.P90 >= t.P90 {
		out = append(out, "p(90) "+s.P90.String()+" >= "+t.P90.String())
	}
	if s.P99 >= t.P99 {
		out = append(out, "p(99) "+s.P99.String()+" >= "+t.P99.String())
	}
	if s.ErrorRate >= t.MaxErrorRate {
		out = append(out, "error rate above limit")
	}
	return out
}
