package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// stage ramps the number of virtual users linearly to target over duration.
type stage struct {
	Duration time.Duration
	Target   int
}

var defaultStages = []stage{
	{Duration: 30 * time.Second, Target: 200},
	{Duration: time.Minute, Target: 200},
	{Duration: 30 * time.Second, Target: 1000},
	{Duration: time.Minute, Target: 0},
}

// parseStages reads "30s:200,1m:200" style definitions.
func parseStages(raw string) ([]stage, error) {
	var out []stage
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		durRaw, targetRaw, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("stage %q: want duration:target", part)
		}
		d, err := time.ParseDuration(durRaw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("stage %q: bad duration", part)
		}
		target, err := strconv.Atoi(targetRaw)
		if err != nil || target < 0 {
			return nil, fmt.Errorf("stage %q: bad target", part)
		}
		out = append(out, stage{Duration: d, Target: target})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no stages defined")
	}
	return out, nil
}

// scaleStages multiplies every target by factor, keeping non-zero targets at least 1.
func scaleStages(stages []stage, factor float64) []stage {
	out := make([]stage, len(stages))
	for i, s := range stages {
		scaled := int(math.Round(float64(s.Target) * factor))
		if s.Target > 0 && scaled < 1 {
			scaled = 1
		}
		out[i] = stage{Duration: s.Duration, Target: scaled}
	}
	return out
}

func totalDuration(stages []stage) time.Duration {
	var total time.Duration
	for _, s := range stages {
		total += s.Duration
	}
	return total
}

// vusAt returns how many virtual users should run elapsed into the plan. The
// plan starts from zero users.
func vusAt(stages []stage, elapsed time.Duration) int {
	from := 0
	for _, s := range stages {
		if elapsed < s.Duration {
			progress := float64(elapsed) / float64(s.Duration)
			return from + int(math.Round(float64(s.Target-from)*progress))
		}
		elapsed -= s.Duration
		from = s.Target
	}
	return from
}
