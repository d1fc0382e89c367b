package harness

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/weiihann/pocbench/opt"
)

const (
	latencyPrefix    = "Latency"
	throughputPrefix = "Requests/sec:"
)

// ParseOutput extracts average latency and throughput from wrk output.
//
// Only two kinds of line are read:
//
//	Latency   700.36ms   97.00ms 829.95ms   94.32%
//	Requests/sec:     87.76
//
// The last contributing line of each kind wins: a line whose value does
// not parse (such as the "Latency Distribution" header) contributes nothing
// and keeps any earlier value. Unrecognized or malformed content never
// fails the parse; a metric with no contributing line stays absent.
func ParseOutput(raw string) ScenarioResult {
	var result ScenarioResult

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, latencyPrefix):
			if v, ok := parseLatency(line); ok {
				result.LatencyMs = opt.Some(v)
			}
		case strings.HasPrefix(line, throughputPrefix):
			if v, ok := parseThroughput(line); ok {
				result.RequestsPerSec = opt.Some(v)
			}
		}
	}

	return result
}

// parseLatency reads the average column of a thread stats latency line
// and converts it to milliseconds.
func parseLatency(line string) (float64, bool) {
	tokens := strings.Fields(line)
	if len(tokens) < 2 {
		return 0, false
	}

	value, unit := splitUnit(tokens[1])

	v, ok := parseFinite(value)
	if !ok {
		return 0, false
	}

	switch unit {
	case "", "ms":
		return v, true
	case "s":
		return v * 1000, true
	case "us":
		return v / 1000, true
	default:
		return 0, false
	}
}

func parseThroughput(line string) (float64, bool) {
	tokens := strings.Fields(line)
	if len(tokens) < 2 {
		return 0, false
	}

	return parseFinite(tokens[1])
}

// splitUnit splits "700.36ms" into "700.36" and "ms".
func splitUnit(token string) (string, string) {
	i := strings.IndexFunc(token, unicode.IsLetter)
	if i < 0 {
		return token, ""
	}

	return token[:i], token[i:]
}

func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	return v, true
}
