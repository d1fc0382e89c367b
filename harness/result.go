// Package harness runs the external load generator (wrk) against a
// candidate and turns its console output into scenario metrics.
package harness

import "github.com/weiihann/pocbench/opt"

// ScenarioResult holds the metrics extracted from one load generator run.
// Each metric is independently absent when the output did not contain it.
type ScenarioResult struct {
	LatencyMs      opt.Maybe[float64]
	RequestsPerSec opt.Maybe[float64]
}
