// Package report formats benchmark results into comparison tables.
package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/weiihann/pocbench/opt"
	"github.com/weiihann/pocbench/results"
)

// Generate writes a markdown comparison of every candidate's means,
// followed by the per-scenario metrics.
func Generate(w io.Writer, report *results.Report) error {
	if report == nil || report.Len() == 0 {
		return errors.New("no results to report")
	}

	candidates := report.Candidates()
	best := bestThroughput(candidates)

	fmt.Fprintln(w, "## Benchmark Summary")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "| POC | Avg Latency | Avg Requests/sec | Scenarios "+
		"| vs Best |")
	fmt.Fprintln(w, "|-----|-------------|------------------|-----------"+
		"|---------|")

	for _, c := range candidates {
		s := c.Summary()

		fmt.Fprintf(w, "| %s | %s | %s | %d (%d lat, %d rps) | %s |\n",
			c.Name,
			formatLatency(s.LatencyMs),
			formatRPS(s.RequestsPerSec),
			c.Len(),
			s.LatencyCount,
			s.ThroughputCount,
			relative(s.RequestsPerSec, best),
		)
	}

	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Scenarios")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| POC | Scenario | Latency | Requests/sec |")
	fmt.Fprintln(w, "|-----|----------|---------|--------------|")

	for _, c := range candidates {
		for _, sc := range c.Scenarios() {
			fmt.Fprintf(w, "| %s | %s | %s | %s |\n",
				c.Name,
				sc.Name,
				formatLatency(sc.Result.LatencyMs),
				formatRPS(sc.Result.RequestsPerSec),
			)
		}
	}

	return nil
}

func bestThroughput(candidates []*results.Candidate) float64 {
	best := 0.0

	for _, c := range candidates {
		if v, ok := c.Summary().RequestsPerSec.Get(); ok && v > best {
			best = v
		}
	}

	return best
}

// relative expresses rps as a fraction of the best candidate's throughput.
func relative(rps opt.Maybe[float64], best float64) string {
	v, ok := rps.Get()
	if !ok || best <= 0 {
		return "-"
	}

	return fmt.Sprintf("%.2fx", v/best)
}

func formatLatency(ms opt.Maybe[float64]) string {
	v, ok := ms.Get()
	if !ok {
		return "n/a"
	}

	if v < 1000 {
		return fmt.Sprintf("%.2fms", v)
	}

	return fmt.Sprintf("%.2fs", v/1000)
}

func formatRPS(rps opt.Maybe[float64]) string {
	v, ok := rps.Get()
	if !ok {
		return "n/a"
	}

	return fmt.Sprintf("%.2f", v)
}
