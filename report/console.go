package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/weiihann/pocbench/harness"
	"github.com/weiihann/pocbench/results"
)

var (
	candidateColor = color.New(color.FgCyan, color.Bold) //nolint:gochecknoglobals
	scenarioColor  = color.New(color.FgBlue)             //nolint:gochecknoglobals
	rawOutputColor = color.New(color.Faint)              //nolint:gochecknoglobals
	metricsColor   = color.New(color.FgGreen)            //nolint:gochecknoglobals
	missingColor   = color.New(color.FgYellow)           //nolint:gochecknoglobals
)

// Printer writes human-readable progress while a benchmark runs.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Candidate announces the start of a candidate's scenarios.
func (p *Printer) Candidate(name string) {
	_, _ = candidateColor.Fprintf(p.w, "\n##### POC: %s #####\n", name)
}

// Scenario announces one scenario run.
func (p *Printer) Scenario(candidate, scenario string) {
	_, _ = scenarioColor.Fprintf(p.w, "\n=== %s / %s ===\n", candidate, scenario)
}

// RawOutput echoes the load generator output, indented.
func (p *Printer) RawOutput(output string) {
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		_, _ = rawOutputColor.Fprintf(p.w, "  %s\n", line)
	}
}

// Metrics prints the metrics parsed from a scenario run. Missing metrics
// are highlighted since they usually mean the run did not complete.
func (p *Printer) Metrics(result harness.ScenarioResult) {
	c := metricsColor
	if !result.LatencyMs.IsDefined() || !result.RequestsPerSec.IsDefined() {
		c = missingColor
	}

	_, _ = c.Fprintf(p.w, "latency=%s rps=%s\n",
		formatLatency(result.LatencyMs),
		formatRPS(result.RequestsPerSec),
	)
}

// Summary prints the final cross-candidate summary tables.
func (p *Printer) Summary(r *results.Report) error {
	fmt.Fprintln(p.w)
	return Generate(p.w, r)
}
