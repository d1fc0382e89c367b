// Package results aggregates scenario metrics per candidate, keeping
// configuration order throughout.
package results

import (
	"github.com/weiihann/pocbench/harness"
	"github.com/weiihann/pocbench/opt"
)

// Scenario is one named scenario result.
type Scenario struct {
	Name   string
	Result harness.ScenarioResult
}

// Summary holds a candidate's means. Each mean only covers scenarios where
// the metric was present; Count fields say how many contributed.
type Summary struct {
	LatencyMs       opt.Maybe[float64]
	LatencyCount    int
	RequestsPerSec  opt.Maybe[float64]
	ThroughputCount int
}

// Candidate holds one candidate's scenario results in arrival order.
type Candidate struct {
	Name      string
	scenarios []Scenario
	index     map[string]int
}

// NewCandidate creates an empty result set for the named candidate.
func NewCandidate(name string) *Candidate {
	return &Candidate{Name: name, index: make(map[string]int)}
}

// Add stores result under scenario. Adding a name twice replaces the
// earlier result but keeps its original position.
func (c *Candidate) Add(scenario string, result harness.ScenarioResult) {
	if i, ok := c.index[scenario]; ok {
		c.scenarios[i].Result = result
		return
	}

	c.index[scenario] = len(c.scenarios)
	c.scenarios = append(c.scenarios, Scenario{Name: scenario, Result: result})
}

// Get returns the result stored under scenario.
func (c *Candidate) Get(scenario string) (harness.ScenarioResult, bool) {
	i, ok := c.index[scenario]
	if !ok {
		return harness.ScenarioResult{}, false
	}

	return c.scenarios[i].Result, true
}

// Scenarios returns the scenario results in arrival order.
func (c *Candidate) Scenarios() []Scenario {
	out := make([]Scenario, len(c.scenarios))
	copy(out, c.scenarios)

	return out
}

// Len returns the number of stored scenarios.
func (c *Candidate) Len() int { return len(c.scenarios) }

// Summary computes the arithmetic means of latency and throughput,
// independently, over the scenarios that have each metric.
func (c *Candidate) Summary() Summary {
	var (
		s                  Summary
		latencySum, rpsSum float64
	)

	for _, sc := range c.scenarios {
		if v, ok := sc.Result.LatencyMs.Get(); ok {
			latencySum += v
			s.LatencyCount++
		}

		if v, ok := sc.Result.RequestsPerSec.Get(); ok {
			rpsSum += v
			s.ThroughputCount++
		}
	}

	if s.LatencyCount > 0 {
		s.LatencyMs = opt.Some(latencySum / float64(s.LatencyCount))
	}

	if s.ThroughputCount > 0 {
		s.RequestsPerSec = opt.Some(rpsSum / float64(s.ThroughputCount))
	}

	return s
}

// Report holds every candidate's results in configuration order.
type Report struct {
	candidates []*Candidate
	index      map[string]*Candidate
}

// NewReport creates an empty Report.
func NewReport() *Report {
	return &Report{index: make(map[string]*Candidate)}
}

// Candidate returns the results for name, creating them at the end of the
// report on first use.
func (r *Report) Candidate(name string) *Candidate {
	if c, ok := r.index[name]; ok {
		return c
	}

	c := NewCandidate(name)
	r.index[name] = c
	r.candidates = append(r.candidates, c)

	return c
}

// Lookup returns the results for name if present.
func (r *Report) Lookup(name string) (*Candidate, bool) {
	c, ok := r.index[name]
	return c, ok
}

// Candidates returns the candidates in the order they were first added.
func (r *Report) Candidates() []*Candidate {
	out := make([]*Candidate, len(r.candidates))
	copy(out, r.candidates)

	return out
}

// Len returns the number of candidates.
func (r *Report) Len() int { return len(r.candidates) }
