package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/weiihann/pocbench/opt"
)

const wrkOutput = `Running 10s test @ http://localhost:3001
  4 threads and 64 connections
  Thread Stats   Avg      Stdev     Max   +/- Stdev
    Latency   700.36ms   97.00ms 829.95ms   94.32%
    Req/Sec    25.54     17.08    90.00     70.42%
  884 requests in 10.07s, 1.36MB read
Requests/sec:     87.76
Transfer/sec:    138.52KB
`

func TestParseOutputWrk(t *testing.T) {
	got := ParseOutput(wrkOutput)

	assert.Equal(t, opt.Some(700.36), got.LatencyMs)
	assert.Equal(t, opt.Some(87.76), got.RequestsPerSec)
}

func TestParseOutputLatencyUnits(t *testing.T) {
	tests := []struct {
		line string
		want float64
	}{
		{"Latency   700.36ms   97.00ms 829.95ms   94.32%", 700.36},
		{"Latency   0.70s   12.00ms 1.20s   80.00%", 700.0},
		{"Latency   250.00us   10.00us 1.00ms   90.00%", 0.25},
		{"Latency   12   1   13   50%", 12},
	}

	for _, tt := range tests {
		got := ParseOutput(tt.line)

		v, ok := got.LatencyMs.Get()
		assert.True(t, ok, tt.line)
		assert.InDelta(t, tt.want, v, 1e-9, tt.line)
		assert.False(t, got.RequestsPerSec.IsDefined(), tt.line)
	}
}

func TestParseOutputThroughput(t *testing.T) {
	got := ParseOutput("Requests/sec:     87.76")

	assert.Equal(t, opt.Some(87.76), got.RequestsPerSec)
	assert.False(t, got.LatencyMs.IsDefined())
}

func TestParseOutputUnrecognized(t *testing.T) {
	for _, raw := range []string{
		"",
		"unable to connect to localhost:3001 Connection refused",
		"PANIC: unprotected error in call to Lua API",
		"\x00\xff garbage \n\n\t",
	} {
		got := ParseOutput(raw)
		assert.False(t, got.LatencyMs.IsDefined(), raw)
		assert.False(t, got.RequestsPerSec.IsDefined(), raw)
	}
}

func TestParseOutputMalformed(t *testing.T) {
	tests := []string{
		"Latency",
		"Latency   abcms",
		"Latency   7.0.1ms",
		"Latency   3.00m   1.00m   4.00m   50%",
		"Latency Distribution",
		"Requests/sec:",
		"Requests/sec:     n/a",
		"Requests/sec:     NaN",
		"Requests/sec:87.76",
	}

	for _, line := range tests {
		got := ParseOutput(line)
		assert.False(t, got.LatencyMs.IsDefined(), line)
		assert.False(t, got.RequestsPerSec.IsDefined(), line)
	}
}

func TestParseOutputLastLineWins(t *testing.T) {
	raw := "Requests/sec: 10\nLatency 1ms\nRequests/sec: 20\nLatency 2s\n"
	got := ParseOutput(raw)

	assert.Equal(t, opt.Some(20.0), got.RequestsPerSec)
	assert.Equal(t, opt.Some(2000.0), got.LatencyMs)
}

func TestParseOutputMalformedLineKeepsEarlierValue(t *testing.T) {
	raw := wrkOutput + "  Latency Distribution\n     50%  690.00ms\n"
	got := ParseOutput(raw)

	assert.Equal(t, opt.Some(700.36), got.LatencyMs)
}

func TestParseOutputCRLF(t *testing.T) {
	got := ParseOutput("    Latency   5.00ms   1ms   9ms   80%\r\nRequests/sec:   3.5\r\n")

	assert.Equal(t, opt.Some(5.0), got.LatencyMs)
	assert.Equal(t, opt.Some(3.5), got.RequestsPerSec)
}
