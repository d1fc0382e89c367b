package harness

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/pocbench/opt"
	"github.com/weiihann/pocbench/settings"
)

// fakeWrk writes a shell script standing in for wrk. It echoes its
// arguments on stdout, a summary line on stderr and exits with code.
func fakeWrk(t *testing.T, code int) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake load generator is a shell script")
	}

	path := filepath.Join(t.TempDir(), "wrk")
	body := "#!/bin/sh\n" +
		"echo \"args: $*\"\n" +
		"echo '    Latency   1.50ms   0.20ms   3.00ms   90.00%'\n" +
		"echo 'Requests/sec:   1234.50' >&2\n" +
		"exit " + strconv.Itoa(code) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))

	return path
}

func testRunner(binary string, tolerate bool) *Runner {
	cfg := settings.Default().LoadGen
	cfg.TolerateExitCode = tolerate

	return NewRunner(binary, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestArgs(t *testing.T) {
	r := testRunner("wrk", false)

	assert.Equal(t,
		[]string{"-t4", "-c64", "-d10s", "-s", "scripts/get.lua", "http://localhost:3001"},
		r.Args("http://localhost:3001", "scripts/get.lua"),
	)

	r.Duration = 90 * time.Second
	assert.Equal(t, "-d90s", r.Args("u", "s")[2])
}

func TestRunCapturesCombinedOutput(t *testing.T) {
	r := testRunner(fakeWrk(t, 0), false)

	out, err := r.Run(context.Background(), "http://localhost:3001", "get.lua")
	require.NoError(t, err)

	assert.Contains(t, out, "args: -t4 -c64 -d10s -s get.lua http://localhost:3001")

	result := ParseOutput(out)
	assert.Equal(t, opt.Some(1.5), result.LatencyMs)
	assert.Equal(t, opt.Some(1234.5), result.RequestsPerSec)
}

func TestRunNonZeroExitIsFatal(t *testing.T) {
	r := testRunner(fakeWrk(t, 3), false)

	_, err := r.Run(context.Background(), "http://localhost:3001", "get.lua")

	var lgErr *LoadGenError
	require.ErrorAs(t, err, &lgErr)
	assert.Equal(t, 3, lgErr.ExitCode)
	assert.Contains(t, lgErr.Output, "Requests/sec:")
}

func TestRunNonZeroExitTolerated(t *testing.T) {
	r := testRunner(fakeWrk(t, 1), true)

	out, err := r.Run(context.Background(), "http://localhost:3001", "get.lua")
	require.NoError(t, err)
	assert.True(t, ParseOutput(out).RequestsPerSec.IsDefined())
}

func TestRunMissingBinary(t *testing.T) {
	r := testRunner(filepath.Join(t.TempDir(), "no-such-wrk"), true)

	_, err := r.Run(context.Background(), "http://localhost:3001", "get.lua")

	var lgErr *LoadGenError
	require.ErrorAs(t, err, &lgErr)
	assert.Equal(t, -1, lgErr.ExitCode)
}

func TestResolveBinary(t *testing.T) {
	var calls []string
	probe := func(name string, found bool) Strategy {
		return func() opt.Maybe[string] {
			calls = append(calls, name)
			if found {
				return opt.Some("/bin/" + name)
			}
			return opt.None[string]()
		}
	}

	got, err := ResolveBinary(probe("a", false), probe("b", true), probe("c", true))
	require.NoError(t, err)
	assert.Equal(t, "/bin/b", got)
	assert.Equal(t, []string{"a", "b"}, calls)

	_, err = ResolveBinary(probe("x", false))
	assert.True(t, errors.Is(err, ErrLoadGenNotFound))
}

func TestDefaultStrategies(t *testing.T) {
	t.Setenv(BinaryEnv, "/from/env/wrk")

	got, err := ResolveBinary(DefaultStrategies("/explicit/wrk")...)
	require.NoError(t, err)
	assert.Equal(t, "/explicit/wrk", got)

	got, err = ResolveBinary(DefaultStrategies("")...)
	require.NoError(t, err)
	assert.Equal(t, "/from/env/wrk", got)
}

func TestOnPath(t *testing.T) {
	bin := fakeWrk(t, 0)
	t.Setenv("PATH", filepath.Dir(bin))

	got := OnPath("wrk")()
	assert.Equal(t, opt.Some(bin), got)

	assert.False(t, OnPath("definitely-not-installed")().IsDefined())
}
