package harness

import (
	"errors"
	"os"
	"os/exec"

	"github.com/weiihann/pocbench/opt"
)

const (
	// DefaultBinary is the load generator looked up on PATH.
	DefaultBinary = "wrk"
	// BinaryEnv names the environment variable that may point at the
	// load generator.
	BinaryEnv = "POCBENCH_LOADGEN"
)

// ErrLoadGenNotFound is returned when no lookup strategy yields a load
// generator binary.
var ErrLoadGenNotFound = errors.New("load generator binary not found")

// Strategy is one way of locating the load generator binary.
type Strategy func() opt.Maybe[string]

// Explicit yields path when it is set.
func Explicit(path string) Strategy {
	return func() opt.Maybe[string] {
		if path == "" {
			return opt.None[string]()
		}

		return opt.Some(path)
	}
}

// FromEnv yields the value of the environment variable key when set.
func FromEnv(key string) Strategy {
	return func() opt.Maybe[string] {
		if v := os.Getenv(key); v != "" {
			return opt.Some(v)
		}

		return opt.None[string]()
	}
}

// OnPath yields the location of name on PATH.
func OnPath(name string) Strategy {
	return func() opt.Maybe[string] {
		p, err := exec.LookPath(name)
		if err != nil {
			return opt.None[string]()
		}

		return opt.Some(p)
	}
}

// DefaultStrategies is the lookup order used by the CLI: explicit
// setting, POCBENCH_LOADGEN, then wrk on PATH.
func DefaultStrategies(explicit string) []Strategy {
	return []Strategy{
		Explicit(explicit),
		FromEnv(BinaryEnv),
		OnPath(DefaultBinary),
	}
}

// ResolveBinary returns the result of the first strategy that finds a
// binary, or ErrLoadGenNotFound.
func ResolveBinary(strategies ...Strategy) (string, error) {
	fns := make([]func() opt.Maybe[string], len(strategies))
	for i, s := range strategies {
		fns[i] = s
	}

	if p, ok := opt.First(fns...).Get(); ok {
		return p, nil
	}

	return "", ErrLoadGenNotFound
}
