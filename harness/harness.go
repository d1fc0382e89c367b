package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/weiihann/pocbench/settings"
)

// LoadGenError reports a load generator that could not be started or
// exited non-zero. Output holds whatever it printed.
type LoadGenError struct {
	Binary   string
	ExitCode int
	Output   string
	Err      error
}

func (e *LoadGenError) Error() string {
	msg := fmt.Sprintf("load generator %s failed: %v", e.Binary, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\noutput: " + out
	}

	return msg
}

func (e *LoadGenError) Unwrap() error { return e.Err }

// Runner launches the load generator against one candidate at a time.
type Runner struct {
	BinaryPath  string
	Threads     int
	Connections int
	Duration    time.Duration
	// TolerateExitCode treats a non-zero exit as a warning and hands the
	// output to the parser anyway.
	TolerateExitCode bool
	Logger           *slog.Logger
}

// NewRunner creates a Runner for the binary at binaryPath using the
// load generator settings.
func NewRunner(binaryPath string, cfg settings.LoadGen, logger *slog.Logger) *Runner {
	return &Runner{
		BinaryPath:       binaryPath,
		Threads:          cfg.Threads,
		Connections:      cfg.Connections,
		Duration:         cfg.Duration,
		TolerateExitCode: cfg.TolerateExitCode,
		Logger:           logger.With(slog.String("loadgen", binaryPath)),
	}
}

// Args returns the load generator command line for one scenario.
func (r *Runner) Args(baseURL, scriptPath string) []string {
	return []string{
		fmt.Sprintf("-t%d", r.Threads),
		fmt.Sprintf("-c%d", r.Connections),
		fmt.Sprintf("-d%ds", int(r.Duration/time.Second)),
		"-s", scriptPath,
		baseURL,
	}
}

// Run executes the load generator with the script at scriptPath against
// baseURL and returns its combined stdout and stderr. It blocks for the
// configured duration; the harness sets no timeout of its own.
func (r *Runner) Run(ctx context.Context, baseURL, scriptPath string) (string, error) {
	cmd := exec.CommandContext(ctx, r.BinaryPath, r.Args(baseURL, scriptPath)...)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	r.Logger.InfoContext(ctx, "starting load generator",
		slog.String("target", baseURL),
		slog.String("script", scriptPath),
		slog.Duration("duration", r.Duration),
	)

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && r.TolerateExitCode && ctx.Err() == nil {
			r.Logger.WarnContext(ctx, "load generator exited non-zero",
				slog.Int("exit_code", exitErr.ExitCode()),
				slog.Duration("wall_time", elapsed),
			)

			return output.String(), nil
		}

		lgErr := &LoadGenError{
			Binary:   r.BinaryPath,
			ExitCode: -1,
			Output:   output.String(),
			Err:      err,
		}
		if exitErr != nil {
			lgErr.ExitCode = exitErr.ExitCode()
		}

		return "", lgErr
	}

	r.Logger.InfoContext(ctx, "load generator finished",
		slog.Duration("wall_time", elapsed),
	)

	return output.String(), nil
}
