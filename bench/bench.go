// Package bench drives a comparative benchmark: every candidate, every
// scenario, strictly one at a time, so all candidates see the same host.
package bench

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weiihann/pocbench/auth"
	"github.com/weiihann/pocbench/config"
	"github.com/weiihann/pocbench/harness"
	"github.com/weiihann/pocbench/results"
	"github.com/weiihann/pocbench/script"
)

// Authenticator mints a credential for a candidate.
type Authenticator interface {
	Obtain(ctx context.Context, baseURL string) (auth.Credential, error)
}

// LoadRunner runs one workload script against a candidate and returns the
// load generator's raw output.
type LoadRunner interface {
	Run(ctx context.Context, baseURL, scriptPath string) (string, error)
}

// PatchFunc writes a credential into the workload script at path.
type PatchFunc func(path, token string, subjectID int64) error

// Printer receives human-readable progress.
type Printer interface {
	Candidate(name string)
	Scenario(candidate, scenario string)
	RawOutput(output string)
	Metrics(result harness.ScenarioResult)
}

// Bench runs candidates' scenarios sequentially.
type Bench struct {
	Auth    Authenticator
	Runner  LoadRunner
	Patch   PatchFunc
	Printer Printer
	Logger  *slog.Logger
}

// New creates a Bench patching scripts on disk with script.PatchFile.
func New(authenticator Authenticator, runner LoadRunner, printer Printer, logger *slog.Logger) *Bench {
	return &Bench{
		Auth:    authenticator,
		Runner:  runner,
		Patch:   script.PatchFile,
		Printer: printer,
		Logger:  logger,
	}
}

// Run benchmarks every candidate in order and returns their results in
// the same order. The first error aborts the whole run.
func (b *Bench) Run(ctx context.Context, candidates []config.Candidate) (*results.Report, error) {
	report := results.NewReport()

	for _, c := range candidates {
		if err := b.runCandidate(ctx, c, report.Candidate(c.Name)); err != nil {
			return nil, err
		}
	}

	return report, nil
}

// runCandidate runs c's scenarios in configuration order. The credential
// is fetched on the first authenticated scenario, reused for the rest and
// dropped when this returns.
func (b *Bench) runCandidate(ctx context.Context, c config.Candidate, out *results.Candidate) error {
	logger := b.Logger.With(slog.String("poc", c.Name))
	b.Printer.Candidate(c.Name)

	var cred *auth.Credential

	for _, sc := range c.Scenarios {
		if err := ctx.Err(); err != nil {
			return err
		}

		b.Printer.Scenario(c.Name, sc.Name)

		if sc.Auth {
			if cred == nil {
				got, err := b.Auth.Obtain(ctx, c.BaseURL)
				if err != nil {
					return fmt.Errorf("poc %s / %s: %w", c.Name, sc.Name, err)
				}

				cred = &got
			}

			if err := b.Patch(sc.Path, cred.Token, cred.SubjectID); err != nil {
				return fmt.Errorf("poc %s / %s: %w", c.Name, sc.Name, err)
			}

			logger.DebugContext(ctx, "patched workload script",
				slog.String("script", sc.Path),
				slog.Int64("user_id", cred.SubjectID),
			)
		}

		output, err := b.Runner.Run(ctx, c.BaseURL, sc.Path)
		if err != nil {
			return fmt.Errorf("poc %s / %s: %w", c.Name, sc.Name, err)
		}

		b.Printer.RawOutput(output)

		result := harness.ParseOutput(output)
		b.Printer.Metrics(result)
		out.Add(sc.Name, result)

		if !result.LatencyMs.IsDefined() && !result.RequestsPerSec.IsDefined() {
			logger.WarnContext(ctx, "no metrics in load generator output",
				slog.String("scenario", sc.Name),
			)
		}
	}

	return nil
}
