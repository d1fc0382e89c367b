// Package main provides the CLI entry point for pocbench, a comparative
// load-test harness for candidate backend implementations.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/weiihann/pocbench/auth"
	"github.com/weiihann/pocbench/bench"
	"github.com/weiihann/pocbench/config"
	"github.com/weiihann/pocbench/harness"
	"github.com/weiihann/pocbench/report"
	"github.com/weiihann/pocbench/settings"
	"github.com/weiihann/pocbench/workload"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	root := newRootCmd(logger, level)
	err := root.ExecuteContext(ctx)
	stop()

	if err != nil {
		logger.Error("pocbench failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

type globalFlags struct {
	settingsPath string
	verbose      bool
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "pocbench",
		Short: "Comparative load-test harness for backend POCs",
		Long: `Pocbench runs the same wrk workload scripts against several candidate
backend implementations, one after another, and compares their average
latency and throughput.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if flags.verbose {
				level.Set(slog.LevelDebug)
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.settingsPath, "settings", "",
		"Harness settings file (benchmark user, load generator parameters)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false,
		"Enable debug logging")

	root.AddCommand(
		newRunCmd(logger, &flags),
		newScriptCmd(),
		newSettingsCmd(&flags),
	)

	return root
}

func newRunCmd(logger *slog.Logger, flags *globalFlags) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Benchmark every POC listed in the config",
		Long: `Run every scenario of every POC in configuration order. Authenticated
scenarios get a fresh bearer token, minted once per POC, patched into
their workload script before wrk starts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBenchmark(cmd.Context(), logger, cmd.OutOrStdout(),
				configPath, flags.settingsPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchmark_config.yaml",
		"Benchmark config listing the POCs and their scenarios")

	return cmd
}

func runBenchmark(
	ctx context.Context,
	logger *slog.Logger,
	stdout io.Writer,
	configPath string,
	settingsPath string,
) error {
	logger = logger.With(slog.String("run_id", uuid.NewString()))

	candidates, err := config.Load(configPath)
	if err != nil {
		return err
	}

	s, err := settings.Load(settingsPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	binary, err := harness.ResolveBinary(harness.DefaultStrategies(s.LoadGen.Binary)...)
	if err != nil {
		return fmt.Errorf("%w: set loadgen.binary, %s, or install %s",
			err, harness.BinaryEnv, harness.DefaultBinary)
	}

	logger.InfoContext(ctx, "starting benchmark",
		slog.String("config", configPath),
		slog.Int("pocs", len(candidates)),
		slog.String("loadgen", binary),
		slog.Int("threads", s.LoadGen.Threads),
		slog.Int("connections", s.LoadGen.Connections),
		slog.Duration("duration", s.LoadGen.Duration),
	)

	printer := report.NewPrinter(stdout)
	b := bench.New(
		auth.NewClient(s.Login.Email, s.Login.Password, s.Login.Timeout, logger),
		harness.NewRunner(binary, s.LoadGen, logger),
		printer,
		logger,
	)

	results, err := b.Run(ctx, candidates)
	if err != nil {
		return err
	}

	if err := printer.Summary(results); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	logger.InfoContext(ctx, "benchmark complete")

	return nil
}

func newScriptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "script",
		Short: "Manage wrk workload scripts",
	}

	var (
		opts  workload.Options
		out   string
		force bool
	)

	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a wrk workload script",
		Long: `Generate a wrk Lua workload script. With --auth the script contains
the Authorization header line, and a /api/users/<id>/ path, that pocbench
run rewrites before each authenticated scenario.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				return workload.Generate(cmd.OutOrStdout(), opts)
			}

			flag := os.O_WRONLY | os.O_CREATE | os.O_EXCL
			if force {
				flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
			}

			f, err := os.OpenFile(out, flag, 0o644)
			if err != nil {
				return fmt.Errorf("create script: %w", err)
			}

			if err := workload.Generate(f, opts); err != nil {
				f.Close()
				os.Remove(out)

				return err
			}

			return f.Close()
		},
	}

	flags := newCmd.Flags()
	flags.StringVarP(&opts.Method, "method", "X", "GET",
		"HTTP method")
	flags.StringVarP(&opts.Path, "path", "p", "",
		"Request path, e.g. /api/users/0/pokemons")
	flags.StringVarP(&opts.Body, "body", "b", "",
		"JSON request body")
	flags.BoolVar(&opts.Auth, "auth", false,
		"Send the bearer token patched in by pocbench run")
	flags.BoolVar(&opts.UniqueBody, "unique-body", false,
		"Replace {{n}} in the body with a per-request counter")
	flags.StringVarP(&out, "out", "o", "",
		"Write the script to this file instead of stdout")
	flags.BoolVar(&force, "force", false,
		"Overwrite --out if it exists")
	_ = newCmd.MarkFlagRequired("path")

	cmd.AddCommand(newCmd)

	return cmd
}

func newSettingsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage harness settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the effective settings to the --settings file",
		Long: `Read the --settings file (if present) and POCBENCH_* environment
overrides, then rewrite the file with every setting filled in. Keys
pocbench does not own are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.settingsPath == "" {
				return errors.New("--settings is required")
			}

			s, err := settings.Load(flags.settingsPath)
			if err != nil {
				return err
			}

			if err := settings.Persist(flags.settingsPath, s); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "settings written to %s\n", flags.settingsPath)

			return nil
		},
	})

	return cmd
}
