// Package settings holds the harness settings that are not part of the
// benchmark document: the pre-registered benchmark user and the load
// generator parameters. Settings are an explicit value passed to the
// components that need them; there is no package-level state.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding settings,
// e.g. POCBENCH_LOGIN_EMAIL or POCBENCH_LOADGEN_THREADS.
const EnvPrefix = "POCBENCH"

// Settings is the complete harness settings value.
type Settings struct {
	Login   Login   `mapstructure:"login"`
	LoadGen LoadGen `mapstructure:"loadgen"`
}

// Login describes the benchmark user used to mint bearer tokens.
type Login struct {
	Email    string        `mapstructure:"email"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LoadGen describes how the external load generator is invoked.
type LoadGen struct {
	// Binary is an explicit path to the load generator. Empty means
	// look it up.
	Binary      string        `mapstructure:"binary"`
	Threads     int           `mapstructure:"threads"`
	Connections int           `mapstructure:"connections"`
	Duration    time.Duration `mapstructure:"duration"`
	// TolerateExitCode keeps a run going when the load generator exits
	// non-zero, relying on output parsing alone.
	TolerateExitCode bool `mapstructure:"tolerate_exit_code"`
}

// Default returns the settings used when no file or environment override
// is present.
func Default() Settings {
	return Settings{
		Login: Login{
			Email:    "bench@example.com",
			Password: "bench",
			Timeout:  5 * time.Second,
		},
		LoadGen: LoadGen{
			Threads:     4,
			Connections: 64,
			Duration:    10 * time.Second,
		},
	}
}

// Load reads settings from path (if non-empty and present), applies
// POCBENCH_* environment overrides and fills the rest from Default.
func Load(path string) (Settings, error) {
	v, err := newViper(path)
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}

	return s, nil
}

// Persist writes s to path. The existing file is read first and only the
// keys owned by Settings are rewritten, so unrelated keys survive. Viper
// lowercases every key it reads, so a foreign key such as apiKey comes
// back as apikey.
func Persist(path string, s Settings) error {
	if path == "" {
		return errors.New("persist settings: path is required")
	}

	if err := s.Validate(); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read settings %s: %w", path, err)
	}

	for key, value := range flatten(s) {
		v.Set(key, value)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write settings %s: %w", path, err)
	}

	return nil
}

// Validate reports settings that cannot drive a benchmark.
func (s Settings) Validate() error {
	switch {
	case s.Login.Email == "":
		return errors.New("settings: login.email is required")
	case s.Login.Timeout <= 0:
		return errors.New("settings: login.timeout must be positive")
	case s.LoadGen.Threads <= 0:
		return errors.New("settings: loadgen.threads must be positive")
	case s.LoadGen.Connections < s.LoadGen.Threads:
		return errors.New(
			"settings: loadgen.connections must be at least loadgen.threads",
		)
	case s.LoadGen.Duration < time.Second:
		return errors.New("settings: loadgen.duration must be at least 1s")
	case s.LoadGen.Duration%time.Second != 0:
		return fmt.Errorf("settings: loadgen.duration must be whole seconds, got %s",
			s.LoadGen.Duration)
	}

	return nil
}

func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only sees keys viper already knows, so every key gets
	// a default.
	for key, value := range flatten(Default()) {
		v.SetDefault(key, value)
	}

	if path == "" {
		return v, nil
	}

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return v, nil
		}

		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}

	return v, nil
}

func flatten(s Settings) map[string]any {
	return map[string]any{
		"login.email":                s.Login.Email,
		"login.password":             s.Login.Password,
		"login.timeout":              s.Login.Timeout.String(),
		"loadgen.binary":             s.LoadGen.Binary,
		"loadgen.threads":            s.LoadGen.Threads,
		"loadgen.connections":        s.LoadGen.Connections,
		"loadgen.duration":           s.LoadGen.Duration.String(),
		"loadgen.tolerate_exit_code": s.LoadGen.TolerateExitCode,
	}
}
