package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `
pocs:
  - name: express
    base_url: http://localhost:3001
    scripts:
      - name: register
        path: scripts/register.lua
      - name: get_pokemons
        path: /abs/get_pokemons.lua
        auth: true
  - name: fastify
    base_url: https://fastify.local:3002
    scripts:
      - name: register
        path: scripts/register.lua
`

func TestParse(t *testing.T) {
	candidates, err := Parse([]byte(validDoc))
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, Candidate{
		Name:    "express",
		BaseURL: "http://localhost:3001",
		Scenarios: []Scenario{
			{Name: "register", Path: "scripts/register.lua"},
			{Name: "get_pokemons", Path: "/abs/get_pokemons.lua", Auth: true},
		},
	}, candidates[0])
	assert.Equal(t, "fastify", candidates[1].Name)
	assert.False(t, candidates[1].Scenarios[0].Auth)
}

func TestLoadResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "benchmark_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validDoc), 0o644))

	candidates, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "scripts", "register.lua"),
		candidates[0].Scenarios[0].Path)
	assert.Equal(t, "/abs/get_pokemons.lua", candidates[0].Scenarios[1].Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantMsg []string
	}{
		{
			name:    "empty",
			doc:     "",
			wantMsg: []string{"document is empty"},
		},
		{
			name:    "no pocs",
			doc:     "pocs: []\n",
			wantMsg: []string{"at least one candidate"},
		},
		{
			name:    "unknown field",
			doc:     "pocs:\n  - name: a\n    base_url: http://x\n    url: http://y\n",
			wantMsg: []string{"field url not found"},
		},
		{
			name:    "malformed auth flag",
			doc:     "pocs:\n  - name: a\n    base_url: http://x\n    scripts:\n      - {name: s, path: p, auth: maybe}\n",
			wantMsg: []string{"decode YAML"},
		},
		{
			name: "every problem reported",
			doc: `
pocs:
  - name: a
    base_url: ftp://x
    scripts:
      - name: s
      - name: s
        path: p
  - name: a
    scripts: []
`,
			wantMsg: []string{
				"pocs[0].base_url: scheme must be http or https",
				"pocs[0].scripts[0].path: required",
				`pocs[0].scripts[1].name: duplicate scenario "s"`,
				`pocs[1].name: duplicate candidate "a"`,
				"pocs[1].base_url: required",
				"pocs[1].scripts: at least one scenario",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)

			for _, msg := range tt.wantMsg {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}
