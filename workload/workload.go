// Package workload generates wrk Lua workload scripts. Generated scripts
// carry the Authorization header and user path lines in the exact form the
// script package patches, so a new scenario can be benchmarked right away.
package workload

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// PlaceholderToken is written in place of a real bearer token. The harness
// replaces it before each authenticated run.
const PlaceholderToken = "REPLACED_BEFORE_RUN"

// userPathPrefix is the path prefix whose id segment gets parameterized.
const userPathPrefix = "/api/users/"

// Options controls the generated script.
type Options struct {
	// Method is the HTTP method; defaults to GET.
	Method string
	// Path is the request path, e.g. /api/users/0/pokemons.
	Path string
	// Body is an optional JSON request body.
	Body string
	// Auth adds the Authorization header line.
	Auth bool
	// UniqueBody substitutes {{n}} in Body with a per-request counter, so
	// scenarios like registration do not collide on unique fields.
	UniqueBody bool
}

var methods = map[string]bool{ //nolint:gochecknoglobals
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

func (o *Options) validate() error {
	if o.Method == "" {
		o.Method = http.MethodGet
	}

	o.Method = strings.ToUpper(o.Method)
	if !methods[o.Method] {
		return fmt.Errorf("unsupported method %q", o.Method)
	}

	if !strings.HasPrefix(o.Path, "/") {
		return fmt.Errorf("path %q must start with /", o.Path)
	}

	if strings.ContainsAny(o.Path, "\"\\\n") {
		return fmt.Errorf("path %q contains a quote, backslash or newline", o.Path)
	}

	if o.Auth && strings.HasPrefix(o.Path, userPathPrefix) && !patchableUserPath(o.Path) {
		return fmt.Errorf("path %q must be %s<id>/<resource> with a numeric id", o.Path, userPathPrefix)
	}

	if strings.Contains(o.Body, "]==]") {
		return errors.New("body must not contain ]==]")
	}

	if o.UniqueBody && !strings.Contains(o.Body, "{{n}}") {
		return errors.New("unique body requires a {{n}} placeholder in body")
	}

	return nil
}

// patchableUserPath reports whether the id segment after userPathPrefix is
// numeric and closed by a slash, which is what the user path patch expects.
func patchableUserPath(path string) bool {
	rest := strings.TrimPrefix(path, userPathPrefix)

	id, _, found := strings.Cut(rest, "/")
	if !found || id == "" {
		return false
	}

	return strings.Trim(id, "0123456789") == ""
}

// Generate writes a wrk Lua script for opts to w.
func Generate(w io.Writer, opts Options) error {
	if err := opts.validate(); err != nil {
		return fmt.Errorf("generate workload: %w", err)
	}

	var b strings.Builder

	b.WriteString("-- wrk workload script generated by pocbench.\n")
	fmt.Fprintf(&b, "wrk.method = %q\n", opts.Method)
	fmt.Fprintf(&b, "wrk.path   = \"%s\"\n", opts.Path)
	b.WriteString("wrk.headers[\"Content-Type\"] = \"application/json\"\n")

	if opts.Auth {
		if strings.HasPrefix(opts.Path, userPathPrefix) {
			b.WriteString("-- The user id in wrk.path is replaced before each run.\n")
		}

		fmt.Fprintf(&b, "wrk.headers[\"Authorization\"] = \"Bearer %s\"\n", PlaceholderToken)
	}

	if opts.Body != "" && !opts.UniqueBody {
		fmt.Fprintf(&b, "wrk.body   = [==[%s]==]\n", opts.Body)
	}

	if opts.UniqueBody {
		fmt.Fprintf(&b, `
local counter = 0
local template = [==[%s]==]

request = function()
  counter = counter + 1
  local body = template:gsub("{{n}}", tostring(counter) .. "-" .. tostring(math.random(1, 1e9)))
  return wrk.format(nil, nil, nil, body)
end
`, opts.Body)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write workload: %w", err)
	}

	return nil
}
