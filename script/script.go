// Package script parameterizes wrk Lua workload scripts in place: the
// bearer token of the Authorization header and the user id segment of the
// request path. Only those two value spans are rewritten; every other byte
// of the script is kept so wrk can still interpret it.
package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// HeaderMarker precedes the quoted bearer token.
	HeaderMarker = `["Authorization"] = "Bearer `
	// PathMarker precedes the numeric user id path segment.
	PathMarker = `wrk.path   = "/api/users/`
)

// Field names the part of a script a ScriptPatchError is about.
type Field string

const (
	FieldHeader Field = "authorization header"
	FieldPath   Field = "user path"
)

// ScriptPatchError reports a script whose format does not allow a safe
// patch. Running such a script would benchmark with a stale credential.
type ScriptPatchError struct {
	Path   string
	Field  Field
	Line   int
	Reason string
	Err    error
}

func (e *ScriptPatchError) Error() string {
	var b strings.Builder

	b.WriteString("patch script")
	if e.Path != "" {
		b.WriteString(" " + e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, ":%d", e.Line)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": %s", e.Field)
	}
	fmt.Fprintf(&b, ": %s", e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}

	return b.String()
}

func (e *ScriptPatchError) Unwrap() error { return e.Err }

// span is a byte range of one line holding a field value.
type span struct {
	line       int
	start, end int
}

// fields is the result of scanning a script for the two patchable fields.
type fields struct {
	lines  []string
	header span
	path   *span
}

// parse locates the header field (required, exactly once) and the path
// field (optional, at most once). Each value ends at its terminator on the
// same line.
func parse(text string) (*fields, error) {
	f := &fields{lines: strings.SplitAfter(text, "\n")}
	headerFound := false

	for i, line := range f.lines {
		if n := strings.Count(line, HeaderMarker); n > 0 {
			if headerFound || n > 1 {
				return nil, &ScriptPatchError{
					Field: FieldHeader, Line: i + 1,
					Reason: "marker appears more than once",
				}
			}

			s, ok := valueSpan(line, HeaderMarker, `"`)
			if !ok {
				return nil, &ScriptPatchError{
					Field: FieldHeader, Line: i + 1,
					Reason: "no closing quote after bearer token",
				}
			}

			s.line = i
			f.header = s
			headerFound = true
		}

		if n := strings.Count(line, PathMarker); n > 0 {
			if f.path != nil || n > 1 {
				return nil, &ScriptPatchError{
					Field: FieldPath, Line: i + 1,
					Reason: "marker appears more than once",
				}
			}

			s, ok := valueSpan(line, PathMarker, "/")
			if !ok {
				return nil, &ScriptPatchError{
					Field: FieldPath, Line: i + 1,
					Reason: "no path separator after user id",
				}
			}

			s.line = i
			f.path = &s
		}
	}

	if !headerFound {
		return nil, &ScriptPatchError{
			Field:  FieldHeader,
			Reason: fmt.Sprintf("marker %s not found", HeaderMarker),
		}
	}

	return f, nil
}

func valueSpan(line, marker, terminator string) (span, bool) {
	start := strings.Index(line, marker) + len(marker)

	// The line's own newline is not a valid terminator position.
	rest := strings.TrimRight(line[start:], "\r\n")

	end := strings.Index(rest, terminator)
	if end < 0 {
		return span{}, false
	}

	return span{start: start, end: start + end}, true
}

// Patch returns text with the bearer token replaced by token and, when the
// script has a user path, the user id replaced by subjectID. Patching twice
// with the same values yields the same text.
func Patch(text, token string, subjectID int64) (string, error) {
	if strings.ContainsAny(token, "\"\r\n") {
		return "", &ScriptPatchError{
			Field:  FieldHeader,
			Reason: "token contains a quote or line break",
		}
	}

	f, err := parse(text)
	if err != nil {
		return "", err
	}

	id := strconv.FormatInt(subjectID, 10)

	// Splice right to left so a header and path sharing one line keep
	// valid offsets.
	if f.path != nil && f.path.line == f.header.line && f.path.start > f.header.start {
		f.replace(*f.path, id)
		f.replace(f.header, token)
	} else {
		f.replace(f.header, token)
		if f.path != nil {
			f.replace(*f.path, id)
		}
	}

	return strings.Join(f.lines, ""), nil
}

func (f *fields) replace(s span, value string) {
	line := f.lines[s.line]
	f.lines[s.line] = line[:s.start] + value + line[s.end:]
}

// PatchFile patches the script at path. The file is only rewritten when
// the content changes, through a synced temporary file renamed over the
// original, so a failed patch leaves the script untouched and a successful
// one is on disk before the load generator opens it.
func PatchFile(path, token string, subjectID int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return &ScriptPatchError{Path: path, Reason: "stat", Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return &ScriptPatchError{Path: path, Reason: "read", Err: err}
	}

	patched, err := Patch(string(data), token, subjectID)
	if err != nil {
		var pe *ScriptPatchError
		if errors.As(err, &pe) {
			pe.Path = path
		}

		return err
	}

	if patched == string(data) {
		return nil
	}

	if err := writeFileAtomic(path, []byte(patched), info.Mode().Perm()); err != nil {
		return &ScriptPatchError{Path: path, Reason: "write", Err: err}
	}

	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}

	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
