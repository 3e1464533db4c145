// Package relocate rewrites the shared library references recorded in
// installed binaries so they stop pointing into build or staging trees.
package relocate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cperrin88/agdaup/internal/logger"
	"github.com/cperrin88/agdaup/pkg/errutils"
	"github.com/cperrin88/agdaup/pkg/platform"
	"github.com/cperrin88/agdaup/pkg/process"
)

// Rewrite replaces the path prefix From with To in library references.
type Rewrite struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// Apply returns ref with From replaced by To when ref starts with From.
func (rw Rewrite) Apply(ref string) (string, bool) {
	if !hasPathPrefix(ref, rw.From) {
		return ref, false
	}
	return rw.To + ref[len(rw.From):], true
}

func hasPathPrefix(ref, prefix string) bool {
	if prefix == "" || !strings.HasPrefix(ref, prefix) {
		return false
	}
	if len(ref) == len(prefix) || strings.HasSuffix(prefix, "/") || strings.HasSuffix(prefix, `\`) {
		return true
	}
	next := ref[len(prefix)]
	return next == '/' || next == '\\'
}

// Dependencies are the library references recorded in a binary.
type Dependencies struct {
	// Libraries are install names on macOS, DT_NEEDED entries on Linux and
	// imported DLLs on Windows.
	Libraries []string
	// RPath is the ELF run path. Empty elsewhere.
	RPath []string
}

// All returns every reference.
func (d Dependencies) All() []string {
	return append(append([]string{}, d.Libraries...), d.RPath...)
}

// Matching returns the rewrites that concern d: those whose From prefixes
// a reference, or whose To does because an earlier run applied them.
func (d Dependencies) Matching(rewrites []Rewrite) []Rewrite {
	all := d.All()
	var out []Rewrite
	for _, rw := range rewrites {
		if matchesAny(all, rw.From) || matchesAny(all, rw.To) {
			out = append(out, rw)
		}
	}
	return out
}

// Engine reads and rewrites library references with the platform tools:
// otool and install_name_tool on macOS, patchelf on Linux and dumpbin on
// Windows.
type Engine struct {
	runner process.Runner
	log    *slog.Logger
}

// NewEngine creates an engine running tools through runner.
func NewEngine(runner process.Runner, log *slog.Logger) *Engine {
	return &Engine{runner: runner, log: logger.OrDiscard(log)}
}

func (e *Engine) run(ctx context.Context, command string, args ...string) (string, error) {
	res, err := e.runner.Run(ctx, command, args, process.Options{})
	if err != nil {
		return "", fmt.Errorf("%w: %w", errutils.ErrRelocation, err)
	}
	return string(res.Stdout), nil
}

// Dependencies enumerates the references recorded in binary.
func (e *Engine) Dependencies(ctx context.Context, binary string, p platform.Platform) (Dependencies, error) {
	var (
		deps        Dependencies
		diagnostics []string
	)
	switch {
	case p.IsMacOS():
		out, err := e.run(ctx, "otool", "-L", binary)
		if err != nil {
			return Dependencies{}, err
		}
		deps.Libraries, diagnostics = ParseOtool(out, binary)
	case p.IsLinux():
		out, err := e.run(ctx, "patchelf", "--print-needed", binary)
		if err != nil {
			return Dependencies{}, err
		}
		deps.Libraries, diagnostics = ParsePatchelfNeeded(out)
		out, err = e.run(ctx, "patchelf", "--print-rpath", binary)
		if err != nil {
			return Dependencies{}, err
		}
		deps.RPath = ParseRPath(out)
	case p.IsWindows():
		out, err := e.run(ctx, "dumpbin", "/DEPENDENTS", binary)
		if err != nil {
			return Dependencies{}, err
		}
		deps.Libraries, diagnostics = ParseDumpbin(out)
	default:
		return Dependencies{}, fmt.Errorf("unsupported platform %s: %w", p, errutils.ErrRelocation)
	}
	for _, d := range diagnostics {
		e.log.Warn("dependency listing", "binary", binary, "diagnostic", d)
	}
	return deps, nil
}

// Relocate applies rewrites to binary in place. A rewrite whose From matches
// no reference fails with UnknownLibraryReferenceError, unless a reference
// already starts with To, which happens when an earlier run got that far.
// On Windows references are only listed.
func (e *Engine) Relocate(ctx context.Context, binary string, p platform.Platform, rewrites []Rewrite) error {
	deps, err := e.Dependencies(ctx, binary, p)
	if err != nil {
		return err
	}
	return e.Apply(ctx, binary, p, deps, rewrites)
}

// Apply is Relocate for a binary whose references were already listed.
func (e *Engine) Apply(ctx context.Context, binary string, p platform.Platform, deps Dependencies, rewrites []Rewrite) error {
	if p.IsWindows() {
		e.log.Debug("binary dependencies", "binary", binary, "libraries", deps.Libraries)
		return nil
	}
	if len(rewrites) == 0 {
		return nil
	}

	all := deps.All()
	for _, rw := range rewrites {
		if !matchesAny(all, rw.From) && !matchesAny(all, rw.To) {
			return &errutils.UnknownLibraryReferenceError{Binary: binary, Reference: rw.From, Known: all}
		}
	}

	if p.IsMacOS() {
		return e.relocateMachO(ctx, binary, p, deps, rewrites)
	}
	return e.relocateELF(ctx, binary, deps, rewrites)
}

func (e *Engine) relocateMachO(ctx context.Context, binary string, p platform.Platform, deps Dependencies, rewrites []Rewrite) error {
	changed := false
	for _, lib := range deps.Libraries {
		to, ok := applyFirst(rewrites, lib)
		if !ok {
			continue
		}
		if _, err := e.run(ctx, "install_name_tool", "-change", lib, to, binary); err != nil {
			return err
		}
		e.log.Debug("rewrote install name", "binary", binary, "from", lib, "to", to)
		changed = true
	}
	// Apple silicon refuses to load a binary whose ad hoc signature was
	// invalidated by install_name_tool.
	if changed && p.Arch == platform.ArchARM64 {
		if _, err := e.run(ctx, "codesign", "--force", "--sign", "-", binary); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) relocateELF(ctx context.Context, binary string, deps Dependencies, rewrites []Rewrite) error {
	for _, lib := range deps.Libraries {
		to, ok := applyFirst(rewrites, lib)
		if !ok {
			continue
		}
		if _, err := e.run(ctx, "patchelf", "--replace-needed", lib, to, binary); err != nil {
			return err
		}
		e.log.Debug("rewrote needed entry", "binary", binary, "from", lib, "to", to)
	}

	rpath := make([]string, len(deps.RPath))
	changed := false
	for i, entry := range deps.RPath {
		to, ok := applyFirst(rewrites, entry)
		rpath[i] = to
		changed = changed || ok
	}
	if !changed {
		return nil
	}
	value := strings.Join(rpath, ":")
	if _, err := e.run(ctx, "patchelf", "--set-rpath", value, binary); err != nil {
		return err
	}
	e.log.Debug("rewrote rpath", "binary", binary, "rpath", value)
	return nil
}

func applyFirst(rewrites []Rewrite, ref string) (string, bool) {
	for _, rw := range rewrites {
		if to, ok := rw.Apply(ref); ok {
			return to, true
		}
	}
	return ref, false
}

func matchesAny(refs []string, prefix string) bool {
	for _, ref := range refs {
		if hasPathPrefix(ref, prefix) {
			return true
		}
	}
	return false
}
