// Package build compiles Agda from an extracted source distribution into a
// staged version directory.
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cperrin88/agdaup/internal/logger"
	"github.com/cperrin88/agdaup/pkg/compat"
	"github.com/cperrin88/agdaup/pkg/errutils"
	"github.com/cperrin88/agdaup/pkg/fsutil"
	"github.com/cperrin88/agdaup/pkg/license"
	"github.com/cperrin88/agdaup/pkg/platform"
	"github.com/cperrin88/agdaup/pkg/process"
	"github.com/cperrin88/agdaup/pkg/relocate"
	"github.com/cperrin88/agdaup/pkg/state"
)

const (
	cabalCommand = "cabal"
	// LicensesDir is the directory of a version holding bundled licenses.
	LicensesDir = "licenses"
)

// DefaultComponents are the cabal targets installed by a source build.
var DefaultComponents = []string{"exe:agda", "exe:agda-mode"}

// Builder turns a source tree into the bin and data directories of a
// staged install.
type Builder struct {
	Runner    process.Runner
	Checker   *compat.Checker
	Relocator *relocate.Engine
	// Licenses bundles dependency licenses; nil disables bundling.
	Licenses   *license.Bundler
	Platform   platform.Platform
	Components []string
	// LicenseComponents are reported on instead of Components when set.
	LicenseComponents []string
	// Timeout bounds the cabal invocation.
	Timeout time.Duration
	// WorkDir holds the temporary build prefix; empty means os.TempDir.
	WorkDir string

	log *slog.Logger
}

// NewBuilder returns a builder for p using runner for every tool.
func NewBuilder(runner process.Runner, checker *compat.Checker, p platform.Platform, log *slog.Logger) *Builder {
	log = logger.OrDiscard(log)
	return &Builder{
		Runner:     runner,
		Checker:    checker,
		Relocator:  relocate.NewEngine(runner, log),
		Platform:   p,
		Components: DefaultComponents,
		log:        log,
	}
}

// Options control a single build.
type Options struct {
	// BundleLicenses runs the license report after the build. It has no
	// effect on a builder without a license bundler.
	BundleLicenses bool
}

// Build compiles the Agda v sources in srcDir into stage. GHC is checked
// against the compatibility table before cabal is started.
func (b *Builder) Build(ctx context.Context, v, srcDir string, stage *state.Staging, opts Options) error {
	ghc, err := compat.DetectGhc(ctx, b.Runner)
	if err != nil {
		return err
	}
	if err := b.Checker.Check(v, ghc); err != nil {
		return err
	}
	b.log.Info("building agda from source", "version", v, "ghc", ghc, "dir", srcDir)

	prefix, err := os.MkdirTemp(b.WorkDir, "agdaup-build-")
	if err != nil {
		return fmt.Errorf("failed to create build prefix: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(prefix); err != nil {
			b.log.Warn("failed to remove build prefix", "dir", prefix, "error", err)
		}
	}()
	prefixBin := filepath.Join(prefix, "bin")

	args := append([]string{
		"v2-install",
		"--installdir=" + prefixBin,
		"--install-method=copy",
		"--overwrite-policy=always",
	}, b.components()...)
	if _, err := b.Runner.Run(ctx, cabalCommand, args, process.Options{Dir: srcDir, Timeout: b.Timeout}); err != nil {
		return fmt.Errorf("cabal install of agda %s: %w", v, err)
	}

	if opts.BundleLicenses && b.Licenses != nil {
		if err := b.bundleLicenses(ctx, srcDir, stage); err != nil {
			return err
		}
	}

	if err := copyBinaries(prefixBin, stage.BinDir); err != nil {
		return err
	}
	srcData := filepath.Join(srcDir, "src", "data")
	if fsutil.IsDir(srcData) {
		if err := fsutil.CopyDir(srcData, stage.DataDir); err != nil {
			return fmt.Errorf("failed to copy data directory: %w", err)
		}
	} else {
		b.log.Warn("source tree has no data directory", "dir", srcData)
	}

	return b.relocate(ctx, prefix, stage)
}

func (b *Builder) components() []string {
	if len(b.Components) == 0 {
		return DefaultComponents
	}
	return b.Components
}

// bundleLicenses writes the license tree and its manifest next to bin and
// data. Missing fallback licenses are logged; anything else fails the build.
func (b *Builder) bundleLicenses(ctx context.Context, srcDir string, stage *state.Staging) error {
	outDir := filepath.Join(stage.Dir, LicensesDir)
	components := b.LicenseComponents
	if len(components) == 0 {
		components = b.components()
	}
	m, err := b.Licenses.BundleAll(ctx, components, srcDir, outDir)
	if err != nil && !errors.Is(err, errutils.ErrLicenseFetchFailed) {
		return err
	}
	if err != nil {
		b.log.Warn("license manifest is incomplete", "error", err)
	}
	if _, err := license.WriteManifest(outDir, m); err != nil {
		return err
	}
	return nil
}

// relocate rewrites references into the build prefix to the final
// version directory. Binaries without such references are left alone.
func (b *Builder) relocate(ctx context.Context, prefix string, stage *state.Staging) error {
	if b.Platform.IsWindows() {
		return nil
	}
	rewrites := []relocate.Rewrite{{From: prefix, To: stage.Final().Dir}}
	entries, err := os.ReadDir(stage.BinDir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", stage.BinDir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		bin := filepath.Join(stage.BinDir, e.Name())
		deps, err := b.Relocator.Dependencies(ctx, bin, b.Platform)
		if err != nil {
			return err
		}
		if !references(deps.All(), prefix) {
			continue
		}
		if err := b.Relocator.Relocate(ctx, bin, b.Platform, rewrites); err != nil {
			return err
		}
	}
	return nil
}

func references(refs []string, prefix string) bool {
	rw := relocate.Rewrite{From: prefix}
	for _, ref := range refs {
		if _, ok := rw.Apply(ref); ok {
			return true
		}
	}
	return false
}

func copyBinaries(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("build produced no binaries: %w", err)
	}
	if err := fsutil.EnsureDir(dst); err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := fsutil.CopyFile(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
			return fmt.Errorf("failed to copy %s: %w", e.Name(), err)
		}
	}
	return nil
}
