// Package installer lays out prebuilt distributions as staged versions.
package installer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cperrin88/agdaup/internal/logger"
	"github.com/cperrin88/agdaup/pkg/errutils"
	"github.com/cperrin88/agdaup/pkg/fsutil"
	"github.com/cperrin88/agdaup/pkg/platform"
	"github.com/cperrin88/agdaup/pkg/process"
	"github.com/cperrin88/agdaup/pkg/relocate"
	"github.com/cperrin88/agdaup/pkg/state"
)

// Installer copies an extracted prebuilt archive into a staging directory
// and relocates its binaries.
type Installer struct {
	Relocator *relocate.Engine
	Platform  platform.Platform
	// Rewrites are applied to the binaries in bin that reference them;
	// empty skips relocation.
	Rewrites []relocate.Rewrite

	log *slog.Logger
}

// New creates an installer for p.
func New(runner process.Runner, p platform.Platform, rewrites []relocate.Rewrite, log *slog.Logger) *Installer {
	log = logger.OrDiscard(log)
	return &Installer{
		Relocator: relocate.NewEngine(runner, log),
		Platform:  p,
		Rewrites:  rewrites,
		log:       log,
	}
}

// Install copies srcDir, which must contain bin/agda, into stage and
// rewrites the library references of the binaries in bin.
func (i *Installer) Install(ctx context.Context, srcDir string, stage *state.Staging) error {
	exe := filepath.Join(srcDir, "bin", i.Platform.ExeName("agda"))
	if info, err := os.Stat(exe); err != nil || info.IsDir() {
		return fmt.Errorf("%s has no %s: %w", srcDir, filepath.Join("bin", i.Platform.ExeName("agda")), errutils.ErrInvalidPath)
	}
	if err := fsutil.CopyDir(srcDir, stage.Dir); err != nil {
		return fmt.Errorf("failed to copy distribution: %w", err)
	}
	i.log.Debug("copied prebuilt distribution", "src", srcDir, "dest", stage.Dir)

	if len(i.Rewrites) == 0 {
		return nil
	}
	entries, err := os.ReadDir(stage.BinDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := i.relocate(ctx, filepath.Join(stage.BinDir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// relocate applies the rewrites that concern bin. Other files in bin, such
// as scripts or helpers linked elsewhere, are left alone; only agda itself
// must be listable.
func (i *Installer) relocate(ctx context.Context, bin string) error {
	deps, err := i.Relocator.Dependencies(ctx, bin, i.Platform)
	if err != nil {
		if filepath.Base(bin) == i.Platform.ExeName("agda") {
			return err
		}
		i.log.Warn("skipping relocation", "binary", bin, "error", err)
		return nil
	}
	rewrites := deps.Matching(i.Rewrites)
	if len(rewrites) == 0 {
		i.log.Debug("no references to rewrite", "binary", bin)
		return nil
	}
	return i.Relocator.Apply(ctx, bin, i.Platform, deps, rewrites)
}
