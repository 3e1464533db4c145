// Package orchestrator composes resolution, fetching, building, relocation
// and install state into the install and set operations.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cperrin88/agdaup/internal/logger"
	"github.com/cperrin88/agdaup/pkg/build"
	"github.com/cperrin88/agdaup/pkg/dist"
	"github.com/cperrin88/agdaup/pkg/errutils"
	"github.com/cperrin88/agdaup/pkg/fsutil"
	"github.com/cperrin88/agdaup/pkg/hooks"
	"github.com/cperrin88/agdaup/pkg/platform"
	"github.com/cperrin88/agdaup/pkg/process"
	"github.com/cperrin88/agdaup/pkg/state"
	"github.com/cperrin88/agdaup/pkg/version"
)

// Orchestrator ties the resolver, fetcher, installers and state manager
// together.
type Orchestrator struct {
	Resolver CandidateResolver
	Fetcher  dist.Fetcher
	State    *state.Manager
	Builder  SourceBuilder
	Prebuilt PrebuiltInstaller
	// HookManager runs post-install and post-set scripts; nil runs none.
	HookManager hooks.HookManager
	// Runner asks a fresh install for its data directory; nil skips the check.
	Runner   process.Runner
	Platform platform.Platform
	// WorkDir is where the fetcher extracts archives. Extraction
	// directories below it are removed after each attempt.
	WorkDir string
	Hooks   Hooks // Hooks for progress and event notifications

	log *slog.Logger
}

// New constructs an Orchestrator from existing managers. Helper for wiring.
func New(resolver CandidateResolver, fetcher dist.Fetcher, st *state.Manager, builder SourceBuilder, prebuilt PrebuiltInstaller, h Hooks, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		Resolver: resolver,
		Fetcher:  fetcher,
		State:    st,
		Builder:  builder,
		Prebuilt: prebuilt,
		Platform: platform.CurrentPlatform(),
		Hooks:    h,
		log:      logger.OrDiscard(log),
	}
}

func (o *Orchestrator) lg() *slog.Logger {
	return logger.OrDiscard(o.log)
}

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

// Install resolves v and installs the first distribution that works. A
// version already on disk is kept unless opts.Force is set.
func (o *Orchestrator) Install(ctx context.Context, v string, opts InstallOptions) (state.InstalledVersion, error) {
	if _, err := version.Parse(v); err != nil {
		return state.InstalledVersion{}, err
	}
	if o.State == nil {
		return state.InstalledVersion{}, fmt.Errorf("state manager is not configured")
	}

	if !opts.Force {
		if iv, err := o.State.InstalledVersion(v); err == nil {
			emit(o.Hooks, Event{Phase: PhaseSkipped, ID: v, Msg: "already installed"})
			if opts.SetActive {
				return o.Set(ctx, v)
			}
			return iv, nil
		}
	}

	if o.Resolver == nil {
		return state.InstalledVersion{}, fmt.Errorf("distribution resolver is not configured")
	}
	emit(o.Hooks, Event{Phase: PhaseResolving, ID: v})
	candidates, err := o.Resolver.Resolve(v)
	if err != nil {
		emit(o.Hooks, Event{Phase: PhaseError, ID: v, Msg: err.Error()})
		return state.InstalledVersion{}, err
	}

	iv, err := dist.Install(ctx, logger.With(o.log, logger.Fields{"agda": v}), v, candidates, func(ctx context.Context, d dist.Distribution) (state.InstalledVersion, error) {
		iv, err := o.installDist(ctx, v, d, opts)
		if err != nil {
			emit(o.Hooks, Event{Phase: PhaseRejected, ID: v, Msg: fmt.Sprintf("%s: %v", d, err)})
		}
		return iv, err
	})
	if err != nil {
		emit(o.Hooks, Event{Phase: PhaseError, ID: v, Msg: err.Error()})
		return state.InstalledVersion{}, err
	}

	exe := filepath.Join(iv.BinDir, o.Platform.ExeName("agda"))
	if err := o.State.RegisterExecutable(exe); err != nil {
		return iv, err
	}
	o.probeDataDir(ctx, iv, exe)
	if err := o.runHook(ctx, hooks.PostInstall, iv); err != nil {
		return iv, err
	}
	if opts.SetActive {
		if _, err := o.Set(ctx, v); err != nil {
			return iv, err
		}
	}
	emit(o.Hooks, Event{Phase: PhaseDone, ID: v})
	return iv, nil
}

// installDist is one attempt: fetch d, lay it out in a staging directory
// and commit. A failed attempt leaves nothing behind.
func (o *Orchestrator) installDist(ctx context.Context, v string, d dist.Distribution, opts InstallOptions) (state.InstalledVersion, error) {
	if o.Fetcher == nil {
		return state.InstalledVersion{}, fmt.Errorf("distribution fetcher is not configured")
	}
	emit(o.Hooks, Event{Phase: PhaseDownloading, ID: v, Msg: d.String()})
	dir, err := o.Fetcher.FetchDist(ctx, d)
	if err != nil {
		return state.InstalledVersion{}, err
	}
	defer o.cleanup(dir)

	stage, err := o.State.Stage(v)
	if err != nil {
		return state.InstalledVersion{}, err
	}
	committed := false
	defer func() {
		if !committed {
			stage.Discard()
		}
	}()

	switch kindOf(d, dir) {
	case dist.KindSource:
		if o.Builder == nil {
			return state.InstalledVersion{}, fmt.Errorf("source builder is not configured")
		}
		emit(o.Hooks, Event{Phase: PhaseBuilding, ID: v, Msg: dir})
		err = o.Builder.Build(ctx, v, dir, stage, build.Options{BundleLicenses: opts.BundleLicenses})
	default:
		if o.Prebuilt == nil {
			return state.InstalledVersion{}, fmt.Errorf("prebuilt installer is not configured")
		}
		emit(o.Hooks, Event{Phase: PhaseInstalling, ID: v, Msg: dir})
		err = o.Prebuilt.Install(ctx, dir, stage)
	}
	if err != nil {
		return state.InstalledVersion{}, err
	}

	iv, err := stage.Commit()
	if err != nil {
		return state.InstalledVersion{}, err
	}
	committed = true
	return iv, nil
}

// kindOf trusts an explicit kind and otherwise treats a tree with a cabal
// file at its root as sources.
func kindOf(d dist.Distribution, dir string) dist.Kind {
	if d.Kind != "" {
		return d.Kind
	}
	if matches, _ := filepath.Glob(filepath.Join(dir, "*.cabal")); len(matches) > 0 {
		return dist.KindSource
	}
	return dist.KindPrebuilt
}

// cleanup removes the extraction directory dir was fetched into. Anything
// outside WorkDir, such as a local source tree, is left alone.
func (o *Orchestrator) cleanup(dir string) {
	if o.WorkDir == "" {
		return
	}
	rel, err := filepath.Rel(o.WorkDir, dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return
	}
	top := filepath.Join(o.WorkDir, strings.SplitN(rel, string(filepath.Separator), 2)[0])
	if err := os.RemoveAll(top); err != nil {
		o.lg().Warn("failed to remove extracted distribution", "dir", top, "error", err)
	}
}

// probeDataDir asks the installed binary where it looks for its data
// files. A directory outside the install is reported, never fatal.
func (o *Orchestrator) probeDataDir(ctx context.Context, iv state.InstalledVersion, exe string) {
	if o.Runner == nil {
		return
	}
	v, err := version.Parse(iv.Version)
	if err != nil {
		return
	}
	flag := "--print-agda-dir"
	if version.SupportsPrintDataDir(v) {
		flag = "--print-agda-data-dir"
	}
	out, err := process.Output(ctx, o.Runner, exe, flag)
	if err != nil {
		o.lg().Warn("could not query agda data directory", "version", iv.Version, "error", err)
		return
	}
	if rel, err := filepath.Rel(iv.Dir, out); err != nil || strings.HasPrefix(rel, "..") {
		o.lg().Warn("agda reports a data directory outside its install", "version", iv.Version, "dir", out)
		return
	}
	o.lg().Debug("agda data directory", "version", iv.Version, "dir", out)
}

func (o *Orchestrator) runHook(ctx context.Context, t hooks.HookType, iv state.InstalledVersion) error {
	if o.HookManager == nil {
		return nil
	}
	hctx := hooks.HookContext{AgdaVersion: iv.Version, BinDir: iv.BinDir, DataDir: iv.DataDir}
	if err := o.HookManager.Execute(ctx, t, hctx); err != nil {
		return fmt.Errorf("%s hook: %w", t, err)
	}
	return nil
}

// Set makes v the active version and runs the post-set hook.
func (o *Orchestrator) Set(ctx context.Context, v string) (state.InstalledVersion, error) {
	if o.State == nil {
		return state.InstalledVersion{}, fmt.Errorf("state manager is not configured")
	}
	emit(o.Hooks, Event{Phase: PhaseActivating, ID: v})
	iv, err := o.State.Set(v)
	if err != nil {
		emit(o.Hooks, Event{Phase: PhaseError, ID: v, Msg: err.Error()})
		return state.InstalledVersion{}, err
	}
	if err := o.runHook(ctx, hooks.PostSet, iv); err != nil {
		return iv, err
	}
	return iv, nil
}

// InstallLibrary fetches d into the library tree under name and registers
// the library descriptor it contains. Installing the same version again
// replaces the earlier copy.
func (o *Orchestrator) InstallLibrary(ctx context.Context, name string, d dist.Distribution, opts LibraryOptions) (state.LibraryRegistration, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return state.LibraryRegistration{}, fmt.Errorf("library name %q: %w", name, errutils.ErrInvalidPath)
	}
	if o.State == nil || o.Fetcher == nil {
		return state.LibraryRegistration{}, fmt.Errorf("library install is not configured")
	}

	libVersion, err := o.State.NewLibraryVersion(d.Tag, opts.Ref)
	if err != nil {
		return state.LibraryRegistration{}, err
	}
	emit(o.Hooks, Event{Phase: PhaseDownloading, ID: name, Msg: d.String()})
	src, err := o.Fetcher.FetchDist(ctx, d)
	if err != nil {
		emit(o.Hooks, Event{Phase: PhaseError, ID: name, Msg: err.Error()})
		return state.LibraryRegistration{}, err
	}
	defer o.cleanup(src)

	dest := o.State.LibraryDir(name, libVersion)
	if !fsutil.IsWithin(filepath.Join(o.State.LibrariesDir(), name), dest) {
		return state.LibraryRegistration{}, fmt.Errorf("library %s %s resolves outside %s: %w",
			name, libVersion, o.State.LibrariesDir(), errutils.ErrInvalidPath)
	}
	emit(o.Hooks, Event{Phase: PhaseInstalling, ID: name, Msg: dest})
	if _, err := os.Lstat(dest); err == nil {
		logger.With(o.log, logger.Fields{"library": name}).Info("replacing installed library", "version", libVersion.String())
		if err := os.RemoveAll(dest); err != nil {
			return state.LibraryRegistration{}, fmt.Errorf("failed to replace %s: %w", dest, err)
		}
	}
	if err := fsutil.CopyDir(src, dest); err != nil {
		_ = os.RemoveAll(dest)
		return state.LibraryRegistration{}, fmt.Errorf("failed to copy library %s: %w", name, err)
	}

	descriptor, err := findDescriptor(dest, name)
	if err != nil {
		_ = os.RemoveAll(dest)
		return state.LibraryRegistration{}, err
	}
	reg, err := o.State.RegisterLibrary(descriptor, opts.MakeDefault)
	if err != nil {
		return state.LibraryRegistration{}, err
	}
	emit(o.Hooks, Event{Phase: PhaseDone, ID: name, Msg: reg.Path})
	return reg, nil
}

// findDescriptor returns <name>.agda-lib in dir, or the only descriptor
// there, or the first one by name.
func findDescriptor(dir, name string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+state.LibraryExt))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no %s file in %s: %w", state.LibraryExt, dir, errutils.ErrInvalidLibraryManifest)
	}
	preferred := filepath.Join(dir, name+state.LibraryExt)
	for _, m := range matches {
		if m == preferred {
			return m, nil
		}
	}
	sort.Strings(matches)
	return matches[0], nil
}
