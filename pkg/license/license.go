// Package license collects the license files of everything linked into an
// Agda build. It drives cabal-plan's license report and fetches the
// licenses the report cannot copy, usually those of GHC's bundled packages,
// from Hackage.
package license

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/cperrin88/agdaup/internal/logger"
	"github.com/cperrin88/agdaup/pkg/download"
	"github.com/cperrin88/agdaup/pkg/errutils"
	"github.com/cperrin88/agdaup/pkg/fsutil"
	"github.com/cperrin88/agdaup/pkg/process"
)

const (
	// DefaultURLTemplate locates a package's license on Hackage. {name} is
	// replaced by the dependency name.
	DefaultURLTemplate = "https://hackage.haskell.org/package/{name}/src/LICENSE"
	// DefaultConcurrency bounds parallel fallback fetches.
	DefaultConcurrency = 4
	// ManifestFile is the name WriteManifest stores the manifest under.
	ManifestFile = "licenses.yaml"

	reportCommand = "cabal-plan"
	fallbackName  = "LICENSE"
)

// Manifest maps dependency names to license file paths.
type Manifest map[string]string

// Names returns the dependency names in order.
func (m Manifest) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bundler produces license manifests.
type Bundler struct {
	Runner      process.Runner
	Downloader  download.Manager
	URLTemplate string
	Concurrency int

	log *slog.Logger
}

// NewBundler returns a bundler using the Hackage URL template.
func NewBundler(runner process.Runner, dl download.Manager, log *slog.Logger) *Bundler {
	return &Bundler{
		Runner:      runner,
		Downloader:  dl,
		URLTemplate: DefaultURLTemplate,
		Concurrency: DefaultConcurrency,
		log:         logger.OrDiscard(log),
	}
}

// FallbackURL returns the license URL of dependency.
func (b *Bundler) FallbackURL(dependency string) string {
	tmpl := b.URLTemplate
	if tmpl == "" {
		tmpl = DefaultURLTemplate
	}
	return strings.ReplaceAll(tmpl, "{name}", url.PathEscape(dependency))
}

// Bundle runs the license report of component inside sourceDir, writing
// into outDir, and returns every license found. Licenses the report could
// not copy are fetched concurrently. Failed fetches leave their dependency
// out of the manifest and are returned joined as LicenseFetchErrors next to
// the partial manifest. A failing report aborts with no manifest.
func (b *Bundler) Bundle(ctx context.Context, component, sourceDir, outDir string) (Manifest, error) {
	outDir, err := filepath.Abs(outDir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", outDir, errutils.ErrInvalidPath)
	}
	if err := fsutil.EnsureDir(outDir); err != nil {
		return nil, fmt.Errorf("failed to create license directory: %w", err)
	}

	args := []string{"license-report", "--licensedir=" + outDir, component}
	res, err := b.Runner.Run(ctx, reportCommand, args, process.Options{Dir: sourceDir})
	if err != nil {
		return nil, fmt.Errorf("license report for %s: %w", component, err)
	}

	manifest, err := collect(outDir)
	if err != nil {
		return nil, err
	}

	missing, warnings := ParseDiagnostics(string(res.Stderr))
	for _, w := range warnings {
		b.log.Warn("license report", "component", component, "message", w)
	}

	fetched, fetchErr := b.fetchMissing(ctx, outDir, missing)
	for name, path := range fetched {
		manifest[name] = path
	}
	b.log.Info("bundled licenses", "component", component, "count", len(manifest), "fetched", len(fetched))
	return manifest, fetchErr
}

// BundleAll bundles each component in turn into the same outDir. Later
// components win on duplicate names. Fetch failures are collected across
// components; any other failure stops at that component.
func (b *Bundler) BundleAll(ctx context.Context, components []string, sourceDir, outDir string) (Manifest, error) {
	merged := Manifest{}
	var fetchErrs []error
	for _, component := range components {
		m, err := b.Bundle(ctx, component, sourceDir, outDir)
		if err != nil && !errors.Is(err, errutils.ErrLicenseFetchFailed) {
			return nil, err
		}
		if err != nil {
			fetchErrs = append(fetchErrs, err)
		}
		for name, path := range m {
			merged[name] = path
		}
	}
	return merged, errors.Join(fetchErrs...)
}

// collect maps each <outDir>/<dependency> directory to its first file.
func collect(outDir string) (Manifest, error) {
	manifest := Manifest{}
	deps, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read license directory: %w", err)
	}
	for _, dep := range deps {
		if !dep.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(outDir, dep.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read license directory: %w", err)
		}
		for _, f := range files {
			if f.Type().IsRegular() {
				manifest[dep.Name()] = filepath.Join(outDir, dep.Name(), f.Name())
				break
			}
		}
	}
	return manifest, nil
}

func (b *Bundler) fetchMissing(ctx context.Context, outDir string, missing []Missing) (Manifest, error) {
	var (
		mu      sync.Mutex
		fetched = Manifest{}
		errs    []error
	)

	limit := b.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	var g errgroup.Group
	g.SetLimit(limit)

	for _, m := range missing {
		g.Go(func() error {
			raw := b.FallbackURL(m.Dependency)
			b.log.Debug("fetching license", "dependency", m.Dependency, "reason", m.Reason, "url", raw)
			path, err := b.fetch(ctx, outDir, m.Dependency, raw)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				b.log.Warn("license fetch failed", "dependency", m.Dependency, "url", raw, "error", err)
				errs = append(errs, &errutils.LicenseFetchError{Dependency: m.Dependency, URL: raw, Cause: err})
				return nil
			}
			fetched[m.Dependency] = path
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(errs, func(i, j int) bool {
		return errs[i].(*errutils.LicenseFetchError).Dependency < errs[j].(*errutils.LicenseFetchError).Dependency
	})
	return fetched, errors.Join(errs...)
}

func (b *Bundler) fetch(ctx context.Context, outDir, dependency, raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	item := download.Item{ID: "license:" + dependency, URL: u, Filename: fallbackName}
	return b.Downloader.Fetch(ctx, item, download.Options{Dir: filepath.Join(outDir, dependency), NoCache: true})
}

// WriteManifest stores m as YAML in outDir, with paths relative to outDir.
func WriteManifest(outDir string, m Manifest) (string, error) {
	rel := make(map[string]string, len(m))
	for name, path := range m {
		r, err := filepath.Rel(outDir, path)
		if err != nil {
			r = path
		}
		rel[name] = filepath.ToSlash(r)
	}
	data, err := yaml.Marshal(rel)
	if err != nil {
		return "", err
	}
	path := filepath.Join(outDir, ManifestFile)
	if err := fsutil.EnsureDir(outDir); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, fsutil.FileModeDefault); err != nil {
		return "", fmt.Errorf("failed to write license manifest: %w", err)
	}
	return path, nil
}

// ReadManifest loads a manifest written by WriteManifest, with absolute paths.
func ReadManifest(outDir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(outDir, ManifestFile))
	if err != nil {
		return nil, err
	}
	var rel map[string]string
	if err := yaml.Unmarshal(data, &rel); err != nil {
		return nil, fmt.Errorf("failed to parse license manifest: %w", err)
	}
	m := make(Manifest, len(rel))
	for name, path := range rel {
		m[name] = filepath.Join(outDir, filepath.FromSlash(path))
	}
	return m, nil
}
