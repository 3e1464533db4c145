package dist

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cperrin88/agdaup/internal/logger"
	"github.com/cperrin88/agdaup/pkg/data"
	"github.com/cperrin88/agdaup/pkg/errutils"
	"github.com/cperrin88/agdaup/pkg/platform"
	"github.com/cperrin88/agdaup/pkg/state"
	"github.com/cperrin88/agdaup/pkg/version"
)

// HackageURL is the base URL of source distributions.
const HackageURL = "https://hackage.haskell.org/package"

// Resolver orders the candidate distributions of a version.
type Resolver struct {
	Index    data.Index
	Platform platform.Platform
	Package  string // index key prefix, defaults to "agda"
	// NoSource drops the source build fallback.
	NoSource bool
}

// NewResolver returns a resolver over idx for the given platform.
func NewResolver(idx data.Index, p platform.Platform) *Resolver {
	return &Resolver{Index: idx, Platform: p, Package: "agda"}
}

// Resolve returns the prebuilt distribution for the host, when the index has
// one, followed by the Hackage source distribution.
func (r *Resolver) Resolve(v string) ([]Distribution, error) {
	if _, err := version.Parse(v); err != nil {
		return nil, err
	}
	var out []Distribution
	key := data.Key(r.pkg(), v, r.Platform.Arch, r.Platform.OS)
	if u, ok := r.Index.Lookup(key); ok {
		out = append(out, Distribution{URL: u, Kind: KindPrebuilt})
	}
	if !r.NoSource {
		out = append(out, SourceDistribution(v))
	}
	return out, nil
}

func (r *Resolver) pkg() string {
	if r.Package == "" {
		return "agda"
	}
	return r.Package
}

// SourceDistribution returns the Hackage tarball of Agda v.
func SourceDistribution(v string) Distribution {
	return Distribution{
		URL:  fmt.Sprintf("%s/Agda-%s/Agda-%s.tar.gz", HackageURL, v, v),
		Dir:  "Agda-" + v,
		Tag:  "v" + v,
		Kind: KindSource,
	}
}

// Attempt installs a single distribution.
type Attempt func(ctx context.Context, d Distribution) (state.InstalledVersion, error)

// Install tries candidates strictly one after another and returns the first
// success. Every failure is recorded as a rejection of its distribution; when
// none is left the aggregate error lists them in attempt order. A cancelled
// ctx ends the loop early.
func Install(ctx context.Context, log *slog.Logger, v string, candidates []Distribution, attempt Attempt) (state.InstalledVersion, error) {
	log = logger.OrDiscard(log)
	causes := make([]error, 0, len(candidates))
	for i, d := range candidates {
		if err := ctx.Err(); err != nil {
			return state.InstalledVersion{}, fmt.Errorf("install agda %s: %w", v, err)
		}
		log.Debug("trying distribution", "version", v, "dist", d.String(), "attempt", i+1, "of", len(candidates))
		installed, err := attempt(ctx, d)
		if err == nil {
			return installed, nil
		}
		rejected := errutils.RejectDist(v, d.String(), err)
		log.Warn("distribution rejected", "version", v, "dist", d.String(), "error", err)
		causes = append(causes, rejected)
	}
	return state.InstalledVersion{}, &errutils.RejectedAllDistsError{Version: v, Causes: causes}
}
