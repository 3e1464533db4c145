package download

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/cperrin88/agdaup/internal/logger"
	"github.com/cperrin88/agdaup/pkg/archive"
	"github.com/cperrin88/agdaup/pkg/dist"
	"github.com/cperrin88/agdaup/pkg/fsutil"
)

// DistFetcher downloads a distribution archive into the cache and extracts
// it into a fresh directory under WorkDir.
type DistFetcher struct {
	Manager  Manager
	Archives *archive.Manager
	// CacheDir holds downloaded archives.
	CacheDir string
	// WorkDir holds extraction directories. Empty means os.TempDir.
	WorkDir string
	NoCache bool

	log *slog.Logger
}

// NewDistFetcher wires m and an archive manager into a dist.Fetcher.
func NewDistFetcher(m Manager, cacheDir, workDir string, log *slog.Logger) *DistFetcher {
	return &DistFetcher{
		Manager:  m,
		Archives: archive.NewManager(),
		CacheDir: cacheDir,
		WorkDir:  workDir,
		log:      logger.OrDiscard(log),
	}
}

var _ dist.Fetcher = (*DistFetcher)(nil)

// FetchDist returns the directory holding the contents of d: the archive
// root, narrowed to d.Dir when set. Local directories are used in place.
func (f *DistFetcher) FetchDist(ctx context.Context, d dist.Distribution) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	u, err := url.Parse(d.URL)
	if err != nil {
		return "", err
	}

	file, err := f.Manager.Fetch(ctx, Item{ID: d.String(), URL: u}, Options{Dir: f.CacheDir, NoCache: f.NoCache})
	if err != nil {
		return "", err
	}
	if fsutil.IsDir(file) {
		return archive.Root(file, d.Dir)
	}

	if f.WorkDir != "" {
		if err := fsutil.EnsureDir(f.WorkDir); err != nil {
			return "", err
		}
	}
	dest, err := os.MkdirTemp(f.WorkDir, "agdaup-dist-")
	if err != nil {
		return "", fmt.Errorf("failed to create extraction directory: %w", err)
	}
	f.log.Debug("extracting distribution", "dist", d.String(), "archive", file, "dest", dest)
	if err := f.Archives.ExtractAll(ctx, file, dest); err != nil {
		_ = os.RemoveAll(dest)
		return "", err
	}
	root, err := archive.Root(dest, d.Dir)
	if err != nil {
		_ = os.RemoveAll(dest)
		return "", err
	}
	return root, nil
}
