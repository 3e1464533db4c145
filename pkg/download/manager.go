package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cperrin88/agdaup/internal/logger"
	"github.com/cperrin88/agdaup/pkg/errutils"
	"github.com/cperrin88/agdaup/pkg/fsutil"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "agdaup/1.0"

// RequestAuthenticator adds credentials to an outgoing request.
// auth.Authenticator and auth.Hosts implement it.
type RequestAuthenticator interface {
	Apply(req *http.Request) error
}

// ManagerImpl is an HTTP download manager with optional checksum
// verification and a per-URL file cache.
type ManagerImpl struct {
	// Auth, when set, is applied to every request.
	Auth RequestAuthenticator

	client    *http.Client
	userAgent string
	log       *slog.Logger
}

// NewManager creates a new download manager with the given timeout and user agent.
func NewManager(timeout time.Duration, userAgent string, log *slog.Logger) *ManagerImpl {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &ManagerImpl{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		log:       logger.OrDiscard(log),
	}
}

// Fetch downloads a single item and returns the path to the downloaded file.
func (m *ManagerImpl) Fetch(ctx context.Context, item Item, opts Options) (string, error) {
	if item.URL == nil {
		return "", fmt.Errorf("nil URL: %w", errutils.ErrDownloadFailed)
	}
	switch item.URL.Scheme {
	case "file", "":
		return localPath(item)
	}
	if opts.Dir == "" || !filepath.IsAbs(opts.Dir) {
		return "", fmt.Errorf("download dir must be absolute: %s: %w", opts.Dir, errutils.ErrInvalidPath)
	}
	if err := fsutil.EnsureDir(opts.Dir); err != nil {
		return "", errutils.Wrap(err, "could not create download dir")
	}
	return m.fetchOne(ctx, item, opts)
}

func localPath(item Item) (string, error) {
	p := filepath.FromSlash(item.URL.Path)
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("%s: %w: %w", p, errutils.ErrDownloadFailed, err)
	}
	return filepath.Abs(p)
}

func (m *ManagerImpl) fetchOne(ctx context.Context, item Item, opts Options) (string, error) {
	filename := selectFilename(item)
	absPath := filepath.Join(opts.Dir, filename)
	if !opts.NoCache {
		if reuse, ok := tryReuseExisting(absPath, item.Checksum); ok {
			m.log.Debug("using cached download", "id", item.ID, "path", reuse)
			return reuse, nil
		}
	}

	m.log.Info("downloading", "id", item.ID, "url", item.URL.String())
	resp, err := m.doRequest(ctx, item)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	tmpPath, err := writeBodyToTemp(resp, absPath)
	if err != nil {
		return "", classify(ctx, err)
	}
	if item.Checksum != "" {
		ok, err := verifySHA256(tmpPath, item.Checksum)
		if err != nil {
			_ = os.Remove(tmpPath)
			return "", err
		}
		if !ok {
			_ = os.Remove(tmpPath)
			return "", fmt.Errorf("checksum mismatch for %s: %w", item.URL, errutils.ErrDownloadFailed)
		}
	}
	if err := finalizeFile(tmpPath, absPath); err != nil {
		return "", err
	}
	return absPath, nil
}

// selectFilename keeps the extension of the URL path so archive formats can
// be recognized by name.
func selectFilename(item Item) string {
	if item.Filename != "" {
		return item.Filename
	}
	h := sha256.Sum256([]byte(item.URL.String()))
	name := hex.EncodeToString(h[:])
	if item.Checksum != "" {
		name = normalizeHex(item.Checksum)
	}
	base := path.Base(item.URL.Path)
	for _, ext := range []string{".tar.gz", ".tar.xz", ".tar.bz2", ".tar.zst", ".tgz", ".zip", ".tar"} {
		if strings.HasSuffix(strings.ToLower(base), ext) {
			return name + ext
		}
	}
	return name
}

func tryReuseExisting(absPath, checksum string) (string, bool) {
	if st, err := os.Stat(absPath); err == nil && st.Size() > 0 {
		if checksum == "" {
			return absPath, true
		}
		ok, err := verifySHA256(absPath, checksum)
		if err == nil && ok {
			return absPath, true
		}
	}
	return "", false
}

func (m *ManagerImpl) doRequest(ctx context.Context, item Item) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL.String(), http.NoBody)
	if err != nil {
		return nil, errutils.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", m.userAgent)
	if m.Auth != nil {
		if err := m.Auth.Apply(req); err != nil {
			return nil, fmt.Errorf("%s: failed to authenticate request: %w", item.URL, err)
		}
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("%s: %w: %w", item.URL, errutils.ErrDownloadFailed, err))
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%s: unexpected status code: %d: %w", item.URL, resp.StatusCode, errutils.ErrDownloadFailed)
	}
	return resp, nil
}

// classify marks expired deadlines and client timeouts with ErrTimeout.
func classify(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", errutils.ErrTimeout, err)
	}
	return err
}

func writeBodyToTemp(resp *http.Response, absPath string) (string, error) {
	if err := fsutil.EnsureFileDir(absPath); err != nil {
		return "", errutils.Wrap(err, "could not create download dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(absPath), "dl-*.tmp")
	if err != nil {
		return "", errutils.Wrap(err, "could not create temp file")
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", errutils.Wrap(err, "could not write file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", errutils.Wrap(err, "could not sync file")
	}
	if err := tmp.Close(); err != nil {
		return "", errutils.Wrap(err, "could not close file")
	}
	return tmpPath, nil
}

func finalizeFile(tmpPath, absPath string) error {
	if err := fsutil.Move(tmpPath, absPath); err != nil {
		return errutils.Wrap(err, "could not finalize file")
	}
	if err := os.Chmod(absPath, fsutil.FileModeSecure); err != nil {
		return errutils.Wrap(err, "could not set permissions")
	}
	return nil
}

func verifySHA256(path string, wantHex string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, errutils.Wrap(err, "open for checksum")
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, errutils.Wrap(err, "hashing")
	}
	got := hex.EncodeToString(h.Sum(nil))
	return got == normalizeHex(wantHex), nil
}

func normalizeHex(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
