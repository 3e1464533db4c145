package license

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cperrin88/agdaup/pkg/download"
	"github.com/cperrin88/agdaup/pkg/errutils"
	"github.com/cperrin88/agdaup/pkg/process"
	"github.com/cperrin88/agdaup/pkg/process/mocks"
)

func hackage(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/package/zlib/src/LICENSE":
			_, _ = w.Write([]byte("zlib license"))
		case "/package/rts/src/LICENSE":
			_, _ = w.Write([]byte("rts license"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

// report makes the runner behave like cabal-plan: it copies one license and
// prints stderr.
func report(runner *mocks.MockRunner, component, stderr string) *gomock.Call {
	return runner.EXPECT().Run(gomock.Any(), "cabal-plan", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, args []string, opts process.Options) (process.Result, error) {
			outDir := strings.TrimPrefix(args[1], "--licensedir=")
			if args[2] != component {
				return process.Result{}, &errutils.ProcessError{Command: "cabal-plan", ExitCode: 1}
			}
			dep := filepath.Join(outDir, "base-4.14.3.0")
			if err := os.MkdirAll(dep, 0o755); err != nil {
				return process.Result{}, err
			}
			if err := os.WriteFile(filepath.Join(dep, "LICENSE"), []byte("base"), 0o644); err != nil {
				return process.Result{}, err
			}
			return process.Result{Stderr: []byte(stderr)}, nil
		})
}

func newBundler(t *testing.T, runner process.Runner, server *httptest.Server) *Bundler {
	b := NewBundler(runner, download.NewManager(time.Second, "test", nil), nil)
	b.URLTemplate = server.URL + "/package/{name}/src/LICENSE"
	return b
}

func TestBundle_FallbackFetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)
	server := hackage(t)
	report(runner, "exe:agda", "WARNING: license files for zlib (global/GHC bundled) not copied\n")

	outDir := t.TempDir()
	m, err := newBundler(t, runner, server).Bundle(context.Background(), "exe:agda", "/src/Agda-2.6.4", outDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"base-4.14.3.0", "zlib"}, m.Names())

	content, err := os.ReadFile(m["zlib"])
	require.NoError(t, err)
	assert.Equal(t, "zlib license", string(content))
	assert.Equal(t, filepath.Join(outDir, "zlib", "LICENSE"), m["zlib"])
}

func TestBundle_FetchFailureIsReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)
	server := hackage(t)
	report(runner, "exe:agda", strings.Join([]string{
		"WARNING: license files for zlib (global/GHC bundled) not copied",
		"WARNING: license files for ghc-bignum (global/GHC bundled) not copied",
		"WARNING: license files for rts (global/GHC bundled) not copied",
	}, "\n"))

	m, err := newBundler(t, runner, server).Bundle(context.Background(), "exe:agda", "", t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, errutils.ErrLicenseFetchFailed)

	var fetchErr *errutils.LicenseFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "ghc-bignum", fetchErr.Dependency)
	assert.Equal(t, []string{"base-4.14.3.0", "rts", "zlib"}, m.Names())
}

func TestBundle_ReportFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)
	report(runner, "exe:agda", "")

	_, err := newBundler(t, runner, hackage(t)).Bundle(context.Background(), "lib:Agda", "", t.TempDir())
	require.ErrorIs(t, err, errutils.ErrProcessFailed)
}

func TestBundleAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)
	server := hackage(t)

	gomock.InOrder(
		report(runner, "exe:agda", "WARNING: license files for zlib (global/GHC bundled) not copied"),
		report(runner, "exe:agda-mode", "WARNING: license files for unknown-pkg (global/GHC bundled) not copied"),
	)

	_, err := newBundler(t, runner, server).BundleAll(context.Background(), []string{"exe:agda", "exe:agda-mode"}, "", t.TempDir())
	require.ErrorIs(t, err, errutils.ErrLicenseFetchFailed)
}

func TestWriteAndReadManifest(t *testing.T) {
	outDir := t.TempDir()
	m := Manifest{
		"zlib": filepath.Join(outDir, "zlib", "LICENSE"),
		"base": filepath.Join(outDir, "base-4.14.3.0", "LICENSE"),
	}
	path, err := WriteManifest(outDir, m)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "base: base-4.14.3.0/LICENSE\nzlib: zlib/LICENSE\n", string(content))

	back, err := ReadManifest(outDir)
	require.NoError(t, err)
	assert.Equal(t, m, back)
}

func TestFallbackURL(t *testing.T) {
	b := NewBundler(nil, nil, nil)
	assert.Equal(t, "https://hackage.haskell.org/package/zlib/src/LICENSE", b.FallbackURL("zlib"))
}
