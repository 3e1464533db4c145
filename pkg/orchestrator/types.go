//go:generate mockgen -destination=./mocks/orchestrator.go -package=mocks . CandidateResolver,SourceBuilder,PrebuiltInstaller

package orchestrator

import (
	"context"

	"github.com/cperrin88/agdaup/pkg/build"
	"github.com/cperrin88/agdaup/pkg/dist"
	"github.com/cperrin88/agdaup/pkg/state"
)

// CandidateResolver orders the distributions of a version.
type CandidateResolver interface {
	Resolve(version string) ([]dist.Distribution, error)
}

// SourceBuilder compiles an extracted source distribution into a stage.
type SourceBuilder interface {
	Build(ctx context.Context, version, srcDir string, stage *state.Staging, opts build.Options) error
}

// PrebuiltInstaller lays out an extracted prebuilt distribution in a stage.
type PrebuiltInstaller interface {
	Install(ctx context.Context, srcDir string, stage *state.Staging) error
}

// Event phases.
const (
	PhaseResolving   = "resolving"
	PhaseDownloading = "downloading"
	PhaseBuilding    = "building"
	PhaseInstalling  = "installing"
	PhaseRejected    = "rejected"
	PhaseSkipped     = "skipped"
	PhaseActivating  = "activating"
	PhaseDone        = "done"
	PhaseError       = "error"
)

// Event represents a simple progress notification.
type Event struct {
	Phase string
	ID    string // version or library name
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// InstallOptions control a toolchain install.
type InstallOptions struct {
	// SetActive points the active version at the install once it succeeded.
	SetActive bool
	// BundleLicenses collects dependency licenses during source builds.
	BundleLicenses bool
	// Force reinstalls a version that is already present.
	Force bool
}

// LibraryOptions control a library install.
type LibraryOptions struct {
	// MakeDefault also lists the library in the defaults registry.
	MakeDefault bool
	// Ref names the branch or commit of an untagged distribution.
	Ref string
}
