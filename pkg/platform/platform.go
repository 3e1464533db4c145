// Package platform names the host operating system and architecture the way
// prebuilt Agda distributions are keyed.
package platform

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
)

// Platform is a target operating system and architecture.
type Platform struct {
	OS   string `yaml:"os" json:"os"`
	Arch string `yaml:"arch" json:"arch"`
}

// CurrentPlatform returns the normalized host platform.
func CurrentPlatform() Platform {
	return Platform{
		OS:   NormalizeOS(runtime.GOOS),
		Arch: NormalizeArch(runtime.GOARCH),
	}
}

// Override returns p with any non-empty field of o applied after normalization.
func (p Platform) Override(o Platform) Platform {
	if o.OS != "" {
		p.OS = NormalizeOS(o.OS)
	}
	if o.Arch != "" {
		p.Arch = NormalizeArch(o.Arch)
	}
	return p
}

// Validate reports whether both fields name a supported value.
func (p Platform) Validate() error {
	if !slices.Contains(ValidOS(), p.OS) {
		return fmt.Errorf("unsupported OS %q, valid values are: %v", p.OS, ValidOS())
	}
	if !slices.Contains(ValidArch(), p.Arch) {
		return fmt.Errorf("unsupported architecture %q, valid values are: %v", p.Arch, ValidArch())
	}
	return nil
}

// IsMacOS reports whether binaries use Mach-O install names.
func (p Platform) IsMacOS() bool { return p.OS == OSMacOS }

// IsLinux reports whether binaries are ELF.
func (p Platform) IsLinux() bool { return p.OS == OSLinux }

// IsWindows reports whether binaries are PE.
func (p Platform) IsWindows() bool { return p.OS == OSWindows }

// ExeName appends ".exe" on Windows.
func (p Platform) ExeName(base string) string {
	if p.IsWindows() && !strings.HasSuffix(base, ".exe") {
		return base + ".exe"
	}
	return base
}

// String returns "os/arch".
func (p Platform) String() string {
	return fmt.Sprintf("%s/%s", p.OS, p.Arch)
}

// NormalizeOS maps Go and uname spellings onto the index names.
func NormalizeOS(os string) string {
	os = strings.ToLower(strings.TrimSpace(os))
	switch os {
	case "darwin", "macos", "osx":
		return OSMacOS
	case "win", "win32", "windows":
		return OSWindows
	default:
		return os
	}
}

// NormalizeArch maps Go and uname spellings onto the index names.
func NormalizeArch(arch string) string {
	arch = strings.ToLower(strings.TrimSpace(arch))
	switch arch {
	case "amd64", "x86_64", "x64":
		return ArchX64
	case "arm64", "aarch64":
		return ArchARM64
	case "386", "i386", "i686", "x86":
		return ArchX86
	default:
		return arch
	}
}
